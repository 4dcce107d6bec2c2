package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the payload of the session token issued by the library
// web application.
type SessionClaims struct {
	UserID uint64 `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// SessionService verifies session tokens. It never issues them.
type SessionService struct {
	secret    []byte
	adminRole string
}

func NewSessionService(secret, adminRole string) *SessionService {
	return &SessionService{secret: []byte(secret), adminRole: adminRole}
}

func (s *SessionService) ValidateSessionToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Authorize returns the claims of a valid admin session and ErrUnauthorized
// for anything else.
func (s *SessionService) Authorize(tokenString string) (*SessionClaims, error) {
	if tokenString == "" {
		return nil, ErrUnauthorized
	}
	claims, err := s.ValidateSessionToken(tokenString)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if !s.IsAdmin(claims) {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

func (s *SessionService) IsAdmin(claims *SessionClaims) bool {
	return claims != nil && claims.Role == s.adminRole
}
