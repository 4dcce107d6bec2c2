package middleware

import (
	"net/http"
	"strings"

	httpdto "github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/dto/http"
	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	ContextUserID = "user_id"
	ContextEmail  = "user_email"
	ContextRole   = "user_role"
	ContextClaims = "session_claims"
)

type sessionValidator interface {
	ValidateSessionToken(tokenString string) (*service.SessionClaims, error)
	IsAdmin(claims *service.SessionClaims) bool
}

type AuthMiddleware struct {
	sessions sessionValidator
}

func NewAuthMiddleware(sessions sessionValidator) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// RequireAuth resolves the bearer session token and stores its claims on the
// context. Every failure answers with the same body.
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString, ok := BearerToken(c.Request().Header.Get("Authorization"))
		if !ok {
			logrus.Debug("Missing or malformed authorization header")
			return unauthorized(c)
		}

		claims, err := m.sessions.ValidateSessionToken(tokenString)
		if err != nil {
			logrus.Debug("Invalid or expired session token")
			return unauthorized(c)
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, claims.Role)
		c.Set(ContextClaims, claims)

		return next(c)
	}
}

// RequireAdmin must run after RequireAuth.
func (m *AuthMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, _ := c.Get(ContextClaims).(*service.SessionClaims)
		if !m.sessions.IsAdmin(claims) {
			logrus.WithField(ContextUserID, c.Get(ContextUserID)).Warn("Admin endpoint called without admin role")
			return unauthorized(c)
		}
		return next(c)
	}
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}
	return parts[1], true
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "unauthorized"})
}
