package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/entity"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidToken   = errors.New("invalid or expired token")
	ErrEmailTaken     = errors.New("email already in use")
	ErrRecordNotFound = errors.New("record not found")
)

// ConflictError is returned when an interactive fix would duplicate an email.
// CrossTable is false when the collision is inside the target table itself.
type ConflictError struct {
	Table      entity.Table
	CrossTable bool
	Tables     []entity.Table
}

func (e *ConflictError) Error() string {
	if !e.CrossTable {
		return fmt.Sprintf("email already exists in %s", e.Table)
	}
	names := make([]string, len(e.Tables))
	for i, t := range e.Tables {
		names[i] = string(t)
	}
	return "email already exists in " + strings.Join(names, ", ")
}

func (e *ConflictError) Unwrap() error {
	return ErrEmailTaken
}
