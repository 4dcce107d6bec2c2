package dto

import (
	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/email"
	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/entity"
)

type InvalidEmail struct {
	ID                uint64         `json:"id"`
	Name              string         `json:"name"`
	Email             string         `json:"email"`
	Table             entity.Table   `json:"table"`
	Errors            []email.Issue  `json:"errors"`
	LooselyValid      bool           `json:"looselyValid"`
	SuggestedEmail    string         `json:"suggestedEmail,omitempty"`
	SuggestionTakenIn []entity.Table `json:"suggestionTakenIn,omitempty"`
}

type InvalidEmailList struct {
	InvalidEmails []InvalidEmail `json:"invalidEmails"`
	Count         int            `json:"count"`
}

type FixEmailResult struct {
	Message  string       `json:"message"`
	UserID   uint64       `json:"userId"`
	NewEmail string       `json:"newEmail"`
	Table    entity.Table `json:"table"`
}

// TablePresence reports which identity tables hold a given email.
type TablePresence struct {
	Users bool `json:"users"`
	Staff bool `json:"staff"`
	Admin bool `json:"admin"`
}

func (p TablePresence) Has(table entity.Table) bool {
	switch table {
	case entity.TableUsers:
		return p.Users
	case entity.TableStaff:
		return p.Staff
	case entity.TableAdmin:
		return p.Admin
	}
	return false
}

// Among returns the subset of tables that hold the email, preserving order.
func (p TablePresence) Among(tables []entity.Table) []entity.Table {
	var found []entity.Table
	for _, t := range tables {
		if p.Has(t) {
			found = append(found, t)
		}
	}
	return found
}
