package service

import (
	"context"

	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/dto"
	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/entity"
)

type emailLookup interface {
	EmailExists(ctx context.Context, table entity.Table, email string) (bool, error)
	EmailExistsExcept(ctx context.Context, table entity.Table, email string, excludeID uint64) (bool, error)
}

// UniquenessChecker answers whether a candidate email is already held by
// another identity. Answers are point-in-time: nothing is locked between the
// check and a later write.
type UniquenessChecker struct {
	lookup emailLookup
}

func NewUniquenessChecker(lookup emailLookup) *UniquenessChecker {
	return &UniquenessChecker{lookup: lookup}
}

// ExistsElsewhere reports whether a row of table other than excludeID holds
// candidate. An excludeID of zero excludes nothing.
func (c *UniquenessChecker) ExistsElsewhere(ctx context.Context, table entity.Table, candidate string, excludeID uint64) (bool, error) {
	if excludeID == 0 {
		return c.lookup.EmailExists(ctx, table, candidate)
	}
	return c.lookup.EmailExistsExcept(ctx, table, candidate, excludeID)
}

func (c *UniquenessChecker) ExistsInAnyTable(ctx context.Context, candidate string) (dto.TablePresence, error) {
	var presence dto.TablePresence
	found, err := c.ExistsInTables(ctx, candidate, entity.Tables)
	if err != nil {
		return presence, err
	}
	for _, t := range found {
		switch t {
		case entity.TableUsers:
			presence.Users = true
		case entity.TableStaff:
			presence.Staff = true
		case entity.TableAdmin:
			presence.Admin = true
		}
	}
	return presence, nil
}

// ExistsInTables returns the subset of tables holding candidate, in the order given.
func (c *UniquenessChecker) ExistsInTables(ctx context.Context, candidate string, tables []entity.Table) ([]entity.Table, error) {
	var found []entity.Table
	for _, t := range tables {
		exists, err := c.lookup.EmailExists(ctx, t, candidate)
		if err != nil {
			return nil, err
		}
		if exists {
			found = append(found, t)
		}
	}
	return found, nil
}
