package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/entity"
)

var ErrUnknownTable = errors.New("unknown identity table")

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type identityQueries struct {
	listAll     string
	updateEmail string
	emailExists string
	emailExcept string
}

// Query text is fixed per table; the candidate email and ids are always bound
// as parameters.
var queriesByTable = map[entity.Table]identityQueries{
	entity.TableUsers: {
		listAll:     `SELECT id, email, name FROM users`,
		updateEmail: `UPDATE users SET email = ? WHERE id = ?`,
		emailExists: `SELECT id FROM users WHERE email = ? LIMIT 1`,
		emailExcept: `SELECT id FROM users WHERE email = ? AND id != ? LIMIT 1`,
	},
	entity.TableStaff: {
		listAll:     `SELECT id, email, name FROM staff`,
		updateEmail: `UPDATE staff SET email = ? WHERE id = ?`,
		emailExists: `SELECT id FROM staff WHERE email = ? LIMIT 1`,
		emailExcept: `SELECT id FROM staff WHERE email = ? AND id != ? LIMIT 1`,
	},
	entity.TableAdmin: {
		listAll:     `SELECT id, email, name FROM admin`,
		updateEmail: `UPDATE admin SET email = ? WHERE id = ?`,
		emailExists: `SELECT id FROM admin WHERE email = ? LIMIT 1`,
		emailExcept: `SELECT id FROM admin WHERE email = ? AND id != ? LIMIT 1`,
	},
}

type IdentityRepositoryOption func(*IdentityRepository)

// WithQueryTimeout bounds every statement. Zero leaves the caller's context untouched.
func WithQueryTimeout(timeout time.Duration) IdentityRepositoryOption {
	return func(r *IdentityRepository) {
		r.timeout = timeout
	}
}

type IdentityRepository struct {
	db      DBTX
	timeout time.Duration
}

func NewIdentityRepository(db DBTX, opts ...IdentityRepositoryOption) *IdentityRepository {
	r := &IdentityRepository{db: db}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *IdentityRepository) ListAll(ctx context.Context, table entity.Table) ([]*entity.Identity, error) {
	q, err := queriesFor(table)
	if err != nil {
		return nil, err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, q.listAll)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	identities := make([]*entity.Identity, 0)
	for rows.Next() {
		identity, err := scanIdentity(rows.Scan)
		if err != nil {
			return nil, err
		}
		identities = append(identities, identity)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return identities, nil
}

// UpdateEmail rewrites only the email column and returns the number of matched rows.
func (r *IdentityRepository) UpdateEmail(ctx context.Context, table entity.Table, id uint64, email string) (int64, error) {
	q, err := queriesFor(table)
	if err != nil {
		return 0, err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	result, err := r.db.ExecContext(ctx, q.updateEmail, email, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *IdentityRepository) EmailExists(ctx context.Context, table entity.Table, email string) (bool, error) {
	q, err := queriesFor(table)
	if err != nil {
		return false, err
	}
	return r.exists(ctx, q.emailExists, email)
}

// EmailExistsExcept reports whether a row other than excludeID holds email.
func (r *IdentityRepository) EmailExistsExcept(ctx context.Context, table entity.Table, email string, excludeID uint64) (bool, error) {
	q, err := queriesFor(table)
	if err != nil {
		return false, err
	}
	return r.exists(ctx, q.emailExcept, email, excludeID)
}

func (r *IdentityRepository) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var id uint64
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *IdentityRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

func queriesFor(table entity.Table) (identityQueries, error) {
	q, ok := queriesByTable[table]
	if !ok {
		return identityQueries{}, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	return q, nil
}

type rowScanner func(dest ...interface{}) error

func scanIdentity(scan rowScanner) (*entity.Identity, error) {
	identity := &entity.Identity{}
	var name sql.NullString
	if err := scan(&identity.ID, &identity.Email, &name); err != nil {
		return nil, err
	}
	identity.Name = name.String
	return identity, nil
}
