package service

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/dto"
	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/email"
	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/entity"
	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/types"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// IdentityStore is the persistence the hygiene service needs. It is
// implemented by repository.IdentityRepository.
type IdentityStore interface {
	ListAll(ctx context.Context, table entity.Table) ([]*entity.Identity, error)
	UpdateEmail(ctx context.Context, table entity.Table, id uint64, email string) (int64, error)
	EmailExists(ctx context.Context, table entity.Table, email string) (bool, error)
	EmailExistsExcept(ctx context.Context, table entity.Table, email string, excludeID uint64) (bool, error)
}

type Options struct {
	// CrossTableGuard makes the batch pass also reject a normalized email
	// that another identity table already holds. Interactive fixes always
	// check every table.
	CrossTableGuard bool
	// IsolateRowFailures records an unexpected error on one row as a failed
	// outcome and moves on. Connectivity failures always abort the pass.
	IsolateRowFailures bool
}

type EmailHygieneService struct {
	store   IdentityStore
	checker *UniquenessChecker
	opts    Options
	now     func() time.Time
}

func NewEmailHygieneService(store IdentityStore, opts Options) *EmailHygieneService {
	return &EmailHygieneService{
		store:   store,
		checker: NewUniquenessChecker(store),
		opts:    opts,
		now:     time.Now,
	}
}

// Reconcile runs one pass over users, staff and admin, in that order, and
// returns the report. A non-nil error means the pass was aborted.
func (s *EmailHygieneService) Reconcile(ctx context.Context) (*dto.Report, error) {
	report := dto.NewReport(uuid.NewString(), s.now())
	log := logrus.WithField("run_id", report.RunID)
	log.Info("Starting email reconciliation")

	for _, table := range entity.Tables {
		rows, err := s.store.ListAll(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", table, err)
		}
		log.WithFields(logrus.Fields{"table": table, "rows": len(rows)}).Debug("Checking identity table")

		for _, row := range rows {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			outcome, ok, err := s.reconcileRow(ctx, table, row)
			if err != nil {
				if !s.opts.IsolateRowFailures || ctx.Err() != nil || isConnectivityError(err) {
					return nil, fmt.Errorf("reconcile %s row %d: %w", table, row.ID, err)
				}
				log.WithError(err).WithFields(logrus.Fields{"table": table, "id": row.ID}).Error("Row reconciliation failed")
				outcome, ok = newOutcome(dto.OutcomeFailed, table, row), true
				outcome.Reason = dto.ReasonUnexpectedError
			}
			if !ok {
				continue
			}

			report.Add(outcome)
			logOutcome(log, outcome)
		}
	}

	report.FinishedAt = s.now()
	log.WithFields(logrus.Fields{
		"fixed":   len(report.Fixed),
		"invalid": len(report.Invalid),
		"skipped": len(report.Skipped),
		"failed":  len(report.Failed),
	}).Info("Email reconciliation finished")

	return report, nil
}

// reconcileRow classifies one row. ok is false for rows that are already valid
// and need no outcome.
func (s *EmailHygieneService) reconcileRow(ctx context.Context, table entity.Table, row *entity.Identity) (dto.Outcome, bool, error) {
	if !row.Email.Valid || email.IsBlank(row.Email.String) {
		outcome := newOutcome(dto.OutcomeSkipped, table, row)
		outcome.Reason = dto.ReasonEmpty
		return outcome, true, nil
	}

	stored := row.Email.String
	issues := email.Validate(stored)
	if len(issues) == 0 {
		return dto.Outcome{}, false, nil
	}

	candidate := email.Normalize(stored)
	if candidate == stored || !email.IsStrictlyValid(candidate) {
		outcome := newOutcome(dto.OutcomeInvalid, table, row)
		outcome.Errors = issues
		return outcome, true, nil
	}

	taken, err := s.checker.ExistsElsewhere(ctx, table, candidate, row.ID)
	if err != nil {
		return dto.Outcome{}, false, err
	}
	if taken {
		outcome := newOutcome(dto.OutcomeInvalid, table, row)
		outcome.Reason = dto.ReasonFixedEmailExists
		outcome.Errors = issues
		return outcome, true, nil
	}

	if s.opts.CrossTableGuard {
		others, err := s.checker.ExistsInTables(ctx, candidate, table.Others())
		if err != nil {
			return dto.Outcome{}, false, err
		}
		if len(others) > 0 {
			outcome := newOutcome(dto.OutcomeInvalid, table, row)
			outcome.Reason = dto.ReasonFixedEmailElsewhere
			outcome.Errors = issues
			return outcome, true, nil
		}
	}

	affected, err := s.store.UpdateEmail(ctx, table, row.ID, candidate)
	if err != nil {
		return dto.Outcome{}, false, err
	}
	if affected == 0 {
		outcome := newOutcome(dto.OutcomeSkipped, table, row)
		outcome.Reason = dto.ReasonRowGone
		return outcome, true, nil
	}

	outcome := newOutcome(dto.OutcomeFixed, table, row)
	outcome.Old = stored
	outcome.New = candidate
	return outcome, true, nil
}

// ListInvalidEmails is read-only. Rows with a NULL or empty email are left
// out; whitespace-only emails are reported.
func (s *EmailHygieneService) ListInvalidEmails(ctx context.Context) (*dto.InvalidEmailList, error) {
	list := &dto.InvalidEmailList{InvalidEmails: []dto.InvalidEmail{}}

	for _, table := range entity.Tables {
		rows, err := s.store.ListAll(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", table, err)
		}

		for _, row := range rows {
			if !row.Email.Valid || row.Email.String == "" {
				continue
			}
			stored := row.Email.String
			issues := email.Validate(stored)
			if len(issues) == 0 {
				continue
			}

			entry := dto.InvalidEmail{
				ID:           row.ID,
				Name:         row.Name,
				Email:        stored,
				Table:        table,
				Errors:       issues,
				LooselyValid: email.IsLooselyValid(stored),
			}

			if candidate := email.Normalize(stored); candidate != stored && email.IsStrictlyValid(candidate) {
				entry.SuggestedEmail = candidate
				entry.SuggestionTakenIn, err = s.suggestionConflicts(ctx, table, row.ID, candidate)
				if err != nil {
					return nil, err
				}
			}

			list.InvalidEmails = append(list.InvalidEmails, entry)
		}
	}

	list.Count = len(list.InvalidEmails)
	return list, nil
}

func (s *EmailHygieneService) suggestionConflicts(ctx context.Context, table entity.Table, id uint64, candidate string) ([]entity.Table, error) {
	var taken []entity.Table
	for _, t := range entity.Tables {
		var (
			exists bool
			err    error
		)
		if t == table {
			exists, err = s.checker.ExistsElsewhere(ctx, t, candidate, id)
		} else {
			exists, err = s.checker.ExistsElsewhere(ctx, t, candidate, 0)
		}
		if err != nil {
			return nil, err
		}
		if exists {
			taken = append(taken, t)
		}
	}
	return taken, nil
}

// FixEmail writes an operator-supplied email to one row. The caller must
// already be authorized. newEmail is written verbatim once it passes the
// strict grammar and is unique across all identity tables.
func (s *EmailHygieneService) FixEmail(ctx context.Context, req *types.FixEmailRequest) (*dto.FixEmailResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	table := req.TargetTable()
	id := uint64(req.UserID)

	taken, err := s.checker.ExistsElsewhere(ctx, table, req.NewEmail, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &ConflictError{Table: table}
	}

	presence, err := s.checker.ExistsInAnyTable(ctx, req.NewEmail)
	if err != nil {
		return nil, err
	}
	if others := presence.Among(table.Others()); len(others) > 0 {
		return nil, &ConflictError{Table: table, CrossTable: true, Tables: others}
	}

	affected, err := s.store.UpdateEmail(ctx, table, id, req.NewEmail)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrRecordNotFound
	}

	logrus.WithFields(logrus.Fields{"table": table, "id": id}).Info("Email updated by operator")

	return &dto.FixEmailResult{
		Message:  "Email updated successfully",
		UserID:   id,
		NewEmail: req.NewEmail,
		Table:    table,
	}, nil
}

func newOutcome(kind dto.OutcomeKind, table entity.Table, row *entity.Identity) dto.Outcome {
	outcome := dto.Outcome{Kind: kind, Table: table, ID: row.ID, Name: row.Name}
	if row.Email.Valid {
		stored := row.Email.String
		outcome.Email = &stored
	}
	return outcome
}

func logOutcome(log *logrus.Entry, o dto.Outcome) {
	entry := log.WithFields(logrus.Fields{"table": o.Table, "id": o.ID})
	switch o.Kind {
	case dto.OutcomeFixed:
		entry.WithFields(logrus.Fields{"old": o.Old, "new": o.New}).Info("Fixed email")
	case dto.OutcomeInvalid:
		entry.WithField("reason", o.Reason).Warn("Invalid email left unchanged")
	case dto.OutcomeSkipped:
		entry.WithField("reason", o.Reason).Debug("Skipped row")
	}
}

// isConnectivityError reports errors after which no later statement on the
// pool can be trusted to succeed.
func isConnectivityError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	var netErr *net.OpError
	return errors.As(err, &netErr)
}
