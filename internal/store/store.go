// Package store is the data-access layer. Every mutation of medicines or batches runs in a
// short transaction that also appends the matching activity_log row and, for batches, the
// expired_items row when the resulting expiry date is on or before today.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"

	// DefaultSoonDays is the inclusive window for "expiring soon".
	DefaultSoonDays = 30
	// DefaultLogLimit is the number of activity rows shown when no limit is given.
	DefaultLogLimit = 200
	// MaxWindowDays bounds expiry windows so the end date stays within SQLite's date range.
	MaxWindowDays = 36500
	// NoLimit lists every activity row.
	NoLimit = -1
)

// ErrNotFound is returned by mutations whose target row does not exist.
var ErrNotFound = errors.New("not found")

// Observer is notified after a write transaction commits.
type Observer interface {
	Audited(action, table string)
	ExpiryFlagged(batchID int64)
}

type Store struct {
	db       *sqlx.DB
	now      func() time.Time
	loc      *time.Location
	observer Observer
}

type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLocation sets the timezone that decides which calendar day "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// New wraps an open database handle.
func New(db *sqlx.DB, opts ...Option) *Store {
	s := &Store{db: db, now: time.Now, loc: time.UTC}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns midnight of the current day in the store's location.
func (s *Store) Today() time.Time {
	n := s.now().In(s.loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, s.loc)
}

func (s *Store) today() string {
	return s.Today().Format(dateLayout)
}

// window clamps an expiry window to [0, MaxWindowDays]; negative means DefaultSoonDays.
func window(days int) int {
	switch {
	case days < 0:
		return DefaultSoonDays
	case days > MaxWindowDays:
		return MaxWindowDays
	}
	return days
}

func (s *Store) daysFromToday(days int) string {
	return s.Today().AddDate(0, 0, days).Format(dateLayout)
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(timestampLayout)
}

type auditEvent struct {
	action string
	table  string
}

// effects collects what a transaction wrote besides its main statement.
type effects struct {
	audits  []auditEvent
	flagged []int64
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx, fx *effects) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	fx := &effects{}
	if err := fn(tx, fx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	if s.observer != nil {
		for _, a := range fx.audits {
			s.observer.Audited(a.action, a.table)
		}
		for _, id := range fx.flagged {
			s.observer.ExpiryFlagged(id)
		}
	}
	return nil
}

func (s *Store) audit(ctx context.Context, tx *sqlx.Tx, fx *effects, action, table string, recordID int64, details string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO activity_log (action, table_name, record_id, details, timestamp) VALUES (?, ?, ?, ?, ?)`,
		action, table, recordID, details, s.timestamp())
	if err != nil {
		return fmt.Errorf("append activity log: %w", err)
	}
	fx.audits = append(fx.audits, auditEvent{action: action, table: table})
	return nil
}

// flagIfExpired appends an expired_items row when the batch's expiry date is on or before
// today. It runs on every qualifying write; earlier rows for the same batch are not checked.
func (s *Store) flagIfExpired(ctx context.Context, tx *sqlx.Tx, fx *effects, batchID int64) error {
	today := s.today()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO expired_items (batch_id, expired_on)
		 SELECT id, ? FROM batches WHERE id = ? AND DATE(expiry_date) <= DATE(?)`,
		today, batchID, today)
	if err != nil {
		return fmt.Errorf("flag expired batch: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		fx.flagged = append(fx.flagged, batchID)
	}
	return nil
}

func affected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func textOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
