package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"medivault/m/domain"
)

// NewBatch is the input of a batch insert. Quantity defaults to zero.
type NewBatch struct {
	BatchNo    *string
	Quantity   int64
	ExpiryDate *string
}

const batchColumns = `b.id, b.medicine_id, m.name AS medicine_name, b.batch_no,
	COALESCE(b.quantity, 0) AS quantity, b.expiry_date, COALESCE(b.created_at, '') AS created_at`

func (s *Store) CreateBatch(ctx context.Context, medicineID int64, nb NewBatch) (int64, error) {
	var id int64
	err := s.withTx(ctx, func(tx *sqlx.Tx, fx *effects) error {
		var err error
		id, err = s.insertBatch(ctx, tx, fx, medicineID, nb)
		return err
	})
	return id, err
}

// CreateMedicineWithBatch inserts a medicine and, when initial is set, its first batch in a
// single transaction.
func (s *Store) CreateMedicineWithBatch(ctx context.Context, name string, categoryID *int64, description string, initial *NewBatch) (int64, error) {
	var id int64
	err := s.withTx(ctx, func(tx *sqlx.Tx, fx *effects) error {
		var err error
		if id, err = s.insertMedicine(ctx, tx, fx, name, categoryID, description); err != nil {
			return err
		}
		if initial != nil {
			if _, err := s.insertBatch(ctx, tx, fx, id, *initial); err != nil {
				return err
			}
		}
		return nil
	})
	return id, err
}

func (s *Store) insertBatch(ctx context.Context, tx *sqlx.Tx, fx *effects, medicineID int64, nb NewBatch) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO batches (medicine_id, batch_no, quantity, expiry_date, created_at) VALUES (?, ?, ?, ?, ?)`,
		medicineID, nb.BatchNo, nb.Quantity, nb.ExpiryDate, s.timestamp())
	if err != nil {
		return 0, fmt.Errorf("create batch for medicine %d: %w", medicineID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("batch id: %w", err)
	}
	if err := s.audit(ctx, tx, fx, domain.ActionInsert, domain.TableBatches, id, textOrEmpty(nb.BatchNo)); err != nil {
		return 0, err
	}
	if err := s.flagIfExpired(ctx, tx, fx, id); err != nil {
		return 0, err
	}
	return id, nil
}

// GetBatch returns the batch with its medicine name, or nil when it does not exist.
func (s *Store) GetBatch(ctx context.Context, id int64) (*domain.Batch, error) {
	var b domain.Batch
	err := s.db.GetContext(ctx, &b, `SELECT `+batchColumns+`
		FROM batches b JOIN medicines m ON m.id = b.medicine_id
		WHERE b.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get batch %d: %w", id, err)
	}
	return &b, nil
}

// UpdateBatch overwrites batch number, quantity and expiry. Nil clears a field.
func (s *Store) UpdateBatch(ctx context.Context, id int64, nb NewBatch) error {
	return s.withTx(ctx, func(tx *sqlx.Tx, fx *effects) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE batches SET batch_no = ?, quantity = ?, expiry_date = ? WHERE id = ?`,
			nb.BatchNo, nb.Quantity, nb.ExpiryDate, id)
		if err != nil {
			return fmt.Errorf("update batch %d: %w", id, err)
		}
		n, err := affected(res)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}

		details := fmt.Sprintf("qty:%d expiry:%s", nb.Quantity, textOrEmpty(nb.ExpiryDate))
		if err := s.audit(ctx, tx, fx, domain.ActionUpdate, domain.TableBatches, id, details); err != nil {
			return err
		}
		return s.flagIfExpired(ctx, tx, fx, id)
	})
}

func (s *Store) DeleteBatch(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx, fx *effects) error {
		var batchNo *string
		err := tx.GetContext(ctx, &batchNo, `SELECT batch_no FROM batches WHERE id = ?`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load batch %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM batches WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete batch %d: %w", id, err)
		}
		return s.audit(ctx, tx, fx, domain.ActionDelete, domain.TableBatches, id, textOrEmpty(batchNo))
	})
}

// ListBatchesForMedicine orders by expiry date; batches without one come first.
func (s *Store) ListBatchesForMedicine(ctx context.Context, medicineID int64) ([]domain.Batch, error) {
	var batches []domain.Batch
	err := s.db.SelectContext(ctx, &batches, `SELECT `+batchColumns+`
		FROM batches b JOIN medicines m ON m.id = b.medicine_id
		WHERE b.medicine_id = ?
		ORDER BY b.expiry_date`, medicineID)
	if err != nil {
		return nil, fmt.Errorf("list batches of medicine %d: %w", medicineID, err)
	}
	return batches, nil
}

// SoonToExpire lists batches expiring between today and today+days inclusive.
// A negative window falls back to DefaultSoonDays; windows longer than MaxWindowDays are clamped.
func (s *Store) SoonToExpire(ctx context.Context, days int) ([]domain.Batch, error) {
	days = window(days)
	var batches []domain.Batch
	err := s.db.SelectContext(ctx, &batches, `SELECT `+batchColumns+`
		FROM batches b JOIN medicines m ON m.id = b.medicine_id
		WHERE DATE(b.expiry_date) BETWEEN DATE(?) AND DATE(?)
		ORDER BY b.expiry_date`, s.today(), s.daysFromToday(days))
	if err != nil {
		return nil, fmt.Errorf("list batches expiring within %d days: %w", days, err)
	}
	return batches, nil
}

// Expired lists batches whose expiry date is strictly before today.
func (s *Store) Expired(ctx context.Context) ([]domain.Batch, error) {
	var batches []domain.Batch
	err := s.db.SelectContext(ctx, &batches, `SELECT `+batchColumns+`
		FROM batches b JOIN medicines m ON m.id = b.medicine_id
		WHERE DATE(b.expiry_date) < DATE(?)
		ORDER BY b.expiry_date`, s.today())
	if err != nil {
		return nil, fmt.Errorf("list expired batches: %w", err)
	}
	return batches, nil
}

// Upcoming is the row set of the upcoming-expiry API, ordered by expiry date then id.
func (s *Store) Upcoming(ctx context.Context, days int) ([]domain.UpcomingBatch, error) {
	days = window(days)
	items := []domain.UpcomingBatch{}
	err := s.db.SelectContext(ctx, &items, `SELECT b.id, m.name AS medicine_name, b.batch_no,
			COALESCE(b.quantity, 0) AS quantity, b.expiry_date
		FROM batches b
		JOIN medicines m ON m.id = b.medicine_id
		WHERE DATE(b.expiry_date) BETWEEN DATE(?) AND DATE(?)
		ORDER BY b.expiry_date, b.id`, s.today(), s.daysFromToday(days))
	if err != nil {
		return nil, fmt.Errorf("list upcoming batches: %w", err)
	}
	return items, nil
}
