package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"medivault/m/domain"
)

const medicineColumns = `m.id, m.name, m.category_id, c.name AS category_name,
	COALESCE(m.description, '') AS description, COALESCE(m.created_at, '') AS created_at`

func (s *Store) CreateMedicine(ctx context.Context, name string, categoryID *int64, description string) (int64, error) {
	var id int64
	err := s.withTx(ctx, func(tx *sqlx.Tx, fx *effects) error {
		var err error
		id, err = s.insertMedicine(ctx, tx, fx, name, categoryID, description)
		return err
	})
	return id, err
}

func (s *Store) insertMedicine(ctx context.Context, tx *sqlx.Tx, fx *effects, name string, categoryID *int64, description string) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO medicines (name, category_id, description, created_at) VALUES (?, ?, ?, ?)`,
		name, categoryID, description, s.timestamp())
	if err != nil {
		return 0, fmt.Errorf("create medicine %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("medicine id: %w", err)
	}
	if err := s.audit(ctx, tx, fx, domain.ActionInsert, domain.TableMedicines, id, name); err != nil {
		return 0, err
	}
	return id, nil
}

// ListMedicines returns every medicine with its category name, ordered case-insensitively.
func (s *Store) ListMedicines(ctx context.Context) ([]domain.Medicine, error) {
	var medicines []domain.Medicine
	err := s.db.SelectContext(ctx, &medicines, `SELECT `+medicineColumns+`
		FROM medicines m
		LEFT JOIN categories c ON m.category_id = c.id
		ORDER BY m.name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("list medicines: %w", err)
	}
	return medicines, nil
}

// GetMedicine returns nil when the medicine does not exist.
func (s *Store) GetMedicine(ctx context.Context, id int64) (*domain.Medicine, error) {
	var m domain.Medicine
	err := s.db.GetContext(ctx, &m, `SELECT `+medicineColumns+`
		FROM medicines m
		LEFT JOIN categories c ON m.category_id = c.id
		WHERE m.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get medicine %d: %w", id, err)
	}
	return &m, nil
}

// UpdateMedicine changes only the fields set in patch. An empty patch is a no-op.
func (s *Store) UpdateMedicine(ctx context.Context, id int64, patch domain.MedicinePatch) error {
	if patch.Empty() {
		return nil
	}

	var (
		fields []string
		args   []any
	)
	if patch.Name != nil {
		fields = append(fields, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.CategoryID != nil {
		fields = append(fields, "category_id = ?")
		args = append(args, *patch.CategoryID)
	}
	if patch.Description != nil {
		fields = append(fields, "description = ?")
		args = append(args, *patch.Description)
	}
	args = append(args, id)

	return s.withTx(ctx, func(tx *sqlx.Tx, fx *effects) error {
		res, err := tx.ExecContext(ctx, `UPDATE medicines SET `+strings.Join(fields, ", ")+` WHERE id = ?`, args...)
		if err != nil {
			return fmt.Errorf("update medicine %d: %w", id, err)
		}
		n, err := affected(res)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}

		var name string
		if err := tx.GetContext(ctx, &name, `SELECT COALESCE(name, '') FROM medicines WHERE id = ?`, id); err != nil {
			return fmt.Errorf("reload medicine %d: %w", id, err)
		}
		return s.audit(ctx, tx, fx, domain.ActionUpdate, domain.TableMedicines, id, name)
	})
}

// DeleteMedicine removes the medicine and, through the foreign key, its batches. Each removed
// batch gets its own DELETE activity row before the medicine's.
func (s *Store) DeleteMedicine(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx, fx *effects) error {
		var name string
		err := tx.GetContext(ctx, &name, `SELECT name FROM medicines WHERE id = ?`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load medicine %d: %w", id, err)
		}

		var batches []domain.Batch
		if err := tx.SelectContext(ctx, &batches,
			`SELECT id, medicine_id, batch_no FROM batches WHERE medicine_id = ? ORDER BY id`, id); err != nil {
			return fmt.Errorf("list batches of medicine %d: %w", id, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM medicines WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete medicine %d: %w", id, err)
		}

		for _, b := range batches {
			if err := s.audit(ctx, tx, fx, domain.ActionDelete, domain.TableBatches, b.ID, b.BatchNoText()); err != nil {
				return err
			}
		}
		return s.audit(ctx, tx, fx, domain.ActionDelete, domain.TableMedicines, id, name)
	})
}
