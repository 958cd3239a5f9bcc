package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"medivault/m/domain"
)

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	if err := s.db.SelectContext(ctx, &categories, `SELECT id, name FROM categories ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *Store) CreateCategory(ctx context.Context, name string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO categories (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("create category %q: %w", name, err)
	}
	return res.LastInsertId()
}

func (s *Store) RenameCategory(ctx context.Context, id int64, name string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE categories SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("rename category %d: %w", id, err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCategory removes a category. Its medicines survive with a NULL category; each of them
// gets an UPDATE activity row because its category reference changed.
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx, fx *effects) error {
		var orphans []domain.Medicine
		if err := tx.SelectContext(ctx, &orphans,
			`SELECT id, name FROM medicines WHERE category_id = ? ORDER BY id`, id); err != nil {
			return fmt.Errorf("list medicines of category %d: %w", id, err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete category %d: %w", id, err)
		}
		n, err := affected(res)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}

		for _, m := range orphans {
			if err := s.audit(ctx, tx, fx, domain.ActionUpdate, domain.TableMedicines, m.ID, m.Name); err != nil {
				return err
			}
		}
		return nil
	})
}
