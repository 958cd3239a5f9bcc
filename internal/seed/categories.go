package seed

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DefaultCategories are inserted into an empty categories table.
var DefaultCategories = []string{"Tablet", "Syrup", "Injection", "Ointment"}

// Categories seeds DefaultCategories when the categories table is empty. It reports how many
// rows were inserted.
func Categories(ctx context.Context, db *sqlx.DB) (int, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("unable to start category seed: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM categories`); err != nil {
		return 0, fmt.Errorf("unable to count categories: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO categories (name) VALUES (?)`)
	if err != nil {
		return 0, fmt.Errorf("unable to prepare category insert: %w", err)
	}
	defer stmt.Close()

	for _, name := range DefaultCategories {
		if _, err := stmt.ExecContext(ctx, name); err != nil {
			return 0, fmt.Errorf("unable to insert category %s: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("unable to commit category seed: %w", err)
	}
	return len(DefaultCategories), nil
}
