package store

import (
	"context"
	"fmt"

	"medivault/m/domain"
)

// Overview returns medicine_overview rows ordered by medicine name. A non-empty query keeps
// rows whose medicine name or batch number contains it.
func (s *Store) Overview(ctx context.Context, query string) ([]domain.OverviewRow, error) {
	sqlQuery := `SELECT medicine_id, medicine_name, category, batch_id, batch_no, quantity, expiry_date
		FROM medicine_overview`
	var args []any
	if query != "" {
		like := "%" + query + "%"
		sqlQuery += ` WHERE medicine_name LIKE ? OR IFNULL(batch_no, '') LIKE ?`
		args = append(args, like, like)
	}
	sqlQuery += ` ORDER BY medicine_name COLLATE NOCASE, medicine_id, batch_id`

	var rows []domain.OverviewRow
	if err := s.db.SelectContext(ctx, &rows, sqlQuery, args...); err != nil {
		return nil, fmt.Errorf("load overview: %w", err)
	}
	return rows, nil
}

// HeadlineStats counts medicines, batches, batches expiring within DefaultSoonDays and batches
// expired right now.
func (s *Store) HeadlineStats(ctx context.Context) (domain.HeadlineStats, error) {
	var stats domain.HeadlineStats
	today, soon := s.today(), s.daysFromToday(DefaultSoonDays)

	counts := []struct {
		dest  *int64
		query string
		args  []any
	}{
		{&stats.TotalMedicines, `SELECT COUNT(*) FROM medicines`, nil},
		{&stats.TotalBatches, `SELECT COUNT(*) FROM batches`, nil},
		{&stats.UpcomingExpiries, `SELECT COUNT(*) FROM batches
			WHERE expiry_date IS NOT NULL AND DATE(expiry_date) BETWEEN DATE(?) AND DATE(?)`, []any{today, soon}},
		{&stats.ExpiredBatches, `SELECT COUNT(*) FROM batches
			WHERE expiry_date IS NOT NULL AND DATE(expiry_date) < DATE(?)`, []any{today}},
	}
	for _, c := range counts {
		if err := s.db.GetContext(ctx, c.dest, c.query, c.args...); err != nil {
			return stats, fmt.Errorf("headline stats: %w", err)
		}
	}
	return stats, nil
}

// Dashboard runs the dashboard aggregates. ExpiredCount counts expired_items history rows.
// The category breakdown leaves out batches of uncategorized medicines.
func (s *Store) Dashboard(ctx context.Context) (domain.Dashboard, error) {
	var d domain.Dashboard

	if err := s.db.GetContext(ctx, &d.TotalMedicines, `SELECT COUNT(*) FROM medicines`); err != nil {
		return d, fmt.Errorf("count medicines: %w", err)
	}
	if err := s.db.GetContext(ctx, &d.TotalBatches, `SELECT COUNT(*) FROM batches`); err != nil {
		return d, fmt.Errorf("count batches: %w", err)
	}
	if err := s.db.GetContext(ctx, &d.SoonExpire, `SELECT COUNT(*) FROM batches
		WHERE DATE(expiry_date) BETWEEN DATE(?) AND DATE(?)`,
		s.today(), s.daysFromToday(DefaultSoonDays)); err != nil {
		return d, fmt.Errorf("count expiring batches: %w", err)
	}
	if err := s.db.GetContext(ctx, &d.ExpiredCount, `SELECT COUNT(*) FROM expired_items`); err != nil {
		return d, fmt.Errorf("count expired items: %w", err)
	}

	d.Categories = []domain.CategoryCount{}
	if err := s.db.SelectContext(ctx, &d.Categories, `SELECT c.name AS label, COUNT(b.id) AS count
		FROM categories c
		LEFT JOIN medicines m ON m.category_id = c.id
		LEFT JOIN batches b ON b.medicine_id = m.id
		GROUP BY c.id, c.name
		ORDER BY c.name`); err != nil {
		return d, fmt.Errorf("category distribution: %w", err)
	}

	d.Timeline = []domain.MonthTotal{}
	if err := s.db.SelectContext(ctx, &d.Timeline, `SELECT STRFTIME('%Y-%m', expiry_date) AS month,
			COALESCE(SUM(quantity), 0) AS total
		FROM batches
		WHERE expiry_date IS NOT NULL AND STRFTIME('%Y-%m', expiry_date) IS NOT NULL
		GROUP BY month
		ORDER BY month`); err != nil {
		return d, fmt.Errorf("expiry timeline: %w", err)
	}
	return d, nil
}

func (s *Store) CountMedicines(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM medicines`); err != nil {
		return 0, fmt.Errorf("count medicines: %w", err)
	}
	return n, nil
}
