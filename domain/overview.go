package domain

// OverviewRow is one (medicine, batch) pairing of the medicine_overview view.
// Batch fields are nil when the medicine has no batches.
type OverviewRow struct {
	MedicineID   int64   `db:"medicine_id"`
	MedicineName string  `db:"medicine_name"`
	Category     *string `db:"category"`
	BatchID      *int64  `db:"batch_id"`
	BatchNo      *string `db:"batch_no"`
	Quantity     *int64  `db:"quantity"`
	ExpiryDate   *string `db:"expiry_date"`
}

// HeadlineStats are the counters shown above the medicine list.
type HeadlineStats struct {
	TotalMedicines   int64 `db:"total_medicines"`
	TotalBatches     int64 `db:"total_batches"`
	UpcomingExpiries int64 `db:"upcoming_expiries"`
	ExpiredBatches   int64 `db:"expired_batches"`
}

type CategoryCount struct {
	Label string `db:"label" json:"label"`
	Count int64  `db:"count" json:"count"`
}

type MonthTotal struct {
	Month string `db:"month" json:"month"`
	Total int64  `db:"total" json:"total"`
}

// Dashboard holds the aggregates of the dashboard page.
// ExpiredCount is the number of expired_items rows, not a live recomputation.
type Dashboard struct {
	TotalMedicines int64
	TotalBatches   int64
	SoonExpire     int64
	ExpiredCount   int64
	Categories     []CategoryCount
	Timeline       []MonthTotal
}

// CategoryLabels and the other accessors flatten the aggregates for the chart scripts.
func (d Dashboard) CategoryLabels() []string {
	out := make([]string, 0, len(d.Categories))
	for _, c := range d.Categories {
		out = append(out, c.Label)
	}
	return out
}

func (d Dashboard) CategoryCounts() []int64 {
	out := make([]int64, 0, len(d.Categories))
	for _, c := range d.Categories {
		out = append(out, c.Count)
	}
	return out
}

func (d Dashboard) TimeLabels() []string {
	out := make([]string, 0, len(d.Timeline))
	for _, m := range d.Timeline {
		out = append(out, m.Month)
	}
	return out
}

func (d Dashboard) TimeTotals() []int64 {
	out := make([]int64, 0, len(d.Timeline))
	for _, m := range d.Timeline {
		out = append(out, m.Total)
	}
	return out
}
