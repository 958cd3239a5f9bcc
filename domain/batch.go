package domain

type Batch struct {
	ID           int64   `db:"id" json:"id"`
	MedicineID   int64   `db:"medicine_id" json:"medicine_id"`
	MedicineName string  `db:"medicine_name" json:"medicine_name,omitempty"`
	BatchNo      *string `db:"batch_no" json:"batch_no"`
	Quantity     int64   `db:"quantity" json:"quantity"`
	ExpiryDate   *string `db:"expiry_date" json:"expiry_date"`
	CreatedAt    string  `db:"created_at" json:"created_at,omitempty"`
}

// BatchNoText returns the batch number or an empty string.
func (b Batch) BatchNoText() string {
	if b.BatchNo == nil {
		return ""
	}
	return *b.BatchNo
}

// UpcomingBatch is the row shape of the upcoming-expiry JSON endpoint.
type UpcomingBatch struct {
	ID           int64   `db:"id" json:"id"`
	MedicineName string  `db:"medicine_name" json:"medicine_name"`
	BatchNo      *string `db:"batch_no" json:"batch_no"`
	Quantity     int64   `db:"quantity" json:"quantity"`
	ExpiryDate   *string `db:"expiry_date" json:"expiry_date"`
}
