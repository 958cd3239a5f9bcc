package domain

const (
	ActionInsert = "INSERT"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"

	TableMedicines = "medicines"
	TableBatches   = "batches"
)

type ActivityLogEntry struct {
	ID        int64  `db:"id" json:"id"`
	Action    string `db:"action" json:"action"`
	TableName string `db:"table_name" json:"table_name"`
	RecordID  int64  `db:"record_id" json:"record_id"`
	Details   string `db:"details" json:"details"`
	Timestamp string `db:"timestamp" json:"timestamp"`
}

// ExpiredItem records a batch observed expired when it was written. Rows are not deduplicated.
type ExpiredItem struct {
	ID        int64  `db:"id" json:"id"`
	BatchID   int64  `db:"batch_id" json:"batch_id"`
	ExpiredOn string `db:"expired_on" json:"expired_on"`
	Processed bool   `db:"processed" json:"processed"`
}
