package domain

// UncategorizedLabel is shown for medicines without a category in listings.
const UncategorizedLabel = "Uncategorized"

type Medicine struct {
	ID           int64   `db:"id" json:"id"`
	Name         string  `db:"name" json:"name"`
	CategoryID   *int64  `db:"category_id" json:"category_id,omitempty"`
	CategoryName *string `db:"category_name" json:"category_name,omitempty"`
	Description  string  `db:"description" json:"description"`
	CreatedAt    string  `db:"created_at" json:"created_at"`
}

// CategoryLabel returns the category name, or UncategorizedLabel.
func (m Medicine) CategoryLabel() string {
	if m.CategoryName == nil || *m.CategoryName == "" {
		return UncategorizedLabel
	}
	return *m.CategoryName
}

// MedicinePatch carries the fields of a partial medicine update. Nil fields are left untouched.
type MedicinePatch struct {
	Name        *string
	CategoryID  *int64
	Description *string
}

// Empty reports whether the patch changes nothing.
func (p MedicinePatch) Empty() bool {
	return p.Name == nil && p.CategoryID == nil && p.Description == nil
}
