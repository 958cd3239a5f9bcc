package expiry

import (
	"time"

	"medivault/m/domain"
)

type BatchView struct {
	BatchID       int64
	BatchNo       string
	Qty           int64
	Expiry        string
	ExpiryDisplay string
	Status        string
	StatusLabel   string
}

// MedicineCard is one medicine of the home page with its batches.
type MedicineCard struct {
	ID                int64
	Name              string
	Category          *string
	Batches           []BatchView
	TotalQty          int64
	NextExpiry        *time.Time
	NextExpiryDisplay string
}

// CategoryLabel returns the category name, or the uncategorized label.
func (c MedicineCard) CategoryLabel() string {
	if c.Category == nil || *c.Category == "" {
		return domain.UncategorizedLabel
	}
	return *c.Category
}

// BuildCards groups overview rows by medicine, keeping the order in which medicines first
// appear. Rows without a batch contribute the medicine only.
func BuildCards(rows []domain.OverviewRow, today time.Time) []MedicineCard {
	var (
		cards []MedicineCard
		index = make(map[int64]int)
	)
	for _, r := range rows {
		i, ok := index[r.MedicineID]
		if !ok {
			cards = append(cards, MedicineCard{
				ID:       r.MedicineID,
				Name:     r.MedicineName,
				Category: r.Category,
				Batches:  []BatchView{},
			})
			i = len(cards) - 1
			index[r.MedicineID] = i
		}
		if r.BatchID == nil || *r.BatchID == 0 {
			continue
		}

		card := &cards[i]
		var qty int64
		if r.Quantity != nil {
			qty = *r.Quantity
		}
		c := Classify(r.ExpiryDate, today)
		bv := BatchView{
			BatchID:       *r.BatchID,
			Qty:           qty,
			ExpiryDisplay: c.Display,
			Status:        c.Status,
			StatusLabel:   c.Label,
		}
		if r.BatchNo != nil {
			bv.BatchNo = *r.BatchNo
		}
		if r.ExpiryDate != nil {
			bv.Expiry = *r.ExpiryDate
		}
		if c.Date != nil && (card.NextExpiry == nil || c.Date.Before(*card.NextExpiry)) {
			d := *c.Date
			card.NextExpiry = &d
		}
		card.Batches = append(card.Batches, bv)
		card.TotalQty += qty
	}

	for i := range cards {
		if cards[i].NextExpiry != nil {
			cards[i].NextExpiryDisplay = cards[i].NextExpiry.Format(displayLayout)
		} else {
			cards[i].NextExpiryDisplay = Placeholder
		}
	}
	return cards
}

// BatchViews classifies a plain batch list, keeping its order.
func BatchViews(batches []domain.Batch, today time.Time) []BatchView {
	out := make([]BatchView, 0, len(batches))
	for _, b := range batches {
		c := Classify(b.ExpiryDate, today)
		bv := BatchView{
			BatchID:       b.ID,
			BatchNo:       b.BatchNoText(),
			Qty:           b.Quantity,
			ExpiryDisplay: c.Display,
			Status:        c.Status,
			StatusLabel:   c.Label,
		}
		if b.ExpiryDate != nil {
			bv.Expiry = *b.ExpiryDate
		}
		out = append(out, bv)
	}
	return out
}
