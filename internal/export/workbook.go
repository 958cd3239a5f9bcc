// Package export writes the inventory as an xlsx workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"medivault/m/domain"
	"medivault/m/internal/expiry"
)

const (
	inventorySheet = "Inventory"
	activitySheet  = "Activity"
)

var (
	inventoryHeader = []interface{}{"medicine_id", "medicine", "category", "batch_id", "batch_no", "quantity", "expiry", "status"}
	activityHeader  = []interface{}{"id", "timestamp", "action", "table", "record_id", "details"}
)

// WriteInventory renders one inventory row per batch (medicines without batches get one empty
// row) and the activity log on a second sheet.
func WriteInventory(w io.Writer, cards []expiry.MedicineCard, logs []domain.ActivityLogEntry) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), inventorySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(inventorySheet, "A1", &inventoryHeader); err != nil {
		return fmt.Errorf("inventory header: %w", err)
	}

	row := 2
	for _, card := range cards {
		rows := make([][]interface{}, 0, len(card.Batches))
		for _, b := range card.Batches {
			rows = append(rows, []interface{}{
				card.ID, card.Name, card.CategoryLabel(), b.BatchID, b.BatchNo, b.Qty, b.Expiry, b.StatusLabel,
			})
		}
		if len(rows) == 0 {
			rows = append(rows, []interface{}{card.ID, card.Name, card.CategoryLabel(), "", "", 0, "", ""})
		}
		for _, r := range rows {
			if err := setRow(f, inventorySheet, row, r); err != nil {
				return err
			}
			row++
		}
	}

	if _, err := f.NewSheet(activitySheet); err != nil {
		return fmt.Errorf("activity sheet: %w", err)
	}
	if err := f.SetSheetRow(activitySheet, "A1", &activityHeader); err != nil {
		return fmt.Errorf("activity header: %w", err)
	}
	for i, l := range logs {
		r := []interface{}{l.ID, l.Timestamp, l.Action, l.TableName, l.RecordID, l.Details}
		if err := setRow(f, activitySheet, i+2, r); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name for row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("%s row %d: %w", sheet, row, err)
	}
	return nil
}
