package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"medivault/m/internal/store"
)

// Catalog columns: name, category, description, batch_no, quantity, expiry.
const catalogColumns = 6

// LoadCatalog imports medicines and their first batch from a CSV file with a header row. It only
// runs against an empty inventory so restarts do not duplicate medicines. Unknown categories are
// created. Rows go through the store, so each import is audited like a manual entry.
func LoadCatalog(ctx context.Context, st *store.Store, csvPath string, log *zap.Logger) (int, error) {
	existing, err := st.CountMedicines(ctx)
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		log.Info("inventory not empty, skipping catalog import", zap.String("path", csvPath))
		return 0, nil
	}

	file, err := os.Open(csvPath)
	if err != nil {
		return 0, fmt.Errorf("unable to open catalog %s: %w", csvPath, err)
	}
	defer file.Close()
	return importCatalog(ctx, st, file, log)
}

func importCatalog(ctx context.Context, st *store.Store, r io.Reader, log *zap.Logger) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	// Skip header
	if _, err := reader.Read(); err != nil {
		return 0, fmt.Errorf("unable to read catalog header: %w", err)
	}

	categories, err := st.ListCategories(ctx)
	if err != nil {
		return 0, err
	}
	categoryIDs := make(map[string]int64, len(categories))
	for _, c := range categories {
		categoryIDs[strings.ToLower(c.Name)] = c.ID
	}

	rows := 0
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Warn("unable to read catalog row", zap.Int("line", line), zap.Error(err))
			continue
		}
		if len(record) < catalogColumns {
			continue
		}
		name := strings.TrimSpace(record[0])
		if name == "" {
			continue
		}

		var categoryID *int64
		if catName := strings.TrimSpace(record[1]); catName != "" {
			id, ok := categoryIDs[strings.ToLower(catName)]
			if !ok {
				if id, err = st.CreateCategory(ctx, catName); err != nil {
					return rows, err
				}
				categoryIDs[strings.ToLower(catName)] = id
			}
			categoryID = &id
		}

		var initial *store.NewBatch
		batchNo, qtyText, expiryText := strings.TrimSpace(record[3]), strings.TrimSpace(record[4]), strings.TrimSpace(record[5])
		if batchNo != "" || qtyText != "" || expiryText != "" {
			qty, _ := strconv.ParseInt(qtyText, 10, 64)
			initial = &store.NewBatch{BatchNo: optional(batchNo), Quantity: qty, ExpiryDate: optional(expiryText)}
		}

		if _, err := st.CreateMedicineWithBatch(ctx, name, categoryID, strings.TrimSpace(record[2]), initial); err != nil {
			log.Warn("unable to import medicine", zap.String("name", name), zap.Error(err))
			continue
		}
		rows++
	}
	log.Info("imported medicine catalog", zap.Int("rows", rows))
	return rows, nil
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
