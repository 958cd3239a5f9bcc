package seed_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"medivault/m/internal/seed"
	"medivault/m/internal/store"
	"medivault/m/internal/testdb"
)

func TestCategoriesSeedOnlyEmptyTable(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	assert.Equal(t, len(seed.DefaultCategories), testdb.Count(t, db, `SELECT COUNT(*) FROM categories`))

	n, err := seed.Categories(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, len(seed.DefaultCategories), testdb.Count(t, db, `SELECT COUNT(*) FROM categories`))

	_, err = db.Exec(`DELETE FROM categories WHERE name <> 'Tablet'`)
	require.NoError(t, err)
	n, err = seed.Categories(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, n, "a non-empty table is left alone")
}

const catalog = `name,category,description,batch_no,quantity,expiry
Paracetamol,tablet,Pain relief,P-100,20,2026-12-01
Oral Rehydration,Sachet,,,,
,Tablet,nameless row,,,
Chlorhexidine,Solution,Antiseptic,,5,2026-10-01
short,row
`

func writeCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.csv")
	require.NoError(t, os.WriteFile(path, []byte(catalog), 0o600))
	return path
}

func TestLoadCatalog(t *testing.T) {
	db := testdb.Open(t)
	st := store.New(db, store.WithClock(testdb.Clock))
	ctx := context.Background()
	path := writeCatalog(t)

	n, err := seed.LoadCatalog(ctx, st, path, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	medicines, err := st.ListMedicines(ctx)
	require.NoError(t, err)
	require.Len(t, medicines, 3)
	assert.Equal(t, "Chlorhexidine", medicines[0].Name)
	assert.Equal(t, "Solution", medicines[0].CategoryLabel())
	assert.Equal(t, "Oral Rehydration", medicines[1].Name)
	assert.Equal(t, "Sachet", medicines[1].CategoryLabel())
	assert.Equal(t, "Paracetamol", medicines[2].Name)
	assert.Equal(t, "Tablet", medicines[2].CategoryLabel(), "existing categories match case-insensitively")

	assert.Equal(t, 2, testdb.Count(t, db, `SELECT COUNT(*) FROM batches`))
	assert.Equal(t, 6, testdb.Count(t, db, `SELECT COUNT(*) FROM categories`))
	assert.Equal(t, 1, testdb.Count(t, db, `SELECT COUNT(*) FROM expired_items`))
	assert.Equal(t, 5, testdb.Count(t, db, `SELECT COUNT(*) FROM activity_log`))

	again, err := seed.LoadCatalog(ctx, st, path, zap.NewNop())
	require.NoError(t, err)
	assert.Zero(t, again, "a populated inventory is not imported twice")
}

func TestLoadCatalogMissingFile(t *testing.T) {
	st := store.New(testdb.Open(t))
	_, err := seed.LoadCatalog(context.Background(), st, filepath.Join(t.TempDir(), "nope.csv"), zap.NewNop())
	assert.Error(t, err)
}
