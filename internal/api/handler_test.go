package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"medivault/m/domain"
	"medivault/m/internal/api"
	"medivault/m/internal/metrics"
	"medivault/m/internal/store"
	"medivault/m/internal/testdb"
	"medivault/m/internal/views"
)

func newRouter(t *testing.T, opts api.Options) (http.Handler, *store.Store) {
	t.Helper()
	st := store.New(testdb.Open(t), store.WithClock(testdb.Clock))
	renderer, err := views.New()
	require.NoError(t, err)
	if opts.Secret == "" {
		opts.Secret = "test_secret"
	}
	return api.New(st, renderer, zap.NewNop(), opts).Router(), st
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func post(h http.Handler, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// redirected returns the path and notice of a 303 response.
func redirected(t *testing.T, rec *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	return loc.Path, loc.Query().Get("notice")
}

func str(s string) *string { return &s }

func TestHealth(t *testing.T) {
	h, _ := newRouter(t, api.Options{})
	rec := get(h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHomeRendersCards(t *testing.T) {
	h, st := newRouter(t, api.Options{})
	ctx := context.Background()

	id, err := st.CreateMedicine(ctx, "Paracetamol", nil, "")
	require.NoError(t, err)
	_, err = st.CreateBatch(ctx, id, store.NewBatch{BatchNo: str("B1"), Quantity: 10, ExpiryDate: str(testdb.Day(5))})
	require.NoError(t, err)
	_, err = st.CreateMedicine(ctx, "Ibuprofen", nil, "")
	require.NoError(t, err)

	rec := get(h, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Paracetamol")
	assert.Contains(t, body, "Uncategorized")
	assert.Contains(t, body, "Expiring soon")
	assert.Contains(t, body, "21 Oct 2026")

	rec = get(h, "/?q=ibu")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ibuprofen")
	assert.NotContains(t, rec.Body.String(), "Paracetamol")

	rec = get(h, "/?notice=Batch+added.&level=success")
	assert.Contains(t, rec.Body.String(), `<div class="notice success">Batch added.</div>`)
}

func TestAddMedicine(t *testing.T) {
	h, st := newRouter(t, api.Options{})
	ctx := context.Background()

	path, notice := redirected(t, post(h, "/add", url.Values{"name": {"  "}}))
	assert.Equal(t, "/add", path)
	assert.Equal(t, "Medicine name is required.", notice)

	path, notice = redirected(t, post(h, "/add", url.Values{"name": {"Cotton"}, "batch_no": {" "}, "quantity": {""}}))
	assert.Equal(t, "/", path)
	assert.Equal(t, "Medicine added successfully!", notice)

	path, _ = redirected(t, post(h, "/add", url.Values{
		"name":     {"Amoxicillin"},
		"category": {"1"},
		"quantity": {"lots"},
		"expiry":   {testdb.Day(100)},
	}))
	assert.Equal(t, "/", path)

	medicines, err := st.ListMedicines(ctx)
	require.NoError(t, err)
	require.Len(t, medicines, 2)

	amox, cotton := medicines[0], medicines[1]
	assert.NotNil(t, amox.CategoryID)
	batches, err := st.ListBatchesForMedicine(ctx, amox.ID)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, int64(0), batches[0].Quantity)
	assert.Nil(t, batches[0].BatchNo)

	batches, err = st.ListBatchesForMedicine(ctx, cotton.ID)
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestAddBatchUnknownMedicine(t *testing.T) {
	h, _ := newRouter(t, api.Options{})
	path, notice := redirected(t, post(h, "/add_batch/77", url.Values{"batch_no": {"X"}, "quantity": {"1"}}))
	assert.Equal(t, "/", path)
	assert.Equal(t, "Unable to add batch.", notice)
}

func TestDeleteBatch(t *testing.T) {
	h, st := newRouter(t, api.Options{})
	ctx := context.Background()
	medID, err := st.CreateMedicine(ctx, "Saline", nil, "")
	require.NoError(t, err)
	batchID, err := st.CreateBatch(ctx, medID, store.NewBatch{BatchNo: str("S1"), Quantity: 1})
	require.NoError(t, err)
	target := "/delete_batch/" + idText(batchID)

	assert.Equal(t, http.StatusMethodNotAllowed, get(h, target).Code)
	b, err := st.GetBatch(ctx, batchID)
	require.NoError(t, err)
	assert.NotNil(t, b, "GET must not delete")

	_, notice := redirected(t, post(h, target, nil))
	assert.Equal(t, "Batch deleted.", notice)

	_, notice = redirected(t, post(h, target, nil))
	assert.Equal(t, "Batch not found", notice)
}

func TestEditBatch(t *testing.T) {
	h, st := newRouter(t, api.Options{})
	ctx := context.Background()
	medID, err := st.CreateMedicine(ctx, "Insulin", nil, "")
	require.NoError(t, err)
	batchID, err := st.CreateBatch(ctx, medID, store.NewBatch{BatchNo: str("I-1"), Quantity: 4, ExpiryDate: str(testdb.Day(60))})
	require.NoError(t, err)
	target := "/edit_batch/" + idText(batchID)

	rec := get(h, target)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Edit batch of Insulin")
	assert.Contains(t, rec.Body.String(), `value="I-1"`)

	_, notice := redirected(t, post(h, target, url.Values{"batch_no": {"I-2"}, "quantity": {"9"}, "expiry": {testdb.Day(-1)}}))
	assert.Equal(t, "Batch updated", notice)

	b, err := st.GetBatch(ctx, batchID)
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "I-2", b.BatchNoText())
	assert.Equal(t, int64(9), b.Quantity)

	items, err := st.ExpiredItems(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, notice = redirected(t, get(h, "/edit_batch/9999"))
	assert.Equal(t, "Batch not found", notice)
	_, notice = redirected(t, post(h, "/edit_batch/9999", url.Values{"quantity": {"1"}}))
	assert.Equal(t, "Batch not found", notice)
}

func TestEditAndDeleteMedicine(t *testing.T) {
	h, st := newRouter(t, api.Options{})
	ctx := context.Background()
	id, err := st.CreateMedicine(ctx, "Cough Mix", nil, "menthol")
	require.NoError(t, err)
	_, err = st.CreateBatch(ctx, id, store.NewBatch{Quantity: 2})
	require.NoError(t, err)
	detail := "/medicines/" + idText(id)

	rec := get(h, detail)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cough Mix")

	path, notice := redirected(t, post(h, "/edit_medicine/"+idText(id), url.Values{"name": {"Cough Syrup"}, "category": {""}}))
	assert.Equal(t, detail, path)
	assert.Equal(t, "Medicine updated", notice)

	m, err := st.GetMedicine(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Cough Syrup", m.Name)
	assert.Equal(t, "menthol", m.Description, "description untouched when not submitted")

	_, notice = redirected(t, post(h, "/delete_medicine/"+idText(id), nil))
	assert.Equal(t, "Medicine deleted with its batches.", notice)
	_, notice = redirected(t, get(h, detail))
	assert.Equal(t, "Medicine not found", notice)
}

func TestCategoryRoutes(t *testing.T) {
	h, st := newRouter(t, api.Options{})
	ctx := context.Background()

	_, notice := redirected(t, post(h, "/categories", url.Values{"name": {"Drops"}}))
	assert.Equal(t, "Category added.", notice)
	_, notice = redirected(t, post(h, "/categories", url.Values{"name": {"Drops"}}))
	assert.Equal(t, "Unable to add category (names must be unique).", notice)

	rec := get(h, "/categories")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Drops")

	categories, err := st.ListCategories(ctx)
	require.NoError(t, err)
	var drops domain.Category
	for _, c := range categories {
		if c.Name == "Drops" {
			drops = c
		}
	}
	require.NotZero(t, drops.ID)

	_, notice = redirected(t, post(h, "/categories/"+idText(drops.ID)+"/rename", url.Values{"name": {"Eye Drops"}}))
	assert.Equal(t, "Category renamed.", notice)
	_, notice = redirected(t, post(h, "/categories/"+idText(drops.ID)+"/delete", nil))
	assert.Equal(t, "Category deleted. Its medicines are now uncategorized.", notice)
	_, notice = redirected(t, post(h, "/categories/"+idText(drops.ID)+"/delete", nil))
	assert.Equal(t, "Category not found", notice)
}

func TestUpcomingAPI(t *testing.T) {
	h, st := newRouter(t, api.Options{CORSAllowedOrigins: []string{"*"}})
	ctx := context.Background()
	medID, err := st.CreateMedicine(ctx, "Cetirizine", nil, "")
	require.NoError(t, err)
	for _, offset := range []int{8, 0, 7, -1} {
		_, err := st.CreateBatch(ctx, medID, store.NewBatch{BatchNo: str("C" + testdb.Day(offset)), Quantity: 1, ExpiryDate: str(testdb.Day(offset))})
		require.NoError(t, err)
	}

	decode := func(rec *httptest.ResponseRecorder) []domain.UpcomingBatch {
		t.Helper()
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		var items []domain.UpcomingBatch
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
		return items
	}

	items := decode(get(h, "/api/upcoming?days=7"))
	require.Len(t, items, 2)
	assert.Equal(t, testdb.Day(0), *items[0].ExpiryDate)
	assert.Equal(t, testdb.Day(7), *items[1].ExpiryDate)
	assert.Equal(t, "Cetirizine", items[0].MedicineName)

	assert.Len(t, decode(get(h, "/api/upcoming")), 3)
	assert.Len(t, decode(get(h, "/api/upcoming?days=soon")), 3)
	assert.Len(t, decode(get(h, "/api/upcoming?days=-4")), 3)
	assert.Len(t, decode(get(h, "/api/upcoming?days=0")), 1)
	assert.Len(t, decode(get(h, "/api/upcoming?days=3000000")), 3)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(get(h, "/api/upcoming?days=0").Body.Bytes(), &raw))
	require.Len(t, raw, 1)
	for _, key := range []string{"id", "medicine_name", "batch_no", "quantity", "expiry_date"} {
		assert.Contains(t, raw[0], key)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/upcoming", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestReportPages(t *testing.T) {
	h, st := newRouter(t, api.Options{})
	ctx := context.Background()
	tablet := int64(4)
	medID, err := st.CreateMedicine(ctx, "Aspirin", &tablet, "")
	require.NoError(t, err)
	_, err = st.CreateBatch(ctx, medID, store.NewBatch{BatchNo: str("AS-1"), Quantity: 3, ExpiryDate: str(testdb.Day(-2))})
	require.NoError(t, err)
	_, err = st.CreateBatch(ctx, medID, store.NewBatch{BatchNo: str("AS-2"), Quantity: 6, ExpiryDate: str(testdb.Day(12))})
	require.NoError(t, err)

	rec := get(h, "/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Expired (flagged): 1")

	rec = get(h, "/expiring?days=abc")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Expiring within 30 days")
	assert.Contains(t, rec.Body.String(), "AS-1")
	assert.Contains(t, rec.Body.String(), "AS-2")

	rec = get(h, "/logs?table=batches&action=insert")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "AS-2")
	assert.NotContains(t, rec.Body.String(), "<td>Aspirin</td>")

	rec = get(h, "/logs?limit=all")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<td>Aspirin</td>")
}

func TestExportWorkbook(t *testing.T) {
	h, st := newRouter(t, api.Options{})
	ctx := context.Background()
	medID, err := st.CreateMedicine(ctx, "Aspirin", nil, "")
	require.NoError(t, err)
	_, err = st.CreateBatch(ctx, medID, store.NewBatch{BatchNo: str("AS-1"), Quantity: 3, ExpiryDate: str(testdb.Day(-2))})
	require.NoError(t, err)

	rec := get(h, "/export.xlsx")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	name, err := f.GetCellValue("Inventory", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Aspirin", name)
	status, err := f.GetCellValue("Inventory", "H2")
	require.NoError(t, err)
	assert.Equal(t, "Expired", status)
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	h, _ := newRouter(t, api.Options{Metrics: m})

	require.Equal(t, http.StatusOK, get(h, "/health").Code)
	rec := get(h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `medivault_http_request_duration_seconds_count{method="GET",route="/health",status="200"} 1`)
}

func TestOperatorAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	h, st := newRouter(t, api.Options{OperatorPasswordHash: string(hash)})

	rec := post(h, "/add", url.Values{"name": {"Zinc"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/login", loc.Path)
	assert.Equal(t, "/", loc.Query().Get("next"))

	n, err := st.CountMedicines(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.Equal(t, http.StatusOK, get(h, "/").Code, "reads stay open")
	assert.Equal(t, http.StatusOK, get(h, "/login").Code)

	path, notice := redirected(t, post(h, "/login", url.Values{"password": {"wrong"}}))
	assert.Equal(t, "/login", path)
	assert.Equal(t, "Invalid password.", notice)

	rec = post(h, "/login", url.Values{"password": {"s3cret"}, "next": {"/categories"}})
	path, _ = redirected(t, rec)
	assert.Equal(t, "/categories", path)
	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "medivault_session" {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)

	path, notice = redirected(t, post(h, "/add", url.Values{"name": {"Zinc"}}, session))
	assert.Equal(t, "/", path)
	assert.Equal(t, "Medicine added successfully!", notice)

	forged := &http.Cookie{Name: "medivault_session", Value: "not-a-token"}
	path, _ = redirected(t, post(h, "/add", url.Values{"name": {"Zinc"}}, forged))
	assert.Equal(t, "/login", path)
}

func idText(id int64) string {
	return strconv.FormatInt(id, 10)
}
