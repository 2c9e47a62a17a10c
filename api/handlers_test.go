package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/commission-engine/commission"
	"github.com/warp/commission-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	h := NewHandler(memory.New(), commission.DefaultConfig(), log)
	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

// seedSale registers a manager, an agent, a product and one confirmed sale
// through the API itself.
func seedSale(t *testing.T, base string) {
	t.Helper()

	resp, _ := doJSON(t, http.MethodPost, base+"/api/profiles/", map[string]any{
		"id": "mgr-1", "type": "BRANCH_MANAGER", "name": "Manager One",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, base+"/api/profiles/", map[string]any{
		"id": "agt-1", "type": "SALES_AGENT", "name": "Agent One", "withholding_rate": "5",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, base+"/api/products/", map[string]any{
		"id": "crs-1", "code": "CRS-BASIC", "name": "Basic Course", "currency": "KRW",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, base+"/api/sales/", map[string]any{
		"id":                 "sale-1",
		"sale_amount":        "1000000",
		"cost_amount":        "400000",
		"manager_profile_id": "mgr-1",
		"agent_profile_id":   "agt-1",
		"product_id":         "crs-1",
		"branch_commission":  "100000",
		"sales_commission":   "150000",
		"status":             "CONFIRMED",
		"sale_date":          "2026-08-15",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

// =============================================================================
// LEDGER FLOW
// =============================================================================

func TestSyncLedgerEndpoint(t *testing.T) {
	// GIVEN: A confirmed sale created through the API
	// WHEN: POSTing a ledger sync with the HQ entry enabled
	// THEN: The breakdown and entry count come back, and GET /ledger shows
	//       the three entries

	srv := newTestServer(t)
	seedSale(t, srv.URL)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/sales/sale-1/ledger/sync", map[string]any{
		"regenerate": true, "include_hq": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "sale-1", body["sale_id"])
	assert.Equal(t, float64(3), body["entries_created"])

	breakdown, ok := body["breakdown"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "350000", breakdown["net_revenue"])

	resp, ledger := doJSON(t, http.MethodGet, srv.URL+"/api/sales/sale-1/ledger", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries, ok := ledger["entries"].([]any)
	require.True(t, ok)
	assert.Len(t, entries, 3)
}

func TestSyncLedgerEndpoint_SaleNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/sales/ghost/ledger/sync", map[string]any{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSyncLedgerEndpoint_PendingSaleConflicts(t *testing.T) {
	srv := newTestServer(t)
	seedSale(t, srv.URL)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/sales/sale-1/status", map[string]any{
		"status": "PENDING",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/sales/sale-1/ledger/sync", map[string]any{})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestVoidLedgerEndpoint(t *testing.T) {
	// GIVEN: A synced sale that is then cancelled
	// WHEN: POSTing a void
	// THEN: The ledger is empty and the summary is zeroed

	srv := newTestServer(t)
	seedSale(t, srv.URL)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/sales/sale-1/ledger/sync", map[string]any{
		"regenerate": true, "include_hq": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Voiding a non-cancelled sale is rejected.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/sales/sale-1/ledger/void", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/sales/sale-1/status", map[string]any{
		"status": "CANCELLED",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/sales/sale-1/ledger/void", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["entries_created"])

	resp, ledger := doJSON(t, http.MethodGet, srv.URL+"/api/sales/sale-1/ledger", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries, ok := ledger["entries"].([]any)
	require.True(t, ok)
	assert.Empty(t, entries)

	summary, ok := ledger["summary"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "0", summary["net_revenue"])
}

// =============================================================================
// SETTLEMENTS
// =============================================================================

func TestSettlementEndpoints(t *testing.T) {
	srv := newTestServer(t)
	seedSale(t, srv.URL)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/sales/sale-1/ledger/sync", map[string]any{
		"regenerate": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Preview over a wide window.
	url := fmt.Sprintf("%s/api/settlements/?from=%s&to=%s", srv.URL, "2020-01-01", "2099-01-01")
	resp, preview := doJSON(t, http.MethodGet, url, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	lines, ok := preview["lines"].([]any)
	require.True(t, ok)
	assert.Len(t, lines, 2)

	// Record a run and find it in history.
	resp, run := doJSON(t, http.MethodPost, srv.URL+"/api/settlements/run", map[string]any{
		"from": "2020-01-01", "to": "2099-01-01",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "completed", run["status"])

	resp, history := doJSON(t, http.MethodGet, srv.URL+"/api/settlements/runs", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	runs, ok := history["runs"].([]any)
	require.True(t, ok)
	require.Len(t, runs, 1)
}

func TestSettlementPreview_InvalidPeriod(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/settlements/?from=2026-02-01&to=2026-01-01", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestCreateSale_Validation(t *testing.T) {
	srv := newTestServer(t)

	// Missing sale_date.
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/sales/", map[string]any{
		"id": "sale-x", "sale_amount": "100",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Bad status value.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/sales/", map[string]any{
		"id": "sale-x", "sale_amount": "100", "sale_date": "2026-08-01", "status": "SHIPPED",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateProfile_Validation(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/profiles/", map[string]any{
		"id": "p-1", "type": "INTERN", "name": "Nope",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
