package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeworks-estimate/db/postgres"
	"tradeworks-estimate/internal/llm"
	"tradeworks-estimate/pkg/api"
	"tradeworks-estimate/pkg/platform"
)

// newTestServer wires a server against a stub chat completions endpoint.
// narrativeStatus controls the stub's HTTP status; narrativeContent is the
// completion returned on success.
func newTestServer(t *testing.T, narrativeStatus int, narrativeContent string) *Server {
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if narrativeStatus != http.StatusOK {
			http.Error(w, `{"error":{"message":"upstream failure"}}`, narrativeStatus)
			return
		}
		resp := map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": narrativeContent}}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(stub.Close)
	return NewServer(llm.NewClient("test-key", stub.URL), nil, nil, nil)
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func gfciRequest() api.PriceAndNarrateRequest {
	return api.PriceAndNarrateRequest{
		Tiers: []api.Tier{{
			TierName: "Good",
			LineItems: []api.LineItem{
				{Description: "Replace GFCI outlet in kitchen", Quantity: 2, Unit: "each"},
			},
		}},
		JobMeta: &api.JobMeta{ServiceType: "electrical"},
	}
}

func TestPreflightAllowed(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, "n/a")
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/price-and-narrate", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-API-Key")
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, "n/a")
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, platform.Version, body["version"])
}

func TestReady_NoStoresIsReady(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, "n/a")
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPriceAndNarrate_MissingKey(t *testing.T) {
	srv := NewServer(llm.NewClient("", ""), nil, nil, nil)
	rec := postJSON(t, srv.Router(), "/api/v1/price-and-narrate", gfciRequest())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "OPENAI_API_KEY environment variable is required", body["error"])
	assert.Equal(t, "Failed to price repairs and generate narrative", body["details"])
}

func TestPriceAndNarrate_ValidationErrors(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, "narrative")

	rec := postJSON(t, srv.Router(), "/api/v1/price-and-narrate", api.PriceAndNarrateRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "tiers array is required and must not be empty", body["error"])
	assert.Equal(t, "Failed to price repairs and generate narrative", body["details"])

	rec = postJSON(t, srv.Router(), "/api/v1/price-and-narrate", api.PriceAndNarrateRequest{
		Tiers: []api.Tier{{TierName: "Good"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPriceAndNarrate_MalformedBody(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, "narrative")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/price-and-narrate", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPriceAndNarrate_Success(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, "## Kitchen GFCI Estimate")
	rec := postJSON(t, srv.Router(), "/api/v1/price-and-narrate", gfciRequest())

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp api.PriceAndNarrateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "## Kitchen GFCI Estimate", resp.Narrative)
	require.Len(t, resp.PricedTiers, 1)

	// 2 x $12 GFCI is far below the believable band, so it anchors at 800.
	assert.Equal(t, 800.0, resp.PricedTiers[0].TotalAmount)
	assert.Equal(t, "Essential repairs and code compliance", resp.PricedTiers[0].Description)
}

func TestPriceAndNarrate_UpstreamFailure(t *testing.T) {
	srv := newTestServer(t, http.StatusInternalServerError, "")
	rec := postJSON(t, srv.Router(), "/api/v1/price-and-narrate", gfciRequest())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "OpenAI API error: 500")
	assert.Equal(t, "Failed to price repairs and generate narrative", body["details"])
}

func TestEstimatePDF(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, "n/a")
	rec := postJSON(t, srv.Router(), "/api/v1/estimate/pdf", gfciRequest())

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "estimate.pdf")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestAnalyze_MissingKey(t *testing.T) {
	srv := NewServer(llm.NewClient("", ""), nil, nil, nil)
	rec := postJSON(t, srv.Router(), "/api/v1/analyze", api.AnalyzeRequest{AnalysisType: api.AnalysisPricing})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "OpenAI API key not configured. Please set the OPENAI_API_KEY environment variable.", body["error"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestAnalyze_BasicPricing(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `[{"tier_name":"Good","description":"Fix","total_amount":275,"line_items":[]}]`)
	rec := postJSON(t, srv.Router(), "/api/v1/analyze", api.AnalyzeRequest{AnalysisType: api.AnalysisPricing})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp api.AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.PricingSuggestions, 1)
	assert.Equal(t, 275.0, resp.PricingSuggestions[0].TotalAmount)
}

func TestListAnalyses_NoArchiveConfigured(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, "n/a")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyses?jobId=job-1", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "DATABASE_URL")
	assert.NotEmpty(t, body["timestamp"])
}

func TestListAnalyses_RequiresJobID(t *testing.T) {
	// sql.Open is lazy, so an archive handle exists without a live server and
	// the jobId check runs before any query.
	archive, err := postgres.Open("postgres://localhost:1/unused?sslmode=disable")
	require.NoError(t, err)
	t.Cleanup(func() { archive.Close() })

	srv := NewServer(llm.NewClient("test-key", ""), nil, archive, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyses", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "jobId query parameter is required", body["error"])
}

func TestAPIKeyEnforcement(t *testing.T) {
	t.Setenv("TRADEWORKS_API_KEY", "secret")
	srv := newTestServer(t, http.StatusOK, "narrative")

	rec := postJSON(t, srv.Router(), "/api/v1/price-and-narrate", gfciRequest())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	raw, _ := json.Marshal(gfciRequest())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/price-and-narrate", bytes.NewReader(raw))
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health stays open.
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
