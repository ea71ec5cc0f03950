package health_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/govhub/internal/app/features/health"
	"github.com/dalemusser/govhub/internal/testutil"
	"go.uber.org/zap"
)

type response struct {
	Status   string `json:"status"`
	Storage  string `json:"storage"`
	Database string `json:"database"`
}

func serve(t *testing.T, h *health.Handler) (int, response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Serve(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}
	var resp response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return rec.Code, resp
}

func TestServe_MemoryStore(t *testing.T) {
	code, resp := serve(t, health.NewHandler(nil, zap.NewNop()))
	if code != http.StatusOK {
		t.Errorf("status = %d", code)
	}
	if resp.Status != "ok" || resp.Storage != "memory" {
		t.Errorf("response = %+v", resp)
	}
}

func TestServe_DatabaseConnected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	code, resp := serve(t, health.NewHandler(db.Client(), zap.NewNop()))
	if code != http.StatusOK {
		t.Errorf("status = %d", code)
	}
	if resp.Status != "ok" || resp.Database != "connected" || resp.Storage != "mongo" {
		t.Errorf("response = %+v", resp)
	}
}
