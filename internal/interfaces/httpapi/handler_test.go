package httpapi

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"

	"github.com/soniCaH/kcvv-data/internal/cms"
	"github.com/soniCaH/kcvv-data/internal/platform/logging"
	"github.com/soniCaH/kcvv-data/internal/stats"
)

const testAdminToken = "test-admin-token"

func newTestRouter(t *testing.T, cmsHandler, statsHandler http.Handler) http.Handler {
	t.Helper()

	cmsServer := httptest.NewServer(cmsHandler)
	t.Cleanup(cmsServer.Close)
	statsServer := httptest.NewServer(statsHandler)
	t.Cleanup(statsServer.Close)

	content := cms.New(cms.Config{
		BaseURL:    cmsServer.URL + "/jsonapi",
		SiteURL:    cmsServer.URL,
		MaxRetries: -1,
		Logger:     logging.NewNop(),
	})
	statsService := stats.NewService(stats.NewClient(stats.ClientConfig{
		BaseURL:    statsServer.URL,
		MaxRetries: -1,
		Logger:     logging.NewNop(),
	}), stats.ServiceConfig{Logger: logging.NewNop()})

	handler := NewHandler(content, statsService, logging.NewNop())
	return NewRouter(handler, slog.New(slog.DiscardHandler), nil, testAdminToken)
}

func decodeEnvelope(t *testing.T, body io.Reader) googleResponseEnvelope {
	t.Helper()
	raw, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var envelope googleResponseEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, raw)
	}
	return envelope
}

func TestListArticlesRoute(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{
			"type": "node--article",
			"id": "a-1",
			"attributes": {"title": "Seizoenstart", "created": "2026-08-20T18:30:00+02:00"}
		}]}`)
	}), http.NotFoundHandler())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/news", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	envelope := decodeEnvelope(t, rec.Body)
	if envelope.Error != nil {
		t.Fatalf("unexpected error: %+v", envelope.Error)
	}
	if !strings.Contains(rec.Header().Get("Content-Type"), "application/json") {
		t.Fatalf("content type = %q", rec.Header().Get("Content-Type"))
	}
}

func TestListArticlesRoute_BadOffset(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, http.NotFoundHandler(), http.NotFoundHandler())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/news?offset=abc", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	envelope := decodeEnvelope(t, rec.Body)
	if envelope.Error == nil || envelope.Error.Status != "INVALID_ARGUMENT" {
		t.Fatalf("error = %+v", envelope.Error)
	}
}

func TestGetArticleRoute_NotFound(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}), http.NotFoundHandler())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/news/ontbreekt", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	envelope := decodeEnvelope(t, rec.Body)
	if envelope.Error == nil || envelope.Error.Status != "NOT_FOUND" {
		t.Fatalf("error = %+v", envelope.Error)
	}
}

func TestNextMatchesRoute(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, http.NotFoundHandler(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/matches/next" {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprint(w, `[{"id": 900, "date": "2026-09-05 20:00", "status": 0,
			"homeClub": {"id": 30035, "name": "KCVV Elewijt"},
			"awayClub": {"id": 44, "name": "Verbroedering"}}]`)
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/matches/next", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"scheduled"`) {
		t.Fatalf("body lacks normalized status: %s", rec.Body.String())
	}
}

func TestTeamMatchesRoute_BadTeamID(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, http.NotFoundHandler(), http.NotFoundHandler())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/stats/teams/abc/matches", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestFlushRoute_RequiresAdminToken(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, http.NotFoundHandler(), http.NotFoundHandler())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/internal/cache/flush", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status without token = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/internal/cache/flush", nil)
	req.Header.Set("X-Admin-Token", testAdminToken)
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status with token = %d, want 200", rec.Code)
	}
}

func TestCORS_PreflightAllowsConfiguredOrigin(t *testing.T) {
	t.Parallel()

	handler := CORS([]string{"https://www.kcvvelewijt.be"}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/v1/news", nil)
	req.Header.Set("Origin", "https://www.kcvvelewijt.be")
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://www.kcvvelewijt.be" {
		t.Fatalf("allow origin = %q", got)
	}
}

func TestCORS_UnknownOriginGetsNoHeaders(t *testing.T) {
	t.Parallel()

	handler := CORS([]string{"https://www.kcvvelewijt.be"}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/news", nil)
	req.Header.Set("Origin", "https://evil.example")
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("allow origin = %q, want empty", got)
	}
}
