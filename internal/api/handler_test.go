package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/settingsd/internal/loader"
	"github.com/eugenenazirov/settingsd/internal/schema"
	"github.com/eugenenazirov/settingsd/internal/storage"
)

type controllableClock struct {
	mu  sync.RWMutex
	now time.Time
}

func newControllableClock(initial time.Time) *controllableClock {
	return &controllableClock{now: initial}
}

func (c *controllableClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

func (c *controllableClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type stubReloader struct {
	store  *storage.MemoryStorage
	issues []loader.Issue
	err    error
	calls  int
}

func (s *stubReloader) Reload(context.Context) (storage.Snapshot, []loader.Issue, error) {
	s.calls++
	if s.err != nil {
		return storage.Snapshot{}, s.issues, s.err
	}
	snap, err := s.store.Apply(map[string]any{"tabs.position": "bottom"}, map[string]string{"xb": "devtools"})
	return snap, s.issues, err
}

func newTestHandler(t *testing.T, opts ...HandlerOption) (*Handler, *storage.MemoryStorage) {
	t.Helper()

	store := storage.NewMemoryStorage(schema.Browser())
	l := loader.New(schema.Browser(), zaptest.NewLogger(t))
	return NewHandler(store, l, opts...), store
}

func setupTestRouter(t *testing.T, opts ...HandlerOption) (http.Handler, *storage.MemoryStorage, *controllableClock) {
	t.Helper()

	clock := newControllableClock(time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC))
	handler, store := newTestHandler(t, append([]HandlerOption{WithClock(clock.Now)}, opts...)...)
	logger := zaptest.NewLogger(t)
	router := NewRouter(handler, logger, WithLogging(false))

	return router, store, clock
}

func doRequest(t *testing.T, router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var body T
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return body
}

func TestRequestIDHelpers(t *testing.T) {
	ctx := contextWithRequestID(context.Background(), "abc")
	if got := requestIDFromContext(ctx); got != "abc" {
		t.Fatalf("expected abc, got %s", got)
	}
	resp := httptest.NewRecorder()
	writeInternalError(resp, assertError("boom"))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 status, got %d", resp.Code)
	}
}

type assertError string

func (a assertError) Error() string { return string(a) }

func TestHealthEndpoint(t *testing.T) {
	router, store, clock := setupTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body := decode[healthResponse](t, rec)
	if body.Status != "ok" {
		t.Fatalf("expected status ok, got %s", body.Status)
	}
	if !body.Timestamp.Equal(clock.Now()) {
		t.Fatalf("expected timestamp %s, got %s", clock.Now(), body.Timestamp)
	}
	if body.Revision != store.Snapshot().Revision {
		t.Fatalf("expected current revision, got %s", body.Revision)
	}
}

func TestGetSettingsReturnsDefaults(t *testing.T) {
	router, store, _ := setupTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/settings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body := decode[settingsResponse](t, rec)
	if len(body.Options) != schema.Browser().Len() {
		t.Fatalf("expected %d options, got %d", schema.Browser().Len(), len(body.Options))
	}
	if got := body.Options["tabs.position"]; got != "top" {
		t.Fatalf("expected default tabs.position, got %v", got)
	}
	if body.Revision != store.Snapshot().Revision {
		t.Fatalf("expected current revision, got %s", body.Revision)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/settings?configured=true", "")
	if body := decode[settingsResponse](t, rec); len(body.Options) != 0 {
		t.Fatalf("expected no configured options, got %v", body.Options)
	}
}

func TestGetSettingDescribesOption(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/settings/url.start_pages", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body := decode[settingResponse](t, rec)
	if body.Path != "url.start_pages" || body.Section != "url" || body.Type != "list<url>" {
		t.Fatalf("unexpected descriptor: %+v", body.optionDescriptor)
	}
	if body.Configured {
		t.Fatalf("expected default value not to be configured")
	}
	pages, ok := body.Value.([]any)
	if !ok || len(pages) != 1 || pages[0] != "https://start.duckduckgo.com" {
		t.Fatalf("unexpected value %v", body.Value)
	}
}

func TestGetSettingUnknownSuggests(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/settings/tabs.postion", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	body := decode[errorResponse](t, rec)
	if !strings.Contains(body.Suggestion, "tabs.position") {
		t.Fatalf("expected suggestion for tabs.position, got %q", body.Suggestion)
	}
}

func TestPutSettingUpdatesStorage(t *testing.T) {
	router, store, _ := setupTestRouter(t)
	before := store.Snapshot().Revision

	rec := doRequest(t, router, http.MethodPut, "/api/settings/url.start_pages", `{"value": ["https://duckduckgo.com"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decode[settingResponse](t, rec)
	if !body.Configured || body.Message == "" {
		t.Fatalf("unexpected response: %+v", body)
	}
	if body.Revision == before {
		t.Fatalf("expected a new revision")
	}

	snap := store.Snapshot()
	pages, ok := snap.Options["url.start_pages"].([]string)
	if !ok || len(pages) != 1 || pages[0] != "https://duckduckgo.com" {
		t.Fatalf("expected stored start pages, got %v", snap.Options["url.start_pages"])
	}

	rec = doRequest(t, router, http.MethodPut, "/api/settings/content.cache.size", `{"value": 1024}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got := store.Snapshot().Options["content.cache.size"]; got != 1024 {
		t.Fatalf("expected integer 1024, got %v (%T)", got, got)
	}

	rec = doRequest(t, router, http.MethodPut, "/api/settings/content.cache.size", `{"value": null}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected null to clear a nullable option, got %d", rec.Code)
	}
}

func TestPutSettingValidatesInput(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	testCases := []struct {
		name   string
		target string
		body   string
		status int
	}{
		{name: "malformed json", target: "/api/settings/tabs.position", body: `{"value":`, status: http.StatusBadRequest},
		{name: "missing value", target: "/api/settings/tabs.position", body: `{}`, status: http.StatusBadRequest},
		{name: "invalid enum", target: "/api/settings/tabs.position", body: `{"value": "diagonal"}`, status: http.StatusBadRequest},
		{name: "null for required", target: "/api/settings/tabs.position", body: `{"value": null}`, status: http.StatusBadRequest},
		{name: "fraction for int", target: "/api/settings/messages.timeout", body: `{"value": 1.5}`, status: http.StatusBadRequest},
		{name: "unknown option", target: "/api/settings/nope.nothing", body: `{"value": 1}`, status: http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPut, tc.target, tc.body)
			if rec.Code != tc.status {
				t.Fatalf("expected status %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestGetBindings(t *testing.T) {
	router, store, _ := setupTestRouter(t)
	if _, err := store.Apply(nil, map[string]string{
		"xb":             "config-cycle statusbar.show always never",
		"<Ctrl-Shift-I>": "devtools",
		",g":             "open https://github.com",
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	rec := doRequest(t, router, http.MethodGet, "/api/bindings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := decode[bindingsResponse](t, rec)
	got := make([]string, 0, len(body.Bindings))
	for _, b := range body.Bindings {
		got = append(got, b.Trigger)
	}
	if want := []string{",g", "<Ctrl-Shift-I>", "xb"}; fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("expected ordered triggers %v, got %v", want, got)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/bindings?trigger=%3Cshift-ctrl-I%3E", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 for normalized lookup, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/bindings?trigger=zz", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/bindings?trigger=%3CCtrl-", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestGetSchemaFiltersBySection(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/schema", "")
	all := decode[schemaResponse](t, rec)
	if len(all.Options) != schema.Browser().Len() {
		t.Fatalf("expected every option, got %d", len(all.Options))
	}

	rec = doRequest(t, router, http.MethodGet, "/api/schema?section=tabs", "")
	tabs := decode[schemaResponse](t, rec)
	if len(tabs.Options) == 0 {
		t.Fatalf("expected tabs options")
	}
	for _, opt := range tabs.Options {
		if opt.Section != "tabs" {
			t.Fatalf("unexpected option %s in tabs section", opt.Path)
		}
	}
}

func TestValidateEndpoint(t *testing.T) {
	router, store, _ := setupTestRouter(t)
	before := store.Snapshot().Revision

	rec := doRequest(t, router, http.MethodPost, "/api/validate", "settings:\n  tabs.position: left\n  tabs.postion: top\n")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := decode[validateResponse](t, rec)
	if body.Valid || body.Options != 1 || len(body.Issues) != 1 {
		t.Fatalf("unexpected validation result: %+v", body)
	}
	if body.Issues[0].Kind != loader.KindUnknownOption || body.Issues[0].Suggestion != "tabs.position" {
		t.Fatalf("unexpected issue: %+v", body.Issues[0])
	}
	if store.Snapshot().Revision != before {
		t.Fatalf("validation must not change the stored settings")
	}

	rec = doRequest(t, router, http.MethodPost, "/api/validate?format=toml", "[settings]\n\"tabs.position\" = \"left\"\n")
	if body := decode[validateResponse](t, rec); !body.Valid || body.Options != 1 {
		t.Fatalf("expected valid TOML document, got %+v", body)
	}

	rec = doRequest(t, router, http.MethodPost, "/api/validate?format=ini", "x")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for unknown format, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPost, "/api/validate", "settings: [")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422 for syntax error, got %d", rec.Code)
	}
}

func TestReloadEndpoint(t *testing.T) {
	router, _, _ := setupTestRouter(t)
	rec := doRequest(t, router, http.MethodPost, "/api/reload", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503 without reloader, got %d", rec.Code)
	}

	reloader := &stubReloader{issues: []loader.Issue{{Kind: loader.KindUnknownOption, Path: "x.y", Message: "unknown option"}}}
	router, store, _ := setupTestRouter(t, WithReloader(reloader))
	reloader.store = store

	rec = doRequest(t, router, http.MethodPost, "/api/reload", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := decode[reloadResponse](t, rec)
	if body.Revision != store.Snapshot().Revision || body.Bindings != 1 || len(body.Issues) != 1 {
		t.Fatalf("unexpected reload response: %+v", body)
	}

	reloader.err = fmt.Errorf("%w: 1 error", storage.ErrInvalidSettings)
	rec = doRequest(t, router, http.MethodPost, "/api/reload", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
	if body := decode[reloadResponse](t, rec); len(body.Issues) != 1 || body.Error == "" {
		t.Fatalf("expected issues in rejected reload, got %+v", body)
	}

	reloader.err = fmt.Errorf("read file: %w", fs.ErrNotExist)
	rec = doRequest(t, router, http.MethodPost, "/api/reload", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for missing file, got %d", rec.Code)
	}

	reloader.err = errors.New("disk on fire")
	rec = doRequest(t, router, http.MethodPost, "/api/reload", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if reloader.calls != 4 {
		t.Fatalf("expected four reloads, got %d", reloader.calls)
	}
}

func TestCorsPreflight(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/settings/tabs.position", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "PUT")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("expected Access-Control-Allow-Origin header to be set")
	}
}

func TestRequestIDPropagation(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "test-request-id")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "test-request-id" {
		t.Fatalf("expected X-Request-ID header to be echoed, got %s", got)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/health", "")
	if got := rec.Header().Get("X-Request-ID"); len(got) != 36 {
		t.Fatalf("expected generated UUID request id, got %q", got)
	}
}
