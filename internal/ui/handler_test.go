package ui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/donald-f-ferguson/w4111-dataservice/cfg"
	"github.com/donald-f-ferguson/w4111-dataservice/internal/stage"
	"github.com/donald-f-ferguson/w4111-dataservice/pkg/db"
	"github.com/donald-f-ferguson/w4111-dataservice/pkg/log"
)

// newTestHandler builds a handler over an in-memory database. ATTACH
// gives sqlite the two schema names so the qualified table references
// work exactly as they do against the real server.
func newTestHandler(t *testing.T, requestsPerSecond int) *Handler {
	t.Helper()
	loader, _ := cfg.NewMockLoader()
	config, err := loader.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	config.Api.RequestsPerSecond = requestsPerSecond

	logger, _ := log.NewCslLogger()
	conn, _ := db.NewSqlite(":memory:")
	catalog, _ := stage.NewCatalog()

	store, err := stage.NewStore(config, logger, conn, catalog)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	dbh, err := conn.Db()
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for _, schema := range catalog.Schemas() {
		if err := dbh.Exec("ATTACH DATABASE ':memory:' AS " + schema).Error; err != nil {
			t.Fatalf("attach %s: %v", schema, err)
		}
	}

	ctx := context.Background()
	names, err := catalog.Lookup(stage.SchemaImdb, "name_basics")
	if err != nil {
		t.Fatalf("lookup name_basics: %v", err)
	}
	if err := store.Replace(ctx, names); err != nil {
		t.Fatalf("replace name_basics: %v", err)
	}
	err = store.InsertRows(ctx, names, []map[string]string{
		{"nconst": "nm0000001", "primary_name": "Fred Astaire", "birth_year": "1899", "death_year": "1987", "primary_profession": "actor", "known_for_titles": "tt0072308"},
		{"nconst": "nm0000158", "primary_name": "Tom Hanks", "birth_year": "1956", "death_year": `\N`, "primary_profession": "actor,producer", "known_for_titles": "tt0109830"},
		{"nconst": "nm0362766", "primary_name": "Tom Hardy", "birth_year": "1977", "death_year": `\N`, "primary_profession": "actor", "known_for_titles": "tt1375666"},
	})
	if err != nil {
		t.Fatalf("seed name_basics: %v", err)
	}

	people, err := catalog.Lookup(stage.SchemaLahman, "people")
	if err != nil {
		t.Fatalf("lookup people: %v", err)
	}
	if err := store.Replace(ctx, people); err != nil {
		t.Fatalf("replace people: %v", err)
	}
	err = store.InsertRows(ctx, people, []map[string]string{
		{"playerID": "ruthba01", "nameFirst": "Babe", "nameLast": "Ruth", "bats": "L", "throws": "L"},
		{"playerID": "gehrilo01", "nameFirst": "Lou", "nameLast": "Gehrig", "bats": "L", "throws": "L"},
		{"playerID": "aaronha01", "nameFirst": "Hank", "nameLast": "Aaron", "bats": "R", "throws": "R"},
	})
	if err != nil {
		t.Fatalf("seed people: %v", err)
	}

	handler, err := NewHandler(logger, config, store)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	handler.baseDir = "static"
	return handler
}

func serve(t *testing.T, h *Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	req.RemoteAddr = "192.0.2.1:50000"
	h.Middleware(mux).ServeHTTP(rec, req)
	return rec
}

func decodeRows(t *testing.T, rec *httptest.ResponseRecorder) []map[string]string {
	t.Helper()
	var rows []map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return rows
}

func TestPrefixSearchRoute(t *testing.T) {
	h := newTestHandler(t, 0)

	rec := serve(t, h, http.MethodGet, "/imdbraw/name_basics/primary_name/Tom%20Han")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rows := decodeRows(t, rec)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0]["primary_name"] != "Tom Hanks" {
		t.Errorf("expected Tom Hanks, got %q", rows[0]["primary_name"])
	}
	if rows[0]["death_year"] != `\N` {
		t.Errorf("expected \\N kept verbatim, got %q", rows[0]["death_year"])
	}

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected CORS header on response, got %q", got)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("expected a request id header")
	}
}

func TestPrefixSearchEmptyResultIsArray(t *testing.T) {
	h := newTestHandler(t, 0)

	rec := serve(t, h, http.MethodGet, "/imdbraw/name_basics/primary_name/Zzz")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := strings.TrimSpace(rec.Body.String())
	if body != "[]" {
		t.Fatalf("expected empty array body, got %q", body)
	}
}

func TestPrefixSearchUnknownIdentifiers(t *testing.T) {
	h := newTestHandler(t, 0)

	for _, target := range []string{
		"/nope/name_basics/primary_name/Tom",
		"/imdbraw/nope/primary_name/Tom",
		"/imdbraw/name_basics/nope/Tom",
	} {
		rec := serve(t, h, http.MethodGet, target)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", target, rec.Code)
		}
		var body map[string]interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: expected a JSON error body: %v", target, err)
		}
		if msg, ok := body["error"].(string); !ok || msg == "" {
			t.Errorf("%s: expected an error message, got %v", target, body)
		}
	}
}

func TestPrefixSearchBadPaging(t *testing.T) {
	h := newTestHandler(t, 0)

	for _, target := range []string{
		"/imdbraw/name_basics/primary_name/Tom?limit=abc",
		"/imdbraw/name_basics/primary_name/Tom?limit=0",
		"/imdbraw/name_basics/primary_name/Tom?offset=-1",
	} {
		rec := serve(t, h, http.MethodGet, target)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestPrefixSearchPaging(t *testing.T) {
	h := newTestHandler(t, 0)

	rec := serve(t, h, http.MethodGet, "/imdbraw/name_basics/primary_name/Tom?limit=1&offset=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rows := decodeRows(t, rec)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
}

func TestPrefixSearchMethodNotAllowed(t *testing.T) {
	h := newTestHandler(t, 0)

	rec := serve(t, h, http.MethodPost, "/imdbraw/name_basics/primary_name/Tom")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestArtistsRoute(t *testing.T) {
	h := newTestHandler(t, 0)

	rec := serve(t, h, http.MethodGet, "/imdb/artists/Tom")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rows := decodeRows(t, rec)
	if len(rows) != 2 {
		t.Fatalf("expected 2 artists, got %d", len(rows))
	}

	rec = serve(t, h, http.MethodGet, "/imdb/artists/Tom/extra")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for a nested path, got %d", rec.Code)
	}
}

func TestTemplateQueryRoute(t *testing.T) {
	h := newTestHandler(t, 0)

	rec := serve(t, h, http.MethodGet, "/api/lahman2019raw/people/query?nameLast=Ruth")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data       []map[string]string `json:"data"`
		Pagination struct {
			Limit      int   `json:"limit"`
			Offset     int   `json:"offset"`
			TotalCount int64 `json:"totalCount"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0]["playerID"] != "ruthba01" {
		t.Fatalf("expected the Ruth row, got %v", envelope.Data)
	}
	if envelope.Pagination.TotalCount != 1 {
		t.Errorf("expected totalCount 1, got %d", envelope.Pagination.TotalCount)
	}

	rec = serve(t, h, http.MethodGet, "/api/lahman2019raw/people/query?bats=L&fields=playerID,nameLast")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if len(envelope.Data) != 2 {
		t.Fatalf("expected 2 left-handed batters, got %d", len(envelope.Data))
	}
	for _, row := range envelope.Data {
		if len(row) != 2 {
			t.Errorf("expected 2 projected fields, got %v", row)
		}
	}
}

func TestTemplateQueryUnknownIdentifiers(t *testing.T) {
	h := newTestHandler(t, 0)

	for _, target := range []string{
		"/api/nope/people/query",
		"/api/lahman2019raw/nope/query",
		"/api/lahman2019raw/people/query?nope=x",
		"/api/lahman2019raw/people/nope",
	} {
		rec := serve(t, h, http.MethodGet, target)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", target, rec.Code)
		}
	}
}

func TestHealthRoute(t *testing.T) {
	h := newTestHandler(t, 0)

	rec := serve(t, h, http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["database"] != "up" {
		t.Errorf("expected database up, got %v", body["database"])
	}
}

func TestHomePage(t *testing.T) {
	h := newTestHandler(t, 0)

	rec := serve(t, h, http.MethodGet, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "W4111 Data Service") {
		t.Error("expected the browse page title in the body")
	}
}

func TestMetricsRoute(t *testing.T) {
	h := newTestHandler(t, 0)

	// One request first so the counters exist.
	serve(t, h, http.MethodGet, "/imdbraw/name_basics/primary_name/Tom")

	rec := serve(t, h, http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "dataservice_http_requests_total") {
		t.Error("expected request counters in the metrics exposition")
	}
}

func TestRateLimitReturns429(t *testing.T) {
	h := newTestHandler(t, 2)

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = serve(t, h, http.MethodGet, "/healthz")
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on the third request, got %d", last.Code)
	}
	if got := last.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected CORS header on the 429, got %q", got)
	}
}

func TestOptionsPreflight(t *testing.T) {
	h := newTestHandler(t, 0)

	rec := serve(t, h, http.MethodOptions, "/imdbraw/name_basics/primary_name/Tom")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "GET") {
		t.Errorf("expected allowed methods header, got %q", got)
	}
}
