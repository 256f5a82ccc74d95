package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/shortlist/internal/config"
	"github.com/hyperjump/shortlist/internal/embedding"
	"github.com/hyperjump/shortlist/internal/extract"
	"github.com/hyperjump/shortlist/internal/pipeline"
	"github.com/hyperjump/shortlist/internal/retriever"
	"github.com/hyperjump/shortlist/internal/storage"
	"go.uber.org/zap"
)

type stubScorer struct{}

func (s *stubScorer) Explain(_ context.Context, _, _ string) (string, error) {
	return "Rating: 7.00/10. The resume shows relevant experience.", nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := storage.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	embedder := embedding.NewMockEmbedder(8)
	t.Cleanup(func() { embedder.Close() })
	pipe := pipeline.NewPipeline(extract.NewExtractor(), retriever.NewRetriever(embedder), &stubScorer{})
	return NewServer(pipe, store, &config.ServerConfig{Port: 8080}, nil, zap.NewNop())
}

func writeResumes(t *testing.T) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, 0, 2)
	for name, text := range map[string]string{
		"backend.txt":  "Go engineer with Postgres and Kubernetes experience",
		"designer.txt": "Graphic designer skilled in typography and branding",
	} {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(text), 0644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	return dir, paths
}

func TestHandleScreen(t *testing.T) {
	srv := newTestServer(t)
	_, paths := writeResumes(t)

	body, _ := json.Marshal(screenRequest{
		JobText:     "Backend Go engineer",
		ResumePaths: paths,
		K:           2,
	})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/screen", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.handleScreen(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out struct {
		RunID   string `json:"run_id"`
		Results []struct {
			DocumentID string `json:"document_id"`
			Rank       int    `json:"rank"`
		} `json:"results"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.RunID == "" {
		t.Error("expected run_id in response")
	}
	if len(out.Results) != 2 {
		t.Errorf("results: got %d, want 2", len(out.Results))
	}
}

func TestHandleScreen_ResumeDir(t *testing.T) {
	srv := newTestServer(t)
	dir, _ := writeResumes(t)

	body, _ := json.Marshal(screenRequest{JobText: "Backend Go engineer", ResumeDir: dir})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/screen", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.handleScreen(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
}

func TestHandleScreen_MissingJobText(t *testing.T) {
	srv := newTestServer(t)
	body, _ := json.Marshal(screenRequest{ResumePaths: []string{"/tmp/x.txt"}})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/screen", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.handleScreen(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleScreen_NoResumes(t *testing.T) {
	srv := newTestServer(t)
	body, _ := json.Marshal(screenRequest{JobText: "Backend Go engineer"})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/screen", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.handleScreen(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleScreen_BadResumeDir(t *testing.T) {
	srv := newTestServer(t)
	body, _ := json.Marshal(screenRequest{JobText: "Backend Go engineer", ResumeDir: "/nonexistent/dir"})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/screen", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.handleScreen(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", w.Code)
	}
}

func TestHandleRuns(t *testing.T) {
	srv := newTestServer(t)
	_, paths := writeResumes(t)

	body, _ := json.Marshal(screenRequest{JobText: "Backend Go engineer", ResumePaths: paths})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/screen", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.handleScreen(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("screen status: got %d, body: %s", w.Code, w.Body.String())
	}
	var screened struct {
		RunID string `json:"run_id"`
	}
	if err := json.NewDecoder(w.Body).Decode(&screened); err != nil {
		t.Fatal(err)
	}

	r = httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
	w = httptest.NewRecorder()
	srv.handleListRuns(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("list status: got %d", w.Code)
	}
	var listed struct {
		Runs  []json.RawMessage `json:"runs"`
		Total int64             `json:"total"`
	}
	if err := json.NewDecoder(w.Body).Decode(&listed); err != nil {
		t.Fatal(err)
	}
	if listed.Total != 1 || len(listed.Runs) != 1 {
		t.Errorf("list: total=%d runs=%d", listed.Total, len(listed.Runs))
	}

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", screened.RunID)
	r = httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+screened.RunID, nil)
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	w = httptest.NewRecorder()
	srv.handleGetRun(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("get status: got %d", w.Code)
	}
}

func TestHandleGetRun_NotFound(t *testing.T) {
	srv := newTestServer(t)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "missing")
	r := httptest.NewRequest(http.MethodGet, "/api/v1/runs/missing", nil)
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	w := httptest.NewRecorder()
	srv.handleGetRun(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", w.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	srv := newTestServer(t)
	r := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	w := httptest.NewRecorder()
	srv.handleStatus(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Runs int64 `json:"runs"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Runs != 0 {
		t.Errorf("runs: got %d, want 0", out.Runs)
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t)
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.handleHealth(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
}
