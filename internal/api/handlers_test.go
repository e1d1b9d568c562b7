package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jwyang/deckgen/internal/config"
	"github.com/jwyang/deckgen/internal/noticestore"
	"github.com/jwyang/deckgen/internal/pipeline"
)

const testAPIKey = "test-api-key"

func testServer(t *testing.T) (*Server, *pipeline.Orchestrator) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	notices, err := noticestore.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { notices.Close() })

	// Runner is never exercised: the orchestrator is not started, so jobs
	// stay queued.
	runner := pipeline.NewRunner(nil, nil, nil, nil, nil, pipeline.RunnerConfig{}, log)
	orch := pipeline.NewOrchestrator(runner, 1, 10, time.Hour, log)

	cfg := config.Config{
		DeckgenAPIKey:     testAPIKey,
		MaxUploadBytes:    1 << 20,
		DefaultRenderMode: "html",
	}
	return NewServer(orch, notices, log, cfg), orch
}

func multipartUpload(t *testing.T, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	return req
}

func TestHealthNoAuth(t *testing.T) {
	s, _ := testServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	s, _ := testServer(t)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest("GET", "/api/decks/x/status", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no auth: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/decks/x/status", nil)
	req.Header.Set("Authorization", "Bearer wrong-key")
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("auth error content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "invalid api key") {
		t.Errorf("auth error body = %q", rec.Body.String())
	}
}

func TestCreateDeckAccepted(t *testing.T) {
	s, orch := testServer(t)

	body, ctype := multipartUpload(t, "제안서.txt", "연구 제안 본문", map[string]string{
		"notice_id":   "n-1",
		"render_mode": "html",
		"theme":       "Clean Gray",
	})
	req := authed(httptest.NewRequest("POST", "/api/decks", body))
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		JobID   string `json:"job_id"`
		Status  string `json:"status"`
		PollURL string `json:"poll_url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != string(pipeline.StatusQueued) {
		t.Errorf("status = %q", resp.Status)
	}
	if !strings.HasPrefix(resp.PollURL, "/api/decks/") {
		t.Errorf("poll_url = %q", resp.PollURL)
	}

	job := orch.GetJob(resp.JobID)
	if job == nil {
		t.Fatal("job not registered")
	}
	if job.NoticeID != "n-1" || job.RenderMode != "html" || job.Theme != "Clean Gray" {
		t.Errorf("job params = %q/%q/%q", job.NoticeID, job.RenderMode, job.Theme)
	}
}

func TestCreateDeckUnsupportedType(t *testing.T) {
	s, _ := testServer(t)
	body, ctype := multipartUpload(t, "slides.pptx", "x", nil)
	req := authed(httptest.NewRequest("POST", "/api/decks", body))
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCreateDeckBadRenderMode(t *testing.T) {
	s, _ := testServer(t)
	body, ctype := multipartUpload(t, "a.txt", "본문", map[string]string{"render_mode": "keynote"})
	req := authed(httptest.NewRequest("POST", "/api/decks", body))
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestDeckStatusNotFound(t *testing.T) {
	s, _ := testServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, authed(httptest.NewRequest("GET", "/api/decks/nope/status", nil)))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestDeckDownload(t *testing.T) {
	s, orch := testServer(t)

	artifact := filepath.Join(t.TempDir(), "deck.html")
	if err := os.WriteFile(artifact, []byte("<html>deck</html>"), 0o644); err != nil {
		t.Fatal(err)
	}

	job := &pipeline.Job{
		ID: "job_done", Status: pipeline.StatusQueued,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	if err := orch.Submit(job); err != nil {
		t.Fatal(err)
	}

	// Not completed yet.
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, authed(httptest.NewRequest("GET", "/api/decks/job_done/download", nil)))
	if rec.Code != http.StatusConflict {
		t.Fatalf("incomplete job: status = %d", rec.Code)
	}

	job.SetArtifact(artifact)
	job.SetStatus(pipeline.StatusCompleted, "done")

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, authed(httptest.NewRequest("GET", "/api/decks/job_done/download", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "deck.html") {
		t.Errorf("disposition = %q", rec.Header().Get("Content-Disposition"))
	}
	if rec.Body.String() != "<html>deck</html>" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestNoticeCRUD(t *testing.T) {
	s, _ := testServer(t)

	// Missing notice.
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, authed(httptest.NewRequest("GET", "/api/notices/n-404", nil)))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing: status = %d", rec.Code)
	}

	// Upsert.
	body := strings.NewReader(`{"title":"공고","author":"담당자","agency":"한국연구재단"}`)
	req := authed(httptest.NewRequest("PUT", "/api/notices/n-1", body))
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("put: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// Read back.
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, authed(httptest.NewRequest("GET", "/api/notices/n-1", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status = %d", rec.Code)
	}
	var n noticestore.Notice
	if err := json.Unmarshal(rec.Body.Bytes(), &n); err != nil {
		t.Fatal(err)
	}
	if n.ID != "n-1" || n.Agency != "한국연구재단" {
		t.Errorf("notice = %+v", n)
	}
}

func TestPutNoticeIDMismatch(t *testing.T) {
	s, _ := testServer(t)
	body := strings.NewReader(`{"id":"other","agency":"기관"}`)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, authed(httptest.NewRequest("PUT", "/api/notices/n-1", body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}
