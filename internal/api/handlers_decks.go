package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jwyang/deckgen/internal/extractor"
	"github.com/jwyang/deckgen/internal/pipeline"
)

// handleCreateDeck accepts a multipart proposal upload and queues a
// deck-generation job. Optional form fields: notice_id, title, render_mode
// (gamma|html), theme.
func (s *Server) handleCreateDeck(w http.ResponseWriter, r *http.Request) {
	// Limit total request size, with some slack for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !extractor.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	renderMode := r.FormValue("render_mode")
	switch renderMode {
	case "", "gamma", "html":
	default:
		jsonError(w, fmt.Sprintf("render_mode must be gamma or html, got %q", renderMode), http.StatusBadRequest)
		return
	}
	if renderMode == "" {
		renderMode = s.cfg.DefaultRenderMode
	}

	now := time.Now()
	job := &pipeline.Job{
		ID:         pipeline.NewJobID(),
		Filename:   filename,
		Title:      strings.TrimSpace(r.FormValue("title")),
		NoticeID:   strings.TrimSpace(r.FormValue("notice_id")),
		RenderMode: renderMode,
		Theme:      strings.TrimSpace(r.FormValue("theme")),
		Status:     pipeline.StatusQueued,
		Phase:      "queued",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	job.SetFileData(data)

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"status":   job.Status,
		"poll_url": fmt.Sprintf("/api/decks/%s/status", job.ID),
	})
}

func (s *Server) handleDeckStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":      snap.ID,
		"status":      snap.Status,
		"phase":       snap.Phase,
		"render_mode": snap.RenderMode,
		"progress":    snap.Progress,
	})
}

// handleDeckDownload serves the rendered artifact once the job completed.
func (s *Server) handleDeckDownload(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	if snap.Status != pipeline.StatusCompleted {
		jsonError(w, fmt.Sprintf("job is %s, not completed", snap.Status), http.StatusConflict)
		return
	}
	path := snap.Progress.ArtifactPath
	if path == "" {
		jsonError(w, "job has no artifact", http.StatusNotFound)
		return
	}
	if _, err := os.Stat(path); err != nil {
		s.log.Error("artifact missing on disk", "job_id", jobID, "path", path, "error", err)
		jsonError(w, "artifact no longer available", http.StatusGone)
		return
	}

	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
