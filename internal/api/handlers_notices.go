package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jwyang/deckgen/internal/noticestore"
)

func (s *Server) handleGetNotice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "noticeID")
	n, err := s.notices.Get(r.Context(), id)
	if err != nil {
		s.log.Error("notice lookup failed", "notice_id", id, "error", err)
		jsonError(w, "notice lookup failed", http.StatusInternalServerError)
		return
	}
	if n == nil {
		jsonError(w, "notice not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(n)
}

// handlePutNotice upserts a notice. The id comes from the URL; a body id, if
// present, must match.
func (s *Server) handlePutNotice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "noticeID")

	var n noticestore.Notice
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		jsonError(w, "invalid notice body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if n.ID != "" && n.ID != id {
		jsonError(w, "body id does not match url id", http.StatusBadRequest)
		return
	}
	n.ID = id
	if strings.TrimSpace(n.ID) == "" {
		jsonError(w, "notice id is required", http.StatusBadRequest)
		return
	}

	if err := s.notices.Put(r.Context(), &n); err != nil {
		s.log.Error("notice save failed", "notice_id", id, "error", err)
		jsonError(w, "notice save failed", http.StatusInternalServerError)
		return
	}

	stored, err := s.notices.Get(r.Context(), id)
	if err != nil || stored == nil {
		jsonError(w, "notice save failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stored)
}
