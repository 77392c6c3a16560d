package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dgallion1/chestnut/internal/outline"
	"github.com/dgallion1/chestnut/internal/store"
	"github.com/go-chi/chi/v5"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// handleListDocuments lists stored documents, newest first.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultListLimit)
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	offset := max(queryInt(r, "offset", 0), 0)

	docs, err := s.docs.List(r.Context(), limit, offset)
	if err != nil {
		s.log.Error("list documents failed", "error", err)
		jsonError(w, "failed to list documents", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"documents": docs,
		"limit":     limit,
		"offset":    offset,
	})
}

// handleGetDocument returns a document's metadata and outline. With
// nested=true the sections are folded by level; with content=true the raw
// source text is included.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")
	ctx := r.Context()

	doc, err := s.docs.GetDocument(ctx, fileID)
	if err != nil {
		s.storeError(w, "get document", err)
		return
	}
	body, err := s.docs.GetOutline(ctx, fileID)
	if err != nil {
		s.storeError(w, "get outline", err)
		return
	}
	if r.URL.Query().Get("nested") == "true" {
		body = outline.NewParsedBody(body.ID(), body.Index(), outline.Nest(body.Content()))
	}

	resp := map[string]any{
		"file_id":  doc.FileID(),
		"name":     doc.Meta().Name(),
		"metadata": doc.Meta().Values(),
		"outline":  body,
	}
	if r.URL.Query().Get("content") == "true" {
		if content, ok := doc.Content(); ok {
			resp["content"] = content
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleDocumentHTML renders the stored outline as an HTML fragment.
func (s *Server) handleDocumentHTML(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")

	body, err := s.docs.GetOutline(r.Context(), fileID)
	if err != nil {
		s.storeError(w, "get outline", err)
		return
	}
	out, err := s.renderer.Outline(body)
	if err != nil {
		s.log.Error("render failed", "file_id", fileID, "error", err)
		jsonError(w, "failed to render document", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(out)
}

// handleFindOutlines looks outlines up by exact title.
func (s *Server) handleFindOutlines(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		jsonError(w, "title query parameter is required", http.StatusBadRequest)
		return
	}
	ctx := r.Context()

	ids, err := s.docs.FindByTitle(ctx, title)
	if err != nil {
		s.storeError(w, "find by title", err)
		return
	}

	results := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		body, err := s.docs.GetOutline(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			// Deleted between the lookup and the read.
			continue
		}
		if err != nil {
			s.storeError(w, "get outline", err)
			return
		}
		results = append(results, map[string]any{"file_id": id, "outline": body})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"outlines": results})
}

// handleDeleteDocument deletes a document and its outline.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")
	if err := s.docs.Delete(r.Context(), fileID); err != nil {
		s.storeError(w, "delete document", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"deleted": fileID})
}

func (s *Server) storeError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	s.log.Error(op+" failed", "error", err)
	jsonError(w, op+" failed", http.StatusInternalServerError)
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
