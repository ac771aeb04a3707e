package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/assetstore"
	"github.com/starford/ansuz/internal/notestore"
	"github.com/starford/ansuz/internal/resource"
	"github.com/starford/ansuz/internal/tenant"
)

const maxBodyBytes = 10 << 20 // 10 MB

// Handler holds API route handlers.
type Handler struct {
	notes  *notestore.Store
	assets *assetstore.Store
}

// NewHandler creates a new Handler.
func NewHandler(notes *notestore.Store, assets *assetstore.Store) *Handler {
	return &Handler{notes: notes, assets: assets}
}

// wildcardPath extracts the logical path from the URL wildcard. Supports
// encoded slashes from OpenAPI clients (e.g. topics%2Fnote.md).
func wildcardPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func requestTenant(r *http.Request) string {
	id, _ := tenant.FromContext(r.Context())
	return id
}

// SaveNote handles PUT /notes/* (upsert).
func (h *Handler) SaveNote(w http.ResponseWriter, r *http.Request) {
	path := wildcardPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req SaveNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	uri, created, err := h.notes.Save(r.Context(), requestTenant(r), path, []byte(req.Content))
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, SaveResponse{URI: uri, Created: created})
}

// CreateNote handles POST /notes/* (strict create).
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	path := wildcardPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req SaveNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	uri, err := h.notes.SaveNew(r.Context(), requestTenant(r), path, []byte(req.Content))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, SaveResponse{URI: uri, Created: true})
}

// GetNote handles GET /notes/*.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	path := wildcardPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	content, err := h.notes.Read(r.Context(), requestTenant(r), path)
	if err != nil {
		writeError(w, err)
		return
	}
	normalized := notestore.NormalizePath(path)
	writeJSON(w, http.StatusOK, NoteResponse{
		Path:    normalized,
		URI:     resource.Encode(resource.KindNote, normalized),
		Content: content,
	})
}

// DeleteNote handles DELETE /notes/*.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	path := wildcardPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.notes.Delete(r.Context(), requestTenant(r), path); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListNotes handles GET /notes?dir=.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	entries, err := h.notes.List(r.Context(), requestTenant(r), r.URL.Query().Get("dir"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Entries: entries})
}

// SaveAsset handles PUT /assets/*. The body is the raw image bytes.
func (h *Handler) SaveAsset(w http.ResponseWriter, r *http.Request) {
	path := wildcardPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	uri, created, err := h.assets.Save(r.Context(), requestTenant(r), path, data)
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, SaveResponse{URI: uri, Created: created})
}

// GetAsset handles GET /assets/*. The response body is the raw image bytes
// with the detected content type.
func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	path := wildcardPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	data, kind, err := h.assets.Read(r.Context(), requestTenant(r), path)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", kind.MIME())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// DeleteAsset handles DELETE /assets/*.
func (h *Handler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	path := wildcardPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.assets.Delete(r.Context(), requestTenant(r), path); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListAssets handles GET /assets?dir=.
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	entries, err := h.assets.List(r.Context(), requestTenant(r), r.URL.Query().Get("dir"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Entries: entries})
}

// DecodeIdentifier handles GET /resolve?id=note://path.
func (h *Handler) DecodeIdentifier(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'id' is required"))
		return
	}
	kind, path, err := resource.Decode(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DecodeResponse{Kind: string(kind), Path: path})
}
