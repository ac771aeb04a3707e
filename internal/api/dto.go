package api

import "github.com/starford/ansuz/internal/models"

// SaveNoteRequest is the request body for creating or updating a note.
type SaveNoteRequest struct {
	Content string `json:"content"`
}

// SaveResponse is returned after a successful write.
type SaveResponse struct {
	URI     string `json:"uri"`
	Created bool   `json:"created"`
}

// NoteResponse is the payload for a single note read.
type NoteResponse struct {
	Path    string `json:"path"`
	URI     string `json:"uri"`
	Content string `json:"content"`
}

// ListResponse wraps a directory listing.
type ListResponse struct {
	Entries []models.Entry `json:"entries"`
}

// DecodeResponse is the result of decoding a resource identifier.
type DecodeResponse struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
}
