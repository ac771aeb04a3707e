// Package models defines the domain types for Ansuz.
package models

// EntryKind tags a directory listing entry.
type EntryKind string

const (
	KindNote  EntryKind = "note"
	KindAsset EntryKind = "asset"
	KindDir   EntryKind = "dir"
)

// Entry is an immediate child of a listed directory.
type Entry struct {
	Name string    `json:"name"`
	Kind EntryKind `json:"kind"`
}

// AssetKind identifies an allow-listed image format.
type AssetKind string

const (
	AssetJPEG AssetKind = "jpeg"
	AssetPNG  AssetKind = "png"
	AssetGIF  AssetKind = "gif"
)

// MIME returns the media type for the asset kind.
func (k AssetKind) MIME() string {
	switch k {
	case AssetJPEG:
		return "image/jpeg"
	case AssetPNG:
		return "image/png"
	case AssetGIF:
		return "image/gif"
	}
	return "application/octet-stream"
}
