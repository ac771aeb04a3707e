// Package apperr defines the closed error surface of the note store core.
// Adapters match these sentinels with errors.Is and never see raw OS errors.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownTenant means the tenant ID is not in the configured allow-list.
	// Raised before any filesystem access.
	ErrUnknownTenant = errors.New("unknown tenant")

	// ErrPathTraversal means the logical path is empty, absolute, contains a
	// NUL byte, or would escape the tenant root. Raised before any
	// filesystem access.
	ErrPathTraversal = errors.New("path escapes tenant root")

	// ErrNotFound means the target of a read/delete/list does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists means a strict-create hit an existing entry.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidContent means note content is not valid UTF-8 text.
	ErrInvalidContent = errors.New("invalid content")

	// ErrUnsupportedAsset means the asset is not a JPEG, PNG, or GIF, or its
	// bytes do not match its extension.
	ErrUnsupportedAsset = errors.New("unsupported asset type")

	// ErrMalformedIdentifier means a resource identifier string does not parse.
	ErrMalformedIdentifier = errors.New("malformed identifier")

	// ErrStorage wraps underlying filesystem failures (permissions, disk
	// full, I/O errors) so callers get one stable kind instead of raw
	// OS errors.
	ErrStorage = errors.New("storage failure")
)

// Storage wraps a low-level filesystem error as ErrStorage.
func Storage(err error) error {
	return fmt.Errorf("%w: %v", ErrStorage, err)
}
