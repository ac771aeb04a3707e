// Package resource encodes and decodes the externally visible identifiers
// for notes (note://) and images (img://). Identifiers are tenant-relative;
// the tenant travels separately in the calling context.
package resource

import (
	"fmt"
	"strings"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/storage"
)

// Kind is the identifier scheme.
type Kind string

const (
	KindNote  Kind = "note"
	KindImage Kind = "img"
)

// NoteMIMEType is the media type reported for note resources.
const NoteMIMEType = "text/markdown"

// Scheme returns the URI prefix for the kind, e.g. "note://".
func (k Kind) Scheme() string {
	return string(k) + "://"
}

// Encode builds the identifier for a logical path. The path must already be
// valid per storage.ValidateLogicalPath; Encode does not re-check it.
func Encode(kind Kind, logical string) string {
	return kind.Scheme() + logical
}

// Decode parses an identifier back into its kind and logical path. It applies
// the same syntactic path rules as the resolver but touches no filesystem.
// A leading slash after the scheme is tolerated for compatibility with
// clients that treat the authority part as empty.
func Decode(identifier string) (Kind, string, error) {
	var kind Kind
	switch {
	case strings.HasPrefix(identifier, KindNote.Scheme()):
		kind = KindNote
	case strings.HasPrefix(identifier, KindImage.Scheme()):
		kind = KindImage
	default:
		return "", "", fmt.Errorf("%w: unrecognized scheme in %q", apperr.ErrMalformedIdentifier, identifier)
	}
	logical := strings.TrimPrefix(identifier, kind.Scheme())
	logical = strings.TrimPrefix(logical, "/")
	if err := storage.ValidateLogicalPath(logical); err != nil {
		return "", "", fmt.Errorf("%w: %q", apperr.ErrMalformedIdentifier, identifier)
	}
	return kind, logical, nil
}
