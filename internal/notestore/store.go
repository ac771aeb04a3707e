// Package notestore implements CRUD over Markdown notes inside a tenant's
// namespace. Every operation funnels through the path resolver.
package notestore

import (
	"context"
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/resource"
	"github.com/starford/ansuz/internal/storage"
)

// Extension is appended to logical paths that do not already carry it.
const Extension = ".md"

// Store provides note operations scoped by tenant.
type Store struct {
	res *storage.Resolver
}

// New creates a note store backed by the given resolver.
func New(res *storage.Resolver) *Store {
	return &Store{res: res}
}

// NormalizePath appends the Markdown extension when missing. Callers must
// validate the path first; see validatePath.
func NormalizePath(logical string) string {
	if !strings.HasSuffix(logical, Extension) {
		return logical + Extension
	}
	return logical
}

// validatePath checks the caller-supplied path BEFORE the extension is
// appended: appending must never turn a rejected path into an accepted one
// ("" would become ".md", "dir/" would become "dir/.md"). Hidden segments
// are rejected too, since listings exclude them and a note stored under a
// hidden name would be unaddressable.
func validatePath(logical string) error {
	if err := storage.ValidateLogicalPath(logical); err != nil {
		return err
	}
	for _, seg := range strings.Split(logical, "/") {
		if seg == "" || strings.HasPrefix(seg, ".") {
			return fmt.Errorf("%w: %q", apperr.ErrPathTraversal, logical)
		}
	}
	return nil
}

// Save writes content to the note at logical, creating parent directories as
// needed and overwriting any existing note (upsert). It returns the resource
// identifier of the note and whether it was newly created.
func (s *Store) Save(_ context.Context, tenantID, logical string, content []byte) (uri string, created bool, err error) {
	if err := validatePath(logical); err != nil {
		return "", false, err
	}
	normalized := NormalizePath(logical)
	abs, err := s.res.Resolve(tenantID, normalized)
	if err != nil {
		return "", false, err
	}
	if err := validateText(content); err != nil {
		return "", false, err
	}
	created = !storage.Exists(abs)
	if err := storage.WriteFile(abs, content); err != nil {
		return "", false, err
	}
	return resource.Encode(resource.KindNote, normalized), created, nil
}

// SaveNew is the strict-create variant of Save: it fails with ErrAlreadyExists
// instead of overwriting.
func (s *Store) SaveNew(ctx context.Context, tenantID, logical string, content []byte) (string, error) {
	if err := validatePath(logical); err != nil {
		return "", err
	}
	normalized := NormalizePath(logical)
	abs, err := s.res.Resolve(tenantID, normalized)
	if err != nil {
		return "", err
	}
	if storage.Exists(abs) {
		return "", fmt.Errorf("%w: %s", apperr.ErrAlreadyExists, normalized)
	}
	uri, _, err := s.Save(ctx, tenantID, logical, content)
	return uri, err
}

// Read returns the raw Markdown content of the note at logical.
func (s *Store) Read(_ context.Context, tenantID, logical string) (string, error) {
	if err := validatePath(logical); err != nil {
		return "", err
	}
	abs, err := s.res.Resolve(tenantID, NormalizePath(logical))
	if err != nil {
		return "", err
	}
	data, err := storage.ReadFile(abs)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Delete removes the note at logical. Parent directories left empty by the
// removal are pruned up to the tenant root.
func (s *Store) Delete(_ context.Context, tenantID, logical string) error {
	if err := validatePath(logical); err != nil {
		return err
	}
	abs, err := s.res.Resolve(tenantID, NormalizePath(logical))
	if err != nil {
		return err
	}
	root, err := s.res.Root(tenantID)
	if err != nil {
		return err
	}
	return storage.RemoveFile(abs, root)
}

// List returns the immediate children of dir: notes tagged models.KindNote
// and sub-directories tagged models.KindDir. Non-note files are skipped.
// dir may be "" to list the tenant root.
func (s *Store) List(_ context.Context, tenantID, dir string) ([]models.Entry, error) {
	abs, err := s.res.ResolveDir(tenantID, dir)
	if err != nil {
		return nil, err
	}
	children, err := storage.ListDir(abs)
	if err != nil {
		return nil, err
	}
	var out []models.Entry
	for _, c := range children {
		switch {
		case c.IsDir():
			out = append(out, models.Entry{Name: c.Name(), Kind: models.KindDir})
		case path.Ext(c.Name()) == Extension:
			out = append(out, models.Entry{Name: c.Name(), Kind: models.KindNote})
		}
	}
	return out, nil
}

// validateText rejects content that is not decodable UTF-8 text.
func validateText(content []byte) error {
	if !utf8.Valid(content) {
		return fmt.Errorf("%w: not valid UTF-8 text", apperr.ErrInvalidContent)
	}
	for _, b := range content {
		if b == 0 {
			return fmt.Errorf("%w: NUL byte in text", apperr.ErrInvalidContent)
		}
	}
	return nil
}
