// Package tenant holds the immutable registry of configured tenants and
// helpers for carrying the active tenant through request contexts.
package tenant

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/starford/ansuz/internal/apperr"
)

// Registry maps tenant IDs to their root directories. It is built once at
// startup from configuration and never mutated afterwards.
type Registry struct {
	roots map[string]string
}

// NewRegistry builds a registry rooted at baseDir with one subdirectory per
// tenant ID. At least one tenant must be configured.
func NewRegistry(baseDir string, ids []string) (*Registry, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("tenant: at least one tenant must be configured")
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("tenant: resolve base dir: %w", err)
	}
	roots := make(map[string]string, len(ids))
	for _, id := range ids {
		if id == "" {
			return nil, fmt.Errorf("tenant: empty tenant ID")
		}
		if id != filepath.Base(id) || id == "." || id == ".." {
			return nil, fmt.Errorf("tenant: invalid tenant ID %q", id)
		}
		roots[id] = filepath.Join(abs, id)
	}
	return &Registry{roots: roots}, nil
}

// RootFor returns the root directory of the given tenant, or ErrUnknownTenant
// if the ID is not configured. It performs no I/O.
func (r *Registry) RootFor(id string) (string, error) {
	root, ok := r.roots[id]
	if !ok {
		return "", fmt.Errorf("%w: %q", apperr.ErrUnknownTenant, id)
	}
	return root, nil
}

// IDs returns the configured tenant IDs in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.roots))
	for id := range r.roots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// EnsureRoots creates every tenant root directory that does not exist yet.
func (r *Registry) EnsureRoots() error {
	for id, root := range r.roots {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return fmt.Errorf("tenant: create root for %q: %w", id, err)
		}
	}
	return nil
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying the active tenant ID.
func NewContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext extracts the active tenant ID set by NewContext.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}
