// Package storage turns untrusted logical paths into contained filesystem
// locations and performs the raw file operations beneath a tenant root.
package storage

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/tenant"
)

// ValidateLogicalPath applies the syntactic rules every caller-supplied path
// must satisfy before any filesystem interaction: non-empty, relative, no NUL
// bytes, and no ".." component anywhere.
func ValidateLogicalPath(p string) error {
	if p == "" {
		return fmt.Errorf("%w: empty path", apperr.ErrPathTraversal)
	}
	if strings.ContainsRune(p, 0) {
		return fmt.Errorf("%w: NUL byte in path", apperr.ErrPathTraversal)
	}
	if path.IsAbs(p) || filepath.IsAbs(p) {
		return fmt.Errorf("%w: absolute path %q", apperr.ErrPathTraversal, p)
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return fmt.Errorf("%w: %q", apperr.ErrPathTraversal, p)
		}
	}
	return nil
}

// Resolver maps (tenant ID, logical path) onto validated absolute paths.
// It is the single funnel for all path construction; stores never build
// filesystem paths by any other means.
type Resolver struct {
	reg *tenant.Registry
}

// NewResolver creates a resolver backed by the given tenant registry.
func NewResolver(reg *tenant.Registry) *Resolver {
	return &Resolver{reg: reg}
}

// Root returns the tenant root directory.
func (r *Resolver) Root(tenantID string) (string, error) {
	return r.reg.RootFor(tenantID)
}

// Resolve validates logical against the syntactic rules, normalizes it, and
// joins it onto the tenant root. The result is re-checked byte-for-byte to
// lie strictly inside the root. No I/O is performed and symlinks are never
// followed; the returned path is neither created nor opened.
func (r *Resolver) Resolve(tenantID, logical string) (string, error) {
	root, err := r.reg.RootFor(tenantID)
	if err != nil {
		return "", err
	}
	if err := ValidateLogicalPath(logical); err != nil {
		return "", err
	}
	cleaned := path.Clean(logical)
	if cleaned == "." {
		return "", fmt.Errorf("%w: %q resolves to the tenant root", apperr.ErrPathTraversal, logical)
	}
	return containedJoin(root, cleaned, logical)
}

// ResolveDir is Resolve for directory arguments; "" and "/" name the tenant
// root itself, which list operations are allowed to target.
func (r *Resolver) ResolveDir(tenantID, logical string) (string, error) {
	if logical == "" || logical == "/" {
		return r.reg.RootFor(tenantID)
	}
	root, err := r.reg.RootFor(tenantID)
	if err != nil {
		return "", err
	}
	if err := ValidateLogicalPath(logical); err != nil {
		return "", err
	}
	cleaned := path.Clean(logical)
	if cleaned == "." {
		return root, nil
	}
	return containedJoin(root, cleaned, logical)
}

// containedJoin joins the already-cleaned relative path onto root and
// verifies the result stays inside it. The check is deliberately independent
// of the pre-join validation: even if normalization missed an edge case, a
// result outside root is rejected here.
func containedJoin(root, cleaned, original string) (string, error) {
	abs := filepath.Join(root, filepath.FromSlash(cleaned))
	if abs == root || !strings.HasPrefix(abs, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %q", apperr.ErrPathTraversal, original)
	}
	return abs, nil
}
