// Package testutil provides shared test helpers for setting up tenant
// registries, stores, and image fixtures.
package testutil

import (
	"testing"

	"github.com/starford/ansuz/internal/assetstore"
	"github.com/starford/ansuz/internal/notestore"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/tenant"
)

// TestRegistry creates a registry over a temporary base directory with roots
// for the given tenants (default "t1", "t2").
func TestRegistry(t *testing.T, tenants ...string) (*tenant.Registry, string) {
	t.Helper()
	if len(tenants) == 0 {
		tenants = []string{"t1", "t2"}
	}
	baseDir := t.TempDir()
	reg, err := tenant.NewRegistry(baseDir, tenants)
	if err != nil {
		t.Fatal(err)
	}
	if err := reg.EnsureRoots(); err != nil {
		t.Fatal(err)
	}
	return reg, baseDir
}

// TestStores returns note and asset stores over a fresh registry.
func TestStores(t *testing.T, tenants ...string) (*notestore.Store, *assetstore.Store, string) {
	t.Helper()
	reg, baseDir := TestRegistry(t, tenants...)
	res := storage.NewResolver(reg)
	return notestore.New(res), assetstore.New(res), baseDir
}

// TinyPNG returns bytes carrying a valid PNG signature.
func TinyPNG() []byte {
	return []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
}

// TinyGIF returns bytes carrying a valid GIF signature.
func TinyGIF() []byte {
	return []byte("GIF89a\x01\x00\x01\x00")
}

// TinyJPEG returns bytes carrying a valid JPEG signature.
func TinyJPEG() []byte {
	return []byte("\xff\xd8\xff\xe0\x00\x10JFIF")
}
