package tenant

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/ansuz/internal/apperr"
)

func TestRootFor(t *testing.T) {
	base := t.TempDir()
	reg, err := NewRegistry(base, []string{"alpha", "beta"})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	root, err := reg.RootFor("alpha")
	if err != nil {
		t.Fatalf("RootFor: %v", err)
	}
	if root != filepath.Join(base, "alpha") {
		t.Errorf("root = %q", root)
	}
}

func TestRootForUnknownTenant(t *testing.T) {
	reg, err := NewRegistry(t.TempDir(), []string{"alpha"})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if _, err := reg.RootFor("ghost"); !errors.Is(err, apperr.ErrUnknownTenant) {
		t.Errorf("err = %v, want ErrUnknownTenant", err)
	}
}

func TestZeroTenantsIsStartupError(t *testing.T) {
	if _, err := NewRegistry(t.TempDir(), nil); err == nil {
		t.Error("expected error for zero tenants")
	}
}

func TestInvalidTenantIDs(t *testing.T) {
	for _, id := range []string{"", ".", "..", "a/b", "/abs"} {
		if _, err := NewRegistry(t.TempDir(), []string{id}); err == nil {
			t.Errorf("expected error for tenant ID %q", id)
		}
	}
}

func TestIDsSorted(t *testing.T) {
	reg, err := NewRegistry(t.TempDir(), []string{"zeta", "alpha", "mid"})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	ids := reg.IDs()
	want := []string{"alpha", "mid", "zeta"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v", ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestEnsureRoots(t *testing.T) {
	base := t.TempDir()
	reg, err := NewRegistry(base, []string{"alpha", "beta"})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if err := reg.EnsureRoots(); err != nil {
		t.Fatalf("EnsureRoots: %v", err)
	}
	for _, id := range []string{"alpha", "beta"} {
		info, statErr := os.Stat(filepath.Join(base, id))
		if statErr != nil || !info.IsDir() {
			t.Errorf("root for %q not created", id)
		}
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := NewContext(context.Background(), "alpha")
	id, ok := FromContext(ctx)
	if !ok || id != "alpha" {
		t.Errorf("FromContext = %q, %v", id, ok)
	}

	if _, ok := FromContext(context.Background()); ok {
		t.Error("empty context should not carry a tenant")
	}
}
