package notestore_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/notestore"
	"github.com/starford/ansuz/internal/testutil"
)

func TestWriteThenRead(t *testing.T) {
	notes, _, _ := testutil.TestStores(t)
	ctx := context.Background()

	uri, created, err := notes.Save(ctx, "t1", "a/b.md", []byte("# Hi"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !created {
		t.Error("expected created=true for a new note")
	}
	if uri != "note://a/b.md" {
		t.Errorf("uri = %q", uri)
	}

	got, err := notes.Read(ctx, "t1", "a/b.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != "# Hi" {
		t.Errorf("content = %q", got)
	}
}

func TestSaveAppendsExtension(t *testing.T) {
	notes, _, _ := testutil.TestStores(t)
	ctx := context.Background()

	uri, _, err := notes.Save(ctx, "t1", "projects/meeting-notes", []byte("agenda"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if uri != "note://projects/meeting-notes.md" {
		t.Errorf("uri = %q", uri)
	}
	if _, err := notes.Read(ctx, "t1", "projects/meeting-notes"); err != nil {
		t.Errorf("Read without extension: %v", err)
	}
	if _, err := notes.Read(ctx, "t1", "projects/meeting-notes.md"); err != nil {
		t.Errorf("Read with extension: %v", err)
	}
}

func TestSaveIsUpsert(t *testing.T) {
	notes, _, _ := testutil.TestStores(t)
	ctx := context.Background()

	_, created, _ := notes.Save(ctx, "t1", "up.md", []byte("v1"))
	if !created {
		t.Error("first save should create")
	}
	_, created, err := notes.Save(ctx, "t1", "up.md", []byte("v2"))
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if created {
		t.Error("second save should overwrite, not create")
	}
	got, _ := notes.Read(ctx, "t1", "up.md")
	if got != "v2" {
		t.Errorf("content = %q, want v2", got)
	}
}

func TestSaveNewConflicts(t *testing.T) {
	notes, _, _ := testutil.TestStores(t)
	ctx := context.Background()

	if _, err := notes.SaveNew(ctx, "t1", "strict.md", []byte("a")); err != nil {
		t.Fatalf("SaveNew: %v", err)
	}
	if _, err := notes.SaveNew(ctx, "t1", "strict.md", []byte("b")); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestSaveRejectsBinaryContent(t *testing.T) {
	notes, _, _ := testutil.TestStores(t)
	ctx := context.Background()

	cases := [][]byte{
		{0xff, 0xfe, 0x00, 0x41},
		[]byte("text with \x00 NUL"),
		testutil.TinyPNG(),
	}
	for _, content := range cases {
		if _, _, err := notes.Save(ctx, "t1", "bin.md", content); !errors.Is(err, apperr.ErrInvalidContent) {
			t.Errorf("Save(%q) err = %v, want ErrInvalidContent", content, err)
		}
	}
}

func TestReadMissing(t *testing.T) {
	notes, _, _ := testutil.TestStores(t)
	if _, err := notes.Read(context.Background(), "t1", "nope.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestTenantIsolation(t *testing.T) {
	notes, _, _ := testutil.TestStores(t)
	ctx := context.Background()

	if _, _, err := notes.Save(ctx, "t1", "x.md", []byte("A")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := notes.Read(ctx, "t2", "x.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("t2 must not see t1's note: err = %v, want ErrNotFound", err)
	}
}

func TestUnknownTenantRejectedBeforeDisk(t *testing.T) {
	notes, _, baseDir := testutil.TestStores(t, "t1")
	ctx := context.Background()

	if _, _, err := notes.Save(ctx, "ghost", "x.md", []byte("A")); !errors.Is(err, apperr.ErrUnknownTenant) {
		t.Fatalf("err = %v, want ErrUnknownTenant", err)
	}
	// Nothing may have touched the base directory.
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "t1" {
		t.Errorf("base dir modified by rejected operation: %v", entries)
	}
}

func TestDeleteIsIdempotentlyNotFound(t *testing.T) {
	notes, _, _ := testutil.TestStores(t)
	ctx := context.Background()

	_, _, _ = notes.Save(ctx, "t1", "gone.md", []byte("x"))
	if err := notes.Delete(ctx, "t1", "gone.md"); err != nil {
		t.Fatalf("first Delete: %v", err)
	}
	if err := notes.Delete(ctx, "t1", "gone.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
}

func TestDeleteCleansEmptyDirectories(t *testing.T) {
	notes, _, baseDir := testutil.TestStores(t)
	ctx := context.Background()

	_, _, _ = notes.Save(ctx, "t1", "a/b.md", []byte("x"))
	if err := notes.Delete(ctx, "t1", "a/b.md"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(baseDir, "t1", "a")); !os.IsNotExist(err) {
		t.Error("empty directory a should be removed")
	}
	if _, err := os.Stat(filepath.Join(baseDir, "t1")); err != nil {
		t.Errorf("tenant root must never be removed: %v", err)
	}
}

func TestDeleteKeepsPopulatedDirectories(t *testing.T) {
	notes, _, baseDir := testutil.TestStores(t)
	ctx := context.Background()

	_, _, _ = notes.Save(ctx, "t1", "a/b.md", []byte("b"))
	_, _, _ = notes.Save(ctx, "t1", "a/c.md", []byte("c"))
	if err := notes.Delete(ctx, "t1", "a/b.md"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(baseDir, "t1", "a")); err != nil {
		t.Errorf("directory a still holds c.md and must stay: %v", err)
	}
}

func TestList(t *testing.T) {
	notes, _, baseDir := testutil.TestStores(t)
	ctx := context.Background()

	_, _, _ = notes.Save(ctx, "t1", "top.md", []byte("t"))
	_, _, _ = notes.Save(ctx, "t1", "sub/inner.md", []byte("i"))
	// Non-note files are skipped.
	if err := os.WriteFile(filepath.Join(baseDir, "t1", "readme.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := notes.List(ctx, "t1", "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	got := map[string]models.EntryKind{}
	for _, e := range entries {
		got[e.Name] = e.Kind
	}
	if got["top.md"] != models.KindNote {
		t.Errorf("top.md kind = %q", got["top.md"])
	}
	if got["sub"] != models.KindDir {
		t.Errorf("sub kind = %q", got["sub"])
	}
	if _, ok := got["readme.txt"]; ok {
		t.Error("non-note file listed")
	}
}

func TestListMissingDirectory(t *testing.T) {
	notes, _, _ := testutil.TestStores(t)
	if _, err := notes.List(context.Background(), "t1", "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestTraversalBlocked(t *testing.T) {
	notes, _, _ := testutil.TestStores(t)
	ctx := context.Background()

	for _, p := range []string{"../../etc/passwd", "../outside.md", "/etc/shadow.md"} {
		if _, _, err := notes.Save(ctx, "t1", p, []byte("x")); !errors.Is(err, apperr.ErrPathTraversal) {
			t.Errorf("Save(%q) err = %v, want ErrPathTraversal", p, err)
		}
		if _, err := notes.Read(ctx, "t1", p); !errors.Is(err, apperr.ErrPathTraversal) {
			t.Errorf("Read(%q) err = %v, want ErrPathTraversal", p, err)
		}
		if err := notes.Delete(ctx, "t1", p); !errors.Is(err, apperr.ErrPathTraversal) {
			t.Errorf("Delete(%q) err = %v, want ErrPathTraversal", p, err)
		}
	}
}

// Paths that only become well-formed after the .md append must be rejected
// up front: otherwise "" would silently store the hidden file ".md" and ".."
// would store "...md", both invisible to List.
func TestDegeneratePathsRejectedBeforeExtension(t *testing.T) {
	notes, _, baseDir := testutil.TestStores(t)
	ctx := context.Background()

	for _, p := range []string{"", "..", ".", "dir/", "a//b", "a/./b", ".hidden", "sub/.ghost"} {
		if _, _, err := notes.Save(ctx, "t1", p, []byte("x")); !errors.Is(err, apperr.ErrPathTraversal) {
			t.Errorf("Save(%q) err = %v, want ErrPathTraversal", p, err)
		}
		if _, err := notes.Read(ctx, "t1", p); !errors.Is(err, apperr.ErrPathTraversal) {
			t.Errorf("Read(%q) err = %v, want ErrPathTraversal", p, err)
		}
		if err := notes.Delete(ctx, "t1", p); !errors.Is(err, apperr.ErrPathTraversal) {
			t.Errorf("Delete(%q) err = %v, want ErrPathTraversal", p, err)
		}
	}

	// None of the rejected saves may have touched the tenant directory.
	files, err := os.ReadDir(filepath.Join(baseDir, "t1"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 0 {
		t.Errorf("tenant dir not empty after rejected saves: %v", files)
	}
	entries, err := notes.List(ctx, "t1", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("List = %v, want empty", entries)
	}
}

// NormalizePath is tiny but load-bearing for identifier stability.
func TestNormalizePath(t *testing.T) {
	if got := notestore.NormalizePath("a/b"); got != "a/b.md" {
		t.Errorf("got %q", got)
	}
	if got := notestore.NormalizePath("a/b.md"); got != "a/b.md" {
		t.Errorf("got %q", got)
	}
}
