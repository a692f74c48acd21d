package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestLocal(t *testing.T) *LocalBackend {
	t.Helper()
	l, err := NewLocal(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	return l
}

func TestLocalSaveAndResolve(t *testing.T) {
	l := newTestLocal(t)

	storagePath, err := l.Save(context.Background(), "uploads", "abc.txt", []byte("hello"), "text/plain")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if storagePath != "uploads/abc.txt" {
		t.Errorf("storage path = %q, want uploads/abc.txt", storagePath)
	}

	full, ok := l.LocalPath(storagePath)
	if !ok {
		t.Fatal("LocalPath: expected ok for stored file")
	}
	data, err := os.ReadFile(full)
	if err != nil {
		t.Fatalf("reading resolved path: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("content = %q, want hello", data)
	}
}

func TestLocalSaveRejectsTraversal(t *testing.T) {
	l := newTestLocal(t)

	folders := []string{"../../etc", "..", "a/../../b", "../outside"}
	for _, folder := range folders {
		if _, err := l.Save(context.Background(), folder, "x.txt", []byte("x"), ""); err != ErrPathOutsideRoot {
			t.Errorf("Save(folder=%q) error = %v, want ErrPathOutsideRoot", folder, err)
		}
	}

	// Nothing may have been written outside the root.
	outside := filepath.Join(filepath.Dir(l.Root()), "x.txt")
	if _, err := os.Stat(outside); !os.IsNotExist(err) {
		t.Errorf("traversal attempt left a file at %s", outside)
	}
}

func TestLocalPathContainment(t *testing.T) {
	l := newTestLocal(t)

	cases := []struct {
		path string
		ok   bool
	}{
		{"uploads/a.txt", true},
		{"../escape.txt", false},
		{"a/../../escape.txt", false},
		{"/etc/passwd", false},
		{filepath.Join(l.Root(), "inside.txt"), true}, // absolute but contained
		{"", false},
	}
	for _, tc := range cases {
		got, gotOK := l.LocalPath(tc.path)
		if gotOK != tc.ok {
			t.Errorf("LocalPath(%q) ok = %v, want %v", tc.path, gotOK, tc.ok)
			continue
		}
		if gotOK && !strings.HasPrefix(got, l.Root()) {
			t.Errorf("LocalPath(%q) = %q escapes root %q", tc.path, got, l.Root())
		}
	}
}

func TestLocalDownloadURLNeverSigns(t *testing.T) {
	l := newTestLocal(t)
	if _, ok := l.DownloadURL(context.Background(), "uploads/a.txt", 0); ok {
		t.Error("local backend must not produce signed URLs")
	}
}

func TestLocalFileURL(t *testing.T) {
	l := newTestLocal(t)
	if got := l.FileURL("uploads/a.txt"); got != "/files/uploads/a.txt" {
		t.Errorf("FileURL = %q", got)
	}

	withBase, err := NewLocal(t.TempDir(), "https://files.example.com/")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	if got := withBase.FileURL("uploads/a.txt"); got != "https://files.example.com/uploads/a.txt" {
		t.Errorf("FileURL with base = %q", got)
	}
}

func TestLocalRemove(t *testing.T) {
	l := newTestLocal(t)
	ctx := context.Background()

	storagePath, err := l.Save(ctx, "uploads", "gone.txt", []byte("x"), "")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := l.Remove(ctx, storagePath); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	full, _ := l.LocalPath(storagePath)
	if _, err := os.Stat(full); !os.IsNotExist(err) {
		t.Error("file still exists after Remove")
	}

	// Removing a missing file is not an error.
	if err := l.Remove(ctx, storagePath); err != nil {
		t.Errorf("Remove(missing): %v", err)
	}
	// Escapes are refused.
	if err := l.Remove(ctx, "../elsewhere.txt"); err != ErrPathOutsideRoot {
		t.Errorf("Remove(escape) error = %v, want ErrPathOutsideRoot", err)
	}
}

func TestLocalRemoveFolder(t *testing.T) {
	l := newTestLocal(t)
	ctx := context.Background()

	if _, err := l.Save(ctx, "user-1/uploads", "a.txt", []byte("a"), ""); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := l.RemoveFolder(ctx, "user-1"); err != nil {
		t.Fatalf("RemoveFolder: %v", err)
	}
	if _, ok := l.LocalPath("user-1/uploads/a.txt"); !ok {
		t.Fatal("LocalPath should still resolve (containment only)")
	}
	full, _ := l.LocalPath("user-1/uploads/a.txt")
	if _, err := os.Stat(full); !os.IsNotExist(err) {
		t.Error("folder contents survived RemoveFolder")
	}

	// The root itself is protected.
	if err := l.RemoveFolder(ctx, "."); err == nil {
		t.Error("RemoveFolder(root) must fail")
	}
}
