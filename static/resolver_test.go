package static

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/freekieb7/pebble/filesystem"
)

// newDocumentRoot builds this tree under a temp dir and returns the
// canonical root path:
//
//	root/
//	  index.html
//	  file.txt
//	  sub/index.html
//	  empty/
//	  escape.txt -> ../outside/secret.txt
//	outside/secret.txt
func newDocumentRoot(t *testing.T) string {
	t.Helper()

	base := t.TempDir()
	root := filepath.Join(base, "root")
	outside := filepath.Join(base, "outside")

	for _, dir := range []string{root, filepath.Join(root, "sub"), filepath.Join(root, "empty"), outside} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	files := map[string]string{
		filepath.Join(root, "index.html"):        "<h1>home</h1>",
		filepath.Join(root, "file.txt"):          "plain text",
		filepath.Join(root, "sub", "index.html"): "<h1>sub</h1>",
		filepath.Join(outside, "secret.txt"):     "secret",
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}

	if err := os.Symlink(filepath.Join(outside, "secret.txt"), filepath.Join(root, "escape.txt")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		t.Fatalf("resolve root: %v", err)
	}
	return resolved
}

func TestResolve(t *testing.T) {
	root := newDocumentRoot(t)
	fsys := filesystem.NewLocalFileSystem()

	cases := []struct {
		name    string
		path    string
		want    string // relative to root; empty when an error is expected
		wantErr error
	}{
		{"regular file", "/file.txt", "file.txt", nil},
		{"query string stripped", "/file.txt?version=1", "file.txt", nil},
		{"percent encoding", "/file%2etxt", "file.txt", nil},
		{"root serves index", "/", "index.html", nil},
		{"directory serves index", "/sub/", filepath.Join("sub", "index.html"), nil},
		{"directory without slash", "/sub", filepath.Join("sub", "index.html"), nil},
		{"traversal", "/../etc/passwd", "", ErrForbidden},
		{"encoded traversal", "/..%2Fetc/passwd", "", ErrForbidden},
		{"traversal deep in path", "/sub/../../etc/passwd", "", ErrForbidden},
		{"invalid encoding", "/%zz", "", ErrBadRequest},
		{"missing file", "/missing.txt", "", ErrNotFound},
		{"directory intent on file", "/file.txt/", "", ErrNotFound},
		{"directory without index", "/empty/", "", ErrNotFound},
		{"symlink escape", "/escape.txt", "", ErrForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Resolve(fsys, root, tc.path)

			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("resolve failed: %v", err)
			}
			if want := filepath.Join(root, tc.want); got != want {
				t.Errorf("expected %s, got %s", want, got)
			}
		})
	}
}

// A root that is a string prefix of a sibling directory must not let the
// sibling pass the containment check.
func TestResolveSiblingPrefix(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "srv")
	sibling := filepath.Join(base, "srvdata")

	for _, dir := range []string{root, sibling} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	if err := os.WriteFile(filepath.Join(sibling, "leak.txt"), []byte("leak"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Symlink(filepath.Join(sibling, "leak.txt"), filepath.Join(root, "leak.txt")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	resolvedRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		t.Fatalf("resolve root: %v", err)
	}

	fsys := filesystem.NewLocalFileSystem()
	_, err = Resolve(fsys, resolvedRoot, "/leak.txt")
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("sibling-prefix escape should be forbidden, got %v", err)
	}
}
