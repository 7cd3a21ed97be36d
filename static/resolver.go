package static

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/freekieb7/pebble/filesystem"
)

var (
	// ErrBadRequest reports a path that could not be percent-decoded.
	ErrBadRequest = errors.New("static: bad request")
	// ErrForbidden reports a traversal attempt, a path escaping the
	// document root, or a target that is not a regular file.
	ErrForbidden = errors.New("static: forbidden")
	// ErrNotFound reports a missing file, a directory-intent mismatch, or
	// a directory without an index.html.
	ErrNotFound = errors.New("static: not found")
)

// Resolve maps a raw request path to a regular file inside root, or
// reports why the request must be rejected. root must be an absolute,
// symlink-free directory path.
func Resolve(fsys filesystem.Filesystem, root, rawPath string) (string, error) {
	path, err := url.PathUnescape(rawPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	// Textual traversal check on the decoded path, before any joining.
	if strings.Contains(path, "../") {
		return "", fmt.Errorf("%w: path traversal in %q", ErrForbidden, path)
	}

	path = strings.TrimPrefix(path, "/")
	wantsDir := strings.HasSuffix(path, "/")

	candidate := filepath.Join(root, path)

	if wantsDir {
		isDir, err := fsys.IsDirectory(candidate)
		if err != nil {
			return "", fmt.Errorf("resolve %q: %w", path, err)
		}
		if !isDir {
			return "", fmt.Errorf("%w: %q is not a directory", ErrNotFound, path)
		}
	}

	resolved, err := fsys.Resolve(candidate)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %q", ErrNotFound, path)
		}
		return "", fmt.Errorf("resolve %q: %w", path, err)
	}

	if !contained(root, resolved) {
		return "", fmt.Errorf("%w: %q escapes document root", ErrForbidden, path)
	}

	isDir, err := fsys.IsDirectory(resolved)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", path, err)
	}
	if isDir {
		index := filepath.Join(resolved, "index.html")
		isFile, err := fsys.IsFile(index)
		if err != nil {
			return "", fmt.Errorf("resolve %q: %w", path, err)
		}
		if !isFile {
			return "", fmt.Errorf("%w: directory %q has no index.html", ErrNotFound, path)
		}
		resolved = index
	}

	isFile, err := fsys.IsFile(resolved)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", path, err)
	}
	if !isFile {
		return "", fmt.Errorf("%w: %q is not a regular file", ErrForbidden, path)
	}

	return resolved, nil
}

// contained reports whether path lies within root, compared on whole path
// segments so a sibling such as root+"bar" does not pass.
func contained(root, path string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(os.PathSeparator))
}
