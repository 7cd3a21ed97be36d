package filesystem

import (
	"os"
	"path/filepath"
)

// Filesystem is the read-only view of the host filesystem the server
// serves from. The indirection keeps path resolution and request handling
// testable against fakes.
type Filesystem interface {
	ReadFile(path string) ([]byte, error)

	Exists(path string) (bool, error)
	IsFile(path string) (bool, error)
	IsDirectory(path string) (bool, error)

	// Resolve canonicalizes path to its absolute form, following symlinks.
	// The path must exist.
	Resolve(path string) (string, error)
	Abs(path string) (string, error)
}

type localFileSystem struct {
}

func NewLocalFileSystem() Filesystem {
	return &localFileSystem{}
}

// ReadFile implements Filesystem.
func (filesystem *localFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Exists implements Filesystem.
func (filesystem *localFileSystem) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

// IsFile implements Filesystem.
func (filesystem *localFileSystem) IsFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// IsDirectory implements Filesystem.
func (filesystem *localFileSystem) IsDirectory(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

// Resolve implements Filesystem.
func (filesystem *localFileSystem) Resolve(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}
	return filepath.Abs(resolved)
}

// Abs implements Filesystem.
func (filesystem *localFileSystem) Abs(path string) (string, error) {
	return filepath.Abs(path)
}
