package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// PublicPath is the URL path local images are served under.
const PublicPath = "uploads/images"

// LocalStore writes images into a directory that is also served over HTTP
// at /uploads/images/.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Dir returns the directory images are written to.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Save writes img as dir/key and returns its public path.
func (s *LocalStore) Save(ctx context.Context, key string, img *Image) (string, error) {
	name := filepath.Join(s.dir, filepath.Base(key))

	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}

	if _, err := io.Copy(f, img.reader()); err != nil {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("failed to write image file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("failed to close image file: %w", err)
	}

	return path.Join(PublicPath, filepath.Base(key)), nil
}

// Delete removes the file referenced by ref. Only the base name of ref is
// used, so references never resolve outside the upload directory. A file
// that is already gone is not an error.
func (s *LocalStore) Delete(ctx context.Context, ref string) error {
	name := filepath.Join(s.dir, path.Base(filepath.ToSlash(ref)))
	if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete image file: %w", err)
	}
	return nil
}
