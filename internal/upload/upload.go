// Package upload stores image attachments on disk.
package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyFile       = errors.New("file is empty")
	ErrTooLarge        = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrInvalidName     = errors.New("invalid file name")
)

// URLPrefix is where the HTTP API serves stored files.
const URLPrefix = "/api/files/"

// DefaultExtensions are the image types accepted when none are configured.
var DefaultExtensions = []string{"jpg", "jpeg", "png", "gif", "bmp", "webp"}

// Store saves uploads under Dir with generated names.
type Store struct {
	dir        string
	maxSize    int64
	extensions []string
	now        func() time.Time
}

// New returns a store rooted at dir. maxSize is in bytes; exts are lower
// case without the dot.
func New(dir string, maxSize int64, exts []string) *Store {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	norm := make([]string, len(exts))
	for i, e := range exts {
		norm[i] = strings.ToLower(strings.TrimPrefix(e, "."))
	}
	return &Store{dir: dir, maxSize: maxSize, extensions: norm, now: time.Now}
}

// Dir returns the upload directory.
func (s *Store) Dir() string { return s.dir }

// Extensions returns the accepted extensions.
func (s *Store) Extensions() []string { return slices.Clone(s.extensions) }

// Save copies r to a new file and returns its generated name. size is the
// declared size; a negative value means unknown and the copy is bounded
// instead.
func (s *Store) Save(original string, size int64, r io.Reader) (string, error) {
	if size == 0 {
		return "", ErrEmptyFile
	}
	if size > s.maxSize {
		return "", fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, size, s.maxSize)
	}
	if original == "" {
		return "", ErrInvalidName
	}
	ext := extension(original)
	if !slices.Contains(s.extensions, ext) {
		return "", fmt.Errorf("%w: %q, allowed: %s", ErrUnsupportedType, ext, strings.Join(s.extensions, ", "))
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	name := s.generateName(ext)
	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(r, s.maxSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	switch {
	case err != nil:
		os.Remove(path)
		return "", fmt.Errorf("write file: %w", err)
	case n == 0:
		os.Remove(path)
		return "", ErrEmptyFile
	case n > s.maxSize:
		os.Remove(path)
		return "", fmt.Errorf("%w: exceeds %d bytes", ErrTooLarge, s.maxSize)
	}
	return name, nil
}

// Delete removes a stored file. Missing files and blank names are ignored.
func (s *Store) Delete(name string) error {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// DeleteAll removes every named file, stopping at the first error.
func (s *Store) DeleteAll(names []string) error {
	for _, n := range names {
		if err := s.Delete(n); err != nil {
			return err
		}
	}
	return nil
}

// Path resolves a stored name to a file path. Names containing path
// separators or dot segments are rejected.
func (s *Store) Path(name string) (string, error) {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.dir, name), nil
}

// URL returns the API path a stored file is served from.
func URL(name string) string {
	return URLPrefix + name
}

func (s *Store) generateName(ext string) string {
	id := uuid.NewString()[:8]
	return s.now().Format("20060102_150405") + "_" + id + "." + ext
}

func extension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}
