package upload

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

const (
	// FieldName is the multipart form field carrying the image file.
	FieldName = "image"
	// MaxFileSize is the hard upload cutoff in bytes (5 MiB).
	MaxFileSize = 5 * 1024 * 1024
)

var (
	ErrNoFile   = errors.New("no file uploaded")
	ErrFileType = errors.New("only image files are allowed (jpeg, jpg, png, gif, webp)")
	ErrTooLarge = errors.New("file exceeds the maximum allowed size")
)

var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Store persists accepted image uploads under a fixed directory.
type Store struct {
	dir string
}

// NewStore returns a Store writing into dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Save extracts the single image file from the request, validates its type
// and size, and writes it to disk under a generated unique name. It returns
// the relative path to store alongside the product, e.g. "uploads/image-....png".
// Type filtering happens before the size limit is enforced.
func (s *Store) Save(r *http.Request) (string, error) {
	file, header, err := r.FormFile(FieldName)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", ErrNoFile
		}
		return "", err
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	contentType := strings.ToLower(header.Header.Get("Content-Type"))
	if !allowedExtensions[ext] || !allowedMimeTypes[contentType] {
		return "", ErrFileType
	}
	if header.Size > MaxFileSize {
		return "", ErrTooLarge
	}

	name := generateName(filepath.Ext(header.Filename))
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, file); err != nil {
		return "", err
	}
	return "uploads/" + name, nil
}

// Remove deletes a previously stored file by its relative path. Best effort:
// a missing file is not an error, and failures are ignored by callers.
func (s *Store) Remove(relPath string) {
	if relPath == "" {
		return
	}
	_ = os.Remove(filepath.Join(s.dir, path.Base(relPath)))
}

// generateName builds a unique filename from the field name, the current
// unix-millisecond timestamp and a random integer. Collisions under
// concurrent requests are negligible, not impossible.
func generateName(origExt string) string {
	return fmt.Sprintf("%s-%d-%d%s", FieldName, time.Now().UnixMilli(), rand.Int63n(1_000_000_000), origExt)
}
