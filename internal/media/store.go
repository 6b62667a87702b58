// Package media provides local-disk storage for uploaded images.
// Files are written under a per-profile directory and served back by the
// HTTP server under the media base URL.
package media

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Upload kinds. Each kind gets its own subdirectory per profile.
const (
	KindBanner  = "banner"
	KindAvatar  = "avatar"
	KindGallery = "gallery"
)

// Common errors for media operations.
var (
	ErrTooLarge        = errors.New("file exceeds maximum upload size")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrInvalidKind     = errors.New("invalid upload kind")
)

// extensions maps detected content types to stored file extensions.
var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Store writes uploads to a local directory tree.
type Store struct {
	rootDir string
	baseURL string
	maxSize int64
}

// NewStore creates a Store rooted at dir. Uploaded files are addressable
// at baseURL plus their relative path.
func NewStore(dir, baseURL string, maxSize int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &Store{
		rootDir: dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		maxSize: maxSize,
	}, nil
}

// RootDir returns the directory files are stored under.
// The HTTP server mounts this for static serving.
func (s *Store) RootDir() string {
	return s.rootDir
}

// Save streams an upload to disk and returns its public URL.
// The content type is sniffed from the first bytes, never trusted from
// the request.
func (s *Store) Save(profileID, kind string, r io.Reader) (string, error) {
	if kind != KindBanner && kind != KindAvatar && kind != KindGallery {
		return "", ErrInvalidKind
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]

	ext, ok := extensions[detectImageType(head)]
	if !ok {
		return "", ErrUnsupportedType
	}

	name, err := randomName()
	if err != nil {
		return "", err
	}

	relPath := filepath.Join(profileID, kind, name+ext)
	fullPath := filepath.Join(s.rootDir, relPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	f, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer f.Close()

	// Re-prepend the sniffed head, cap total bytes at the limit.
	limited := io.LimitReader(io.MultiReader(strings.NewReader(string(head)), r), s.maxSize+1)
	written, err := io.Copy(f, limited)
	if err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("write upload: %w", err)
	}
	if written > s.maxSize {
		os.Remove(fullPath)
		return "", ErrTooLarge
	}

	return s.baseURL + "/" + filepath.ToSlash(relPath), nil
}

// Open returns a reader for a previously saved file, given its public URL.
func (s *Store) Open(publicURL string) (io.ReadCloser, error) {
	relPath := strings.TrimPrefix(publicURL, s.baseURL+"/")
	if relPath == publicURL {
		return nil, fmt.Errorf("url %q is not under media base", publicURL)
	}

	cleaned := filepath.Clean(filepath.FromSlash(relPath))
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return nil, fmt.Errorf("invalid media path %q", relPath)
	}

	return os.Open(filepath.Join(s.rootDir, cleaned))
}

// detectImageType sniffs the content type from magic bytes.
func detectImageType(head []byte) string {
	switch {
	case len(head) >= 3 && head[0] == 0xFF && head[1] == 0xD8 && head[2] == 0xFF:
		return "image/jpeg"
	case len(head) >= 8 && string(head[:8]) == "\x89PNG\r\n\x1a\n":
		return "image/png"
	case len(head) >= 6 && (string(head[:6]) == "GIF87a" || string(head[:6]) == "GIF89a"):
		return "image/gif"
	case len(head) >= 12 && string(head[:4]) == "RIFF" && string(head[8:12]) == "WEBP":
		return "image/webp"
	default:
		return ""
	}
}

// randomName generates a hex file name.
func randomName() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate file name: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
