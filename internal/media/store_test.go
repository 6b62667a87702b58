package media

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

// minimalPNG returns valid PNG magic bytes followed by filler.
func minimalPNG(size int) []byte {
	data := make([]byte, size)
	copy(data, "\x89PNG\r\n\x1a\n")
	return data
}

func newTestStore(t *testing.T, maxSize int64) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), "http://localhost:8080/media", maxSize)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestStore_SaveAndOpen(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, 1<<20)
	payload := minimalPNG(1024)

	url, err := store.Save("profile123", KindBanner, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if !strings.HasPrefix(url, "http://localhost:8080/media/profile123/banner/") {
		t.Errorf("unexpected URL %q", url)
	}
	if !strings.HasSuffix(url, ".png") {
		t.Errorf("expected .png extension, got %q", url)
	}

	f, err := store.Open(url)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	got, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("stored bytes differ from upload (%d vs %d bytes)", len(got), len(payload))
	}
}

func TestStore_SaveSmallFile(t *testing.T) {
	t.Parallel()

	// Files shorter than the sniff buffer must still round-trip.
	store := newTestStore(t, 1<<20)
	payload := minimalPNG(64)

	url, err := store.Save("profile123", KindAvatar, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	f, err := store.Open(url)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	got, _ := io.ReadAll(f)
	if len(got) != 64 {
		t.Errorf("stored %d bytes, want 64", len(got))
	}
}

func TestStore_RejectsOversize(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, 1024)
	payload := minimalPNG(2048)

	_, err := store.Save("profile123", KindBanner, bytes.NewReader(payload))
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("Save = %v, want ErrTooLarge", err)
	}
}

func TestStore_RejectsUnsupportedType(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, 1<<20)

	_, err := store.Save("profile123", KindBanner, strings.NewReader("<svg></svg>"))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("Save = %v, want ErrUnsupportedType", err)
	}
}

func TestStore_RejectsInvalidKind(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, 1<<20)

	_, err := store.Save("profile123", "exports", bytes.NewReader(minimalPNG(64)))
	if !errors.Is(err, ErrInvalidKind) {
		t.Errorf("Save = %v, want ErrInvalidKind", err)
	}
}

func TestStore_OpenRejectsTraversal(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, 1<<20)

	if _, err := store.Open("http://localhost:8080/media/../../etc/passwd"); err == nil {
		t.Error("expected error for path traversal")
	}
	if _, err := store.Open("http://evil.example.com/file.png"); err == nil {
		t.Error("expected error for foreign base URL")
	}
}

func TestDetectImageType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		head []byte
		want string
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "image/jpeg"},
		{"png", []byte("\x89PNG\r\n\x1a\nrest"), "image/png"},
		{"gif", []byte("GIF89a"), "image/gif"},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), "image/webp"},
		{"text", []byte("hello world"), ""},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := detectImageType(tt.head); got != tt.want {
				t.Errorf("detectImageType = %q, want %q", got, tt.want)
			}
		})
	}
}
