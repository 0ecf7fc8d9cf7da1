package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUnsupportedMedia is returned when a blob is not an accepted image type.
	ErrUnsupportedMedia = errors.New("unsupported media type")
	// ErrTooLarge is returned when a blob exceeds the store's size limit.
	ErrTooLarge = errors.New("file too large")
)

var imageExt = map[string]string{
	"image/gif":  ".gif",
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// refPattern matches references produced by Store: posts/<yyyy>/<mm>/<uuid><ext>.
var refPattern = regexp.MustCompile(`^posts/\d{4}/\d{2}/[0-9a-f-]{36}\.(gif|jpg|png|webp)$`)

// BlobStore keeps post images on local disk and hands out opaque references.
type BlobStore struct {
	root    string
	maxSize int64
}

// NewBlobStore returns a store rooted at dir. maxSize <= 0 means 10MB.
func NewBlobStore(dir string, maxSize int64) *BlobStore {
	if maxSize <= 0 {
		maxSize = 10 << 20
	}
	return &BlobStore{root: dir, maxSize: maxSize}
}

// MaxSize is the largest accepted payload in bytes.
func (b *BlobStore) MaxSize() int64 { return b.maxSize }

// Store writes data and returns its reference. contentType may be empty, in
// which case it is sniffed from the payload.
func (b *BlobStore) Store(ctx context.Context, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if int64(len(data)) > b.maxSize {
		return "", fmt.Errorf("blob of %d bytes exceeds %d: %w", len(data), b.maxSize, ErrTooLarge)
	}
	sniffed := http.DetectContentType(data)
	if contentType == "" {
		contentType = sniffed
	}
	ext, ok := imageExt[contentType]
	if !ok || sniffed != contentType {
		return "", fmt.Errorf("content type %q: %w", contentType, ErrUnsupportedMedia)
	}

	now := time.Now()
	ref := filepath.ToSlash(filepath.Join("posts", now.Format("2006"), now.Format("01"), uuid.NewString()+ext))
	dst := filepath.Join(b.root, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create blob dir: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return ref, nil
}

// Retrieve returns the bytes and sniffed content type behind ref.
func (b *BlobStore) Retrieve(ctx context.Context, ref string) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	path, ok := b.path(ref)
	if !ok {
		return nil, "", ErrNotFound
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("read blob: %w", err)
	}
	return data, http.DetectContentType(data), nil
}

// Exists reports whether ref names a stored blob.
func (b *BlobStore) Exists(_ context.Context, ref string) bool {
	path, ok := b.path(ref)
	if !ok {
		return false
	}
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

// URL is the public path the media route serves ref from.
func (b *BlobStore) URL(ref string) string {
	if ref == "" {
		return ""
	}
	return "/media/" + ref
}

func (b *BlobStore) path(ref string) (string, bool) {
	ref = strings.TrimPrefix(ref, "/")
	if !refPattern.MatchString(ref) {
		return "", false
	}
	return filepath.Join(b.root, filepath.FromSlash(ref)), true
}
