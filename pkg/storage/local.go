// Package storage persists uploaded item photos on local disk and serves them
// from a public URL prefix.
package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/setdecrunner/backend/pkg/config"
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Store saves and deletes uploaded files.
type Store interface {
	Save(ctx context.Context, contentType string, r io.Reader) (url string, err error)
	Delete(ctx context.Context, url string) error
}

// Local writes files under a directory and maps them to cfg.PublicBase URLs.
type Local struct {
	dir        string
	publicBase string
	maxBytes   int64
}

func NewLocal(cfg config.UploadsConfig) (*Local, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("upload dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{
		dir:        cfg.Dir,
		publicBase: strings.TrimSuffix(cfg.PublicBase, "/"),
		maxBytes:   int64(cfg.MaxUploadMB) << 20,
	}, nil
}

// Dir exposes the backing directory so the router can mount a file server.
func (l *Local) Dir() string {
	return l.dir
}

// PublicBase exposes the URL prefix uploads are served from.
func (l *Local) PublicBase() string {
	return l.publicBase
}

// Save streams r to disk under a random name and returns the public URL.
func (l *Local) Save(ctx context.Context, contentType string, r io.Reader) (string, error) {
	base, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("parse content type: %w", err)
	}
	ext, ok := allowedImageTypes[base]
	if !ok {
		return "", fmt.Errorf("unsupported content type %q", base)
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate file name: %w", err)
	}
	name := hex.EncodeToString(buf) + ext

	dst, err := os.Create(filepath.Join(l.dir, name))
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	limited := io.LimitReader(r, l.maxBytes+1)
	written, err := io.Copy(dst, limited)
	if err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("write upload: %w", err)
	}
	if written > l.maxBytes {
		os.Remove(dst.Name())
		return "", fmt.Errorf("upload exceeds %d bytes", l.maxBytes)
	}

	return l.publicBase + "/" + name, nil
}

// Delete removes the file backing a public URL. Unknown URLs are ignored so
// repeated deletes stay idempotent.
func (l *Local) Delete(ctx context.Context, url string) error {
	name := path.Base(url)
	if name == "." || name == "/" || name == "" {
		return nil
	}
	if !strings.HasPrefix(url, l.publicBase+"/") {
		return nil
	}
	err := os.Remove(filepath.Join(l.dir, name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
