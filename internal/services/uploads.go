package services

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ImageUploadResult describes a stored upload.
type ImageUploadResult struct {
	URL         string `json:"url"`
	ID          string `json:"id"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// UploadService stores images on local disk under random names.
type UploadService struct {
	dir       string
	maxBytes  int64
	urlPrefix string
}

func NewUploadService(dir string, maxBytes int64) *UploadService {
	return &UploadService{dir: dir, maxBytes: maxBytes, urlPrefix: "/uploads/"}
}

func (s *UploadService) Dir() string { return s.dir }

func (s *UploadService) Save(file multipart.File, header *multipart.FileHeader) (*ImageUploadResult, error) {
	if header.Size > s.maxBytes {
		return nil, validation("file exceeds %d bytes", s.maxBytes)
	}

	// One extra byte tells an oversized file apart from one at the limit.
	data, err := io.ReadAll(io.LimitReader(file, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, validation("file exceeds %d bytes", s.maxBytes)
	}
	if len(data) == 0 {
		return nil, validation("file is empty")
	}

	contentType := http.DetectContentType(data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, validation("unsupported file type %s", contentType)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	id := uuid.NewString()
	name := id + ext
	dst, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(dst, bytes.NewReader(data)); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return nil, err
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return nil, err
	}
	if err := os.Rename(dst.Name(), filepath.Join(s.dir, name)); err != nil {
		os.Remove(dst.Name())
		return nil, err
	}

	slog.Debug("image stored", "name", name, "size", len(data), "type", contentType)
	return &ImageUploadResult{
		URL:         s.urlPrefix + name,
		ID:          id,
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}
