package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DiskUploader writes uploads below a local directory served at URLPrefix.
type DiskUploader struct {
	mu        sync.Mutex
	uploadDir string
	urlPrefix string
}

func NewDiskUploader(uploadDir string, urlPrefix string) (*DiskUploader, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("disk uploader: %w", err)
	}
	return &DiskUploader{uploadDir: uploadDir, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

func (u *DiskUploader) Upload(ctx context.Context, objectPath string, contentType string, r io.Reader) <-chan UploadResult {
	out := make(chan UploadResult, 1)
	go func() {
		defer close(out)
		url, err := u.write(ctx, objectPath, r)
		out <- UploadResult{URL: url, Err: err}
	}()
	return out
}

func (u *DiskUploader) write(ctx context.Context, objectPath string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean := filepath.Clean("/" + objectPath)
	filePath := filepath.Join(u.uploadDir, clean)

	// Same path for the same user and purpose: serialize overwrites.
	u.mu.Lock()
	defer u.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	tmp := filePath + ".part"
	dst, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("%w: create file: %v", ErrUploadFailed, err)
	}
	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("%w: save file: %v", ErrUploadFailed, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if err := os.Rename(tmp, filePath); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	return u.urlPrefix + filepath.ToSlash(clean), nil
}
