package services

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GCSUploader writes uploads to a Firebase Storage bucket and returns Firebase
// download URLs. With a moderator set, unsafe images are deleted and rejected.
type GCSUploader struct {
	gcs       *storage.Client
	bucket    string
	moderator ImageModerator
	logger    *zap.Logger
}

func NewGCSUploader(gcs *storage.Client, bucket string, moderator ImageModerator, logger *zap.Logger) *GCSUploader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GCSUploader{gcs: gcs, bucket: bucket, moderator: moderator, logger: logger}
}

func (u *GCSUploader) Upload(ctx context.Context, objectPath string, contentType string, r io.Reader) <-chan UploadResult {
	if u.bucket == "" {
		return uploadDone(UploadResult{Err: fmt.Errorf("%w: no storage bucket configured", ErrUploadFailed)})
	}
	out := make(chan UploadResult, 1)
	go func() {
		defer close(out)
		url, err := u.upload(ctx, objectPath, contentType, r)
		out <- UploadResult{URL: url, Err: err}
	}()
	return out
}

func (u *GCSUploader) upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	obj := u.gcs.Bucket(u.bucket).Object(objectPath)
	token := uuid.NewString()

	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{
		"firebaseStorageDownloadTokens": token,
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("%w: write %s: %v", ErrUploadFailed, objectPath, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("%w: close %s: %v", ErrUploadFailed, objectPath, err)
	}

	if u.moderator != nil {
		gcsURI := fmt.Sprintf("gs://%s/%s", u.bucket, objectPath)
		ss, err := u.moderator.DetectSafeSearch(ctx, gcsURI)
		if err != nil {
			return "", fmt.Errorf("%w: safesearch: %v", ErrUploadFailed, err)
		}
		if ss.IsUnsafe() {
			u.logger.Warn("upload rejected by safesearch",
				zap.String("object", objectPath),
				zap.String("adult", ss.Adult),
				zap.String("violence", ss.Violence),
				zap.String("racy", ss.Racy))
			if err := obj.Delete(ctx); err != nil {
				u.logger.Error("delete rejected upload", zap.String("object", objectPath), zap.Error(err))
			}
			return "", ErrImageRejected
		}
	}

	return firebaseDownloadURL(u.bucket, objectPath, token), nil
}

func firebaseDownloadURL(bucket, objectName, token string) string {
	return fmt.Sprintf(
		"https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucket,
		url.PathEscape(objectName),
		url.QueryEscape(token),
	)
}
