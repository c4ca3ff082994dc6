package services

import (
	"context"
	"io"

	"github.com/google/uuid"
)

type UploadPurpose string

const (
	UploadProfilePhoto UploadPurpose = "profile"
	UploadCoverPhoto   UploadPurpose = "cover"
)

// UploadResult is delivered exactly once on the channel returned by Upload,
// after the uploader has stopped reading its input.
type UploadResult struct {
	URL string
	Err error
}

// Uploader stores a blob and reports its public URL.
type Uploader interface {
	Upload(ctx context.Context, objectPath string, contentType string, r io.Reader) <-chan UploadResult
}

// ObjectPath is the per-user, per-purpose storage path. Without a user id a
// random identifier keeps uploads from colliding.
func ObjectPath(purpose UploadPurpose, userID string) string {
	if userID == "" {
		userID = uuid.NewString()
	}
	return "images/" + string(purpose) + "/" + userID
}

// AwaitUpload blocks until the upload finishes or ctx ends.
func AwaitUpload(ctx context.Context, ch <-chan UploadResult) (string, error) {
	select {
	case res, ok := <-ch:
		if !ok {
			return "", ErrUploadFailed
		}
		return res.URL, res.Err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func uploadDone(res UploadResult) <-chan UploadResult {
	ch := make(chan UploadResult, 1)
	ch <- res
	close(ch)
	return ch
}
