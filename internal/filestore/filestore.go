// Package filestore validates and persists uploaded binary assets
// (book covers, user avatars) under generated collision-free names.
// Implementations must treat every filename supplied by a caller as
// untrusted and re-verify containment on each operation, because
// filenames are persisted on entities and later handed back by any
// caller.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrEmptyFile is returned when an upload carries zero bytes.
	ErrEmptyFile = errors.New("empty file detected")
	// ErrSizeExceeded is returned when an upload exceeds the configured maximum.
	ErrSizeExceeded = errors.New("file size exceeds limit")
	// ErrUnsupportedType is returned when the declared content type is not allow-listed.
	ErrUnsupportedType = errors.New("unsupported content type")
	// ErrInvalidPath is returned when a filename would resolve outside the store root.
	ErrInvalidPath = errors.New("invalid file path")
	// ErrNotFound is returned when the named file does not exist or is unreadable.
	ErrNotFound = errors.New("file not found")
)

// Upload is a caller-supplied attachment payload. A nil *Upload means
// "no attachment supplied", which is never a validation error.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// FileStore is the attachment storage contract shared by the disk and
// S3 backends. Implementations are safe for concurrent use.
type FileStore interface {
	// Validate checks an upload against the size and content-type
	// rules. A nil upload is valid (absent attachment).
	Validate(u *Upload) error

	// Save persists a validated upload under a freshly generated name
	// and returns that name.
	Save(ctx context.Context, u *Upload) (string, error)

	// Open returns the content of a previously saved file.
	// The caller must close the reader.
	Open(ctx context.Context, filename string) (io.ReadCloser, error)

	// Delete removes a file. Deleting a nonexistent file is not an
	// error; traversal attempts are.
	Delete(ctx context.Context, filename string) error
}

// rules holds the backend-independent upload constraints.
type rules struct {
	maxSize      int64
	allowedTypes []string
}

func (r rules) validate(u *Upload) error {
	if u == nil {
		return nil
	}
	if len(u.Data) == 0 {
		return ErrEmptyFile
	}
	if int64(len(u.Data)) > r.maxSize {
		return fmt.Errorf("%w: %d MB", ErrSizeExceeded, r.maxSize/1024/1024)
	}
	for _, t := range r.allowedTypes {
		if strings.EqualFold(t, u.ContentType) {
			return nil
		}
	}
	return fmt.Errorf("%w: %q (allowed: %s)", ErrUnsupportedType, u.ContentType, strings.Join(r.allowedTypes, ", "))
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// generateName builds a collision-free stored filename from an
// untrusted original: strip everything outside the allow-listed
// character set, keep only the lower-cased extension, and prefix a
// fresh UUID.
func generateName(original string) string {
	sanitized := unsafeChars.ReplaceAllString(original, "")
	ext := ""
	if i := strings.LastIndex(sanitized, "."); i >= 0 {
		ext = strings.ToLower(sanitized[i:])
	}
	return uuid.NewString() + ext
}
