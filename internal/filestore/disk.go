package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"bookapi/internal/config"
)

// diskStore persists attachments on the local filesystem under a
// fixed root directory.
type diskStore struct {
	root string // absolute, cleaned
	rules
}

// NewDisk creates a disk-backed FileStore rooted at cfg.Dir. The
// directory is created lazily on first save.
func NewDisk(cfg config.UploadConfig) (FileStore, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("upload dir is required")
	}
	if cfg.MaxFileSize <= 0 {
		return nil, fmt.Errorf("max file size must be positive")
	}
	if len(cfg.AllowedTypes) == 0 {
		return nil, fmt.Errorf("allowed content types are required")
	}

	root, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}

	return &diskStore{
		root:  root,
		rules: rules{maxSize: cfg.MaxFileSize, allowedTypes: cfg.AllowedTypes},
	}, nil
}

func (d *diskStore) Validate(u *Upload) error {
	return d.validate(u)
}

// resolve maps an untrusted filename onto an absolute path and
// verifies it stays inside the store root. The check runs on every
// operation; a previously sanitized value is never trusted across a
// call boundary.
func (d *diskStore) resolve(filename string) (string, error) {
	if filename == "" || filepath.IsAbs(filename) {
		return "", ErrInvalidPath
	}
	target := filepath.Join(d.root, filename)
	if target == d.root || !strings.HasPrefix(target, d.root+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}
	return target, nil
}

func (d *diskStore) Save(_ context.Context, u *Upload) (string, error) {
	if u == nil {
		return "", ErrEmptyFile
	}
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := generateName(u.Filename)
	target, err := d.resolve(name)
	if err != nil {
		return "", err
	}

	// Write to a temp file in the same directory, then rename so a
	// reader can never observe a partially written attachment.
	tmp, err := os.CreateTemp(d.root, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(u.Data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("rename file: %w", err)
	}

	return name, nil
}

func (d *diskStore) Open(_ context.Context, filename string) (io.ReadCloser, error) {
	target, err := d.resolve(filename)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

// Delete removes a stored file. A missing file is not an error, so a
// repeated delete of the same name succeeds.
func (d *diskStore) Delete(_ context.Context, filename string) error {
	target, err := d.resolve(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}
