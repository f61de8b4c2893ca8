// Package handler contains the HTTP transport layer. Handlers stay
// thin: parse the request, call the service, serialize the Response
// envelope with its status mapped 1:1 onto the HTTP status.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"bookapi/internal/filestore"
	"bookapi/internal/model"
)

// respond serializes a Response envelope; the envelope's status is the
// HTTP status.
func respond[T any](c *fiber.Ctx, res model.Response[T]) error {
	return c.Status(res.Status).JSON(res)
}

// readUpload materializes a multipart file into a filestore payload.
func readUpload(fh *multipart.FileHeader) (*filestore.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open uploaded file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read uploaded file: %w", err)
	}

	ct := fh.Header.Get(fiber.HeaderContentType)
	if ct == "" {
		ct = fiber.MIMEOctetStream
	}
	return &filestore.Upload{Filename: fh.Filename, ContentType: ct, Data: data}, nil
}

// decodeBody parses the request payload into v. Multipart requests
// carry the JSON document in the "data" form field; everything else is
// a plain JSON body.
func decodeBody(c *fiber.Ctx, v any) error {
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		raw := c.FormValue("data")
		if raw == "" {
			return errors.New("missing data field")
		}
		return json.Unmarshal([]byte(raw), v)
	}
	return c.App().Config().JSONDecoder(c.Body(), v)
}

// formFile returns the named multipart file, or nil when the request
// is not multipart or the field is absent.
func formFile(c *fiber.Ctx, name string) (*multipart.FileHeader, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	fh, err := c.FormFile(name)
	if err != nil {
		return nil, nil // treat absent field as "no attachment"
	}
	return fh, err
}

// sendStoredFile streams a file store object, mapping store errors to
// transport errors: traversal attempts are the client's fault, missing
// files are 404.
func sendStoredFile(c *fiber.Ctx, rc io.ReadCloser, filename string, err error) error {
	if err != nil {
		switch {
		case errors.Is(err, filestore.ErrInvalidPath):
			return writeError(c, fiber.StatusBadRequest, "INVALID_PATH", "invalid file path")
		case errors.Is(err, filestore.ErrNotFound):
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "file not found")
		default:
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
	}
	if ext := strings.TrimPrefix(filepath.Ext(filename), "."); ext != "" {
		c.Type(ext)
	}
	// fasthttp closes the stream when it implements io.Closer.
	return c.SendStream(rc)
}
