package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"bookapi/internal/model"
	"bookapi/internal/repository"
	"bookapi/internal/service"
)

// GetBook returns a single book by id.
func GetBook(books *service.BookService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return respond(c, books.GetByID(c.UserContext(), c.Params("id")))
	}
}

// ListBooks returns every book.
func ListBooks(books *service.BookService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return respond(c, books.GetAll(c.UserContext()))
	}
}

// CreateBooks creates one or more books from a multipart request. The
// "data" field holds a JSON array of book payloads; each entry's cover
// image travels as a "cover_<index>" file part.
func CreateBooks(books *service.BookService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var dtos []service.CreateUpdateBookDTO
		if err := decodeBody(c, &dtos); err != nil {
			return respond(c, model.BadRequest[[]service.BookResponseDTO]("Invalid request body"))
		}

		for i := range dtos {
			fh, _ := formFile(c, fmt.Sprintf("cover_%d", i))
			if fh == nil {
				continue
			}
			upload, err := readUpload(fh)
			if err != nil {
				return respond(c, model.BadRequest[[]service.BookResponseDTO]("Unable to read uploaded file"))
			}
			dtos[i].Cover = upload
		}

		return respond(c, books.Create(c.UserContext(), dtos))
	}
}

// UpdateBook applies a partial update to a book. An optional "cover"
// file part replaces the stored cover image.
func UpdateBook(books *service.BookService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var dto service.CreateUpdateBookDTO
		if err := decodeBody(c, &dto); err != nil {
			return respond(c, model.BadRequest[*service.BookResponseDTO]("Invalid request body"))
		}

		if fh, _ := formFile(c, "cover"); fh != nil {
			upload, err := readUpload(fh)
			if err != nil {
				return respond(c, model.BadRequest[*service.BookResponseDTO]("Unable to read uploaded file"))
			}
			dto.Cover = upload
		}

		return respond(c, books.Update(c.UserContext(), c.Params("id"), dto))
	}
}

// DeleteBook removes a book and returns its last known state.
func DeleteBook(books *service.BookService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return respond(c, books.Delete(c.UserContext(), c.Params("id")))
	}
}

// BooksByCategories filters books by category names, passed as a
// comma-separated "categories" query parameter.
func BooksByCategories(books *service.BookService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		names := splitQueryList(c.Query("categories"))
		return respond(c, books.GetByCategories(c.UserContext(), names))
	}
}

// BooksByAuthors filters books by author names, passed as a
// comma-separated "authors" query parameter.
func BooksByAuthors(books *service.BookService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		names := splitQueryList(c.Query("authors"))
		return respond(c, books.GetByAuthors(c.UserContext(), names))
	}
}

// SearchBooks combines category, author and creation-date filters.
// Dates use RFC 3339.
func SearchBooks(books *service.BookService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter := repository.BookFilter{
			Categories: splitQueryList(c.Query("categories")),
			Authors:    splitQueryList(c.Query("authors")),
		}

		var err error
		if filter.CreatedAfter, err = parseTimeQuery(c.Query("created_after")); err != nil {
			return respond(c, model.BadRequest[[]service.BookResponseDTO]("Invalid created_after timestamp"))
		}
		if filter.CreatedBefore, err = parseTimeQuery(c.Query("created_before")); err != nil {
			return respond(c, model.BadRequest[[]service.BookResponseDTO]("Invalid created_before timestamp"))
		}

		return respond(c, books.Search(c.UserContext(), filter))
	}
}

// GetBookCover streams a stored cover image.
func GetBookCover(books *service.BookService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filename := c.Params("filename")
		rc, err := books.OpenCover(c.UserContext(), filename)
		return sendStoredFile(c, rc, filename, err)
	}
}

func splitQueryList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseTimeQuery(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
