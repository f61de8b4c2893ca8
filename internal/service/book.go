package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"bookapi/internal/engine"
	"bookapi/internal/filestore"
	"bookapi/internal/model"
	"bookapi/internal/repository"
)

// CreateUpdateBookDTO is the caller-supplied payload for book create
// and update. Fields are pointers so an update can distinguish "absent"
// from "set to zero value"; create validates the required tags, update
// applies only the present fields and re-validates the entity.
type CreateUpdateBookDTO struct {
	Name        *string           `json:"name" validate:"required,max=100"`
	Description *string           `json:"description" validate:"omitempty,max=500"`
	Author      *string           `json:"author" validate:"required"`
	CategoryID  *string           `json:"category_id" validate:"required"`
	Cover       *filestore.Upload `json:"-" form:"cover" validate:"required"`
}

// BookResponseDTO is the read-only projection of a book.
type BookResponseDTO struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Author       string    `json:"author"`
	CoverURL     string    `json:"cover_url"`
	CategoryID   string    `json:"category_id"`
	CategoryName string    `json:"category_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// bookMapper is the book-specific half of the CRUD engine.
type bookMapper struct {
	categories repository.CategoryRepository
	validate   *validator.Validate
}

func (m *bookMapper) EntityName() string { return "book" }

func (m *bookMapper) PrepareForValidation(dto *CreateUpdateBookDTO) {
	if dto.Name != nil {
		*dto.Name = engine.Normalize(*dto.Name)
	}
}

func (m *bookMapper) Validate(ctx context.Context, dtos []CreateUpdateBookDTO) map[int][]string {
	errs := engine.ValidateStructs(m.validate, dtos)
	for i, dto := range dtos {
		if dto.CategoryID == nil || *dto.CategoryID == "" {
			continue
		}
		exists, err := m.categories.ExistsByID(ctx, *dto.CategoryID)
		if err != nil {
			errs[i] = append(errs[i], fmt.Sprintf("category_id: could not be verified: %v", err))
		} else if !exists {
			errs[i] = append(errs[i], fmt.Sprintf("category_id: category %q does not exist", *dto.CategoryID))
		}
	}
	return errs
}

func (m *bookMapper) ValidateEntity(b *model.Book) []string {
	return engine.ValidateStruct(m.validate, b)
}

func (m *bookMapper) DTOName(dto CreateUpdateBookDTO) string {
	if dto.Name == nil {
		return ""
	}
	return engine.Normalize(*dto.Name)
}

func (m *bookMapper) DTOAttachment(dto CreateUpdateBookDTO) *filestore.Upload {
	return dto.Cover
}

func (m *bookMapper) ToEntity(dto CreateUpdateBookDTO, attachmentRef string) *model.Book {
	b := &model.Book{Cover: attachmentRef}
	if dto.Name != nil {
		b.Name = *dto.Name
	}
	if dto.Description != nil {
		b.Description = *dto.Description
	}
	if dto.Author != nil {
		b.Author = *dto.Author
	}
	if dto.CategoryID != nil {
		b.CategoryID = *dto.CategoryID
	}
	return b
}

func (m *bookMapper) ApplyUpdate(ctx context.Context, b *model.Book, dto CreateUpdateBookDTO) (bool, error) {
	changed := false
	if dto.Name != nil {
		b.Name = *dto.Name
		changed = true
	}
	if dto.Description != nil {
		b.Description = *dto.Description
		changed = true
	}
	if dto.Author != nil {
		b.Author = *dto.Author
		changed = true
	}
	if dto.CategoryID != nil {
		exists, err := m.categories.ExistsByID(ctx, *dto.CategoryID)
		if err != nil {
			return changed, fmt.Errorf("check category: %w", err)
		}
		if !exists {
			return changed, fmt.Errorf("%w: category %q", engine.ErrMissingReference, *dto.CategoryID)
		}
		b.CategoryID = *dto.CategoryID
		b.Category = nil // stale join data; reloaded on next read
		changed = true
	}
	return changed, nil
}

func (m *bookMapper) ToResponse(b *model.Book) BookResponseDTO {
	resp := BookResponseDTO{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		Author:      b.Author,
		CoverURL:    b.Cover,
		CategoryID:  b.CategoryID,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
	if b.Category != nil {
		resp.CategoryName = b.Category.Name
	}
	return resp
}

// BookService exposes the generic CRUD pipeline for books plus the
// search operations.
type BookService struct {
	*engine.Engine[*model.Book, CreateUpdateBookDTO, BookResponseDTO]
	books  repository.BookRepository
	files  filestore.FileStore
	mapper *bookMapper
	log    *zap.Logger
}

// NewBookService constructs a BookService.
func NewBookService(
	books repository.BookRepository,
	categories repository.CategoryRepository,
	files filestore.FileStore,
	validate *validator.Validate,
	log *zap.Logger,
) *BookService {
	m := &bookMapper{categories: categories, validate: validate}
	return &BookService{
		Engine: engine.New[*model.Book, CreateUpdateBookDTO, BookResponseDTO](books, files, m, log),
		books:  books,
		files:  files,
		mapper: m,
		log:    log,
	}
}

// GetByCategories returns the books belonging to any of the given
// category names. An empty result is a 404 for this endpoint.
func (s *BookService) GetByCategories(ctx context.Context, categories []string) model.Response[[]BookResponseDTO] {
	if len(categories) == 0 {
		return model.BadRequest[[]BookResponseDTO]("Category list cannot be empty")
	}
	books, err := s.books.FindByCategoryNames(ctx, normalizeAll(categories))
	if err != nil {
		s.log.Error("fetch by categories failed", zap.Error(err))
		return model.Internal[[]BookResponseDTO](fmt.Sprintf("Error fetching books: %v", err))
	}
	if len(books) == 0 {
		return model.NotFound[[]BookResponseDTO]("No books found for the given categories")
	}
	return model.OK(s.toResponses(books), "Books retrieved successfully")
}

// GetByAuthors returns the books written by any of the given authors.
func (s *BookService) GetByAuthors(ctx context.Context, authors []string) model.Response[[]BookResponseDTO] {
	if len(authors) == 0 {
		return model.BadRequest[[]BookResponseDTO]("Author list cannot be empty")
	}
	books, err := s.books.FindByAuthors(ctx, authors)
	if err != nil {
		s.log.Error("fetch by authors failed", zap.Error(err))
		return model.Internal[[]BookResponseDTO](fmt.Sprintf("Error fetching books: %v", err))
	}
	if len(books) == 0 {
		return model.NotFound[[]BookResponseDTO]("No books found for the given authors")
	}
	return model.OK(s.toResponses(books), "Books retrieved successfully")
}

// Search returns the books matching every populated filter field.
func (s *BookService) Search(ctx context.Context, f repository.BookFilter) model.Response[[]BookResponseDTO] {
	f.Categories = normalizeAll(f.Categories)
	books, err := s.books.Search(ctx, f)
	if err != nil {
		s.log.Error("search failed", zap.Error(err))
		return model.Internal[[]BookResponseDTO](fmt.Sprintf("Error searching books: %v", err))
	}
	if len(books) == 0 {
		return model.NotFound[[]BookResponseDTO]("No books match the search criteria")
	}
	return model.OK(s.toResponses(books), "Books retrieved successfully")
}

// OpenCover streams a stored cover image. Path-safety and not-found
// errors pass through from the file store for the handler to map.
func (s *BookService) OpenCover(ctx context.Context, filename string) (io.ReadCloser, error) {
	return s.files.Open(ctx, filename)
}

func (s *BookService) toResponses(books []*model.Book) []BookResponseDTO {
	out := make([]BookResponseDTO, 0, len(books))
	for _, b := range books {
		out = append(out, s.mapper.ToResponse(b))
	}
	return out
}

func normalizeAll(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, engine.Normalize(n))
	}
	return out
}
