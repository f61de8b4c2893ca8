package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"bookapi/internal/engine"
	"bookapi/internal/filestore"
	"bookapi/internal/model"
	"bookapi/internal/repository"
)

// CreateUpdateCategoryDTO is the caller-supplied payload for category
// create and update. Categories carry no binary attachment; the icon
// is an external URL.
type CreateUpdateCategoryDTO struct {
	Name *string `json:"name" validate:"required,max=100"`
	Icon *string `json:"icon" validate:"required,url"`
}

// CategoryResponseDTO is the read-only projection of a category.
type CategoryResponseDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type categoryMapper struct {
	validate *validator.Validate
}

func (m *categoryMapper) EntityName() string { return "category" }

func (m *categoryMapper) PrepareForValidation(dto *CreateUpdateCategoryDTO) {
	if dto.Name != nil {
		*dto.Name = engine.Normalize(*dto.Name)
	}
}

func (m *categoryMapper) Validate(_ context.Context, dtos []CreateUpdateCategoryDTO) map[int][]string {
	return engine.ValidateStructs(m.validate, dtos)
}

func (m *categoryMapper) ValidateEntity(c *model.Category) []string {
	return engine.ValidateStruct(m.validate, c)
}

func (m *categoryMapper) DTOName(dto CreateUpdateCategoryDTO) string {
	if dto.Name == nil {
		return ""
	}
	return engine.Normalize(*dto.Name)
}

func (m *categoryMapper) DTOAttachment(CreateUpdateCategoryDTO) *filestore.Upload { return nil }

func (m *categoryMapper) ToEntity(dto CreateUpdateCategoryDTO, _ string) *model.Category {
	c := &model.Category{}
	if dto.Name != nil {
		c.Name = *dto.Name
	}
	if dto.Icon != nil {
		c.Icon = *dto.Icon
	}
	return c
}

func (m *categoryMapper) ApplyUpdate(_ context.Context, c *model.Category, dto CreateUpdateCategoryDTO) (bool, error) {
	changed := false
	if dto.Name != nil {
		c.Name = *dto.Name
		changed = true
	}
	if dto.Icon != nil {
		c.Icon = *dto.Icon
		changed = true
	}
	return changed, nil
}

func (m *categoryMapper) ToResponse(c *model.Category) CategoryResponseDTO {
	return CategoryResponseDTO{
		ID:        c.ID,
		Name:      c.Name,
		Icon:      c.Icon,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// CategoryService is the generic CRUD pipeline applied to categories;
// it needs nothing beyond what the engine provides.
type CategoryService struct {
	*engine.Engine[*model.Category, CreateUpdateCategoryDTO, CategoryResponseDTO]
}

// NewCategoryService constructs a CategoryService.
func NewCategoryService(
	categories repository.CategoryRepository,
	files filestore.FileStore,
	validate *validator.Validate,
	log *zap.Logger,
) *CategoryService {
	m := &categoryMapper{validate: validate}
	return &CategoryService{
		Engine: engine.New[*model.Category, CreateUpdateCategoryDTO, CategoryResponseDTO](categories, files, m, log),
	}
}
