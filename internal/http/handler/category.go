package handler

import (
	"github.com/gofiber/fiber/v2"

	"bookapi/internal/model"
	"bookapi/internal/service"
)

// GetCategory returns a single category by id.
func GetCategory(categories *service.CategoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return respond(c, categories.GetByID(c.UserContext(), c.Params("id")))
	}
}

// ListCategories returns every category.
func ListCategories(categories *service.CategoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return respond(c, categories.GetAll(c.UserContext()))
	}
}

// CreateCategories creates one or more categories from a JSON array.
func CreateCategories(categories *service.CategoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var dtos []service.CreateUpdateCategoryDTO
		if err := decodeBody(c, &dtos); err != nil {
			return respond(c, model.BadRequest[[]service.CategoryResponseDTO]("Invalid request body"))
		}
		return respond(c, categories.Create(c.UserContext(), dtos))
	}
}

// UpdateCategory applies a partial update to a category.
func UpdateCategory(categories *service.CategoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var dto service.CreateUpdateCategoryDTO
		if err := decodeBody(c, &dto); err != nil {
			return respond(c, model.BadRequest[*service.CategoryResponseDTO]("Invalid request body"))
		}
		return respond(c, categories.Update(c.UserContext(), c.Params("id"), dto))
	}
}

// DeleteCategory removes a category and returns its last known state.
func DeleteCategory(categories *service.CategoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return respond(c, categories.Delete(c.UserContext(), c.Params("id")))
	}
}
