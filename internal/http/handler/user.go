package handler

import (
	"github.com/gofiber/fiber/v2"

	"bookapi/internal/http/middleware"
	"bookapi/internal/model"
	"bookapi/internal/service"
)

// Register creates a user account and returns an access token.
func Register(users *service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var dto service.CreateUpdateUserDTO
		if err := decodeBody(c, &dto); err != nil {
			return respond(c, model.BadRequest[*service.AuthResponse]("Invalid request body"))
		}

		if fh, _ := formFile(c, "avatar"); fh != nil {
			upload, err := readUpload(fh)
			if err != nil {
				return respond(c, model.BadRequest[*service.AuthResponse]("Unable to read uploaded file"))
			}
			dto.Avatar = upload
		}

		return respond(c, users.Register(c.UserContext(), dto))
	}
}

// Login exchanges credentials for an access token.
func Login(users *service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var dto service.LoginDTO
		if err := c.BodyParser(&dto); err != nil {
			return respond(c, model.BadRequest[*service.AuthResponse]("Invalid request body"))
		}
		return respond(c, users.Login(c.UserContext(), dto))
	}
}

// GetUser returns a single user by id.
func GetUser(users *service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return respond(c, users.GetByID(c.UserContext(), c.Params("id")))
	}
}

// ListUsers returns every user, optionally filtered by the "role"
// query parameter.
func ListUsers(users *service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if role := c.Query("role"); role != "" {
			return respond(c, users.GetByRole(c.UserContext(), model.Role(role)))
		}
		return respond(c, users.GetAll(c.UserContext()))
	}
}

// UpdateUser applies a partial update to a user. An optional "avatar"
// file part replaces the stored avatar image.
func UpdateUser(users *service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var dto service.CreateUpdateUserDTO
		if err := decodeBody(c, &dto); err != nil {
			return respond(c, model.BadRequest[*service.UserResponseDTO]("Invalid request body"))
		}

		if fh, _ := formFile(c, "avatar"); fh != nil {
			upload, err := readUpload(fh)
			if err != nil {
				return respond(c, model.BadRequest[*service.UserResponseDTO]("Unable to read uploaded file"))
			}
			dto.Avatar = upload
		}

		return respond(c, users.Update(c.UserContext(), c.Params("id"), dto))
	}
}

// UpdateUserRole changes another user's role. The acting user comes
// from the auth token.
func UpdateUserRole(users *service.UserService) fiber.Handler {
	type roleBody struct {
		Role model.Role `json:"role"`
	}
	return func(c *fiber.Ctx) error {
		var body roleBody
		if err := c.BodyParser(&body); err != nil {
			return respond(c, model.BadRequest[*service.UserResponseDTO]("Invalid request body"))
		}
		actorID := middleware.AuthenticatedUserID(c)
		return respond(c, users.UpdateRole(c.UserContext(), actorID, c.Params("id"), body.Role))
	}
}

// DeleteUser removes a user and returns its last known state.
func DeleteUser(users *service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return respond(c, users.Delete(c.UserContext(), c.Params("id")))
	}
}

// GetUserAvatar streams a stored avatar image.
func GetUserAvatar(users *service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filename := c.Params("filename")
		rc, err := users.OpenAvatar(c.UserContext(), filename)
		return sendStoredFile(c, rc, filename, err)
	}
}
