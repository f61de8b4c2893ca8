package handler

import (
	"database/sql"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bookapi/internal/auth"
	"bookapi/internal/http/middleware"
	"bookapi/internal/model"
	"bookapi/internal/service"
)

// Services bundles the application services the routes depend on.
type Services struct {
	Books      *service.BookService
	Categories *service.CategoryService
	Users      *service.UserService
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Reads are public; writes require a valid token and, for categories,
// users and role changes, the admin role.
func RegisterRoutes(app *fiber.App, db *sql.DB, svcs Services, tokens *auth.TokenMaker) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	authed := middleware.Authenticate(tokens)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	v1 := app.Group("/api/v1")

	v1.Post("/auth/register", Register(svcs.Users))
	v1.Post("/auth/login", Login(svcs.Users))

	books := v1.Group("/books")
	books.Get("/", ListBooks(svcs.Books))
	books.Get("/search", SearchBooks(svcs.Books))
	books.Get("/by-categories", BooksByCategories(svcs.Books))
	books.Get("/by-authors", BooksByAuthors(svcs.Books))
	books.Get("/covers/:filename", GetBookCover(svcs.Books))
	books.Get("/:id", GetBook(svcs.Books))
	books.Post("/", authed, CreateBooks(svcs.Books))
	books.Patch("/:id", authed, UpdateBook(svcs.Books))
	books.Delete("/:id", authed, DeleteBook(svcs.Books))

	categories := v1.Group("/categories")
	categories.Get("/", ListCategories(svcs.Categories))
	categories.Get("/:id", GetCategory(svcs.Categories))
	categories.Post("/", authed, adminOnly, CreateCategories(svcs.Categories))
	categories.Patch("/:id", authed, adminOnly, UpdateCategory(svcs.Categories))
	categories.Delete("/:id", authed, adminOnly, DeleteCategory(svcs.Categories))

	users := v1.Group("/users")
	users.Get("/avatars/:filename", GetUserAvatar(svcs.Users))
	users.Get("/", authed, adminOnly, ListUsers(svcs.Users))
	users.Get("/:id", authed, GetUser(svcs.Users))
	users.Patch("/:id", authed, UpdateUser(svcs.Users))
	users.Patch("/:id/role", authed, UpdateUserRole(svcs.Users))
	users.Delete("/:id", authed, adminOnly, DeleteUser(svcs.Users))
}
