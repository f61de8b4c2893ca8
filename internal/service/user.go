package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"bookapi/internal/auth"
	"bookapi/internal/config"
	"bookapi/internal/engine"
	"bookapi/internal/filestore"
	"bookapi/internal/model"
	"bookapi/internal/repository"
)

// CreateUpdateUserDTO is the caller-supplied payload for user create
// (register) and update. On update only the present fields apply;
// changing the password requires the matching current password.
type CreateUpdateUserDTO struct {
	Name            *string           `json:"name" validate:"required,min=2,max=20,person_name"`
	Email           *string           `json:"email" validate:"required,email"`
	Password        *string           `json:"password" validate:"required,min=8,max=72,password_strength"`
	CurrentPassword *string           `json:"current_password"`
	NewPassword     *string           `json:"new_password" validate:"omitempty,min=8,max=72,password_strength"`
	Avatar          *filestore.Upload `json:"-" form:"avatar"`
}

// LoginDTO carries the credentials for authentication.
type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserResponseDTO is the read-only projection of a user; it never
// carries the password hash.
type UserResponseDTO struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	Avatar    string     `json:"avatar"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	AccessToken string          `json:"access_token"`
	User        UserResponseDTO `json:"user"`
}

type userMapper struct {
	validate *validator.Validate
	log      *zap.Logger
}

func (m *userMapper) EntityName() string { return "user" }

func (m *userMapper) PrepareForValidation(dto *CreateUpdateUserDTO) {
	if dto.Name != nil {
		*dto.Name = engine.Normalize(*dto.Name)
	}
	if dto.Email != nil {
		*dto.Email = engine.Normalize(*dto.Email)
	}
}

func (m *userMapper) Validate(_ context.Context, dtos []CreateUpdateUserDTO) map[int][]string {
	return engine.ValidateStructs(m.validate, dtos)
}

func (m *userMapper) ValidateEntity(u *model.User) []string {
	return engine.ValidateStruct(m.validate, u)
}

func (m *userMapper) DTOName(dto CreateUpdateUserDTO) string {
	if dto.Email == nil {
		return ""
	}
	return engine.Normalize(*dto.Email)
}

func (m *userMapper) DTOAttachment(dto CreateUpdateUserDTO) *filestore.Upload {
	return dto.Avatar
}

func (m *userMapper) ToEntity(dto CreateUpdateUserDTO, attachmentRef string) *model.User {
	u := &model.User{Role: model.RoleUser, Avatar: attachmentRef}
	if dto.Name != nil {
		u.Name = *dto.Name
	}
	if dto.Email != nil {
		u.Email = *dto.Email
	}
	if dto.Password != nil {
		u.Password = m.hash(*dto.Password)
	}
	return u
}

func (m *userMapper) ApplyUpdate(_ context.Context, u *model.User, dto CreateUpdateUserDTO) (bool, error) {
	changed := false
	if dto.Name != nil && *dto.Name != "" {
		u.Name = *dto.Name
		changed = true
	}
	// Email is the unique key; the collision check already ran against
	// the supplied value, so a reaching change must actually be applied.
	if dto.Email != nil && *dto.Email != "" && *dto.Email != u.Email {
		u.Email = *dto.Email
		changed = true
	}
	if dto.CurrentPassword != nil && dto.NewPassword != nil {
		// The update path validates the mutated entity, and the entity
		// only carries the hash, so the new password is checked here.
		if err := m.validate.Var(*dto.NewPassword, "min=8,max=72,password_strength"); err != nil {
			return changed, fmt.Errorf("%w: new password does not meet the password rules", engine.ErrInvalidUpdate)
		}
		if !auth.CheckPassword(*dto.CurrentPassword, u.Password) {
			return changed, fmt.Errorf("%w: previous password does not match", engine.ErrInvalidUpdate)
		}
		u.Password = m.hash(*dto.NewPassword)
		changed = true
	}
	return changed, nil
}

func (m *userMapper) ToResponse(u *model.User) UserResponseDTO {
	return UserResponseDTO{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// hash bcrypts a password that already passed length validation, so a
// failure here is programmer-error class.
func (m *userMapper) hash(password string) string {
	h, err := auth.HashPassword(password)
	if err != nil {
		m.log.Error("password hashing failed", zap.Error(err))
		return ""
	}
	return h
}

// UserService exposes the generic CRUD pipeline for users plus
// registration, authentication and role management.
type UserService struct {
	*engine.Engine[*model.User, CreateUpdateUserDTO, UserResponseDTO]
	users    repository.UserRepository
	files    filestore.FileStore
	tokens   *auth.TokenMaker
	validate *validator.Validate
	mapper   *userMapper
	log      *zap.Logger
}

// NewUserService constructs a UserService.
func NewUserService(
	users repository.UserRepository,
	files filestore.FileStore,
	tokens *auth.TokenMaker,
	validate *validator.Validate,
	log *zap.Logger,
) *UserService {
	m := &userMapper{validate: validate, log: log}
	return &UserService{
		Engine:   engine.New[*model.User, CreateUpdateUserDTO, UserResponseDTO](users, files, m, log),
		users:    users,
		files:    files,
		tokens:   tokens,
		validate: validate,
		mapper:   m,
		log:      log,
	}
}

// Register creates a new account through the engine pipeline and
// issues an access token. A taken email surfaces as a 409 from the
// duplicate detector.
func (s *UserService) Register(ctx context.Context, dto CreateUpdateUserDTO) model.Response[*AuthResponse] {
	created := s.Engine.Create(ctx, []CreateUpdateUserDTO{dto})
	if !created.IsSuccess() {
		return model.Response[*AuthResponse]{Status: created.Status, Message: created.Message}
	}

	u := created.Data[0]
	token, err := s.tokens.CreateToken(u.ID, u.Role)
	if err != nil {
		s.log.Error("token issuance failed", zap.String("user_id", u.ID), zap.Error(err))
		return model.Internal[*AuthResponse](fmt.Sprintf("Error issuing token: %v", err))
	}
	return model.Created(&AuthResponse{AccessToken: token, User: u}, "user has been created successfully")
}

// Login authenticates by email and password and issues an access token.
func (s *UserService) Login(ctx context.Context, dto LoginDTO) model.Response[*AuthResponse] {
	if msgs := engine.ValidateStruct(s.validate, dto); len(msgs) > 0 {
		return model.BadRequest[*AuthResponse](strings.Join(msgs, "; "))
	}

	u, found, err := s.users.FindByName(ctx, engine.Normalize(dto.Email))
	if err != nil {
		s.log.Error("login lookup failed", zap.Error(err))
		return model.Internal[*AuthResponse](fmt.Sprintf("Error authenticating user: %v", err))
	}
	if !found {
		return model.NotFound[*AuthResponse]("User not found")
	}
	if !auth.CheckPassword(dto.Password, u.Password) {
		s.log.Warn("failed login attempt", zap.String("user_id", u.ID))
		return model.Unauthorized[*AuthResponse]("Invalid credentials")
	}

	token, err := s.tokens.CreateToken(u.ID, u.Role)
	if err != nil {
		s.log.Error("token issuance failed", zap.String("user_id", u.ID), zap.Error(err))
		return model.Internal[*AuthResponse](fmt.Sprintf("Error issuing token: %v", err))
	}
	return model.OK(&AuthResponse{AccessToken: token, User: s.mapper.ToResponse(u)}, "user has been authenticated successfully")
}

// GetByRole lists every user holding the given role.
func (s *UserService) GetByRole(ctx context.Context, role model.Role) model.Response[[]UserResponseDTO] {
	if !role.Valid() {
		return model.BadRequest[[]UserResponseDTO]("Invalid role")
	}
	users, err := s.users.FindAllByRole(ctx, role)
	if err != nil {
		s.log.Error("fetch by role failed", zap.Error(err))
		return model.Internal[[]UserResponseDTO](fmt.Sprintf("Error fetching users: %v", err))
	}
	out := make([]UserResponseDTO, 0, len(users))
	for _, u := range users {
		out = append(out, s.mapper.ToResponse(u))
	}
	return model.OK(out, "Success")
}

// UpdateRole changes a user's role. Only admins may do so, never on
// their own account, and never to the role the target already holds.
func (s *UserService) UpdateRole(ctx context.Context, actorID, targetID string, role model.Role) model.Response[*UserResponseDTO] {
	target, found, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		s.log.Error("role update lookup failed", zap.Error(err))
		return model.Internal[*UserResponseDTO](fmt.Sprintf("Error updating role: %v", err))
	}
	if !found {
		return model.NotFound[*UserResponseDTO]("user not found")
	}
	if !role.Valid() || target.Role == role {
		return model.BadRequest[*UserResponseDTO]("Invalid role or same role as target user")
	}

	actor, found, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		s.log.Error("role update actor lookup failed", zap.Error(err))
		return model.Internal[*UserResponseDTO](fmt.Sprintf("Error updating role: %v", err))
	}
	if !found || actor.Role != model.RoleAdmin {
		return model.Forbidden[*UserResponseDTO]("Only admins can update user roles")
	}
	if actor.ID == target.ID {
		return model.BadRequest[*UserResponseDTO]("Users cannot modify their own role")
	}

	target.Role = role
	target.Touch(time.Now())
	saved, err := s.users.Save(ctx, target)
	if err != nil {
		s.log.Error("role update save failed", zap.Error(err))
		return model.Internal[*UserResponseDTO](fmt.Sprintf("Error updating role: %v", err))
	}
	resp := s.mapper.ToResponse(saved)
	return model.OK(&resp, "user role has been updated successfully")
}

// OpenAvatar streams a stored avatar image.
func (s *UserService) OpenAvatar(ctx context.Context, filename string) (io.ReadCloser, error) {
	return s.files.Open(ctx, filename)
}

// EnsureAdmin seeds the initial admin account at startup when it does
// not exist yet. Missing seed credentials skip the step.
func (s *UserService) EnsureAdmin(ctx context.Context, cfg config.AdminConfig) error {
	if cfg.Email == "" || cfg.Password == "" {
		s.log.Info("admin seed skipped: no credentials configured")
		return nil
	}

	email := engine.Normalize(cfg.Email)
	_, found, err := s.users.FindByName(ctx, email)
	if err != nil {
		return fmt.Errorf("check admin account: %w", err)
	}
	if found {
		return nil
	}

	hash, err := auth.HashPassword(cfg.Password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := &model.User{
		Name:     engine.Normalize(cfg.Name),
		Email:    email,
		Password: hash,
		Role:     model.RoleAdmin,
	}
	if _, err := s.users.Save(ctx, admin); err != nil {
		return fmt.Errorf("create admin account: %w", err)
	}
	s.log.Info("admin account created", zap.String("email", email))
	return nil
}
