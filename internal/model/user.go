package model

import "time"

// Role determines the permission set granted to a user.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is an account holder. Email is the user's unique key and is
// lowercased before comparison and storage. Password holds the bcrypt
// hash, never the plaintext; it is excluded from JSON output.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"required,min=2,max=20,person_name"`
	Email     string    `json:"email" validate:"required,email"`
	Password  string    `json:"-" validate:"required"`
	Role      Role      `json:"role" validate:"required"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) EntityID() string            { return u.ID }
func (u *User) UniqueName() string          { return u.Email }
func (u *User) AttachmentRef() string       { return u.Avatar }
func (u *User) SetAttachmentRef(ref string) { u.Avatar = ref }
func (u *User) Touch(now time.Time)         { u.UpdatedAt = now }
