package model

import "time"

// Category groups books. It carries no binary attachment; the icon is
// an external URL.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"required,max=100"`
	Icon      string    `json:"icon" validate:"required,url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Category) EntityID() string          { return c.ID }
func (c *Category) UniqueName() string        { return c.Name }
func (c *Category) AttachmentRef() string     { return "" }
func (c *Category) SetAttachmentRef(_ string) {}
func (c *Category) Touch(now time.Time)       { c.UpdatedAt = now }
