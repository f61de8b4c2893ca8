package model

import "time"

// Book is the catalog's primary entity. Name is unique across all
// books, case-normalized to lowercase before comparison and storage.
// The validate tags are the source of truth for field constraints and
// are re-checked against the mutated entity after a partial update.
type Book struct {
	ID          string    `json:"id"`
	Name        string    `json:"name" validate:"required,max=100"`
	Description string    `json:"description" validate:"max=500"`
	Author      string    `json:"author" validate:"required"`
	Cover       string    `json:"cover"`
	CategoryID  string    `json:"category_id" validate:"required"`
	Category    *Category `json:"category,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (b *Book) EntityID() string            { return b.ID }
func (b *Book) UniqueName() string          { return b.Name }
func (b *Book) AttachmentRef() string       { return b.Cover }
func (b *Book) SetAttachmentRef(ref string) { b.Cover = ref }
func (b *Book) Touch(now time.Time)         { b.UpdatedAt = now }
