package engine

import (
	"context"
	"strings"
	"time"

	"bookapi/internal/filestore"
)

// Entity is the capability set the engine needs from every stored
// record. ID is assigned by the repository on first save and immutable
// afterwards; UniqueName is the case-normalized unique key.
type Entity interface {
	EntityID() string
	UniqueName() string
	AttachmentRef() string
	SetAttachmentRef(ref string)
	Touch(now time.Time)
}

// Mapper is the only entity-specific code the engine depends on. One
// small mapper value per entity type converts between wire DTOs and
// storage entities and declares the type's validation rules.
type Mapper[T Entity, CU any, R any] interface {
	// EntityName is the human-readable type name used in messages and logs.
	EntityName() string

	// PrepareForValidation normalizes the DTO in place (e.g. lowercases
	// the name) before any validation or lookup runs.
	PrepareForValidation(dto *CU)

	// Validate runs all declared field constraints plus cross-field
	// business checks for a create batch. The result maps DTO index to
	// the full list of violations for that DTO; an empty map means the
	// whole batch is valid.
	Validate(ctx context.Context, dtos []CU) map[int][]string

	// ValidateEntity re-runs the type's constraints against a mutated
	// entity, catching invariant violations introduced by a partial
	// update.
	ValidateEntity(e T) []string

	// DTOName returns the DTO's normalized unique name, or "" when unset.
	DTOName(dto CU) string

	// DTOAttachment returns the DTO's attachment payload, or nil when
	// the caller supplied none.
	DTOAttachment(dto CU) *filestore.Upload

	// ToEntity builds a new entity from a create DTO. attachmentRef is
	// the stored filename of the DTO's attachment, "" when absent.
	ToEntity(dto CU, attachmentRef string) T

	// ApplyUpdate copies every present (non-nil) DTO field onto the
	// entity and reports whether anything changed. Absent fields are
	// left untouched. A missing referenced entity is reported by
	// wrapping ErrMissingReference.
	ApplyUpdate(ctx context.Context, e T, dto CU) (bool, error)

	// ToResponse projects an entity into its read-only response shape.
	ToResponse(e T) R
}

// Normalize is the canonical name normalization applied before any
// uniqueness comparison or storage: trim then lowercase.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
