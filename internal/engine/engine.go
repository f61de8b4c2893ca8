// Package engine implements the generic entity-management pipeline:
// validation, duplicate detection, attachment handling, persistence
// and response shaping, parameterized over entity type. Each operation
// is a short linear pipeline with early exit on first failure; results
// always come back as a model.Response envelope, never as an error
// crossing the package boundary.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"bookapi/internal/filestore"
	"bookapi/internal/model"
	"bookapi/internal/repository"
)

var (
	// ErrMissingReference marks an update that points at a nonexistent
	// related entity (e.g. an unknown category ID). Mappers wrap it;
	// the engine surfaces it as a 404 envelope.
	ErrMissingReference = errors.New("referenced entity not found")

	// ErrInvalidUpdate marks an update rejected by a mapper's business
	// rule (e.g. a wrong current password). Surfaced as a 400 envelope.
	ErrInvalidUpdate = errors.New("invalid update")
)

// Engine drives create/read/update/delete for one entity type using a
// repository, a file store for attachments, and the type's mapper.
type Engine[T Entity, CU any, R any] struct {
	repo   repository.Repository[T]
	files  filestore.FileStore
	mapper Mapper[T, CU, R]
	log    *zap.Logger
	now    func() time.Time
}

// New constructs an Engine for one entity type.
func New[T Entity, CU any, R any](
	repo repository.Repository[T],
	files filestore.FileStore,
	mapper Mapper[T, CU, R],
	log *zap.Logger,
) *Engine[T, CU, R] {
	return &Engine[T, CU, R]{
		repo:   repo,
		files:  files,
		mapper: mapper,
		log:    log,
		now:    time.Now,
	}
}

// GetByID returns the entity's response projection, or a 404 envelope.
func (e *Engine[T, CU, R]) GetByID(ctx context.Context, id string) model.Response[*R] {
	name := e.mapper.EntityName()
	e.log.Info("fetching entity", zap.String("entity", name), zap.String("id", id))

	ent, found, err := e.repo.FindByID(ctx, id)
	if err != nil {
		e.log.Error("fetch failed", zap.String("entity", name), zap.String("id", id), zap.Error(err))
		return model.Internal[*R](fmt.Sprintf("Error fetching %s: %v", name, err))
	}
	if !found {
		return model.NotFound[*R](fmt.Sprintf("%s not found", name))
	}
	resp := e.mapper.ToResponse(ent)
	return model.OK(&resp, fmt.Sprintf("%s found successfully", name))
}

// GetAll returns every entity of the type. An empty collection is a
// success with an empty slice as data, not an error.
func (e *Engine[T, CU, R]) GetAll(ctx context.Context) model.Response[[]R] {
	name := e.mapper.EntityName()
	e.log.Info("fetching all entities", zap.String("entity", name))

	ents, err := e.repo.FindAll(ctx)
	if err != nil {
		e.log.Error("fetch all failed", zap.String("entity", name), zap.Error(err))
		return model.Internal[[]R](fmt.Sprintf("Error fetching %s entities: %v", name, err))
	}

	out := make([]R, 0, len(ents))
	for _, ent := range ents {
		out = append(out, e.mapper.ToResponse(ent))
	}
	if len(out) == 0 {
		return model.OK(out, fmt.Sprintf("No %s entities found", name))
	}
	return model.OK(out, fmt.Sprintf("%s entities retrieved successfully", name))
}

// Create persists a batch of new entities. The batch is all-or-nothing
// at the persistence step; attachments already written to the file
// store when a later step fails are not rolled back.
func (e *Engine[T, CU, R]) Create(ctx context.Context, dtos []CU) model.Response[[]R] {
	name := e.mapper.EntityName()
	e.log.Info("creating entities", zap.String("entity", name), zap.Int("count", len(dtos)))

	for i := range dtos {
		e.mapper.PrepareForValidation(&dtos[i])
	}

	if verrs := e.mapper.Validate(ctx, dtos); len(verrs) > 0 {
		e.log.Warn("validation errors on create", zap.String("entity", name), zap.Any("errors", verrs))
		return model.BadRequest[[]R](fmt.Sprintf("Validation errors while creating %s: %s", name, formatIndexErrors(verrs)))
	}

	dups, err := e.findExistingNames(ctx, dtos)
	if err != nil {
		e.log.Error("duplicate check failed", zap.String("entity", name), zap.Error(err))
		return model.Internal[[]R](fmt.Sprintf("Error creating %s: %v", name, err))
	}
	if len(dups) > 0 {
		e.log.Warn("duplicate names on create", zap.String("entity", name), zap.Strings("names", dups))
		return model.Conflict[[]R](fmt.Sprintf("Duplicate names found while creating %s: %s", name, strings.Join(dups, ", ")))
	}

	refs := make([]string, len(dtos))
	for i := range dtos {
		up := e.mapper.DTOAttachment(dtos[i])
		if up == nil {
			continue
		}
		if err := e.files.Validate(up); err != nil {
			e.log.Warn("attachment rejected", zap.String("entity", name), zap.Int("index", i), zap.Error(err))
			return model.BadRequest[[]R](fmt.Sprintf("Invalid attachment at index %d: %v", i, err))
		}
		ref, err := e.files.Save(ctx, up)
		if err != nil {
			e.log.Error("attachment save failed", zap.String("entity", name), zap.Int("index", i), zap.Error(err))
			return model.Internal[[]R](fmt.Sprintf("Error storing attachment at index %d: %v", i, err))
		}
		refs[i] = ref
	}

	ents := make([]T, len(dtos))
	for i := range dtos {
		ents[i] = e.mapper.ToEntity(dtos[i], refs[i])
	}

	saved, err := e.repo.SaveAll(ctx, ents)
	if err != nil {
		e.log.Error("batch save failed", zap.String("entity", name), zap.Error(err))
		return model.Internal[[]R](fmt.Sprintf("Error creating %s: %v", name, err))
	}

	out := make([]R, 0, len(saved))
	for _, ent := range saved {
		out = append(out, e.mapper.ToResponse(ent))
	}
	e.log.Info("entities created", zap.String("entity", name), zap.Int("count", len(saved)))
	return model.Created(out, fmt.Sprintf("Created %d %s entities successfully", len(saved), name))
}

// Update applies a partial patch to one entity: present DTO fields
// overwrite, absent fields stay untouched. A new attachment replaces
// the previous one; deleting the superseded file is best-effort only.
func (e *Engine[T, CU, R]) Update(ctx context.Context, id string, dto CU) model.Response[*R] {
	name := e.mapper.EntityName()
	e.log.Info("updating entity", zap.String("entity", name), zap.String("id", id))

	e.mapper.PrepareForValidation(&dto)

	ent, found, err := e.repo.FindByID(ctx, id)
	if err != nil {
		e.log.Error("fetch failed", zap.String("entity", name), zap.String("id", id), zap.Error(err))
		return model.Internal[*R](fmt.Sprintf("Error updating %s: %v", name, err))
	}
	if !found {
		e.log.Warn("entity not found", zap.String("entity", name), zap.String("id", id))
		return model.NotFound[*R](fmt.Sprintf("%s not found", name))
	}

	if newName := e.mapper.DTOName(dto); newName != "" && newName != ent.UniqueName() {
		other, collides, err := e.repo.FindByName(ctx, newName)
		if err != nil {
			e.log.Error("name collision check failed", zap.String("entity", name), zap.Error(err))
			return model.Internal[*R](fmt.Sprintf("Error updating %s: %v", name, err))
		}
		if collides && other.EntityID() != id {
			e.log.Warn("duplicate name on update", zap.String("entity", name), zap.String("name", newName))
			return model.Conflict[*R](fmt.Sprintf("Another %s with this name already exists", name))
		}
	}

	var newRef string
	up := e.mapper.DTOAttachment(dto)
	if up != nil {
		if err := e.files.Validate(up); err != nil {
			e.log.Warn("attachment rejected", zap.String("entity", name), zap.Error(err))
			return model.BadRequest[*R](err.Error())
		}
		if newRef, err = e.files.Save(ctx, up); err != nil {
			e.log.Error("attachment save failed", zap.String("entity", name), zap.Error(err))
			return model.Internal[*R](fmt.Sprintf("Error storing attachment: %v", err))
		}
	}

	changed, err := e.mapper.ApplyUpdate(ctx, ent, dto)
	if err != nil {
		if errors.Is(err, ErrMissingReference) {
			e.log.Warn("update references missing entity", zap.String("entity", name), zap.Error(err))
			return model.NotFound[*R](err.Error())
		}
		if errors.Is(err, ErrInvalidUpdate) {
			e.log.Warn("update rejected", zap.String("entity", name), zap.Error(err))
			return model.BadRequest[*R](err.Error())
		}
		e.log.Error("apply update failed", zap.String("entity", name), zap.Error(err))
		return model.Internal[*R](fmt.Sprintf("Error updating %s: %v", name, err))
	}

	if up != nil {
		if old := ent.AttachmentRef(); old != "" {
			if err := e.files.Delete(ctx, old); err != nil {
				// Losing the old file costs disk space, not correctness.
				e.log.Warn("failed to delete superseded attachment", zap.String("entity", name), zap.String("file", old), zap.Error(err))
			}
		}
		ent.SetAttachmentRef(newRef)
		changed = true
	}

	if !changed {
		return model.BadRequest[*R]("Nothing to update: at least one field must be provided")
	}

	if msgs := e.mapper.ValidateEntity(ent); len(msgs) > 0 {
		e.log.Warn("validation errors on update", zap.String("entity", name), zap.Strings("errors", msgs))
		return model.BadRequest[*R](fmt.Sprintf("Validation errors while updating %s: %s", name, strings.Join(msgs, "; ")))
	}

	ent.Touch(e.now())
	saved, err := e.repo.Save(ctx, ent)
	if err != nil {
		e.log.Error("save failed", zap.String("entity", name), zap.String("id", id), zap.Error(err))
		return model.Internal[*R](fmt.Sprintf("Error updating %s: %v", name, err))
	}

	resp := e.mapper.ToResponse(saved)
	e.log.Info("entity updated", zap.String("entity", name), zap.String("id", id))
	return model.OK(&resp, fmt.Sprintf("%s updated successfully", name))
}

// Delete removes one entity and returns its last known state so the
// caller can show what was deleted. The entity's attachment, if any,
// is intentionally left in the file store.
func (e *Engine[T, CU, R]) Delete(ctx context.Context, id string) model.Response[*R] {
	name := e.mapper.EntityName()
	e.log.Info("deleting entity", zap.String("entity", name), zap.String("id", id))

	ent, found, err := e.repo.FindByID(ctx, id)
	if err != nil {
		e.log.Error("fetch failed", zap.String("entity", name), zap.String("id", id), zap.Error(err))
		return model.Internal[*R](fmt.Sprintf("Error deleting %s: %v", name, err))
	}
	if !found {
		e.log.Warn("entity not found", zap.String("entity", name), zap.String("id", id))
		return model.NotFound[*R](fmt.Sprintf("%s not found", name))
	}

	if err := e.repo.DeleteByID(ctx, id); err != nil {
		e.log.Error("delete failed", zap.String("entity", name), zap.String("id", id), zap.Error(err))
		return model.Internal[*R](fmt.Sprintf("Error deleting %s: %v", name, err))
	}

	resp := e.mapper.ToResponse(ent)
	e.log.Info("entity deleted", zap.String("entity", name), zap.String("id", id))
	return model.OK(&resp, fmt.Sprintf("%s deleted successfully", name))
}

// findExistingNames is the duplicate detector: the intersection of the
// batch's normalized names with the names already in storage, computed
// with a single batched lookup.
func (e *Engine[T, CU, R]) findExistingNames(ctx context.Context, dtos []CU) ([]string, error) {
	seen := make(map[string]struct{}, len(dtos))
	names := make([]string, 0, len(dtos))
	for _, dto := range dtos {
		n := e.mapper.DTOName(dto)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return nil, nil
	}

	existing, err := e.repo.FindByNames(ctx, names)
	if err != nil {
		return nil, err
	}
	dups := make([]string, 0, len(existing))
	for _, ent := range existing {
		dups = append(dups, ent.UniqueName())
	}
	sort.Strings(dups)
	return dups, nil
}

func formatIndexErrors(errs map[int][]string) string {
	idxs := make([]int, 0, len(errs))
	for i := range errs {
		idxs = append(idxs, i)
	}
	sort.Ints(idxs)

	parts := make([]string, 0, len(idxs))
	for _, i := range idxs {
		parts = append(parts, fmt.Sprintf("[%d: %s]", i, strings.Join(errs[i], "; ")))
	}
	return strings.Join(parts, ", ")
}
