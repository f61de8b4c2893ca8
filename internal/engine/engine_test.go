package engine_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"bookapi/internal/engine"
	"bookapi/internal/filestore"
	fsmocks "bookapi/internal/filestore/mocks"
	repomocks "bookapi/internal/repository/mocks"
)

// widget is a minimal entity used to exercise the pipeline without
// dragging in a real domain type.
type widget struct {
	id      string
	name    string
	file    string
	updated time.Time
}

func (w *widget) EntityID() string          { return w.id }
func (w *widget) UniqueName() string        { return engine.Normalize(w.name) }
func (w *widget) AttachmentRef() string     { return w.file }
func (w *widget) SetAttachmentRef(r string) { w.file = r }
func (w *widget) Touch(now time.Time)       { w.updated = now }

type widgetDTO struct {
	Name   *string
	Image  *filestore.Upload
	SetErr error // returned by ApplyUpdate when non-nil
}

type widgetResp struct {
	ID   string
	Name string
	File string
}

type widgetMapper struct{}

func (widgetMapper) EntityName() string { return "widget" }

func (widgetMapper) PrepareForValidation(dto *widgetDTO) {
	if dto.Name != nil {
		*dto.Name = engine.Normalize(*dto.Name)
	}
}

func (widgetMapper) Validate(_ context.Context, dtos []widgetDTO) map[int][]string {
	out := map[int][]string{}
	for i, dto := range dtos {
		if dto.Name == nil || *dto.Name == "" {
			out[i] = append(out[i], "name: name is required")
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (widgetMapper) ValidateEntity(w *widget) []string {
	if len(w.name) > 10 {
		return []string{"name: name must be at most 10 characters long"}
	}
	return nil
}

func (widgetMapper) DTOName(dto widgetDTO) string {
	if dto.Name == nil {
		return ""
	}
	return engine.Normalize(*dto.Name)
}

func (widgetMapper) DTOAttachment(dto widgetDTO) *filestore.Upload { return dto.Image }

func (widgetMapper) ToEntity(dto widgetDTO, ref string) *widget {
	return &widget{name: *dto.Name, file: ref}
}

func (widgetMapper) ApplyUpdate(_ context.Context, w *widget, dto widgetDTO) (bool, error) {
	if dto.SetErr != nil {
		return false, dto.SetErr
	}
	if dto.Name == nil {
		return false, nil
	}
	w.name = *dto.Name
	return true, nil
}

func (widgetMapper) ToResponse(w *widget) widgetResp {
	return widgetResp{ID: w.id, Name: w.name, File: w.file}
}

func newTestEngine(repo *repomocks.MockRepository[*widget], files *fsmocks.MockFileStore) *engine.Engine[*widget, widgetDTO, widgetResp] {
	return engine.New[*widget, widgetDTO, widgetResp](repo, files, widgetMapper{}, zap.NewNop())
}

func strptr(s string) *string { return &s }

func TestGetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		repo := new(repomocks.MockRepository[*widget])
		repo.On("FindByID", ctx, "w1").Return(&widget{id: "w1", name: "gear"}, true, nil)

		res := newTestEngine(repo, new(fsmocks.MockFileStore)).GetByID(ctx, "w1")

		assert.Equal(t, 200, res.Status)
		assert.Equal(t, "widget found successfully", res.Message)
		assert.Equal(t, "gear", res.Data.Name)
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(repomocks.MockRepository[*widget])
		repo.On("FindByID", ctx, "missing").Return(nil, false, nil)

		res := newTestEngine(repo, new(fsmocks.MockFileStore)).GetByID(ctx, "missing")

		assert.Equal(t, 404, res.Status)
		assert.Equal(t, "widget not found", res.Message)
		assert.Nil(t, res.Data)
	})

	t.Run("repository error becomes 500 envelope", func(t *testing.T) {
		repo := new(repomocks.MockRepository[*widget])
		repo.On("FindByID", ctx, "w1").Return(nil, false, errors.New("connection refused"))

		res := newTestEngine(repo, new(fsmocks.MockFileStore)).GetByID(ctx, "w1")

		assert.Equal(t, 500, res.Status)
		assert.Contains(t, res.Message, "Error fetching widget")
	})
}

func TestGetAll(t *testing.T) {
	ctx := context.Background()

	t.Run("empty collection is a success", func(t *testing.T) {
		repo := new(repomocks.MockRepository[*widget])
		repo.On("FindAll", ctx).Return([]*widget{}, nil)

		res := newTestEngine(repo, new(fsmocks.MockFileStore)).GetAll(ctx)

		assert.Equal(t, 200, res.Status)
		assert.Equal(t, "No widget entities found", res.Message)
		assert.NotNil(t, res.Data)
		assert.Empty(t, res.Data)
	})

	t.Run("returns all projections", func(t *testing.T) {
		repo := new(repomocks.MockRepository[*widget])
		repo.On("FindAll", ctx).Return([]*widget{{id: "a"}, {id: "b"}}, nil)

		res := newTestEngine(repo, new(fsmocks.MockFileStore)).GetAll(ctx)

		assert.Equal(t, 200, res.Status)
		assert.Len(t, res.Data, 2)
	})
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates batch with attachments", func(t *testing.T) {
		repo := new(repomocks.MockRepository[*widget])
		files := new(fsmocks.MockFileStore)
		img := &filestore.Upload{Filename: "a.png", ContentType: "image/png", Data: []byte("x")}

		repo.On("FindByNames", ctx, []string{"gear", "cog"}).Return([]*widget{}, nil)
		files.On("Validate", img).Return(nil)
		files.On("Save", ctx, img).Return("stored-a.png", nil)
		repo.On("SaveAll", ctx, mock.MatchedBy(func(ws []*widget) bool {
			return len(ws) == 2 && ws[0].file == "stored-a.png" && ws[1].file == ""
		})).Return([]*widget{{id: "1", name: "gear", file: "stored-a.png"}, {id: "2", name: "cog"}}, nil)

		res := newTestEngine(repo, files).Create(ctx, []widgetDTO{
			{Name: strptr("Gear"), Image: img},
			{Name: strptr("Cog")},
		})

		assert.Equal(t, 201, res.Status)
		assert.Equal(t, "Created 2 widget entities successfully", res.Message)
		assert.Len(t, res.Data, 2)
		repo.AssertExpectations(t)
		files.AssertExpectations(t)
	})

	t.Run("validation errors reported per index", func(t *testing.T) {
		repo := new(repomocks.MockRepository[*widget])

		res := newTestEngine(repo, new(fsmocks.MockFileStore)).Create(ctx, []widgetDTO{
			{Name: strptr("gear")},
			{},
		})

		assert.Equal(t, 400, res.Status)
		assert.Contains(t, res.Message, "Validation errors while creating widget")
		assert.Contains(t, res.Message, "[1: name: name is required]")
		repo.AssertNotCalled(t, "SaveAll", mock.Anything, mock.Anything)
	})

	t.Run("duplicate names detected case-insensitively", func(t *testing.T) {
		repo := new(repomocks.MockRepository[*widget])
		repo.On("FindByNames", ctx, []string{"gear"}).
			Return([]*widget{{id: "1", name: "Gear"}}, nil)

		res := newTestEngine(repo, new(fsmocks.MockFileStore)).Create(ctx, []widgetDTO{{Name: strptr("  GEAR ")}})

		assert.Equal(t, 409, res.Status)
		assert.Contains(t, res.Message, "Duplicate names found while creating widget: gear")
		repo.AssertNotCalled(t, "SaveAll", mock.Anything, mock.Anything)
	})

	t.Run("rejected attachment aborts the batch", func(t *testing.T) {
		repo := new(repomocks.MockRepository[*widget])
		files := new(fsmocks.MockFileStore)
		img := &filestore.Upload{Filename: "huge.png"}

		repo.On("FindByNames", ctx, []string{"gear"}).Return([]*widget{}, nil)
		files.On("Validate", img).Return(filestore.ErrSizeExceeded)

		res := newTestEngine(repo, files).Create(ctx, []widgetDTO{{Name: strptr("gear"), Image: img}})

		assert.Equal(t, 400, res.Status)
		assert.Contains(t, res.Message, "Invalid attachment at index 0")
		repo.AssertNotCalled(t, "SaveAll", mock.Anything, mock.Anything)
	})

	t.Run("persistence failure leaves saved attachments behind", func(t *testing.T) {
		repo := new(repomocks.MockRepository[*widget])
		files := new(fsmocks.MockFileStore)
		img := &filestore.Upload{Filename: "a.png"}

		repo.On("FindByNames", ctx, []string{"gear"}).Return([]*widget{}, nil)
		files.On("Validate", img).Return(nil)
		files.On("Save", ctx, img).Return("stored-a.png", nil)
		repo.On("SaveAll", ctx, mock.Anything).Return(nil, errors.New("tx aborted"))

		res := newTestEngine(repo, files).Create(ctx, []widgetDTO{{Name: strptr("gear"), Image: img}})

		assert.Equal(t, 500, res.Status)
		files.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("partial patch updates present fields only", func(t *testing.T) {
		repo := new(repomocks.MockRepository[*widget])
		ent := &widget{id: "w1", name: "gear", file: "old.png"}
		repo.On("FindByID", ctx, "w1").Return(ent, true, nil)
		repo.On("FindByName", ctx, "cog").Return(nil, false, nil)
		repo.On("Save", ctx, ent).Return(ent, nil)

		res := newTestEngine(repo, new(fsmocks.MockFileStore)).Update(ctx, "w1", widgetDTO{Name: strptr("Cog")})

		assert.Equal(t, 200, res.Status)
		assert.Equal(t, "widget updated successfully", res.Message)
		assert.Equal(t, "cog", res.Data.Name)
		assert.Equal(t, "old.png", ent.file)
		assert.False(t, ent.updated.IsZero())
	})

	t.Run("missing entity", func(t *testing.T) {
		repo := new(repomocks.MockRepository[*widget])
		repo.On("FindByID", ctx, "nope").Return(nil, false, nil)

		res := newTestEngine(repo, new(fsmocks.MockFileStore)).Update(ctx, "nope", widgetDTO{Name: strptr("cog")})

		assert.Equal(t, 404, res.Status)
		assert.Equal(t, "widget not found", res.Message)
	})

	t.Run("empty patch is rejected", func(t *testing.T) {
		repo := new(repomocks.MockRepository[*widget])
		repo.On("FindByID", ctx, "w1").Return(&widget{id: "w1", name: "gear"}, true, nil)

		res := newTestEngine(repo, new(fsmocks.MockFileStore)).Update(ctx, "w1", widgetDTO{})

		assert.Equal(t, 400, res.Status)
		assert.Equal(t, "Nothing to update: at least one field must be provided", res.Message)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("name collision with another entity", func(t *testing.T) {
		repo := new(repomocks.MockRepository[*widget])
		repo.On("FindByID", ctx, "w1").Return(&widget{id: "w1", name: "gear"}, true, nil)
		repo.On("FindByName", ctx, "cog").Return(&widget{id: "w2", name: "cog"}, true, nil)

		res := newTestEngine(repo, new(fsmocks.MockFileStore)).Update(ctx, "w1", widgetDTO{Name: strptr("Cog")})

		assert.Equal(t, 409, res.Status)
		assert.Equal(t, "Another widget with this name already exists", res.Message)
	})

	t.Run("renaming to own name is not a collision", func(t *testing.T) {
		repo := new(repomocks.MockRepository[*widget])
		ent := &widget{id: "w1", name: "gear"}
		repo.On("FindByID", ctx, "w1").Return(ent, true, nil)
		repo.On("Save", ctx, ent).Return(ent, nil)

		res := newTestEngine(repo, new(fsmocks.MockFileStore)).Update(ctx, "w1", widgetDTO{Name: strptr("GEAR")})

		assert.Equal(t, 200, res.Status)
		repo.AssertNotCalled(t, "FindByName", mock.Anything, mock.Anything)
	})

	t.Run("new attachment replaces and deletes the old one", func(t *testing.T) {
		repo := new(repomocks.MockRepository[*widget])
		files := new(fsmocks.MockFileStore)
		ent := &widget{id: "w1", name: "gear", file: "old.png"}
		img := &filestore.Upload{Filename: "new.png"}

		repo.On("FindByID", ctx, "w1").Return(ent, true, nil)
		files.On("Validate", img).Return(nil)
		files.On("Save", ctx, img).Return("stored-new.png", nil)
		files.On("Delete", ctx, "old.png").Return(nil)
		repo.On("Save", ctx, ent).Return(ent, nil)

		res := newTestEngine(repo, files).Update(ctx, "w1", widgetDTO{Image: img})

		assert.Equal(t, 200, res.Status)
		assert.Equal(t, "stored-new.png", ent.file)
		files.AssertExpectations(t)
	})

	t.Run("failed cleanup of old attachment does not fail the update", func(t *testing.T) {
		repo := new(repomocks.MockRepository[*widget])
		files := new(fsmocks.MockFileStore)
		ent := &widget{id: "w1", name: "gear", file: "old.png"}
		img := &filestore.Upload{Filename: "new.png"}

		repo.On("FindByID", ctx, "w1").Return(ent, true, nil)
		files.On("Validate", img).Return(nil)
		files.On("Save", ctx, img).Return("stored-new.png", nil)
		files.On("Delete", ctx, "old.png").Return(errors.New("io error"))
		repo.On("Save", ctx, ent).Return(ent, nil)

		res := newTestEngine(repo, files).Update(ctx, "w1", widgetDTO{Image: img})

		assert.Equal(t, 200, res.Status)
		assert.Equal(t, "stored-new.png", ent.file)
	})

	t.Run("missing reference surfaces as 404", func(t *testing.T) {
		repo := new(repomocks.MockRepository[*widget])
		repo.On("FindByID", ctx, "w1").Return(&widget{id: "w1", name: "gear"}, true, nil)

		refErr := fmt.Errorf("%w: category does not exist", engine.ErrMissingReference)
		res := newTestEngine(repo, new(fsmocks.MockFileStore)).Update(ctx, "w1", widgetDTO{SetErr: refErr})

		assert.Equal(t, 404, res.Status)
		assert.Contains(t, res.Message, "category does not exist")
	})

	t.Run("business rule rejection surfaces as 400", func(t *testing.T) {
		repo := new(repomocks.MockRepository[*widget])
		repo.On("FindByID", ctx, "w1").Return(&widget{id: "w1", name: "gear"}, true, nil)

		updErr := fmt.Errorf("%w: previous password does not match", engine.ErrInvalidUpdate)
		res := newTestEngine(repo, new(fsmocks.MockFileStore)).Update(ctx, "w1", widgetDTO{SetErr: updErr})

		assert.Equal(t, 400, res.Status)
		assert.Contains(t, res.Message, "previous password does not match")
	})

	t.Run("mutated entity must still satisfy constraints", func(t *testing.T) {
		repo := new(repomocks.MockRepository[*widget])
		repo.On("FindByID", ctx, "w1").Return(&widget{id: "w1", name: "gear"}, true, nil)
		repo.On("FindByName", ctx, "unreasonably long").Return(nil, false, nil)

		res := newTestEngine(repo, new(fsmocks.MockFileStore)).Update(ctx, "w1", widgetDTO{Name: strptr("unreasonably long")})

		assert.Equal(t, 400, res.Status)
		assert.Contains(t, res.Message, "Validation errors while updating widget")
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("returns last known state", func(t *testing.T) {
		repo := new(repomocks.MockRepository[*widget])
		files := new(fsmocks.MockFileStore)
		repo.On("FindByID", ctx, "w1").Return(&widget{id: "w1", name: "gear", file: "a.png"}, true, nil)
		repo.On("DeleteByID", ctx, "w1").Return(nil)

		res := newTestEngine(repo, files).Delete(ctx, "w1")

		assert.Equal(t, 200, res.Status)
		assert.Equal(t, "widget deleted successfully", res.Message)
		assert.Equal(t, "gear", res.Data.Name)
		// attachments are never cleaned up on delete
		files.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("missing entity", func(t *testing.T) {
		repo := new(repomocks.MockRepository[*widget])
		repo.On("FindByID", ctx, "nope").Return(nil, false, nil)

		res := newTestEngine(repo, new(fsmocks.MockFileStore)).Delete(ctx, "nope")

		assert.Equal(t, 404, res.Status)
		repo.AssertNotCalled(t, "DeleteByID", mock.Anything, mock.Anything)
	})
}
