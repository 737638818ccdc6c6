package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"taskcalendar/internal/model"
)

type NoteRepository struct {
	store *store[model.ContactNote]
}

func NewNoteRepository(db *gorm.DB, opts ...Option) *NoteRepository {
	return &NoteRepository{
		store: newStore(db, "created_at DESC", func(n model.ContactNote, now time.Time) model.ContactNote {
			n.UpdatedAt = now
			return n
		}, opts),
	}
}

// List returns the owner's contact notes, newest first, optionally for one contact
func (r *NoteRepository) List(ctx context.Context, ownerID, contactID string) ([]model.ContactNote, error) {
	if contactID == "" {
		return r.store.list(ctx, ownerID)
	}
	return r.store.list(ctx, ownerID, byContact(contactID))
}

func (r *NoteRepository) Create(ctx context.Context, ownerID string, input model.NewContactNote) (*model.ContactNote, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	return r.store.create(ctx, input.Build(r.store.newID(), ownerID, r.store.now()))
}

func (r *NoteRepository) Update(ctx context.Context, ownerID, id string, patch model.ContactNotePatch) (*model.ContactNote, error) {
	return r.store.update(ctx, ownerID, id, patch)
}

func (r *NoteRepository) Delete(ctx context.Context, ownerID, id string) error {
	return r.store.delete(ctx, ownerID, id)
}
