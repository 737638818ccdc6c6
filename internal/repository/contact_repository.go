package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"taskcalendar/internal/model"
)

type ContactRepository struct {
	store *store[model.Contact]
}

func NewContactRepository(db *gorm.DB, opts ...Option) *ContactRepository {
	return &ContactRepository{
		store: newStore(db, "name ASC", func(c model.Contact, now time.Time) model.Contact {
			c.UpdatedAt = now
			return c
		}, opts),
	}
}

// List returns the owner's contacts ordered by name
func (r *ContactRepository) List(ctx context.Context, ownerID string) ([]model.Contact, error) {
	return r.store.list(ctx, ownerID)
}

// ListShared returns contacts other owners have shared with userID
func (r *ContactRepository) ListShared(ctx context.Context, userID string) ([]model.Contact, error) {
	return r.store.listShared(ctx, userID)
}

func (r *ContactRepository) Get(ctx context.Context, ownerID, id string) (*model.Contact, error) {
	return r.store.get(ctx, ownerID, id)
}

func (r *ContactRepository) Create(ctx context.Context, ownerID string, input model.NewContact) (*model.Contact, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	return r.store.create(ctx, input.Build(r.store.newID(), ownerID, r.store.now()))
}

func (r *ContactRepository) Update(ctx context.Context, ownerID, id string, patch model.ContactPatch) (*model.Contact, error) {
	return r.store.update(ctx, ownerID, id, patch)
}

func (r *ContactRepository) Delete(ctx context.Context, ownerID, id string) error {
	return r.store.delete(ctx, ownerID, id)
}
