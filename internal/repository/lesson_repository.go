package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"taskcalendar/internal/model"
)

type LessonRepository struct {
	store *store[model.Lesson]
}

func NewLessonRepository(db *gorm.DB, opts ...Option) *LessonRepository {
	return &LessonRepository{
		store: newStore(db, "taught_at DESC", func(l model.Lesson, now time.Time) model.Lesson {
			l.UpdatedAt = now
			return l
		}, opts),
	}
}

// List returns the owner's lessons, most recent first. A non-empty contactID
// narrows the list to one contact.
func (r *LessonRepository) List(ctx context.Context, ownerID, contactID string) ([]model.Lesson, error) {
	if contactID == "" {
		return r.store.list(ctx, ownerID)
	}
	return r.store.list(ctx, ownerID, byContact(contactID))
}

func (r *LessonRepository) Create(ctx context.Context, ownerID string, input model.NewLesson) (*model.Lesson, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	return r.store.create(ctx, input.Build(r.store.newID(), ownerID, r.store.now()))
}

func (r *LessonRepository) Update(ctx context.Context, ownerID, id string, patch model.LessonPatch) (*model.Lesson, error) {
	return r.store.update(ctx, ownerID, id, patch)
}

func (r *LessonRepository) Delete(ctx context.Context, ownerID, id string) error {
	return r.store.delete(ctx, ownerID, id)
}

func byContact(contactID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("contact_id = ?", contactID)
	}
}
