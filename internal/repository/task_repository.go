package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"taskcalendar/internal/model"
)

// TaskStore is the record store contract the mutation engine depends on.
type TaskStore interface {
	List(ctx context.Context, ownerID string, filter model.TaskFilter) ([]model.Task, error)
	Get(ctx context.Context, ownerID, id string) (*model.Task, error)
	Create(ctx context.Context, ownerID string, input model.NewTask) (*model.Task, error)
	Update(ctx context.Context, ownerID, id string, patch model.TaskPatch) (*model.Task, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type TaskRepository struct {
	store *store[model.Task]
}

var _ TaskStore = (*TaskRepository)(nil)

func NewTaskRepository(db *gorm.DB, opts ...Option) *TaskRepository {
	return &TaskRepository{
		store: newStore(db, "due_at ASC NULLS LAST, created_at ASC", func(t model.Task, now time.Time) model.Task {
			t.UpdatedAt = now
			return t
		}, opts),
	}
}

// List returns the owner's tasks ordered by due date, optionally filtered by status
func (r *TaskRepository) List(ctx context.Context, ownerID string, filter model.TaskFilter) ([]model.Task, error) {
	if filter.Key() == model.FilterAll {
		return r.store.list(ctx, ownerID)
	}
	return r.store.list(ctx, ownerID, func(db *gorm.DB) *gorm.DB {
		return db.Where("status = ?", filter.Key())
	})
}

// ListShared returns tasks other owners have shared with userID
func (r *TaskRepository) ListShared(ctx context.Context, userID string) ([]model.Task, error) {
	return r.store.listShared(ctx, userID)
}

// Get retrieves one of the owner's tasks by its ID
func (r *TaskRepository) Get(ctx context.Context, ownerID, id string) (*model.Task, error) {
	return r.store.get(ctx, ownerID, id)
}

// Create adds a new task with the create defaults applied
func (r *TaskRepository) Create(ctx context.Context, ownerID string, input model.NewTask) (*model.Task, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	return r.store.create(ctx, input.Build(r.store.newID(), ownerID, r.store.now()))
}

// Update applies a partial update and returns the merged task
func (r *TaskRepository) Update(ctx context.Context, ownerID, id string, patch model.TaskPatch) (*model.Task, error) {
	if err := patch.Validate(); err != nil {
		return nil, invalid(err)
	}
	return r.store.update(ctx, ownerID, id, patch)
}

// Delete removes one of the owner's tasks
func (r *TaskRepository) Delete(ctx context.Context, ownerID, id string) error {
	return r.store.delete(ctx, ownerID, id)
}
