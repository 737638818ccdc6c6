package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"taskcalendar/internal/model"
)

type GoalRepository struct {
	store *store[model.Goal]
}

func NewGoalRepository(db *gorm.DB, opts ...Option) *GoalRepository {
	return &GoalRepository{
		store: newStore(db, "period_end ASC", func(g model.Goal, now time.Time) model.Goal {
			g.UpdatedAt = now
			return g
		}, opts),
	}
}

// List returns the owner's goals ordered by period end
func (r *GoalRepository) List(ctx context.Context, ownerID string) ([]model.Goal, error) {
	return r.store.list(ctx, ownerID)
}

func (r *GoalRepository) Create(ctx context.Context, ownerID string, input model.NewGoal) (*model.Goal, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	return r.store.create(ctx, input.Build(r.store.newID(), ownerID, r.store.now()))
}

func (r *GoalRepository) Update(ctx context.Context, ownerID, id string, patch model.GoalPatch) (*model.Goal, error) {
	return r.store.update(ctx, ownerID, id, patch)
}

func (r *GoalRepository) Delete(ctx context.Context, ownerID, id string) error {
	return r.store.delete(ctx, ownerID, id)
}
