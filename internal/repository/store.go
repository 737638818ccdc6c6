package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskcalendar/internal/model"
)

// Option customizes a repository.
type Option func(*settings)

type settings struct {
	now   func() time.Time
	newID func() string
}

// WithClock overrides the time source used for createdAt/updatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithIDGenerator overrides record id generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *settings) { s.newID = newID }
}

func newSettings(opts []Option) settings {
	s := settings{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// store is the owner-scoped CRUD shared by every entity repository.
type store[T model.Owned] struct {
	db      *gorm.DB
	orderBy string
	touch   func(rec T, now time.Time) T
	settings
}

func newStore[T model.Owned](db *gorm.DB, orderBy string, touch func(T, time.Time) T, opts []Option) *store[T] {
	return &store[T]{db: db, orderBy: orderBy, touch: touch, settings: newSettings(opts)}
}

func (s *store[T]) list(ctx context.Context, ownerID string, scopes ...func(*gorm.DB) *gorm.DB) ([]T, error) {
	if ownerID == "" {
		return []T{}, nil
	}

	var recs []T
	err := s.db.WithContext(ctx).
		Scopes(scopes...).
		Where("owner_uid = ?", ownerID).
		Order(s.orderBy).
		Find(&recs).Error
	if err != nil {
		return nil, translate(err)
	}
	return validated(recs)
}

// listShared returns records other owners have shared with userID.
func (s *store[T]) listShared(ctx context.Context, userID string) ([]T, error) {
	if userID == "" {
		return []T{}, nil
	}

	var recs []T
	err := s.db.WithContext(ctx).
		Where("? = ANY(shared_with) AND owner_uid <> ?", userID, userID).
		Order(s.orderBy).
		Find(&recs).Error
	if err != nil {
		return nil, translate(err)
	}
	return validated(recs)
}

func (s *store[T]) get(ctx context.Context, ownerID, id string) (*T, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}

	var rec T
	if err := s.db.WithContext(ctx).Where("id = ? AND owner_uid = ?", id, ownerID).First(&rec).Error; err != nil {
		return nil, translate(err)
	}
	if err := model.Validate(rec); err != nil {
		return nil, invalid(err)
	}
	return &rec, nil
}

func (s *store[T]) create(ctx context.Context, rec T) (*T, error) {
	if rec.GetOwner() == "" {
		return nil, ErrUnauthorized
	}
	if err := model.Validate(rec); err != nil {
		return nil, invalid(err)
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

// update loads, merges, validates and writes a patch in one transaction.
func (s *store[T]) update(ctx context.Context, ownerID, id string, patch model.Patch[T]) (*T, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}

	var out T
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current T
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&current).Error; err != nil {
			return err
		}
		if current.GetOwner() != ownerID {
			return ErrUnauthorized
		}

		now := s.now()
		merged := s.touch(patch.ApplyTo(current), now)
		if err := model.Validate(merged); err != nil {
			return invalid(err)
		}

		cols := patch.Columns()
		cols["updated_at"] = now
		result := tx.Model(new(T)).Where("id = ? AND owner_uid = ?", id, ownerID).Updates(cols)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		out = merged
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (s *store[T]) delete(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return ErrUnauthorized
	}

	result := s.db.WithContext(ctx).Where("id = ? AND owner_uid = ?", id, ownerID).Delete(new(T))
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func validated[T any](recs []T) ([]T, error) {
	if recs == nil {
		return []T{}, nil
	}
	for _, rec := range recs {
		if err := model.Validate(rec); err != nil {
			return nil, invalid(err)
		}
	}
	return recs, nil
}
