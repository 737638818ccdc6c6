package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskcalendar/internal/model"
)

// sharedTables are the collections an accepted invite opens to the collaborator.
var sharedTables = []string{"tasks", "contacts", "lessons", "contact_notes", "goals"}

type InviteRepository struct {
	store *store[model.WorkspaceInvite]
}

func NewInviteRepository(db *gorm.DB, opts ...Option) *InviteRepository {
	return &InviteRepository{
		store: newStore(db, "created_at DESC", func(i model.WorkspaceInvite, _ time.Time) model.WorkspaceInvite {
			return i
		}, opts),
	}
}

// List returns the owner's invites, newest first
func (r *InviteRepository) List(ctx context.Context, ownerID string) ([]model.WorkspaceInvite, error) {
	return r.store.list(ctx, ownerID)
}

// ListForEmail returns the pending invites addressed to email across all owners
func (r *InviteRepository) ListForEmail(ctx context.Context, email string) ([]model.WorkspaceInvite, error) {
	var invites []model.WorkspaceInvite
	err := r.store.db.WithContext(ctx).
		Where("email = ? AND status = ?", model.NormalizeEmail(email), model.InvitePending).
		Order("created_at DESC").
		Find(&invites).Error
	if err != nil {
		return nil, translate(err)
	}
	return validated(invites)
}

// Get returns one invite of the given owner
func (r *InviteRepository) Get(ctx context.Context, ownerID, id string) (*model.WorkspaceInvite, error) {
	return r.store.get(ctx, ownerID, id)
}

// Create records a pending invite for a normalized email address
func (r *InviteRepository) Create(ctx context.Context, ownerID string, input model.NewInvite) (*model.WorkspaceInvite, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	return r.store.create(ctx, input.Build(r.store.newID(), ownerID, r.store.now()))
}

// Revoke withdraws an invite by deleting it
func (r *InviteRepository) Revoke(ctx context.Context, ownerID, id string) error {
	return r.store.delete(ctx, ownerID, id)
}

// Accept marks a pending invite accepted and shares every record of the owner
// with collaboratorID. Both happen in one transaction.
func (r *InviteRepository) Accept(ctx context.Context, ownerID, id, collaboratorID string) (*model.WorkspaceInvite, error) {
	if collaboratorID == "" {
		return nil, ErrUnauthorized
	}
	if collaboratorID == ownerID {
		return nil, ErrSelfInvite
	}

	return r.respond(ctx, ownerID, id, func(tx *gorm.DB, invite *model.WorkspaceInvite) error {
		invite.Status = model.InviteAccepted
		invite.AcceptedBy = &collaboratorID

		for _, table := range sharedTables {
			err := tx.Table(table).
				Where("owner_uid = ? AND NOT (? = ANY(COALESCE(shared_with, '{}')))", ownerID, collaboratorID).
				Update("shared_with", gorm.Expr("array_append(COALESCE(shared_with, '{}'), ?)", collaboratorID)).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Decline marks a pending invite declined
func (r *InviteRepository) Decline(ctx context.Context, ownerID, id string) (*model.WorkspaceInvite, error) {
	return r.respond(ctx, ownerID, id, func(_ *gorm.DB, invite *model.WorkspaceInvite) error {
		invite.Status = model.InviteDeclined
		return nil
	})
}

// respond moves a pending invite to its final status inside a transaction
// that holds a row lock on the invite.
func (r *InviteRepository) respond(ctx context.Context, ownerID, id string, apply func(*gorm.DB, *model.WorkspaceInvite) error) (*model.WorkspaceInvite, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}

	var invite model.WorkspaceInvite
	err := r.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND owner_uid = ?", id, ownerID).
			First(&invite).Error
		if err != nil {
			return err
		}
		if invite.Status != model.InvitePending {
			return ErrInviteHandled
		}

		now := r.store.now()
		invite.RespondedAt = &now
		if err := apply(tx, &invite); err != nil {
			return err
		}

		return tx.Model(&model.WorkspaceInvite{}).
			Where("id = ?", invite.ID).
			Updates(map[string]any{
				"status":       invite.Status,
				"responded_at": invite.RespondedAt,
				"accepted_by":  invite.AcceptedBy,
			}).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &invite, nil
}
