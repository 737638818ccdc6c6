package model

import (
	"strings"
	"time"
)

// Workspace roles granted by an invite.
const (
	RoleViewer = "viewer"
	RoleEditor = "editor"
)

type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteDeclined InviteStatus = "declined"
	InviteRevoked  InviteStatus = "revoked"
)

// WorkspaceInvite offers another account access to the owner's workspace.
type WorkspaceInvite struct {
	ID          string       `gorm:"type:uuid;primaryKey" json:"id" validate:"required,min=6"`
	OwnerUID    string       `gorm:"not null;index" json:"ownerUid" validate:"required,min=6"`
	Email       string       `gorm:"not null" json:"email" validate:"required,email"`
	Role        string       `gorm:"not null" json:"role" validate:"oneof=viewer editor"`
	Status      InviteStatus `gorm:"not null" json:"status" validate:"oneof=pending accepted declined revoked"`
	CreatedAt   time.Time    `json:"createdAt"`
	RespondedAt *time.Time   `json:"respondedAt,omitempty"`
	AcceptedBy  *string      `json:"acceptedBy,omitempty" validate:"omitempty,min=6"`
}

func (WorkspaceInvite) TableName() string { return "invites" }

func (i WorkspaceInvite) GetID() string    { return i.ID }
func (i WorkspaceInvite) GetOwner() string { return i.OwnerUID }

// NormalizeEmail trims and lowercases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type NewInvite struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required,oneof=viewer editor"`
}

func (n NewInvite) Build(id, ownerUID string, now time.Time) WorkspaceInvite {
	return WorkspaceInvite{
		ID:        id,
		OwnerUID:  ownerUID,
		Email:     NormalizeEmail(n.Email),
		Role:      n.Role,
		Status:    InvitePending,
		CreatedAt: now,
	}
}
