package model

import (
	"time"

	"github.com/lib/pq"
)

type ContactNote struct {
	ID         string         `gorm:"type:uuid;primaryKey" json:"id" validate:"required,min=4"`
	OwnerUID   string         `gorm:"not null;index" json:"ownerUid" validate:"required,min=6"`
	ContactID  string         `gorm:"type:uuid;not null;index" json:"contactId" validate:"required,min=4"`
	Content    string         `gorm:"not null" json:"content" validate:"min=2"`
	SharedWith pq.StringArray `gorm:"type:text[]" json:"sharedWith"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

func (n ContactNote) GetID() string    { return n.ID }
func (n ContactNote) GetOwner() string { return n.OwnerUID }

type NewContactNote struct {
	ContactID string `json:"contactId" binding:"required"`
	Content   string `json:"content" binding:"required,min=2"`
}

func (n NewContactNote) Build(id, ownerUID string, now time.Time) ContactNote {
	return ContactNote{
		ID:         id,
		OwnerUID:   ownerUID,
		ContactID:  n.ContactID,
		Content:    n.Content,
		SharedWith: pq.StringArray{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

type ContactNotePatch struct {
	Content Optional[string] `json:"content"`
}

var _ Patch[ContactNote] = ContactNotePatch{}

func (p ContactNotePatch) Columns() map[string]any {
	cols := make(map[string]any)
	setColumn(cols, "content", p.Content)
	return cols
}

func (p ContactNotePatch) ApplyTo(n ContactNote) ContactNote {
	applyField(&n.Content, p.Content)
	return n
}
