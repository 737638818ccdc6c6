package model

import (
	"time"

	"github.com/lib/pq"
)

type LessonType string

const (
	LessonRestoration  LessonType = "restoration"
	LessonPlan         LessonType = "plan"
	LessonGospel       LessonType = "gospel"
	LessonCommandments LessonType = "commandments"
	LessonLaws         LessonType = "laws"
)

// Lesson is a logged visit with a contact.
type Lesson struct {
	ID          string         `gorm:"type:uuid;primaryKey" json:"id" validate:"required,min=4"`
	OwnerUID    string         `gorm:"not null;index" json:"ownerUid" validate:"required,min=6"`
	ContactID   string         `gorm:"type:uuid;not null;index" json:"contactId" validate:"required,min=4"`
	TaughtAt    time.Time      `gorm:"not null" json:"taughtAt" validate:"required"`
	Type        LessonType     `gorm:"not null" json:"type" validate:"oneof=restoration plan gospel commandments laws"`
	Commitments pq.StringArray `gorm:"type:text[]" json:"commitments"`
	Notes       string         `json:"notes,omitempty"`
	TaughtBy    pq.StringArray `gorm:"type:text[]" json:"taughtBy"`
	FollowUpAt  *time.Time     `json:"followUpAt"`
	SharedWith  pq.StringArray `gorm:"type:text[]" json:"sharedWith"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func (l Lesson) GetID() string    { return l.ID }
func (l Lesson) GetOwner() string { return l.OwnerUID }

type NewLesson struct {
	ContactID   string     `json:"contactId" binding:"required"`
	TaughtAt    time.Time  `json:"taughtAt" binding:"required"`
	Type        LessonType `json:"type" binding:"required,oneof=restoration plan gospel commandments laws"`
	Commitments []string   `json:"commitments"`
	Notes       string     `json:"notes"`
	TaughtBy    []string   `json:"taughtBy"`
	FollowUpAt  *time.Time `json:"followUpAt"`
}

func (n NewLesson) Build(id, ownerUID string, now time.Time) Lesson {
	return Lesson{
		ID:          id,
		OwnerUID:    ownerUID,
		ContactID:   n.ContactID,
		TaughtAt:    n.TaughtAt,
		Type:        n.Type,
		Commitments: pq.StringArray(nonNil(n.Commitments)),
		Notes:       n.Notes,
		TaughtBy:    pq.StringArray(nonNil(n.TaughtBy)),
		FollowUpAt:  clonePtr(n.FollowUpAt),
		SharedWith:  pq.StringArray{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

type LessonPatch struct {
	TaughtAt    Optional[time.Time]  `json:"taughtAt"`
	Type        Optional[LessonType] `json:"type"`
	Commitments Optional[[]string]   `json:"commitments"`
	Notes       Optional[string]     `json:"notes"`
	TaughtBy    Optional[[]string]   `json:"taughtBy"`
	FollowUpAt  Optional[*time.Time] `json:"followUpAt"`
}

var _ Patch[Lesson] = LessonPatch{}

func (p LessonPatch) Columns() map[string]any {
	cols := make(map[string]any)
	setColumn(cols, "taught_at", p.TaughtAt)
	setColumn(cols, "type", p.Type)
	if v, ok := p.Commitments.Get(); ok {
		cols["commitments"] = pq.StringArray(nonNil(v))
	}
	setColumn(cols, "notes", p.Notes)
	if v, ok := p.TaughtBy.Get(); ok {
		cols["taught_by"] = pq.StringArray(nonNil(v))
	}
	setColumn(cols, "follow_up_at", p.FollowUpAt)
	return cols
}

func (p LessonPatch) ApplyTo(l Lesson) Lesson {
	out := l
	applyField(&out.TaughtAt, p.TaughtAt)
	applyField(&out.Type, p.Type)
	if v, ok := p.Commitments.Get(); ok {
		out.Commitments = pq.StringArray(nonNil(v))
	}
	applyField(&out.Notes, p.Notes)
	if v, ok := p.TaughtBy.Get(); ok {
		out.TaughtBy = pq.StringArray(nonNil(v))
	}
	if v, ok := p.FollowUpAt.Get(); ok {
		out.FollowUpAt = clonePtr(v)
	}
	return out
}
