package model

import (
	"time"
	"unicode/utf16"

	"github.com/lib/pq"
)

type ContactStage string

const (
	StageNew         ContactStage = "new"
	StageTeaching    ContactStage = "teaching"
	StageProgressing ContactStage = "progressing"
	StageMember      ContactStage = "member"
	StageDropped     ContactStage = "dropped"
)

// ContactStageOrder is the fixed board order of stages.
var ContactStageOrder = []ContactStage{StageNew, StageTeaching, StageProgressing, StageMember, StageDropped}

var ContactStageLabels = map[ContactStage]string{
	StageNew:         "New",
	StageTeaching:    "Teaching",
	StageProgressing: "Progressing",
	StageMember:      "Member",
	StageDropped:     "Archived",
}

type Contact struct {
	ID              string         `gorm:"type:uuid;primaryKey" json:"id" validate:"required,min=4"`
	OwnerUID        string         `gorm:"not null;index" json:"ownerUid" validate:"required,min=6"`
	Name            string         `gorm:"not null" json:"name" validate:"min=2"`
	Stage           ContactStage   `gorm:"not null" json:"stage" validate:"oneof=new teaching progressing member dropped"`
	Phone           string         `json:"phone,omitempty"`
	Email           string         `json:"email,omitempty" validate:"omitempty,email"`
	Address         string         `json:"address,omitempty"`
	Tags            pq.StringArray `gorm:"type:text[]" json:"tags"`
	Notes           string         `json:"notes,omitempty"`
	LastContactedAt *time.Time     `json:"lastContactedAt"`
	NextVisitAt     *time.Time     `json:"nextVisitAt"`
	SharedWith      pq.StringArray `gorm:"type:text[]" json:"sharedWith"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

func (c Contact) GetID() string    { return c.ID }
func (c Contact) GetOwner() string { return c.OwnerUID }

// StageGroup is one column of the stage board.
type StageGroup struct {
	Stage    ContactStage `json:"stage"`
	Label    string       `json:"label"`
	Contacts []Contact    `json:"contacts"`
}

// GroupContactsByStage buckets contacts in ContactStageOrder, keeping input order
// inside each bucket. Every stage is present even when empty.
func GroupContactsByStage(contacts []Contact) []StageGroup {
	buckets := make(map[ContactStage][]Contact, len(ContactStageOrder))
	for _, c := range contacts {
		buckets[c.Stage] = append(buckets[c.Stage], c)
	}
	groups := make([]StageGroup, 0, len(ContactStageOrder))
	for _, stage := range ContactStageOrder {
		list := buckets[stage]
		if list == nil {
			list = []Contact{}
		}
		groups = append(groups, StageGroup{Stage: stage, Label: ContactStageLabels[stage], Contacts: list})
	}
	return groups
}

// Coordinates is a map position.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

var mapOrigin = Coordinates{Lat: 40.7608, Lng: -111.8910}

// PseudoCoordinates maps an address onto a stable point near the map origin.
// It is a display placeholder, not a geocode.
func PseudoCoordinates(address string) Coordinates {
	var hash int32
	for _, unit := range utf16.Encode([]rune(address)) {
		hash = (hash << 5) - hash + int32(unit)
	}
	latOffset := float64(hash%1000) / 10000
	lngOffset := float64((hash>>16)%1000) / 10000
	return Coordinates{Lat: mapOrigin.Lat + latOffset, Lng: mapOrigin.Lng + lngOffset}
}

type NewContact struct {
	Name            string       `json:"name" binding:"required,min=2"`
	Stage           ContactStage `json:"stage" binding:"omitempty,oneof=new teaching progressing member dropped"`
	Phone           string       `json:"phone"`
	Email           string       `json:"email" binding:"omitempty,email"`
	Address         string       `json:"address"`
	Tags            []string     `json:"tags"`
	Notes           string       `json:"notes"`
	LastContactedAt *time.Time   `json:"lastContactedAt"`
	NextVisitAt     *time.Time   `json:"nextVisitAt"`
}

func (n NewContact) Build(id, ownerUID string, now time.Time) Contact {
	stage := n.Stage
	if stage == "" {
		stage = StageNew
	}
	return Contact{
		ID:              id,
		OwnerUID:        ownerUID,
		Name:            n.Name,
		Stage:           stage,
		Phone:           n.Phone,
		Email:           n.Email,
		Address:         n.Address,
		Tags:            pq.StringArray(nonNil(n.Tags)),
		Notes:           n.Notes,
		LastContactedAt: clonePtr(n.LastContactedAt),
		NextVisitAt:     clonePtr(n.NextVisitAt),
		SharedWith:      pq.StringArray{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

type ContactPatch struct {
	Name            Optional[string]       `json:"name"`
	Stage           Optional[ContactStage] `json:"stage"`
	Phone           Optional[string]       `json:"phone"`
	Email           Optional[string]       `json:"email"`
	Address         Optional[string]       `json:"address"`
	Tags            Optional[[]string]     `json:"tags"`
	Notes           Optional[string]       `json:"notes"`
	LastContactedAt Optional[*time.Time]   `json:"lastContactedAt"`
	NextVisitAt     Optional[*time.Time]   `json:"nextVisitAt"`
}

var _ Patch[Contact] = ContactPatch{}

func (p ContactPatch) Columns() map[string]any {
	cols := make(map[string]any)
	setColumn(cols, "name", p.Name)
	setColumn(cols, "stage", p.Stage)
	setColumn(cols, "phone", p.Phone)
	setColumn(cols, "email", p.Email)
	setColumn(cols, "address", p.Address)
	if v, ok := p.Tags.Get(); ok {
		cols["tags"] = pq.StringArray(nonNil(v))
	}
	setColumn(cols, "notes", p.Notes)
	setColumn(cols, "last_contacted_at", p.LastContactedAt)
	setColumn(cols, "next_visit_at", p.NextVisitAt)
	return cols
}

func (p ContactPatch) ApplyTo(c Contact) Contact {
	out := c
	applyField(&out.Name, p.Name)
	applyField(&out.Stage, p.Stage)
	applyField(&out.Phone, p.Phone)
	applyField(&out.Email, p.Email)
	applyField(&out.Address, p.Address)
	if v, ok := p.Tags.Get(); ok {
		out.Tags = pq.StringArray(nonNil(v))
	}
	applyField(&out.Notes, p.Notes)
	if v, ok := p.LastContactedAt.Get(); ok {
		out.LastContactedAt = clonePtr(v)
	}
	if v, ok := p.NextVisitAt.Get(); ok {
		out.NextVisitAt = clonePtr(v)
	}
	return out
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return cloneStrings(in)
}
