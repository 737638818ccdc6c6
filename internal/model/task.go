package model

import (
	"errors"
	"time"

	"github.com/lib/pq"
)

type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "inProgress"
	StatusDone       TaskStatus = "done"
)

// TaskStatuses lists every status in display order.
var TaskStatuses = []TaskStatus{StatusTodo, StatusInProgress, StatusDone}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// DefaultTaskColor is used when a task has no explicit color.
const DefaultTaskColor = "#3b82f6"

var ErrScheduleOrder = errors.New("scheduledStart must not be after scheduledEnd")

type Task struct {
	ID             string         `gorm:"type:uuid;primaryKey" json:"id" validate:"required,min=4"`
	OwnerUID       string         `gorm:"not null;index" json:"ownerUid" validate:"required,min=6"`
	ContactID      *string        `gorm:"type:uuid" json:"contactId,omitempty" validate:"omitempty,uuid"`
	Title          string         `gorm:"not null" json:"title"`
	Status         TaskStatus     `gorm:"not null" json:"status" validate:"oneof=todo inProgress done"`
	Priority       TaskPriority   `gorm:"not null" json:"priority" validate:"oneof=low medium high"`
	DueAt          *time.Time     `json:"dueAt"`
	ScheduledStart *time.Time     `json:"scheduledStart"`
	ScheduledEnd   *time.Time     `json:"scheduledEnd"`
	IsAllDay       bool           `gorm:"not null" json:"isAllDay"`
	IsBackup       bool           `gorm:"not null" json:"isBackup"`
	Color          *string        `json:"color" validate:"omitempty,hexcolor"`
	Notes          string         `json:"notes,omitempty"`
	AssignedTo     pq.StringArray `gorm:"type:text[]" json:"assignedTo"`
	SharedWith     pq.StringArray `gorm:"type:text[]" json:"sharedWith"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

func (t Task) GetID() string    { return t.ID }
func (t Task) GetOwner() string { return t.OwnerUID }

// Check enforces the cross-field invariants that struct tags cannot express.
func (t Task) Check() error {
	if t.ScheduledStart != nil && t.ScheduledEnd != nil && t.ScheduledStart.After(*t.ScheduledEnd) {
		return ErrScheduleOrder
	}
	return nil
}

// ResolvedColor returns the task color, falling back to DefaultTaskColor.
func (t Task) ResolvedColor() string {
	if t.Color == nil || *t.Color == "" {
		return DefaultTaskColor
	}
	return *t.Color
}

// Clone returns a deep copy so cached snapshots never share mutable state.
func (t Task) Clone() Task {
	c := t
	c.ContactID = clonePtr(t.ContactID)
	c.DueAt = clonePtr(t.DueAt)
	c.ScheduledStart = clonePtr(t.ScheduledStart)
	c.ScheduledEnd = clonePtr(t.ScheduledEnd)
	c.Color = clonePtr(t.Color)
	c.AssignedTo = cloneStrings(t.AssignedTo)
	c.SharedWith = cloneStrings(t.SharedWith)
	return c
}

// NextStatus is the click-to-cycle transition todo -> inProgress -> done -> todo.
func NextStatus(s TaskStatus) TaskStatus {
	switch s {
	case StatusTodo:
		return StatusInProgress
	case StatusInProgress:
		return StatusDone
	default:
		return StatusTodo
	}
}

// NewTask carries the caller-supplied fields of a task create.
type NewTask struct {
	Title          string       `json:"title" binding:"required"`
	Status         TaskStatus   `json:"status" binding:"omitempty,oneof=todo inProgress done"`
	Priority       TaskPriority `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueAt          *time.Time   `json:"dueAt"`
	ContactID      *string      `json:"contactId"`
	Notes          string       `json:"notes"`
	ScheduledStart *time.Time   `json:"scheduledStart"`
	ScheduledEnd   *time.Time   `json:"scheduledEnd"`
	IsAllDay       bool         `json:"isAllDay"`
	IsBackup       bool         `json:"isBackup"`
	Color          *string      `json:"color"`
	SharedWith     []string     `json:"sharedWith"`
}

// Build applies the create defaults: status todo, priority medium, assigned to
// the owner.
func (n NewTask) Build(id, ownerUID string, now time.Time) Task {
	status := n.Status
	if status == "" {
		status = StatusTodo
	}
	priority := n.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	shared := cloneStrings(n.SharedWith)
	if shared == nil {
		shared = []string{}
	}
	var contactID *string
	if n.ContactID != nil && *n.ContactID != "" {
		contactID = clonePtr(n.ContactID)
	}
	return Task{
		ID:             id,
		OwnerUID:       ownerUID,
		ContactID:      contactID,
		Title:          n.Title,
		Status:         status,
		Priority:       priority,
		DueAt:          clonePtr(n.DueAt),
		ScheduledStart: clonePtr(n.ScheduledStart),
		ScheduledEnd:   clonePtr(n.ScheduledEnd),
		IsAllDay:       n.IsAllDay,
		IsBackup:       n.IsBackup,
		Color:          clonePtr(n.Color),
		Notes:          n.Notes,
		AssignedTo:     pq.StringArray{ownerUID},
		SharedWith:     pq.StringArray(shared),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// TaskPatch is a partial task update. Unset fields are left untouched.
type TaskPatch struct {
	Title          Optional[string]       `json:"title"`
	Status         Optional[TaskStatus]   `json:"status"`
	Priority       Optional[TaskPriority] `json:"priority"`
	DueAt          Optional[*time.Time]   `json:"dueAt"`
	ScheduledStart Optional[*time.Time]   `json:"scheduledStart"`
	ScheduledEnd   Optional[*time.Time]   `json:"scheduledEnd"`
	IsAllDay       Optional[bool]         `json:"isAllDay"`
	IsBackup       Optional[bool]         `json:"isBackup"`
	Color          Optional[*string]      `json:"color"`
	Notes          Optional[string]       `json:"notes"`
	ContactID      Optional[*string]      `json:"contactId"`
	SharedWith     Optional[[]string]     `json:"sharedWith"`
}

var _ Patch[Task] = TaskPatch{}

func (p TaskPatch) Columns() map[string]any {
	cols := make(map[string]any)
	setColumn(cols, "title", p.Title)
	setColumn(cols, "status", p.Status)
	setColumn(cols, "priority", p.Priority)
	setColumn(cols, "due_at", p.DueAt)
	setColumn(cols, "scheduled_start", p.ScheduledStart)
	setColumn(cols, "scheduled_end", p.ScheduledEnd)
	setColumn(cols, "is_all_day", p.IsAllDay)
	setColumn(cols, "is_backup", p.IsBackup)
	setColumn(cols, "color", p.Color)
	setColumn(cols, "notes", p.Notes)
	setColumn(cols, "contact_id", p.ContactID)
	if v, ok := p.SharedWith.Get(); ok {
		cols["shared_with"] = pq.StringArray(cloneStrings(v))
	}
	return cols
}

func (p TaskPatch) ApplyTo(t Task) Task {
	out := t.Clone()
	applyField(&out.Title, p.Title)
	applyField(&out.Status, p.Status)
	applyField(&out.Priority, p.Priority)
	if v, ok := p.DueAt.Get(); ok {
		out.DueAt = clonePtr(v)
	}
	if v, ok := p.ScheduledStart.Get(); ok {
		out.ScheduledStart = clonePtr(v)
	}
	if v, ok := p.ScheduledEnd.Get(); ok {
		out.ScheduledEnd = clonePtr(v)
	}
	applyField(&out.IsAllDay, p.IsAllDay)
	applyField(&out.IsBackup, p.IsBackup)
	if v, ok := p.Color.Get(); ok {
		out.Color = clonePtr(v)
	}
	applyField(&out.Notes, p.Notes)
	if v, ok := p.ContactID.Get(); ok {
		out.ContactID = clonePtr(v)
	}
	if v, ok := p.SharedWith.Get(); ok {
		out.SharedWith = pq.StringArray(cloneStrings(v))
	}
	return out
}

// Empty reports whether the patch sets no field at all.
func (p TaskPatch) Empty() bool {
	return len(p.Columns()) == 0
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Validate rejects patch values that could never produce a valid task.
func (p TaskPatch) Validate() error {
	if v, ok := p.Status.Get(); ok {
		if err := validate.Var(string(v), "oneof=todo inProgress done"); err != nil {
			return err
		}
	}
	if v, ok := p.Priority.Get(); ok {
		if err := validate.Var(string(v), "oneof=low medium high"); err != nil {
			return err
		}
	}
	if v, ok := p.Color.Get(); ok && v != nil && *v != "" {
		if err := validate.Var(*v, "hexcolor"); err != nil {
			return err
		}
	}
	if v, ok := p.ContactID.Get(); ok && v != nil && *v != "" {
		if err := validate.Var(*v, "uuid"); err != nil {
			return err
		}
	}
	start, startSet := p.ScheduledStart.Get()
	end, endSet := p.ScheduledEnd.Get()
	if startSet && endSet && start != nil && end != nil && start.After(*end) {
		return ErrScheduleOrder
	}
	return nil
}

// TaskFilter narrows a task list. The zero value lists every task.
type TaskFilter struct {
	Status TaskStatus `form:"status" json:"status,omitempty"`
}

// FilterAll is the filter key of an unfiltered list.
const FilterAll = "all"

// Key is the filter component of a cache key.
func (f TaskFilter) Key() string {
	if f.Status == "" || f.Status == FilterAll {
		return FilterAll
	}
	return string(f.Status)
}

// Matches reports whether t belongs to a list built with this filter.
func (f TaskFilter) Matches(t Task) bool {
	key := f.Key()
	return key == FilterAll || string(t.Status) == key
}
