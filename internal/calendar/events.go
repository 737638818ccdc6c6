// Package calendar derives calendar events from tasks and turns calendar
// gestures into task mutations.
package calendar

import (
	"strings"
	"time"

	"taskcalendar/internal/model"
)

// BackupMarker in task notes flags a task as a backup plan.
const BackupMarker = "[backup]"

// Event is the calendar view of one scheduled task.
type Event struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Start    time.Time  `json:"start"`
	End      time.Time  `json:"end"`
	AllDay   bool       `json:"allDay"`
	Color    string     `json:"color"`
	Backup   bool       `json:"backup"`
	Overdue  bool       `json:"overdue"`
	Resource model.Task `json:"resource"`
}

// Color is a named preset offered by the color picker.
type Color struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

var PresetColors = []Color{
	{Name: "Blue", Value: model.DefaultTaskColor},
	{Name: "Purple", Value: "#8b5cf6"},
	{Name: "Pink", Value: "#ec4899"},
	{Name: "Red", Value: "#ef4444"},
	{Name: "Orange", Value: "#f97316"},
	{Name: "Yellow", Value: "#eab308"},
	{Name: "Green", Value: "#22c55e"},
	{Name: "Teal", Value: "#14b8a6"},
	{Name: "Cyan", Value: "#06b6d4"},
	{Name: "Indigo", Value: "#6366f1"},
}

// TasksToEvents maps every task with both scheduled times to an event, in
// input order. Tasks missing either time are left off the calendar.
func TasksToEvents(tasks []model.Task, now time.Time) []Event {
	events := make([]Event, 0, len(tasks))
	for _, t := range tasks {
		if !Schedulable(t) {
			continue
		}
		events = append(events, Event{
			ID:       t.ID,
			Title:    t.Title,
			Start:    *t.ScheduledStart,
			End:      *t.ScheduledEnd,
			AllDay:   t.IsAllDay,
			Color:    t.ResolvedColor(),
			Backup:   IsBackup(t),
			Overdue:  IsOverdue(t, now),
			Resource: t.Clone(),
		})
	}
	return events
}

// Schedulable reports whether t has both scheduled times set.
func Schedulable(t model.Task) bool {
	return t.ScheduledStart != nil && !t.ScheduledStart.IsZero() &&
		t.ScheduledEnd != nil && !t.ScheduledEnd.IsZero()
}

// IsOverdue reports whether t ended before now without being done.
func IsOverdue(t model.Task, now time.Time) bool {
	if t.ScheduledEnd == nil || t.ScheduledEnd.IsZero() {
		return false
	}
	return t.ScheduledEnd.Before(now) && t.Status != model.StatusDone
}

// IsBackup reports whether t is flagged as a backup, by flag or notes marker.
func IsBackup(t model.Task) bool {
	return t.IsBackup || strings.Contains(t.Notes, BackupMarker)
}

// NormalizeInstant truncates to millisecond precision in UTC.
func NormalizeInstant(ts time.Time) time.Time {
	return ts.UTC().Truncate(time.Millisecond)
}

// DayStart is 00:00:00.000 UTC of the calendar day ts falls on in its own location.
func DayStart(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayEnd is 23:59:59.999 UTC of the calendar day ts falls on in its own location.
func DayEnd(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), time.UTC)
}
