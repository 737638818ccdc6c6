package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskcalendar/internal/model"
	"taskcalendar/internal/repository"
)

// TaskEngine is the subset of the mutation engine the planner drives.
type TaskEngine interface {
	List(ctx context.Context, filter model.TaskFilter) ([]model.Task, error)
	Get(ctx context.Context, id string) (*model.Task, error)
	Create(ctx context.Context, input model.NewTask) (*model.Task, error)
	Update(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error)
}

// Slot is a time range selected on the calendar grid.
type Slot struct {
	Start time.Time `json:"start" binding:"required"`
	End   time.Time `json:"end" binding:"required"`
}

// Planner translates calendar gestures into task updates.
type Planner struct {
	engine TaskEngine
	now    func() time.Time
}

func NewPlanner(engine TaskEngine) *Planner {
	return &Planner{engine: engine, now: time.Now}
}

// Events lists the owner's tasks as calendar events.
func (p *Planner) Events(ctx context.Context) ([]Event, error) {
	tasks, err := p.engine.List(ctx, model.TaskFilter{})
	if err != nil {
		return nil, err
	}
	return TasksToEvents(tasks, p.now()), nil
}

// Move reschedules a task after a drag, resize or drop from outside the grid.
// All-day tasks snap to the whole UTC day.
func (p *Planner) Move(ctx context.Context, taskID string, start, end time.Time) (*model.Task, error) {
	task, err := p.engine.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	s, e := scheduleFor(task.IsAllDay, start, end)
	return p.engine.Update(ctx, taskID, model.TaskPatch{
		ScheduledStart: model.Some(&s),
		ScheduledEnd:   model.Some(&e),
	})
}

// SetAllDay toggles the all-day flag. Turning it on snaps an existing
// schedule to whole days.
func (p *Planner) SetAllDay(ctx context.Context, taskID string, allDay bool) (*model.Task, error) {
	task, err := p.engine.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	patch := model.TaskPatch{IsAllDay: model.Some(allDay)}
	if allDay && Schedulable(*task) {
		s, e := scheduleFor(true, *task.ScheduledStart, *task.ScheduledEnd)
		patch.ScheduledStart = model.Some(&s)
		patch.ScheduledEnd = model.Some(&e)
	}
	return p.engine.Update(ctx, taskID, patch)
}

// CycleStatus advances the task to the next status in the cycle.
func (p *Planner) CycleStatus(ctx context.Context, taskID string) (*model.Task, error) {
	task, err := p.engine.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return p.engine.Update(ctx, taskID, model.TaskPatch{Status: model.Some(model.NextStatus(task.Status))})
}

// ScheduleNow books a one hour block starting now.
func (p *Planner) ScheduleNow(ctx context.Context, taskID string) (*model.Task, error) {
	start := NormalizeInstant(p.now())
	end := start.Add(time.Hour)
	return p.engine.Update(ctx, taskID, model.TaskPatch{
		ScheduledStart: model.Some(&start),
		ScheduledEnd:   model.Some(&end),
		IsAllDay:       model.Some(false),
	})
}

// CreateInSlot creates a task occupying slot, due when the slot ends.
func (p *Planner) CreateInSlot(ctx context.Context, slot Slot, input model.NewTask) (*model.Task, error) {
	s, e := scheduleFor(input.IsAllDay, slot.Start, slot.End)
	if s.After(e) {
		return nil, fmt.Errorf("%w: %v", repository.ErrInvalidRecord, model.ErrScheduleOrder)
	}
	input.ScheduledStart = &s
	input.ScheduledEnd = &e
	due := e
	input.DueAt = &due
	return p.engine.Create(ctx, input)
}

// SetColor sets the task color. An empty color restores the default.
func (p *Planner) SetColor(ctx context.Context, taskID, color string) (*model.Task, error) {
	var value *string
	if color = strings.TrimSpace(color); color != "" {
		value = &color
	}
	return p.engine.Update(ctx, taskID, model.TaskPatch{Color: model.Some(value)})
}

// ToggleBackup flips the backup flag, keeping the notes marker in step.
func (p *Planner) ToggleBackup(ctx context.Context, taskID string) (*model.Task, error) {
	task, err := p.engine.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}

	notes := task.Notes
	on := !IsBackup(*task)
	if on {
		notes = strings.TrimSpace(BackupMarker + " " + notes)
	} else {
		notes = strings.TrimSpace(strings.ReplaceAll(notes, BackupMarker, ""))
	}
	return p.engine.Update(ctx, taskID, model.TaskPatch{
		IsBackup: model.Some(on),
		Notes:    model.Some(notes),
	})
}

// scheduleFor maps a selected range onto stored bounds. All-day ranges cover
// whole days with an inclusive end; a range ending exactly at midnight, as
// grid selections do, stops on the previous day.
func scheduleFor(allDay bool, start, end time.Time) (time.Time, time.Time) {
	if allDay {
		if end.After(start) && atMidnight(end) {
			end = end.Add(-time.Nanosecond)
		}
		return DayStart(start), DayEnd(end)
	}
	return NormalizeInstant(start), NormalizeInstant(end)
}

func atMidnight(ts time.Time) bool {
	h, m, sec := ts.Clock()
	return h == 0 && m == 0 && sec == 0 && ts.Nanosecond() == 0
}
