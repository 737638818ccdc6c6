package calendar_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"taskcalendar/internal/auth"
	"taskcalendar/internal/calendar"
	"taskcalendar/internal/logger"
	"taskcalendar/internal/model"
	"taskcalendar/internal/optimistic"
	"taskcalendar/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)

func at(h int) *time.Time {
	ts := time.Date(2024, 5, 6, h, 0, 0, 0, time.UTC)
	return &ts
}

func strPtr(s string) *string { return &s }

func TestTasksToEvents_TotalityAndExclusion(t *testing.T) {
	zero := time.Time{}
	tasks := []model.Task{
		{ID: "a", Title: "both", ScheduledStart: at(9), ScheduledEnd: at(10), Status: model.StatusTodo},
		{ID: "b", Title: "start only", ScheduledStart: at(9)},
		{ID: "c", Title: "end only", ScheduledEnd: at(10)},
		{ID: "d", Title: "none"},
		{ID: "e", Title: "zero", ScheduledStart: &zero, ScheduledEnd: at(10)},
		{ID: "f", Title: "colored", ScheduledStart: at(13), ScheduledEnd: at(14), Color: strPtr("#ef4444"), Status: model.StatusDone},
	}

	events := calendar.TasksToEvents(tasks, now)

	require.Len(t, events, 2)
	assert.Equal(t, "a", events[0].ID)
	assert.Equal(t, model.DefaultTaskColor, events[0].Color)
	assert.Equal(t, *at(9), events[0].Start)
	assert.Equal(t, "a", events[0].Resource.ID)
	assert.Equal(t, "f", events[1].ID)
	assert.Equal(t, "#ef4444", events[1].Color)
}

func TestTasksToEvents_Flags(t *testing.T) {
	tasks := []model.Task{
		{ID: "late", ScheduledStart: at(8), ScheduledEnd: at(9), Status: model.StatusInProgress},
		{ID: "late-done", ScheduledStart: at(8), ScheduledEnd: at(9), Status: model.StatusDone},
		{ID: "future", ScheduledStart: at(15), ScheduledEnd: at(16), Status: model.StatusTodo},
		{ID: "marker", ScheduledStart: at(15), ScheduledEnd: at(16), Notes: "[backup] rain plan"},
		{ID: "flag", ScheduledStart: at(15), ScheduledEnd: at(16), IsBackup: true},
	}

	events := calendar.TasksToEvents(tasks, now)

	require.Len(t, events, 5)
	assert.True(t, events[0].Overdue)
	assert.False(t, events[1].Overdue)
	assert.False(t, events[2].Overdue)
	assert.False(t, events[2].Backup)
	assert.True(t, events[3].Backup)
	assert.True(t, events[4].Backup)
}

func TestIsOverdue_NoSchedule(t *testing.T) {
	assert.False(t, calendar.IsOverdue(model.Task{Status: model.StatusTodo}, now))
}

func TestDayBounds_IndependentOfViewerZone(t *testing.T) {
	zones := []string{"UTC", "America/Los_Angeles", "Asia/Tokyo", "Pacific/Kiritimati", "Pacific/Pago_Pago"}
	for _, name := range zones {
		loc, err := time.LoadLocation(name)
		if err != nil {
			t.Skipf("zone %s unavailable: %v", name, err)
		}
		for _, hour := range []int{0, 1, 12, 23} {
			local := time.Date(2024, 3, 10, hour, 30, 0, 0, loc)

			assert.Equal(t, "2024-03-10T00:00:00.000Z", calendar.DayStart(local).Format("2006-01-02T15:04:05.000Z"), "%s %d", name, hour)
			assert.Equal(t, "2024-03-10T23:59:59.999Z", calendar.DayEnd(local).Format("2006-01-02T15:04:05.000Z"), "%s %d", name, hour)
		}
	}
}

func TestNormalizeInstant(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	ts := time.Date(2024, 5, 6, 11, 0, 0, 123456789, loc)

	got := calendar.NormalizeInstant(ts)

	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 9, got.Hour())
	assert.Equal(t, 123000000, got.Nanosecond())
}

type engineMock struct {
	mock.Mock
}

func (m *engineMock) List(ctx context.Context, filter model.TaskFilter) ([]model.Task, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *engineMock) Get(ctx context.Context, id string) (*model.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *engineMock) Create(ctx context.Context, input model.NewTask) (*model.Task, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *engineMock) Update(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func TestPlanner_MoveAllDaySnapsToDay(t *testing.T) {
	engine := new(engineMock)
	planner := calendar.NewPlanner(engine)
	ctx := context.Background()
	loc := time.FixedZone("UTC-7", -7*60*60)

	engine.On("Get", ctx, "t1").Return(&model.Task{ID: "t1", IsAllDay: true}, nil)
	var sent model.TaskPatch
	engine.On("Update", ctx, "t1", mock.AnythingOfType("model.TaskPatch")).
		Run(func(args mock.Arguments) { sent = args.Get(2).(model.TaskPatch) }).
		Return(&model.Task{ID: "t1"}, nil)

	_, err := planner.Move(ctx, "t1", time.Date(2024, 5, 7, 22, 0, 0, 0, loc), time.Date(2024, 5, 8, 1, 0, 0, 0, loc))
	require.NoError(t, err)

	start, _ := sent.ScheduledStart.Get()
	end, _ := sent.ScheduledEnd.Get()
	assert.Equal(t, time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC), *start)
	assert.Equal(t, time.Date(2024, 5, 8, 23, 59, 59, 999000000, time.UTC), *end)
	engine.AssertExpectations(t)
}

func TestPlanner_AllDaySlotEndingAtMidnight(t *testing.T) {
	loc := time.FixedZone("UTC-7", -7*60*60)
	cases := []struct {
		name       string
		start, end time.Time
		wantEnd    time.Time
	}{
		{
			name:    "one day",
			start:   time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC),
			end:     time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC),
			wantEnd: time.Date(2024, 5, 7, 23, 59, 59, 999000000, time.UTC),
		},
		{
			name:    "three days in a viewer zone",
			start:   time.Date(2024, 5, 7, 0, 0, 0, 0, loc),
			end:     time.Date(2024, 5, 10, 0, 0, 0, 0, loc),
			wantEnd: time.Date(2024, 5, 9, 23, 59, 59, 999000000, time.UTC),
		},
		{
			name:    "empty range keeps its day",
			start:   time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC),
			end:     time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC),
			wantEnd: time.Date(2024, 5, 7, 23, 59, 59, 999000000, time.UTC),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine := new(engineMock)
			planner := calendar.NewPlanner(engine)
			ctx := context.Background()

			var sent model.NewTask
			engine.On("Create", ctx, mock.AnythingOfType("model.NewTask")).
				Run(func(args mock.Arguments) { sent = args.Get(1).(model.NewTask) }).
				Return(&model.Task{ID: "new"}, nil)

			_, err := planner.CreateInSlot(ctx, calendar.Slot{Start: tc.start, End: tc.end}, model.NewTask{Title: "Retreat", IsAllDay: true})
			require.NoError(t, err)

			assert.Equal(t, time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC), *sent.ScheduledStart)
			assert.Equal(t, tc.wantEnd, *sent.ScheduledEnd)
		})
	}
}

func TestPlanner_MoveTimedNormalizesToUTC(t *testing.T) {
	engine := new(engineMock)
	planner := calendar.NewPlanner(engine)
	ctx := context.Background()
	loc := time.FixedZone("UTC+2", 2*60*60)

	engine.On("Get", ctx, "t1").Return(&model.Task{ID: "t1"}, nil)
	var sent model.TaskPatch
	engine.On("Update", ctx, "t1", mock.AnythingOfType("model.TaskPatch")).
		Run(func(args mock.Arguments) { sent = args.Get(2).(model.TaskPatch) }).
		Return(&model.Task{ID: "t1"}, nil)

	_, err := planner.Move(ctx, "t1", time.Date(2024, 5, 7, 11, 0, 0, 5, loc), time.Date(2024, 5, 7, 12, 0, 0, 0, loc))
	require.NoError(t, err)

	start, _ := sent.ScheduledStart.Get()
	assert.Equal(t, time.Date(2024, 5, 7, 9, 0, 0, 0, time.UTC), *start)
	assert.Equal(t, time.UTC, start.Location())
	_, allDaySet := sent.IsAllDay.Get()
	assert.False(t, allDaySet)
}

func TestPlanner_CycleStatus(t *testing.T) {
	cases := map[model.TaskStatus]model.TaskStatus{
		model.StatusTodo:       model.StatusInProgress,
		model.StatusInProgress: model.StatusDone,
		model.StatusDone:       model.StatusTodo,
	}
	for from, to := range cases {
		engine := new(engineMock)
		planner := calendar.NewPlanner(engine)
		ctx := context.Background()

		engine.On("Get", ctx, "t1").Return(&model.Task{ID: "t1", Status: from}, nil)
		engine.On("Update", ctx, "t1", model.TaskPatch{Status: model.Some(to)}).Return(&model.Task{ID: "t1", Status: to}, nil)

		got, err := planner.CycleStatus(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, to, got.Status)
		engine.AssertExpectations(t)
	}
}

func TestPlanner_CreateInSlot(t *testing.T) {
	engine := new(engineMock)
	planner := calendar.NewPlanner(engine)
	ctx := context.Background()
	slot := calendar.Slot{Start: *at(9), End: *at(10)}

	var sent model.NewTask
	engine.On("Create", ctx, mock.AnythingOfType("model.NewTask")).
		Run(func(args mock.Arguments) { sent = args.Get(1).(model.NewTask) }).
		Return(&model.Task{ID: "new"}, nil)

	_, err := planner.CreateInSlot(ctx, slot, model.NewTask{Title: "Visit"})
	require.NoError(t, err)

	assert.Equal(t, *at(9), *sent.ScheduledStart)
	assert.Equal(t, *at(10), *sent.ScheduledEnd)
	assert.Equal(t, *at(10), *sent.DueAt)
}

func TestPlanner_CreateInSlotRejectsReversedSlot(t *testing.T) {
	planner := calendar.NewPlanner(new(engineMock))

	_, err := planner.CreateInSlot(context.Background(), calendar.Slot{Start: *at(10), End: *at(9)}, model.NewTask{Title: "Visit"})

	assert.ErrorIs(t, err, repository.ErrInvalidRecord)
}

func TestPlanner_SetColorEmptyRestoresDefault(t *testing.T) {
	engine := new(engineMock)
	planner := calendar.NewPlanner(engine)
	ctx := context.Background()

	engine.On("Update", ctx, "t1", model.TaskPatch{Color: model.Some[*string](nil)}).Return(&model.Task{ID: "t1"}, nil)

	got, err := planner.SetColor(ctx, "t1", "  ")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultTaskColor, got.ResolvedColor())
}

func TestPlanner_ToggleBackup(t *testing.T) {
	engine := new(engineMock)
	planner := calendar.NewPlanner(engine)
	ctx := context.Background()

	engine.On("Get", ctx, "t1").Return(&model.Task{ID: "t1", Notes: "[backup] rain plan"}, nil)
	engine.On("Update", ctx, "t1", model.TaskPatch{IsBackup: model.Some(false), Notes: model.Some("rain plan")}).
		Return(&model.Task{ID: "t1", Notes: "rain plan"}, nil)

	_, err := planner.ToggleBackup(ctx, "t1")
	require.NoError(t, err)
	engine.AssertExpectations(t)
}

type failingStore struct {
	tasks []model.Task
}

func (s *failingStore) List(context.Context, string, model.TaskFilter) ([]model.Task, error) {
	return s.tasks, nil
}

func (s *failingStore) Get(context.Context, string, string) (*model.Task, error) {
	return nil, repository.ErrNotFound
}

func (s *failingStore) Create(context.Context, string, model.NewTask) (*model.Task, error) {
	return nil, fmt.Errorf("%w: offline", repository.ErrRemoteUnavailable)
}

func (s *failingStore) Update(context.Context, string, string, model.TaskPatch) (*model.Task, error) {
	return nil, fmt.Errorf("%w: offline", repository.ErrRemoteUnavailable)
}

func (s *failingStore) Delete(context.Context, string, string) error {
	return fmt.Errorf("%w: offline", repository.ErrRemoteUnavailable)
}

func TestPlanner_FailedDragLeavesTaskOffCalendar(t *testing.T) {
	store := &failingStore{tasks: []model.Task{{ID: "t1", OwnerUID: "owner-123", Title: "T1", Status: model.StatusTodo}}}
	engine := optimistic.NewEngine(store, auth.StaticSession("owner-123"), logger.Discard())
	planner := calendar.NewPlanner(engine)
	ctx := context.Background()

	events, err := planner.Events(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)

	_, err = planner.Move(ctx, "t1", *at(9), *at(10))
	assert.ErrorIs(t, err, repository.ErrRemoteUnavailable)

	events, err = planner.Events(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)
}
