package repository_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"taskcalendar/internal/model"
	"taskcalendar/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ownerUID = "owner-123"
	taskID   = "11111111-1111-1111-1111-111111111111"
)

var fixedNow = time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)

var taskColumns = []string{
	"id", "owner_uid", "contact_id", "title", "status", "priority", "due_at",
	"scheduled_start", "scheduled_end", "is_all_day", "is_backup", "color", "notes",
	"assigned_to", "shared_with", "created_at", "updated_at",
}

func taskRow(id, owner, status string, start, end *time.Time) []driver.Value {
	var s, e driver.Value
	if start != nil {
		s = *start
	}
	if end != nil {
		e = *end
	}
	return []driver.Value{
		id, owner, nil, "Call Ana", status, "medium", nil,
		s, e, false, false, nil, "",
		"{" + owner + "}", "{}", fixedNow, fixedNow,
	}
}

func newTaskRepo(t *testing.T) (*repository.TaskRepository, sqlmock.Sqlmock) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewTaskRepository(gormDB,
		repository.WithClock(func() time.Time { return fixedNow }),
		repository.WithIDGenerator(func() string { return taskID }),
	)
	return repo, mock
}

func TestTaskRepository_List_EmptyOwner(t *testing.T) {
	repo, mock := newTaskRepo(t)

	tasks, err := repo.List(context.Background(), "", model.TaskFilter{})

	assert.NoError(t, err)
	assert.Empty(t, tasks)
	assert.NotNil(t, tasks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_List_StatusFilter(t *testing.T) {
	repo, mock := newTaskRepo(t)

	mock.ExpectQuery(`SELECT \* FROM "tasks" WHERE .*status = .*ORDER BY due_at ASC NULLS LAST`).
		WillReturnRows(sqlmock.NewRows(taskColumns).AddRow(taskRow(taskID, ownerUID, "done", nil, nil)...))

	tasks, err := repo.List(context.Background(), ownerUID, model.TaskFilter{Status: model.StatusDone})

	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, model.StatusDone, tasks[0].Status)
	assert.Equal(t, []string{ownerUID}, []string(tasks[0].AssignedTo))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_List_InvalidRecord(t *testing.T) {
	repo, mock := newTaskRepo(t)

	mock.ExpectQuery(`SELECT \* FROM "tasks" WHERE owner_uid = `).
		WillReturnRows(sqlmock.NewRows(taskColumns).AddRow(taskRow(taskID, ownerUID, "blocked", nil, nil)...))

	tasks, err := repo.List(context.Background(), ownerUID, model.TaskFilter{Status: model.FilterAll})

	assert.ErrorIs(t, err, repository.ErrInvalidRecord)
	assert.Nil(t, tasks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_List_RemoteUnavailable(t *testing.T) {
	repo, mock := newTaskRepo(t)

	mock.ExpectQuery(`SELECT \* FROM "tasks"`).WillReturnError(errors.New("connection refused"))

	_, err := repo.List(context.Background(), ownerUID, model.TaskFilter{})

	assert.ErrorIs(t, err, repository.ErrRemoteUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Create_AppliesDefaults(t *testing.T) {
	repo, mock := newTaskRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "tasks"`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	task, err := repo.Create(context.Background(), ownerUID, model.NewTask{Title: "Call Ana"})

	require.NoError(t, err)
	assert.Equal(t, taskID, task.ID)
	assert.Equal(t, ownerUID, task.OwnerUID)
	assert.Equal(t, model.StatusTodo, task.Status)
	assert.Equal(t, model.PriorityMedium, task.Priority)
	assert.Equal(t, []string{ownerUID}, []string(task.AssignedTo))
	assert.False(t, task.IsAllDay)
	assert.False(t, task.IsBackup)
	assert.Nil(t, task.Color)
	assert.Equal(t, fixedNow, task.CreatedAt)
	assert.Equal(t, fixedNow, task.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Create_Unauthorized(t *testing.T) {
	repo, mock := newTaskRepo(t)

	task, err := repo.Create(context.Background(), "", model.NewTask{Title: "Call Ana"})

	assert.ErrorIs(t, err, repository.ErrUnauthorized)
	assert.Nil(t, task)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Update_Merges(t *testing.T) {
	repo, mock := newTaskRepo(t)
	start := time.Date(2024, 5, 7, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "tasks" WHERE id = .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(taskColumns).AddRow(taskRow(taskID, ownerUID, "todo", nil, nil)...))
	mock.ExpectExec(`UPDATE "tasks" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	patch := model.TaskPatch{
		ScheduledStart: model.Some(&start),
		ScheduledEnd:   model.Some(&end),
	}
	task, err := repo.Update(context.Background(), ownerUID, taskID, patch)

	require.NoError(t, err)
	assert.Equal(t, "Call Ana", task.Title)
	require.NotNil(t, task.ScheduledStart)
	assert.True(t, start.Equal(*task.ScheduledStart))
	assert.True(t, end.Equal(*task.ScheduledEnd))
	assert.Equal(t, fixedNow, task.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Update_NotOwner(t *testing.T) {
	repo, mock := newTaskRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "tasks" WHERE id = `).
		WillReturnRows(sqlmock.NewRows(taskColumns).AddRow(taskRow(taskID, "someone-else", "todo", nil, nil)...))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), ownerUID, taskID, model.TaskPatch{Title: model.Some("x")})

	assert.ErrorIs(t, err, repository.ErrUnauthorized)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Update_NotFound(t *testing.T) {
	repo, mock := newTaskRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "tasks" WHERE id = `).WillReturnRows(sqlmock.NewRows(taskColumns))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), ownerUID, taskID, model.TaskPatch{Title: model.Some("x")})

	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Update_MergedScheduleOutOfOrder(t *testing.T) {
	repo, mock := newTaskRepo(t)
	start := time.Date(2024, 5, 7, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	late := end.Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "tasks" WHERE id = `).
		WillReturnRows(sqlmock.NewRows(taskColumns).AddRow(taskRow(taskID, ownerUID, "todo", &start, &end)...))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), ownerUID, taskID, model.TaskPatch{ScheduledStart: model.Some(&late)})

	assert.ErrorIs(t, err, repository.ErrInvalidRecord)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Update_RejectsBadPatch(t *testing.T) {
	repo, mock := newTaskRepo(t)

	_, err := repo.Update(context.Background(), ownerUID, taskID, model.TaskPatch{Status: model.Some(model.TaskStatus("blocked"))})

	assert.ErrorIs(t, err, repository.ErrInvalidRecord)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Get_MalformedIDIsInvalid(t *testing.T) {
	repo, mock := newTaskRepo(t)
	mock.ExpectQuery(`SELECT \* FROM "tasks"`).
		WillReturnError(&pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`})

	_, err := repo.Get(context.Background(), ownerUID, "abc")

	assert.ErrorIs(t, err, repository.ErrInvalidRecord)
	assert.NotErrorIs(t, err, repository.ErrRemoteUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Delete(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		repo, mock := newTaskRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "tasks" WHERE id = .* AND owner_uid = `).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		assert.NoError(t, repo.Delete(context.Background(), ownerUID, taskID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		repo, mock := newTaskRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "tasks"`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		assert.ErrorIs(t, repo.Delete(context.Background(), ownerUID, taskID), repository.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no owner", func(t *testing.T) {
		repo, mock := newTaskRepo(t)

		assert.ErrorIs(t, repo.Delete(context.Background(), "", taskID), repository.ErrUnauthorized)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
