package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"taskcalendar/internal/handler"
	"taskcalendar/internal/logger"
	"taskcalendar/internal/middleware"
	"taskcalendar/internal/model"
	"taskcalendar/internal/repository"
)

const (
	userID = "6f1c2a4e-3b7d-4c1e-9a55-0d2f7e8b9c10"
	taskID = "0b7e4c2a-9d31-4f6e-8a12-5c3d7e9f1a20"
)

type MockTaskEngine struct {
	mock.Mock
}

func (m *MockTaskEngine) List(ctx context.Context, filter model.TaskFilter) ([]model.Task, error) {
	args := m.Called(ctx, filter)
	tasks, _ := args.Get(0).([]model.Task)
	return tasks, args.Error(1)
}

func (m *MockTaskEngine) Get(ctx context.Context, id string) (*model.Task, error) {
	args := m.Called(ctx, id)
	task, _ := args.Get(0).(*model.Task)
	return task, args.Error(1)
}

func (m *MockTaskEngine) Create(ctx context.Context, input model.NewTask) (*model.Task, error) {
	args := m.Called(ctx, input)
	task, _ := args.Get(0).(*model.Task)
	return task, args.Error(1)
}

func (m *MockTaskEngine) Update(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	args := m.Called(ctx, id, patch)
	task, _ := args.Get(0).(*model.Task)
	return task, args.Error(1)
}

func (m *MockTaskEngine) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTaskEngine) ListShared(ctx context.Context, uid string) ([]model.Task, error) {
	args := m.Called(ctx, uid)
	tasks, _ := args.Get(0).([]model.Task)
	return tasks, args.Error(1)
}

// signedIn stands in for JWTAuthMiddleware.
func signedIn(c *gin.Context) {
	c.Set(middleware.UserIDKey, userID)
	c.Next()
}

func setupTaskTest() (*gin.Engine, *MockTaskEngine) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	engine := new(MockTaskEngine)
	h := handler.NewTaskHandler(engine, engine, logger.Discard())

	authorized := r.Group("/", signedIn)
	authorized.GET("/tasks", h.List)
	authorized.GET("/tasks/shared", h.Shared)
	authorized.GET("/tasks/:id", h.GetByID)
	authorized.POST("/tasks", h.Create)
	authorized.PATCH("/tasks/:id", h.Update)
	authorized.DELETE("/tasks/:id", h.Delete)
	return r, engine
}

func do(router http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func errorOf(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	msg, _ := body["error"].(string)
	return msg
}

func TestTaskHandler_ListByStatus(t *testing.T) {
	router, engine := setupTaskTest()

	engine.On("List", mock.Anything, model.TaskFilter{Status: model.StatusDone}).
		Return([]model.Task{{ID: "t1", Title: "Visit", Status: model.StatusDone}}, nil)

	resp := do(router, http.MethodGet, "/tasks?status=done", nil)

	assert.Equal(t, http.StatusOK, resp.Code)
	var tasks []model.Task
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "t1", tasks[0].ID)
	engine.AssertExpectations(t)
}

func TestTaskHandler_ListRejectsUnknownStatus(t *testing.T) {
	router, engine := setupTaskTest()

	resp := do(router, http.MethodGet, "/tasks?status=someday", nil)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	engine.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestTaskHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{repository.ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("get task: %w", repository.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: bad color", repository.ErrInvalidRecord), http.StatusBadRequest},
		{repository.ErrRemoteUnavailable, http.StatusServiceUnavailable},
		{repository.ErrInviteHandled, http.StatusConflict},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprint(tc.status), func(t *testing.T) {
			router, engine := setupTaskTest()
			engine.On("Get", mock.Anything, taskID).Return(nil, tc.err)

			resp := do(router, http.MethodGet, "/tasks/"+taskID, nil)

			assert.Equal(t, tc.status, resp.Code)
			assert.NotEmpty(t, errorOf(t, resp))
		})
	}
}

func TestTaskHandler_Create(t *testing.T) {
	router, engine := setupTaskTest()

	engine.On("Create", mock.Anything, mock.MatchedBy(func(in model.NewTask) bool {
		return in.Title == "Call Sam" && in.Priority == model.PriorityHigh
	})).Return(&model.Task{ID: "t9", Title: "Call Sam"}, nil)

	resp := do(router, http.MethodPost, "/tasks", []byte(`{"title":"Call Sam","priority":"high"}`))

	assert.Equal(t, http.StatusCreated, resp.Code)
	engine.AssertExpectations(t)
}

func TestTaskHandler_CreateRequiresTitle(t *testing.T) {
	router, engine := setupTaskTest()

	resp := do(router, http.MethodPost, "/tasks", []byte(`{"priority":"high"}`))

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Invalid request", errorOf(t, resp))
	engine.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTaskHandler_UpdatePassesNullAsClear(t *testing.T) {
	router, engine := setupTaskTest()

	engine.On("Update", mock.Anything, taskID, mock.MatchedBy(func(p model.TaskPatch) bool {
		v, set := p.DueAt.Get()
		return set && v == nil && !p.Title.IsSet()
	})).Return(&model.Task{ID: taskID}, nil)

	resp := do(router, http.MethodPatch, "/tasks/"+taskID, []byte(`{"dueAt":null}`))

	assert.Equal(t, http.StatusOK, resp.Code)
	engine.AssertExpectations(t)
}

func TestTaskHandler_UpdateRejectsEmptyPatch(t *testing.T) {
	router, engine := setupTaskTest()

	resp := do(router, http.MethodPatch, "/tasks/"+taskID, []byte(`{}`))

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "No fields to update", errorOf(t, resp))
	engine.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestTaskHandler_Delete(t *testing.T) {
	router, engine := setupTaskTest()
	engine.On("Delete", mock.Anything, taskID).Return(nil)

	resp := do(router, http.MethodDelete, "/tasks/"+taskID, nil)

	assert.Equal(t, http.StatusNoContent, resp.Code)
	engine.AssertExpectations(t)
}

func TestTaskHandler_RejectsMalformedID(t *testing.T) {
	cases := []struct {
		method string
		body   []byte
	}{
		{http.MethodGet, nil},
		{http.MethodPatch, []byte(`{"title":"x"}`)},
		{http.MethodDelete, nil},
	}
	for _, tc := range cases {
		t.Run(tc.method, func(t *testing.T) {
			router, engine := setupTaskTest()

			resp := do(router, tc.method, "/tasks/abc", tc.body)

			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.Equal(t, "Invalid task ID format", errorOf(t, resp))
			engine.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
			engine.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
			engine.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		})
	}
}

func TestTaskHandler_SharedUsesCaller(t *testing.T) {
	router, engine := setupTaskTest()
	engine.On("ListShared", mock.Anything, userID).Return([]model.Task{}, nil)

	resp := do(router, http.MethodGet, "/tasks/shared", nil)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `[]`, resp.Body.String())
	engine.AssertExpectations(t)
}
