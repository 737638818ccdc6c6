// Package optimistic applies task mutations to the query cache before the
// store confirms them and reconciles the cache once the store answers.
package optimistic

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"taskcalendar/internal/auth"
	"taskcalendar/internal/cache"
	"taskcalendar/internal/model"
	"taskcalendar/internal/realtime"
	"taskcalendar/internal/repository"
)

// KindTasks is the cache kind of task lists.
const KindTasks = "tasks"

// Engine serves task reads from the cache and runs mutations optimistically.
type Engine struct {
	store     repository.TaskStore
	session   auth.Session
	cache     *cache.Cache[[]model.Task]
	log       *logrus.Entry
	observer  Observer
	publisher realtime.Publisher
	mutations *counter
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver reports every mutation phase change to obs.
func WithObserver(obs Observer) Option {
	return func(e *Engine) { e.observer = obs }
}

// WithPublisher announces successful mutations on p.
func WithPublisher(p realtime.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithCache shares an existing task cache.
func WithCache(c *cache.Cache[[]model.Task]) Option {
	return func(e *Engine) { e.cache = c }
}

func NewEngine(store repository.TaskStore, session auth.Session, log *logrus.Entry, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		session:   session,
		cache:     NewTaskCache(),
		log:       log.WithField("component", "optimistic"),
		mutations: &counter{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewTaskCache returns a cache of task lists that deep-copies on every read.
func NewTaskCache() *cache.Cache[[]model.Task] {
	return cache.New(cloneTasks)
}

// Cache exposes the engine's task cache.
func (e *Engine) Cache() *cache.Cache[[]model.Task] {
	return e.cache
}

// List returns the visible task list for filter, fetching it when the cached
// copy is missing or stale. Without a signed-in user the list is empty.
func (e *Engine) List(ctx context.Context, filter model.TaskFilter) ([]model.Task, error) {
	owner, ok := e.session.CurrentUser(ctx)
	if !ok {
		return []model.Task{}, nil
	}

	key := cache.KeyFor(KindTasks, owner, filter.Key())
	if e.cache.Fresh(key) {
		tasks, _ := e.cache.Get(key)
		return tasks, nil
	}
	return e.fetch(ctx, owner, key)
}

// Get returns one task as currently visible, including pending patches.
func (e *Engine) Get(ctx context.Context, id string) (*model.Task, error) {
	if _, ok := e.session.CurrentUser(ctx); !ok {
		return nil, repository.ErrUnauthorized
	}

	tasks, err := e.List(ctx, model.TaskFilter{})
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if t.ID == id {
			found := t
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

// Create writes a new task, then refreshes every cached task list.
func (e *Engine) Create(ctx context.Context, input model.NewTask) (*model.Task, error) {
	m := e.issue(OpCreate, "")
	owner, ok := e.session.CurrentUser(ctx)
	if !ok {
		return nil, e.fail(m, repository.ErrUnauthorized)
	}

	e.advance(m, PhaseRemotePending)
	task, err := e.store.Create(ctx, owner, input)
	if err != nil {
		return nil, e.fail(m, err)
	}
	m.TaskID = task.ID

	e.refresh(ctx, owner)
	e.advance(m, PhaseSettledSuccess)
	e.announce(realtime.EventCreated, owner, task.ID, task)
	return task, nil
}

// Update merges patch into the cached copies of the task, writes it, and
// either confirms or rolls back the optimistic patch.
func (e *Engine) Update(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	m := e.issue(OpUpdate, id)
	owner, ok := e.session.CurrentUser(ctx)
	if !ok {
		return nil, e.fail(m, repository.ErrUnauthorized)
	}
	if err := patch.Validate(); err != nil {
		return nil, e.fail(m, fmt.Errorf("%w: %v", repository.ErrInvalidRecord, err))
	}

	pid := e.apply(m, owner, func(key cache.Key, tasks []model.Task) []model.Task {
		return mergeTask(key, tasks, id, patch)
	})

	task, err := e.store.Update(ctx, owner, id, patch)
	if err != nil {
		e.cache.Rollback(pid)
		return nil, e.fail(m, err)
	}

	e.settle(ctx, m, owner, pid)
	e.announce(realtime.EventUpdated, owner, id, task)
	return task, nil
}

// Delete removes the task from the cached lists and from the store. Deleting
// a task the store no longer has succeeds.
func (e *Engine) Delete(ctx context.Context, id string) error {
	m := e.issue(OpDelete, id)
	owner, ok := e.session.CurrentUser(ctx)
	if !ok {
		return e.fail(m, repository.ErrUnauthorized)
	}

	pid := e.apply(m, owner, func(_ cache.Key, tasks []model.Task) []model.Task {
		return removeTask(tasks, id)
	})

	err := e.store.Delete(ctx, owner, id)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		e.cache.Rollback(pid)
		return e.fail(m, err)
	}

	e.settle(ctx, m, owner, pid)
	e.announce(realtime.EventDeleted, owner, id, &model.Task{ID: id, SharedWith: sharedWith(m.Snapshot, id)})
	return nil
}

// apply cancels in-flight fetches for the owner's task lists, snapshots them
// and patches every cached list in one step.
func (e *Engine) apply(m *Mutation, owner string, fn cache.PatchFunc[[]model.Task]) cache.PatchID {
	snap, pid := e.cache.Apply(cache.Prefix(KindTasks, owner), fn)
	m.Snapshot = snap
	e.advance(m, PhaseOptimisticApplied)
	e.advance(m, PhaseRemotePending)
	return pid
}

func (e *Engine) settle(ctx context.Context, m *Mutation, owner string, pid cache.PatchID) {
	e.cache.Settle(pid)
	e.refresh(ctx, owner)
	e.advance(m, PhaseSettledSuccess)
}

// refresh invalidates and refetches every cached list of owner. Failures are
// logged; the stale lists are fetched again on the next read.
func (e *Engine) refresh(ctx context.Context, owner string) {
	const op = "optimistic.Engine.refresh"
	ctx = context.WithoutCancel(ctx)

	var result *multierror.Error
	for _, key := range e.cache.Invalidate(cache.Prefix(KindTasks, owner)) {
		if _, err := e.fetch(ctx, owner, key); err != nil {
			result = multierror.Append(result, fmt.Errorf("refetch %s: %w", key, err))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		e.log.WithField("operation", op).WithError(err).Warn("task lists left stale")
	}
}

func (e *Engine) fetch(ctx context.Context, owner string, key cache.Key) ([]model.Task, error) {
	token := e.cache.BeginFetch(key)
	tasks, err := e.store.List(ctx, owner, filterOf(key))
	if err != nil {
		e.cache.AbortFetch(key, token)
		return nil, err
	}
	e.cache.CompleteFetch(key, token, tasks)
	if visible, ok := e.cache.Get(key); ok {
		return visible, nil
	}
	return cloneTasks(tasks), nil
}

func (e *Engine) announce(eventType, owner, id string, task *model.Task) {
	if e.publisher == nil {
		return
	}
	ev := realtime.Event{Type: eventType, Kind: KindTasks, ID: id, Owner: owner}
	if task != nil {
		if eventType != realtime.EventDeleted {
			ev.Payload = task
		}
		ev.Audience = append([]string(nil), task.SharedWith...)
	}
	e.publisher.Publish(ev)
}

// sharedWith finds the collaborators of task id in a pre-mutation snapshot.
func sharedWith(snap map[cache.Key][]model.Task, id string) []string {
	for _, tasks := range snap {
		for _, t := range tasks {
			if t.ID == id {
				return t.SharedWith
			}
		}
	}
	return nil
}

func filterOf(key cache.Key) model.TaskFilter {
	if key.Filter == model.FilterAll {
		return model.TaskFilter{}
	}
	return model.TaskFilter{Status: model.TaskStatus(key.Filter)}
}

// mergeTask applies patch to the task with id and drops it from lists whose
// filter it no longer matches.
func mergeTask(key cache.Key, tasks []model.Task, id string, patch model.TaskPatch) []model.Task {
	filter := filterOf(key)
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID == id {
			t = patch.ApplyTo(t)
			if !filter.Matches(t) {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

func removeTask(tasks []model.Task, id string) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

func cloneTasks(in []model.Task) []model.Task {
	if in == nil {
		return nil
	}
	out := make([]model.Task, len(in))
	for i, t := range in {
		out[i] = t.Clone()
	}
	return out
}
