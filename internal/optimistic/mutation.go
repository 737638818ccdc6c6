package optimistic

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"taskcalendar/internal/cache"
	"taskcalendar/internal/model"
)

type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Phase is a step of a mutation's lifecycle:
// Issued -> OptimisticApplied -> RemotePending -> SettledSuccess | SettledFailure.
// Create skips OptimisticApplied, and a mutation rejected up front goes
// straight from Issued to SettledFailure.
type Phase int

const (
	PhaseIssued Phase = iota
	PhaseOptimisticApplied
	PhaseRemotePending
	PhaseSettledSuccess
	PhaseSettledFailure
)

var phaseNames = [...]string{"issued", "optimistic_applied", "remote_pending", "settled_success", "settled_failure"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// Mutation is the observable state of one engine write.
type Mutation struct {
	ID     uint64
	Op     Op
	TaskID string
	Phase  Phase
	Err    error
	// Snapshot holds the visible lists taken right before the optimistic patch.
	Snapshot map[cache.Key][]model.Task
}

// Observer receives a copy of the mutation after every phase change.
type Observer func(Mutation)

type counter struct{ n atomic.Uint64 }

func (c *counter) next() uint64 { return c.n.Add(1) }

func (e *Engine) issue(op Op, taskID string) *Mutation {
	m := &Mutation{ID: e.mutations.next(), Op: op, TaskID: taskID, Phase: PhaseIssued}
	e.notify(m)
	return m
}

func (e *Engine) advance(m *Mutation, phase Phase) {
	m.Phase = phase
	e.notify(m)
}

// fail settles m with err and returns err unchanged.
func (e *Engine) fail(m *Mutation, err error) error {
	const op = "optimistic.Engine.fail"

	m.Err = err
	e.advance(m, PhaseSettledFailure)
	e.log.WithFields(logrus.Fields{
		"operation": op,
		"mutation":  m.ID,
		"op":        m.Op,
		"task_id":   m.TaskID,
	}).WithError(err).Info("mutation failed")
	return err
}

func (e *Engine) notify(m *Mutation) {
	if e.observer != nil {
		e.observer(*m)
	}
}
