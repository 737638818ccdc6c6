package model

import (
	"time"

	"github.com/lib/pq"
)

type GoalMetric string

const (
	MetricPhysical     GoalMetric = "physical"
	MetricIntellectual GoalMetric = "intellectual"
	MetricSocial       GoalMetric = "social"
	MetricFinancial    GoalMetric = "financial"
	MetricSpiritual    GoalMetric = "spiritual"
	MetricEmotional    GoalMetric = "emotional"
	MetricCareer       GoalMetric = "career"
	MetricPersonal     GoalMetric = "personal"
)

const DefaultGoalUnit = "sessions"

type Goal struct {
	ID          string         `gorm:"type:uuid;primaryKey" json:"id" validate:"required,min=4"`
	OwnerUID    string         `gorm:"not null;index" json:"ownerUid" validate:"required,min=6"`
	Metric      GoalMetric     `gorm:"not null" json:"metric" validate:"oneof=physical intellectual social financial spiritual emotional career personal"`
	Title       string         `gorm:"not null" json:"title" validate:"min=2"`
	Target      float64        `gorm:"not null" json:"target" validate:"gte=0"`
	Progress    float64        `gorm:"not null" json:"progress" validate:"gte=0"`
	Unit        string         `gorm:"not null" json:"unit"`
	PeriodStart time.Time      `gorm:"not null" json:"periodStart" validate:"required"`
	PeriodEnd   time.Time      `gorm:"not null" json:"periodEnd" validate:"required"`
	SharedWith  pq.StringArray `gorm:"type:text[]" json:"sharedWith"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func (g Goal) GetID() string    { return g.ID }
func (g Goal) GetOwner() string { return g.OwnerUID }

// Completion is progress over target, capped at 1. A zero target counts as complete.
func (g Goal) Completion() float64 {
	if g.Target <= 0 {
		return 1
	}
	ratio := g.Progress / g.Target
	if ratio > 1 {
		return 1
	}
	return ratio
}

type NewGoal struct {
	Metric      GoalMetric `json:"metric" binding:"required,oneof=physical intellectual social financial spiritual emotional career personal"`
	Title       string     `json:"title" binding:"required,min=2"`
	Target      float64    `json:"target" binding:"gte=0"`
	Unit        string     `json:"unit"`
	PeriodStart time.Time  `json:"periodStart" binding:"required"`
	PeriodEnd   time.Time  `json:"periodEnd" binding:"required"`
}

func (n NewGoal) Build(id, ownerUID string, now time.Time) Goal {
	unit := n.Unit
	if unit == "" {
		unit = DefaultGoalUnit
	}
	return Goal{
		ID:          id,
		OwnerUID:    ownerUID,
		Metric:      n.Metric,
		Title:       n.Title,
		Target:      n.Target,
		Progress:    0,
		Unit:        unit,
		PeriodStart: n.PeriodStart,
		PeriodEnd:   n.PeriodEnd,
		SharedWith:  pq.StringArray{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

type GoalPatch struct {
	Title       Optional[string]     `json:"title"`
	Target      Optional[float64]    `json:"target"`
	Progress    Optional[float64]    `json:"progress"`
	Unit        Optional[string]     `json:"unit"`
	Metric      Optional[GoalMetric] `json:"metric"`
	PeriodStart Optional[time.Time]  `json:"periodStart"`
	PeriodEnd   Optional[time.Time]  `json:"periodEnd"`
}

var _ Patch[Goal] = GoalPatch{}

func (p GoalPatch) Columns() map[string]any {
	cols := make(map[string]any)
	setColumn(cols, "title", p.Title)
	setColumn(cols, "target", p.Target)
	setColumn(cols, "progress", p.Progress)
	setColumn(cols, "unit", p.Unit)
	setColumn(cols, "metric", p.Metric)
	setColumn(cols, "period_start", p.PeriodStart)
	setColumn(cols, "period_end", p.PeriodEnd)
	return cols
}

func (p GoalPatch) ApplyTo(g Goal) Goal {
	applyField(&g.Title, p.Title)
	applyField(&g.Target, p.Target)
	applyField(&g.Progress, p.Progress)
	applyField(&g.Unit, p.Unit)
	applyField(&g.Metric, p.Metric)
	applyField(&g.PeriodStart, p.PeriodStart)
	applyField(&g.PeriodEnd, p.PeriodEnd)
	return g
}
