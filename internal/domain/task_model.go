package domain

import (
	"errors"
	"fmt"
	"time"

	"deco-planner/pkg/scuba"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusSuccess    TaskStatus = "success"
	TaskStatusError      TaskStatus = "error"
	TaskStatusDeleted    TaskStatus = "deleted"
)

var ErrNotFound = errors.New("not found")

// Task задача расчета погружения. Request хранится целиком, чтобы воркер
// мог пересчитать план без обращения к API.
type Task struct {
	ID          string             `rethinkdb:"id,omitempty" json:"id" msgpack:"id"`
	Name        string             `rethinkdb:"name" json:"name" msgpack:"name"`
	Status      TaskStatus         `rethinkdb:"status" json:"status" msgpack:"status"`
	Request     *scuba.PlanRequest `rethinkdb:"request,omitempty" json:"request,omitempty" msgpack:"request,omitempty"`
	ResultID    string             `rethinkdb:"result_id,omitempty" json:"result_id,omitempty" msgpack:"result_id,omitempty"`
	Error       string             `rethinkdb:"error,omitempty" json:"error,omitempty" msgpack:"error,omitempty"`
	WorkerID    string             `rethinkdb:"worker_id,omitempty" json:"worker_id,omitempty" msgpack:"worker_id,omitempty"`
	Attempt     int                `rethinkdb:"attempt,omitempty" json:"attempt,omitempty" msgpack:"attempt,omitempty"`
	CreatedAt   time.Time          `rethinkdb:"created_at" json:"created_at" msgpack:"created_at"`
	UpdatedAt   time.Time          `rethinkdb:"updated_at" json:"updated_at" msgpack:"updated_at"`
	CompletedAt *time.Time         `rethinkdb:"completed_at,omitempty" json:"completed_at,omitempty" msgpack:"completed_at,omitempty"`
	DeletedAt   *time.Time         `rethinkdb:"deleted_at,omitempty" json:"deleted_at,omitempty" msgpack:"deleted_at,omitempty"`
}

// Result рассчитанное погружение задачи.
type Result struct {
	ID        string            `rethinkdb:"id,omitempty" json:"id" msgpack:"id"`
	TaskID    string            `rethinkdb:"task_id" json:"task_id" msgpack:"task_id"`
	Dive      *scuba.DiveResult `rethinkdb:"dive" json:"dive" msgpack:"dive"`
	CreatedAt time.Time         `rethinkdb:"created_at" json:"created_at" msgpack:"created_at"`
	UpdatedAt time.Time         `rethinkdb:"updated_at" json:"updated_at" msgpack:"updated_at"`
}

// TaskMessage сообщение очереди о новой задаче.
type TaskMessage struct {
	TaskID    string    `msgpack:"task_id" json:"task_id"`
	Timestamp time.Time `msgpack:"timestamp" json:"timestamp"`
}

// CreatePlanRequest запрос API на расчет. План задается либо уровнями,
// либо готовыми участками. Без options и diver берутся значения из конфигурации.
type CreatePlanRequest struct {
	Name     string         `json:"name" validate:"max=200"`
	Tanks    []scuba.Tank   `json:"tanks" validate:"required,min=1,max=10"`
	Levels   []scuba.Level  `json:"levels,omitempty" validate:"required_without=Segments,max=100"`
	Segments scuba.Segments `json:"segments,omitempty" validate:"required_without=Levels,max=200"`
	Options  *scuba.Options `json:"options,omitempty"`
	Diver    *scuba.Diver   `json:"diver,omitempty"`
}

// ToPlanRequest собирает запрос движку. Уровни без смеси получают смесь
// и баллон первого баллона.
func (r CreatePlanRequest) ToPlanRequest(options scuba.Options, diver scuba.Diver) (*scuba.PlanRequest, error) {
	if r.Options != nil {
		options = *r.Options
	}
	if r.Diver != nil {
		diver = *r.Diver
	}
	if len(r.Tanks) == 0 {
		return nil, fmt.Errorf("%w: no tanks", scuba.ErrInvalidTank)
	}

	plan := r.Segments.Copy()
	if len(plan) == 0 {
		levels := WithDefaultTank(r.Levels, r.Tanks[0])
		var err error
		plan, err = scuba.LevelPlan(levels, options)
		if err != nil {
			return nil, err
		}
	}

	request := &scuba.PlanRequest{
		Tanks:   r.Tanks,
		Plan:    plan,
		Options: options,
		Diver:   diver,
	}
	if err := request.Validate(); err != nil {
		return nil, err
	}
	return request, nil
}

// WithDefaultTank копия уровней, где пустая смесь заменена смесью баллона.
func WithDefaultTank(levels []scuba.Level, tank scuba.Tank) []scuba.Level {
	filled := make([]scuba.Level, len(levels))
	for i, level := range levels {
		if level.Gas == (scuba.Gas{}) {
			level.Gas = tank.Gas
			if level.TankID == 0 {
				level.TankID = tank.ID
			}
		}
		filled[i] = level
	}
	return filled
}

// RenameTaskRequest изменение имени задачи, остальные поля задачи неизменяемы.
type RenameTaskRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}
