// Package activity defines the activity records the metrics and retrieval
// layers consume, and the owner-scoped store boundary they are read through.
package activity

import (
	"context"
	"errors"
	"time"
)

// ErrEmptyOwner is returned when an operation is attempted without an owner.
var ErrEmptyOwner = errors.New("owner id required")

// ErrNotFound is returned when a record does not exist for the owner.
var ErrNotFound = errors.New("record not found")

// OwnerID identifies the user that owns a record.
type OwnerID string

// Valid reports whether the owner id is usable for a scoped query.
func (o OwnerID) Valid() bool { return o != "" }

// Kind classifies an activity event.
type Kind string

const (
	KindTask     Kind = "task"
	KindPomodoro Kind = "pomodoro"
	KindWorkout  Kind = "workout"
	KindHealth   Kind = "health"
	KindNote     Kind = "note"
)

// Project groups tasks and pomodoro sessions for one owner.
type Project struct {
	ID          int64     `json:"id"`
	OwnerID     OwnerID   `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Task is a to-do item. CompletedAt is set when the task is completed.
type Task struct {
	ID          int64      `json:"id"`
	OwnerID     OwnerID    `json:"owner_id"`
	ProjectID   *int64     `json:"project_id,omitempty"`
	Content     string     `json:"content"`
	TaskDate    *time.Time `json:"task_date,omitempty"`
	Completed   bool       `json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Points      int        `json:"points"`
	Order       int        `json:"order"`
}

// Pomodoro is a focus session. Date carries only a civil date.
type Pomodoro struct {
	ID              int64     `json:"id"`
	OwnerID         OwnerID   `json:"owner_id"`
	ProjectID       *int64    `json:"project_id,omitempty"`
	Date            time.Time `json:"date"`
	DurationMinutes int       `json:"duration_minutes"`
}

// ExerciseLog is one exercise performed during a workout.
type ExerciseLog struct {
	ID           int64   `json:"id"`
	WorkoutID    int64   `json:"workout_id"`
	ExerciseName string  `json:"exercise_name"`
	Sets         int     `json:"sets"`
	Reps         string  `json:"reps"`
	Weight       float64 `json:"weight"`
	VolumeLoad   float64 `json:"volume_load"`
}

// Workout is a logged training session.
type Workout struct {
	ID              int64         `json:"id"`
	OwnerID         OwnerID       `json:"owner_id"`
	Date            time.Time     `json:"date"`
	Name            string        `json:"name"`
	DurationMinutes int           `json:"duration_minutes"`
	Note            string        `json:"note,omitempty"`
	Exercises       []ExerciseLog `json:"exercises"`
}

// TotalVolume sums the volume load of every exercise in the workout.
func (w Workout) TotalVolume() float64 {
	var total float64
	for _, ex := range w.Exercises {
		total += ex.VolumeLoad
	}
	return total
}

// HealthEntry is a daily sleep and mood record.
type HealthEntry struct {
	ID         int64     `json:"id"`
	OwnerID    OwnerID   `json:"owner_id"`
	Date       time.Time `json:"date"`
	SleepHours float64   `json:"sleep_hours"`
	MoodScore  float64   `json:"mood_score"`
	Note       string    `json:"note,omitempty"`
}

// Midnight returns the civil date of t at 00:00 in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DateIn returns the civil date of t at 00:00 in loc. Stored dates come back
// in UTC and must be moved to the caller's location before comparison.
func DateIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Reader is the read side of the activity store. Every query is scoped to
// an owner; implementations must never return another owner's records.
type Reader interface {
	ListProjects(ctx context.Context, owner OwnerID) ([]Project, error)
	TasksByProject(ctx context.Context, owner OwnerID, projectID int64) ([]Task, error)
	TasksByDate(ctx context.Context, owner OwnerID, date time.Time) ([]Task, error)
	CompletedTasksSince(ctx context.Context, owner OwnerID, since time.Time) ([]Task, error)
	PomodorosByProject(ctx context.Context, owner OwnerID, projectID int64) ([]Pomodoro, error)
	PomodorosSince(ctx context.Context, owner OwnerID, since time.Time) ([]Pomodoro, error)
	HealthEntriesSince(ctx context.Context, owner OwnerID, since time.Time) ([]HealthEntry, error)
	WorkoutsSince(ctx context.Context, owner OwnerID, since time.Time) ([]Workout, error)
}

// Writer records new activity. Records are immutable once written, apart
// from task completion.
type Writer interface {
	CreateProject(ctx context.Context, p *Project) error
	CreateTask(ctx context.Context, t *Task) error
	CompleteTask(ctx context.Context, owner OwnerID, taskID int64, at time.Time) error
	CreatePomodoro(ctx context.Context, p *Pomodoro) error
	CreateWorkout(ctx context.Context, w *Workout) error
	CreateHealthEntry(ctx context.Context, h *HealthEntry) error
}
