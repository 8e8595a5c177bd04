package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/motivaitor/insight/internal/activity"
)

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func ptrInt64(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

// CreateProject inserts a project and sets its ID.
func (db *DB) CreateProject(ctx context.Context, p *activity.Project) error {
	if !p.OwnerID.Valid() {
		return activity.ErrEmptyOwner
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	result, err := db.ExecContext(ctx, `
		INSERT INTO projects (owner_id, name, description, color, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.OwnerID, p.Name, p.Description, p.Color, millis(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	p.ID, _ = result.LastInsertId()
	return nil
}

// ListProjects returns the owner's projects, oldest first.
func (db *DB) ListProjects(ctx context.Context, owner activity.OwnerID) ([]activity.Project, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, owner_id, name, COALESCE(description, ''), COALESCE(color, ''), created_at
		FROM projects WHERE owner_id = ?
		ORDER BY created_at, id
	`, owner)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []activity.Project
	for rows.Next() {
		var p activity.Project
		var created int64
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.Color, &created); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		p.CreatedAt = fromMillis(created)
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// CreateTask inserts a task and sets its ID.
func (db *DB) CreateTask(ctx context.Context, t *activity.Task) error {
	if !t.OwnerID.Valid() {
		return activity.ErrEmptyOwner
	}
	var taskDate sql.NullString
	if t.TaskDate != nil {
		taskDate = sql.NullString{String: formatDate(*t.TaskDate), Valid: true}
	}
	var completedAt sql.NullInt64
	if t.CompletedAt != nil {
		completedAt = sql.NullInt64{Int64: millis(*t.CompletedAt), Valid: true}
	}

	result, err := db.ExecContext(ctx, `
		INSERT INTO tasks (owner_id, project_id, content, task_date, is_completed, completed_at, points, sort_order)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, t.OwnerID, nullInt64(t.ProjectID), t.Content, taskDate, t.Completed, completedAt, t.Points, t.Order)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	t.ID, _ = result.LastInsertId()
	return nil
}

// CompleteTask marks one of the owner's tasks completed at the given time.
func (db *DB) CompleteTask(ctx context.Context, owner activity.OwnerID, taskID int64, at time.Time) error {
	result, err := db.ExecContext(ctx, `
		UPDATE tasks SET is_completed = 1, completed_at = ?
		WHERE id = ? AND owner_id = ?
	`, millis(at), taskID, owner)
	if err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return activity.ErrNotFound
	}
	return nil
}

const taskColumns = `id, owner_id, project_id, content, task_date, is_completed, completed_at, points, sort_order`

// TasksByProject returns the owner's tasks in a project.
func (db *DB) TasksByProject(ctx context.Context, owner activity.OwnerID, projectID int64) ([]activity.Task, error) {
	return db.queryTasks(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE owner_id = ? AND project_id = ?
		ORDER BY sort_order, id
	`, owner, projectID)
}

// TasksByDate returns the owner's tasks scheduled for the civil date of date.
func (db *DB) TasksByDate(ctx context.Context, owner activity.OwnerID, date time.Time) ([]activity.Task, error) {
	return db.queryTasks(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE owner_id = ? AND task_date = ?
		ORDER BY sort_order, id
	`, owner, formatDate(date))
}

// CompletedTasksSince returns the owner's tasks completed at or after since.
func (db *DB) CompletedTasksSince(ctx context.Context, owner activity.OwnerID, since time.Time) ([]activity.Task, error) {
	return db.queryTasks(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE owner_id = ? AND is_completed = 1 AND completed_at >= ?
		ORDER BY completed_at, id
	`, owner, millis(since))
}

func (db *DB) queryTasks(ctx context.Context, query string, args ...any) ([]activity.Task, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []activity.Task
	for rows.Next() {
		var t activity.Task
		var projectID, completedAt sql.NullInt64
		var taskDate sql.NullString
		if err := rows.Scan(&t.ID, &t.OwnerID, &projectID, &t.Content, &taskDate,
			&t.Completed, &completedAt, &t.Points, &t.Order); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.ProjectID = ptrInt64(projectID)
		if taskDate.Valid {
			d, err := parseDate(taskDate.String)
			if err != nil {
				return nil, err
			}
			t.TaskDate = &d
		}
		if completedAt.Valid {
			c := fromMillis(completedAt.Int64)
			t.CompletedAt = &c
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CreatePomodoro inserts a focus session and sets its ID.
func (db *DB) CreatePomodoro(ctx context.Context, p *activity.Pomodoro) error {
	if !p.OwnerID.Valid() {
		return activity.ErrEmptyOwner
	}
	result, err := db.ExecContext(ctx, `
		INSERT INTO pomodoro_sessions (owner_id, project_id, date, duration_minutes)
		VALUES (?, ?, ?, ?)
	`, p.OwnerID, nullInt64(p.ProjectID), formatDate(p.Date), p.DurationMinutes)
	if err != nil {
		return fmt.Errorf("create pomodoro: %w", err)
	}
	p.ID, _ = result.LastInsertId()
	return nil
}

// PomodorosByProject returns the owner's sessions for a project.
func (db *DB) PomodorosByProject(ctx context.Context, owner activity.OwnerID, projectID int64) ([]activity.Pomodoro, error) {
	return db.queryPomodoros(ctx, `
		SELECT id, owner_id, project_id, date, duration_minutes FROM pomodoro_sessions
		WHERE owner_id = ? AND project_id = ?
		ORDER BY date, id
	`, owner, projectID)
}

// PomodorosSince returns the owner's sessions dated on or after since.
func (db *DB) PomodorosSince(ctx context.Context, owner activity.OwnerID, since time.Time) ([]activity.Pomodoro, error) {
	return db.queryPomodoros(ctx, `
		SELECT id, owner_id, project_id, date, duration_minutes FROM pomodoro_sessions
		WHERE owner_id = ? AND date >= ?
		ORDER BY date, id
	`, owner, formatDate(since))
}

func (db *DB) queryPomodoros(ctx context.Context, query string, args ...any) ([]activity.Pomodoro, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pomodoros: %w", err)
	}
	defer rows.Close()

	var out []activity.Pomodoro
	for rows.Next() {
		var p activity.Pomodoro
		var projectID sql.NullInt64
		var date string
		if err := rows.Scan(&p.ID, &p.OwnerID, &projectID, &date, &p.DurationMinutes); err != nil {
			return nil, fmt.Errorf("scan pomodoro: %w", err)
		}
		p.ProjectID = ptrInt64(projectID)
		if p.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreateHealthEntry inserts a daily health record and sets its ID.
func (db *DB) CreateHealthEntry(ctx context.Context, h *activity.HealthEntry) error {
	if !h.OwnerID.Valid() {
		return activity.ErrEmptyOwner
	}
	result, err := db.ExecContext(ctx, `
		INSERT INTO daily_health (owner_id, date, sleep_hours, mood_score, note)
		VALUES (?, ?, ?, ?, ?)
	`, h.OwnerID, formatDate(h.Date), h.SleepHours, h.MoodScore, h.Note)
	if err != nil {
		return fmt.Errorf("create health entry: %w", err)
	}
	h.ID, _ = result.LastInsertId()
	return nil
}

// HealthEntriesSince returns the owner's health records dated on or after since.
func (db *DB) HealthEntriesSince(ctx context.Context, owner activity.OwnerID, since time.Time) ([]activity.HealthEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, owner_id, date, sleep_hours, mood_score, COALESCE(note, '')
		FROM daily_health
		WHERE owner_id = ? AND date >= ?
		ORDER BY date, id
	`, owner, formatDate(since))
	if err != nil {
		return nil, fmt.Errorf("query health entries: %w", err)
	}
	defer rows.Close()

	var out []activity.HealthEntry
	for rows.Next() {
		var h activity.HealthEntry
		var date string
		if err := rows.Scan(&h.ID, &h.OwnerID, &date, &h.SleepHours, &h.MoodScore, &h.Note); err != nil {
			return nil, fmt.Errorf("scan health entry: %w", err)
		}
		if h.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// CreateWorkout inserts a workout with its exercises in one transaction.
// Each exercise's volume load is computed from its sets, reps and weight.
func (db *DB) CreateWorkout(ctx context.Context, w *activity.Workout) error {
	if !w.OwnerID.Valid() {
		return activity.ErrEmptyOwner
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin workout: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO workout_sessions (owner_id, date, name, duration_minutes, note)
		VALUES (?, ?, ?, ?, ?)
	`, w.OwnerID, formatDate(w.Date), w.Name, w.DurationMinutes, w.Note)
	if err != nil {
		return fmt.Errorf("create workout: %w", err)
	}
	workoutID, _ := result.LastInsertId()

	for i := range w.Exercises {
		ex := &w.Exercises[i]
		ex.WorkoutID = workoutID
		ex.VolumeLoad = activity.VolumeLoad(ex.Sets, ex.Reps, ex.Weight)
		result, err := tx.ExecContext(ctx, `
			INSERT INTO exercise_logs (workout_id, exercise_name, sets, reps, weight, volume_load)
			VALUES (?, ?, ?, ?, ?, ?)
		`, workoutID, ex.ExerciseName, ex.Sets, ex.Reps, ex.Weight, ex.VolumeLoad)
		if err != nil {
			return fmt.Errorf("create exercise log: %w", err)
		}
		ex.ID, _ = result.LastInsertId()
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit workout: %w", err)
	}
	w.ID = workoutID
	return nil
}

// WorkoutsSince returns the owner's workouts dated on or after since, with
// their exercises.
func (db *DB) WorkoutsSince(ctx context.Context, owner activity.OwnerID, since time.Time) ([]activity.Workout, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, owner_id, date, name, duration_minutes, COALESCE(note, '')
		FROM workout_sessions
		WHERE owner_id = ? AND date >= ?
		ORDER BY date, id
	`, owner, formatDate(since))
	if err != nil {
		return nil, fmt.Errorf("query workouts: %w", err)
	}

	var workouts []activity.Workout
	byID := make(map[int64]int)
	for rows.Next() {
		var w activity.Workout
		var date string
		if err := rows.Scan(&w.ID, &w.OwnerID, &date, &w.Name, &w.DurationMinutes, &w.Note); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan workout: %w", err)
		}
		if w.Date, err = parseDate(date); err != nil {
			rows.Close()
			return nil, err
		}
		byID[w.ID] = len(workouts)
		workouts = append(workouts, w)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(workouts) == 0 {
		return nil, nil
	}

	exRows, err := db.QueryContext(ctx, `
		SELECT e.id, e.workout_id, e.exercise_name, e.sets, e.reps, e.weight, e.volume_load
		FROM exercise_logs e
		JOIN workout_sessions w ON w.id = e.workout_id
		WHERE w.owner_id = ? AND w.date >= ?
		ORDER BY e.id
	`, owner, formatDate(since))
	if err != nil {
		return nil, fmt.Errorf("query exercise logs: %w", err)
	}
	defer exRows.Close()

	for exRows.Next() {
		var ex activity.ExerciseLog
		if err := exRows.Scan(&ex.ID, &ex.WorkoutID, &ex.ExerciseName, &ex.Sets, &ex.Reps, &ex.Weight, &ex.VolumeLoad); err != nil {
			return nil, fmt.Errorf("scan exercise log: %w", err)
		}
		if i, ok := byID[ex.WorkoutID]; ok {
			workouts[i].Exercises = append(workouts[i].Exercises, ex)
		}
	}
	return workouts, exRows.Err()
}

// ListOwners returns every owner that has a user row or any stored activity.
func (db *DB) ListOwners(ctx context.Context) ([]activity.OwnerID, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id FROM users
		UNION SELECT owner_id FROM projects
		UNION SELECT owner_id FROM tasks
		UNION SELECT owner_id FROM pomodoro_sessions
		UNION SELECT owner_id FROM workout_sessions
		UNION SELECT owner_id FROM daily_health
		ORDER BY 1
	`)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	defer rows.Close()

	var owners []activity.OwnerID
	for rows.Next() {
		var o activity.OwnerID
		if err := rows.Scan(&o); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		owners = append(owners, o)
	}
	return owners, rows.Err()
}
