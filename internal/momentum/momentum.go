// Package momentum derives per-project progress and the "rusting" flag from
// task and pomodoro activity.
package momentum

import (
	"context"
	"fmt"
	"time"

	"github.com/motivaitor/insight/internal/activity"
)

// DefaultRustThreshold is how long a project may go without activity before
// it is considered rusting.
const DefaultRustThreshold = 5 * 24 * time.Hour

// Stats are derived on every read and never persisted.
type Stats struct {
	ProgressPct    int        `json:"progress_pct"`
	IsRusting      bool       `json:"is_rusting"`
	LastActivity   *time.Time `json:"last_activity"`
	TotalPomodoros int        `json:"total_pomodoros"`
}

// ProjectStats pairs a project with its derived stats.
type ProjectStats struct {
	Project activity.Project `json:"project"`
	Stats   Stats            `json:"stats"`
}

// Calculator computes project stats.
type Calculator struct {
	RustThreshold time.Duration
}

// New returns a Calculator. A non-positive threshold selects the default.
func New(threshold time.Duration) Calculator {
	if threshold <= 0 {
		threshold = DefaultRustThreshold
	}
	return Calculator{RustThreshold: threshold}
}

// Compute derives stats for project from the supplied tasks and pomodoros.
// Records belonging to other projects are ignored.
func (c Calculator) Compute(project activity.Project, tasks []activity.Task, pomodoros []activity.Pomodoro, now time.Time) Stats {
	var total, completed int
	var lastActivity *time.Time

	for _, t := range tasks {
		if !belongsTo(t.ProjectID, project.ID) {
			continue
		}
		total++
		if !t.Completed {
			continue
		}
		completed++
		if t.CompletedAt != nil && (lastActivity == nil || t.CompletedAt.After(*lastActivity)) {
			at := *t.CompletedAt
			lastActivity = &at
		}
	}

	pomodoroCount := 0
	for _, p := range pomodoros {
		if !belongsTo(p.ProjectID, project.ID) {
			continue
		}
		pomodoroCount++
		// Pomodoros only carry a date; compare them as local midnight of that date.
		at := activity.DateIn(p.Date, now.Location())
		if lastActivity == nil || at.After(*lastActivity) {
			lastActivity = &at
		}
	}

	stats := Stats{
		LastActivity:   lastActivity,
		TotalPomodoros: pomodoroCount,
	}
	if total > 0 {
		stats.ProgressPct = completed * 100 / total
	}

	switch {
	case lastActivity != nil:
		stats.IsRusting = lastActivity.Before(now.Add(-c.threshold()))
	case total > 0:
		stats.IsRusting = true
	}
	return stats
}

func (c Calculator) threshold() time.Duration {
	if c.RustThreshold <= 0 {
		return DefaultRustThreshold
	}
	return c.RustThreshold
}

func belongsTo(projectID *int64, id int64) bool {
	return projectID != nil && *projectID == id
}

// ProjectsWithStats loads every project of owner and computes its stats.
func (c Calculator) ProjectsWithStats(ctx context.Context, reader activity.Reader, owner activity.OwnerID, now time.Time) ([]ProjectStats, error) {
	if !owner.Valid() {
		return nil, activity.ErrEmptyOwner
	}

	projects, err := reader.ListProjects(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	results := make([]ProjectStats, 0, len(projects))
	for _, p := range projects {
		tasks, err := reader.TasksByProject(ctx, owner, p.ID)
		if err != nil {
			return nil, fmt.Errorf("tasks for project %d: %w", p.ID, err)
		}
		pomodoros, err := reader.PomodorosByProject(ctx, owner, p.ID)
		if err != nil {
			return nil, fmt.Errorf("pomodoros for project %d: %w", p.ID, err)
		}
		results = append(results, ProjectStats{
			Project: p,
			Stats:   c.Compute(p, tasks, pomodoros, now),
		})
	}
	return results, nil
}
