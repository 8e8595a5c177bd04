package activity

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process Reader and Writer.
type MemoryStore struct {
	mu        sync.RWMutex
	nextID    int64
	projects  []Project
	tasks     []Task
	pomodoros []Pomodoro
	workouts  []Workout
	health    []HealthEntry
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) id(existing int64) int64 {
	if existing != 0 {
		return existing
	}
	m.nextID++
	return m.nextID
}

func (m *MemoryStore) CreateProject(_ context.Context, p *Project) error {
	if !p.OwnerID.Valid() {
		return ErrEmptyOwner
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id(p.ID)
	m.projects = append(m.projects, *p)
	return nil
}

func (m *MemoryStore) CreateTask(_ context.Context, t *Task) error {
	if !t.OwnerID.Valid() {
		return ErrEmptyOwner
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = m.id(t.ID)
	m.tasks = append(m.tasks, *t)
	return nil
}

func (m *MemoryStore) CompleteTask(_ context.Context, owner OwnerID, taskID int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tasks {
		if m.tasks[i].ID == taskID && m.tasks[i].OwnerID == owner {
			m.tasks[i].Completed = true
			m.tasks[i].CompletedAt = &at
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) CreatePomodoro(_ context.Context, p *Pomodoro) error {
	if !p.OwnerID.Valid() {
		return ErrEmptyOwner
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id(p.ID)
	m.pomodoros = append(m.pomodoros, *p)
	return nil
}

func (m *MemoryStore) CreateWorkout(_ context.Context, w *Workout) error {
	if !w.OwnerID.Valid() {
		return ErrEmptyOwner
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	w.ID = m.id(w.ID)
	for i := range w.Exercises {
		w.Exercises[i].ID = m.id(w.Exercises[i].ID)
		w.Exercises[i].WorkoutID = w.ID
		w.Exercises[i].VolumeLoad = VolumeLoad(w.Exercises[i].Sets, w.Exercises[i].Reps, w.Exercises[i].Weight)
	}
	stored := *w
	stored.Exercises = append([]ExerciseLog(nil), w.Exercises...)
	m.workouts = append(m.workouts, stored)
	return nil
}

func (m *MemoryStore) CreateHealthEntry(_ context.Context, h *HealthEntry) error {
	if !h.OwnerID.Valid() {
		return ErrEmptyOwner
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	h.ID = m.id(h.ID)
	m.health = append(m.health, *h)
	return nil
}

func (m *MemoryStore) ListProjects(_ context.Context, owner OwnerID) ([]Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Project
	for _, p := range m.projects {
		if p.OwnerID == owner {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemoryStore) TasksByProject(_ context.Context, owner OwnerID, projectID int64) ([]Task, error) {
	return m.filterTasks(func(t Task) bool {
		return t.OwnerID == owner && t.ProjectID != nil && *t.ProjectID == projectID
	}), nil
}

func (m *MemoryStore) TasksByDate(_ context.Context, owner OwnerID, date time.Time) ([]Task, error) {
	day := Midnight(date)
	return m.filterTasks(func(t Task) bool {
		return t.OwnerID == owner && t.TaskDate != nil && DateIn(*t.TaskDate, day.Location()).Equal(day)
	}), nil
}

func (m *MemoryStore) CompletedTasksSince(_ context.Context, owner OwnerID, since time.Time) ([]Task, error) {
	return m.filterTasks(func(t Task) bool {
		return t.OwnerID == owner && t.Completed && t.CompletedAt != nil && !t.CompletedAt.Before(since)
	}), nil
}

func (m *MemoryStore) filterTasks(keep func(Task) bool) []Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Task
	for _, t := range m.tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func (m *MemoryStore) PomodorosByProject(_ context.Context, owner OwnerID, projectID int64) ([]Pomodoro, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Pomodoro
	for _, p := range m.pomodoros {
		if p.OwnerID == owner && p.ProjectID != nil && *p.ProjectID == projectID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemoryStore) PomodorosSince(_ context.Context, owner OwnerID, since time.Time) ([]Pomodoro, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Pomodoro
	for _, p := range m.pomodoros {
		if p.OwnerID == owner && !DateIn(p.Date, since.Location()).Before(Midnight(since)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemoryStore) HealthEntriesSince(_ context.Context, owner OwnerID, since time.Time) ([]HealthEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []HealthEntry
	for _, h := range m.health {
		if h.OwnerID == owner && !DateIn(h.Date, since.Location()).Before(Midnight(since)) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *MemoryStore) WorkoutsSince(_ context.Context, owner OwnerID, since time.Time) ([]Workout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Workout
	for _, w := range m.workouts {
		if w.OwnerID == owner && !DateIn(w.Date, since.Location()).Before(Midnight(since)) {
			w.Exercises = append([]ExerciseLog(nil), w.Exercises...)
			out = append(out, w)
		}
	}
	return out, nil
}

// ListOwners returns every owner with at least one record.
func (m *MemoryStore) ListOwners(_ context.Context) ([]OwnerID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[OwnerID]bool)
	var out []OwnerID
	add := func(o OwnerID) {
		if !seen[o] {
			seen[o] = true
			out = append(out, o)
		}
	}
	for _, p := range m.projects {
		add(p.OwnerID)
	}
	for _, t := range m.tasks {
		add(t.OwnerID)
	}
	for _, p := range m.pomodoros {
		add(p.OwnerID)
	}
	for _, w := range m.workouts {
		add(w.OwnerID)
	}
	for _, h := range m.health {
		add(h.OwnerID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
