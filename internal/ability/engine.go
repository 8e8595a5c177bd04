package ability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/motivaitor/insight/internal/activity"
	"github.com/motivaitor/insight/internal/observability"
)

// StateStore persists ability state per owner.
type StateStore interface {
	// GetAbilities returns the zero State when nothing has been stored yet.
	GetAbilities(ctx context.Context, owner activity.OwnerID) (State, error)
	SaveAbilities(ctx context.Context, owner activity.OwnerID, state State) error
}

// Engine recomputes and persists ability state.
//
// Recompute is a read-modify-write of the owner's state; recomputes of the
// same owner are serialized.
type Engine struct {
	reader activity.Reader
	states StateStore
	cfg    Config
	locks  sync.Map // activity.OwnerID -> *sync.Mutex
}

// NewEngine creates an Engine. Zero-valued config fields fall back to defaults.
func NewEngine(reader activity.Reader, states StateStore, cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.WillpowerWindow <= 0 {
		cfg.WillpowerWindow = def.WillpowerWindow
	}
	if cfg.HealthWindow <= 0 {
		cfg.HealthWindow = def.HealthWindow
	}
	if cfg.StrengthWindow <= 0 {
		cfg.StrengthWindow = def.StrengthWindow
	}
	if cfg.DecayRate < 0 {
		cfg.DecayRate = def.DecayRate
	}
	if cfg.DecayMode == "" {
		cfg.DecayMode = def.DecayMode
	}
	return &Engine{reader: reader, states: states, cfg: cfg}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Recompute loads the activity windows and prior state for owner, computes
// the new state and writes it back. A failed write is returned as an error.
func (e *Engine) Recompute(ctx context.Context, owner activity.OwnerID, now time.Time) (State, error) {
	state, err := e.recompute(ctx, owner, now)
	observability.RecordRecompute(err)
	return state, err
}

func (e *Engine) recompute(ctx context.Context, owner activity.OwnerID, now time.Time) (State, error) {
	if !owner.Valid() {
		return State{}, activity.ErrEmptyOwner
	}

	mu, _ := e.locks.LoadOrStore(owner, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	defer mu.(*sync.Mutex).Unlock()

	prior, err := e.states.GetAbilities(ctx, owner)
	if err != nil {
		return State{}, fmt.Errorf("load abilities: %w", err)
	}

	window, err := e.loadWindow(ctx, owner, now)
	if err != nil {
		return State{}, err
	}

	next := Compute(window, prior, now, e.cfg)
	if len(window.HealthEntries) == 0 {
		observability.RecordHealthDecay()
	}

	if err := e.states.SaveAbilities(ctx, owner, next); err != nil {
		return State{}, fmt.Errorf("save abilities: %w", err)
	}

	slog.Debug("abilities recomputed", "owner", owner,
		"willpower", next.Willpower, "health", next.Health, "strength", next.Strength)
	return next, nil
}

func (e *Engine) loadWindow(ctx context.Context, owner activity.OwnerID, now time.Time) (Window, error) {
	var w Window
	var err error

	w.CompletedTasks, err = e.reader.CompletedTasksSince(ctx, owner, windowStart(now, e.cfg.WillpowerWindow))
	if err != nil {
		return Window{}, fmt.Errorf("completed tasks: %w", err)
	}
	w.HealthEntries, err = e.reader.HealthEntriesSince(ctx, owner, windowStart(now, e.cfg.HealthWindow))
	if err != nil {
		return Window{}, fmt.Errorf("health entries: %w", err)
	}
	w.Workouts, err = e.reader.WorkoutsSince(ctx, owner, windowStart(now, e.cfg.StrengthWindow))
	if err != nil {
		return Window{}, fmt.Errorf("workouts: %w", err)
	}
	return w, nil
}
