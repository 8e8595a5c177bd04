// Package ability computes the rolling Willpower, Health and Strength scores.
//
// Scores are recomputed from trailing activity windows:
//   - Willpower: 5 points per task completed in the last 7 days, capped at 100.
//   - Health: sleep and mood averages over the last 7 days, 50 points each.
//     With no entries the previous score decays by DecayRate.
//   - Strength: 8 points per workout in the last 14 days plus 1 point per
//     1000 kg of volume load, capped at 100.
//
// Windows start at midnight of "today" minus the window length.
package ability

import (
	"math"
	"time"

	"github.com/motivaitor/insight/internal/activity"
)

// MaxScore is the upper clamp applied to every score.
const MaxScore = 100.0

// DecayMode selects how often health decay is applied.
type DecayMode string

const (
	// DecayPerCall subtracts DecayRate once per recompute.
	DecayPerCall DecayMode = "per_call"
	// DecayElapsed subtracts DecayRate per whole day since the previous state.
	DecayElapsed DecayMode = "elapsed"
)

// Config tunes windows and decay.
type Config struct {
	WillpowerWindow time.Duration
	HealthWindow    time.Duration
	StrengthWindow  time.Duration
	DecayRate       float64
	DecayMode       DecayMode
}

// DefaultConfig returns the reference tuning.
func DefaultConfig() Config {
	return Config{
		WillpowerWindow: 7 * 24 * time.Hour,
		HealthWindow:    7 * 24 * time.Hour,
		StrengthWindow:  14 * 24 * time.Hour,
		DecayRate:       1.0,
		DecayMode:       DecayPerCall,
	}
}

// State is a user's ability scores. ComputedAt is zero until the first recompute.
type State struct {
	Willpower  float64   `json:"willpower"`
	Health     float64   `json:"health"`
	Strength   float64   `json:"strength"`
	ComputedAt time.Time `json:"computed_at"`
}

// Rounded returns the state with each score rounded to one decimal.
func (s State) Rounded() State {
	s.Willpower = round1(s.Willpower)
	s.Health = round1(s.Health)
	s.Strength = round1(s.Strength)
	return s
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Window is the raw activity a recompute looks at. Records outside the
// configured windows are ignored, so callers may pass a superset.
type Window struct {
	CompletedTasks []activity.Task
	HealthEntries  []activity.HealthEntry
	Workouts       []activity.Workout
}

// windowStart returns the first instant inside a window ending today.
// Whole days are stepped on the calendar so DST shifts keep it at midnight.
func windowStart(now time.Time, length time.Duration) time.Time {
	days := int(length / (24 * time.Hour))
	return activity.Midnight(now).AddDate(0, 0, -days).Add(-(length % (24 * time.Hour)))
}

// Compute derives a new state. It reads no clock: now is the only notion
// of time.
func Compute(w Window, prior State, now time.Time, cfg Config) State {
	return State{
		Willpower:  willpower(w.CompletedTasks, now, cfg),
		Health:     health(w.HealthEntries, prior, now, cfg),
		Strength:   strength(w.Workouts, now, cfg),
		ComputedAt: now,
	}
}

func willpower(tasks []activity.Task, now time.Time, cfg Config) float64 {
	since := windowStart(now, cfg.WillpowerWindow)
	count := 0
	for _, t := range tasks {
		if t.Completed && t.CompletedAt != nil && !t.CompletedAt.Before(since) {
			count++
		}
	}
	return clamp(float64(count * 5))
}

func health(entries []activity.HealthEntry, prior State, now time.Time, cfg Config) float64 {
	since := windowStart(now, cfg.HealthWindow)
	var sleep, mood float64
	n := 0
	for _, e := range entries {
		if activity.DateIn(e.Date, since.Location()).Before(since) {
			continue
		}
		sleep += e.SleepHours
		mood += e.MoodScore
		n++
	}

	if n == 0 {
		return clamp(prior.Health - cfg.DecayRate*decaySteps(prior, now, cfg.DecayMode))
	}

	sleepPts := math.Min(50, sleep/float64(n)/7.5*50)
	moodPts := math.Min(50, mood/float64(n)/8.0*50)
	return clamp(math.Floor(sleepPts + moodPts))
}

// decaySteps returns how many decay periods apply to this recompute.
func decaySteps(prior State, now time.Time, mode DecayMode) float64 {
	if mode != DecayElapsed || prior.ComputedAt.IsZero() {
		return 1
	}
	days := math.Floor(now.Sub(prior.ComputedAt).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func strength(workouts []activity.Workout, now time.Time, cfg Config) float64 {
	since := windowStart(now, cfg.StrengthWindow)
	count := 0
	var volume float64
	for _, w := range workouts {
		if activity.DateIn(w.Date, since.Location()).Before(since) {
			continue
		}
		count++
		volume += w.TotalVolume()
	}
	return clamp(float64(count*8) + volume/1000)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}
