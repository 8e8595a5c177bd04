// Package documents renders activity records as semantic index documents.
package documents

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/motivaitor/insight/internal/activity"
	"github.com/motivaitor/insight/internal/index"
)

// DateLayout is the civil date format stored in document metadata.
const DateLayout = "2006-01-02"

// Document is an index document ready for upsert.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]string
}

func newDoc(kind activity.Kind, id string, text string, date time.Time) Document {
	meta := map[string]string{index.MetaType: string(kind)}
	if !date.IsZero() {
		meta[index.MetaDate] = date.Format(DateLayout)
	}
	return Document{ID: string(kind) + "_" + id, Text: text, Metadata: meta}
}

// Task renders a task. The date is the task date, else the completion date.
func Task(t activity.Task) Document {
	var date time.Time
	switch {
	case t.TaskDate != nil:
		date = *t.TaskDate
	case t.CompletedAt != nil:
		date = *t.CompletedAt
	}
	return newDoc(activity.KindTask, strconv.FormatInt(t.ID, 10), t.Content, date)
}

// Workout renders a workout with its exercise list.
func Workout(w activity.Workout) Document {
	var b strings.Builder
	fmt.Fprintf(&b, "Workout '%s' (duration: %dmin, volume: %skg).", w.Name, w.DurationMinutes, formatFloat(w.TotalVolume()))
	if len(w.Exercises) > 0 {
		parts := make([]string, 0, len(w.Exercises))
		for _, ex := range w.Exercises {
			parts = append(parts, fmt.Sprintf("%s: %dx%s @ %skg", ex.ExerciseName, ex.Sets, ex.Reps, formatFloat(ex.Weight)))
		}
		b.WriteString(" Exercises: ")
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString(".")
	}
	if w.Note != "" {
		b.WriteString(" Note: ")
		b.WriteString(w.Note)
	}
	return newDoc(activity.KindWorkout, strconv.FormatInt(w.ID, 10), b.String(), w.Date)
}

// Health renders a daily health entry.
func Health(h activity.HealthEntry) Document {
	text := fmt.Sprintf("Slept %sh, mood %s/10.", formatFloat(h.SleepHours), formatFloat(h.MoodScore))
	if h.Note != "" {
		text += " " + h.Note
	}
	return newDoc(activity.KindHealth, strconv.FormatInt(h.ID, 10), text, h.Date)
}

// Pomodoro renders a focus session.
func Pomodoro(p activity.Pomodoro) Document {
	text := fmt.Sprintf("Focus session of %d minutes", p.DurationMinutes)
	return newDoc(activity.KindPomodoro, strconv.FormatInt(p.ID, 10), text, p.Date)
}

// Note renders free text that has no backing activity record.
func Note(id, text string, date time.Time) Document {
	return newDoc(activity.KindNote, id, text, date)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
