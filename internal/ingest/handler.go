package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/motivaitor/insight/internal/activity"
	"github.com/motivaitor/insight/internal/documents"
)

// Event types understood by IndexingHandler.
const (
	EventProjectCreated = "project.created"
	EventTaskCreated    = "task.created"
	EventTaskCompleted  = "task.completed"
	EventPomodoroLogged = "pomodoro.logged"
	EventWorkoutLogged  = "workout.logged"
	EventHealthLogged   = "health.logged"
	EventNoteAdded      = "note.added"
)

// Indexer is the write side of the semantic index.
type Indexer interface {
	Upsert(ctx context.Context, owner activity.OwnerID, id, text string, metadata map[string]string) error
}

// IndexingHandler persists activity events and indexes the derived document.
// Persistence failures are returned so the message is retried; indexing
// failures are only logged.
type IndexingHandler struct {
	writer  activity.Writer
	indexer Indexer
	logger  *slog.Logger
}

// NewIndexingHandler creates an IndexingHandler.
func NewIndexingHandler(writer activity.Writer, indexer Indexer) *IndexingHandler {
	return &IndexingHandler{
		writer:  writer,
		indexer: indexer,
		logger:  slog.Default().With("component", "ingest"),
	}
}

type taskCompletion struct {
	TaskID      int64     `json:"task_id"`
	Content     string    `json:"content"`
	CompletedAt time.Time `json:"completed_at"`
}

type note struct {
	Text string    `json:"text"`
	Date time.Time `json:"date"`
}

func (h *IndexingHandler) Handle(ctx context.Context, e Event) error {
	switch e.EventType {
	case EventProjectCreated:
		var p activity.Project
		if err := decodePayload(e, &p); err != nil {
			return err
		}
		p.OwnerID = e.OwnerID
		if p.CreatedAt.IsZero() {
			p.CreatedAt = e.OccurredAt
		}
		if err := h.writer.CreateProject(ctx, &p); err != nil {
			return fmt.Errorf("create project: %w", err)
		}
		return nil

	case EventTaskCreated:
		var t activity.Task
		if err := decodePayload(e, &t); err != nil {
			return err
		}
		t.OwnerID = e.OwnerID
		if err := h.writer.CreateTask(ctx, &t); err != nil {
			return fmt.Errorf("create task: %w", err)
		}
		h.index(ctx, e.OwnerID, documents.Task(t))
		return nil

	case EventTaskCompleted:
		var c taskCompletion
		if err := decodePayload(e, &c); err != nil {
			return err
		}
		if c.CompletedAt.IsZero() {
			c.CompletedAt = e.OccurredAt
		}
		if err := h.writer.CompleteTask(ctx, e.OwnerID, c.TaskID, c.CompletedAt); err != nil {
			return fmt.Errorf("complete task %d: %w", c.TaskID, err)
		}
		if c.Content != "" {
			h.index(ctx, e.OwnerID, documents.Task(activity.Task{
				ID: c.TaskID, Content: c.Content, Completed: true, CompletedAt: &c.CompletedAt,
			}))
		}
		return nil

	case EventPomodoroLogged:
		var p activity.Pomodoro
		if err := decodePayload(e, &p); err != nil {
			return err
		}
		p.OwnerID = e.OwnerID
		if p.Date.IsZero() {
			p.Date = activity.Midnight(e.OccurredAt)
		}
		if err := h.writer.CreatePomodoro(ctx, &p); err != nil {
			return fmt.Errorf("create pomodoro: %w", err)
		}
		h.index(ctx, e.OwnerID, documents.Pomodoro(p))
		return nil

	case EventWorkoutLogged:
		var w activity.Workout
		if err := decodePayload(e, &w); err != nil {
			return err
		}
		w.OwnerID = e.OwnerID
		if w.Date.IsZero() {
			w.Date = e.OccurredAt
		}
		if err := h.writer.CreateWorkout(ctx, &w); err != nil {
			return fmt.Errorf("create workout: %w", err)
		}
		h.index(ctx, e.OwnerID, documents.Workout(w))
		return nil

	case EventHealthLogged:
		var entry activity.HealthEntry
		if err := decodePayload(e, &entry); err != nil {
			return err
		}
		entry.OwnerID = e.OwnerID
		if entry.Date.IsZero() {
			entry.Date = activity.Midnight(e.OccurredAt)
		}
		if err := h.writer.CreateHealthEntry(ctx, &entry); err != nil {
			return fmt.Errorf("create health entry: %w", err)
		}
		h.index(ctx, e.OwnerID, documents.Health(entry))
		return nil

	case EventNoteAdded:
		var n note
		if err := decodePayload(e, &n); err != nil {
			return err
		}
		if n.Date.IsZero() {
			n.Date = e.OccurredAt
		}
		doc := documents.Note(e.ID, n.Text, n.Date)
		if err := h.indexer.Upsert(ctx, e.OwnerID, doc.ID, doc.Text, doc.Metadata); err != nil {
			return fmt.Errorf("index note: %w", err)
		}
		return nil
	}

	return fmt.Errorf("%w: %s", ErrUnsupportedEvent, e.EventType)
}

func (h *IndexingHandler) index(ctx context.Context, owner activity.OwnerID, doc documents.Document) {
	if err := h.indexer.Upsert(ctx, owner, doc.ID, doc.Text, doc.Metadata); err != nil {
		h.logger.Warn("index document failed", "owner", owner, "doc", doc.ID, "error", err)
	}
}

func decodePayload(e Event, v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%w: %s event %s has no payload", ErrMalformedPayload, e.EventType, e.ID)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrMalformedPayload, e.EventType, err)
	}
	return nil
}
