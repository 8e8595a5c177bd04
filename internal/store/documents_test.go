package store

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/motivaitor/insight/internal/ability"
	"github.com/motivaitor/insight/internal/activity"
	"github.com/motivaitor/insight/internal/index"
)

func TestEncodeDecodeEmbedding(t *testing.T) {
	original := []float64{1.0, -0.5, 0.333, math.Pi, 0.0}
	decoded := decodeEmbedding(encodeEmbedding(original))

	if len(decoded) != len(original) {
		t.Fatalf("length mismatch: %d vs %d", len(decoded), len(original))
	}
	for i := range original {
		if decoded[i] != original[i] {
			t.Errorf("index %d: got %f, want %f", i, decoded[i], original[i])
		}
	}
}

func TestUpsertDocumentReplaces(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	doc := index.Document{ID: "task_1", Text: "buy milk", Metadata: map[string]string{"type": "task", "date": "2025-01-01"}}
	if err := db.UpsertDocument(ctx, "alice", doc, []float64{0.1, 0.2}, "model-a"); err != nil {
		t.Fatalf("UpsertDocument: %v", err)
	}
	doc = index.Document{ID: "task_1", Text: "buy oat milk", Metadata: map[string]string{"type": "task"}}
	if err := db.UpsertDocument(ctx, "alice", doc, []float64{0.3, 0.4, 0.5}, "model-b"); err != nil {
		t.Fatalf("UpsertDocument again: %v", err)
	}

	docs, err := db.OwnerDocuments(ctx, "alice")
	if err != nil {
		t.Fatalf("OwnerDocuments: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("documents = %d, want 1", len(docs))
	}
	got := docs[0]
	if got.Text != "buy oat milk" || got.Model != "model-b" || len(got.Embedding) != 3 {
		t.Errorf("document not replaced: %+v", got)
	}
	if _, ok := got.Metadata["date"]; ok {
		t.Error("stale metadata key survived the replace")
	}
	if got.OwnerID != "alice" {
		t.Errorf("owner = %q", got.OwnerID)
	}
}

func TestOwnerDocumentsIsolation(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	db.UpsertDocument(ctx, "alice", index.Document{ID: "b", Text: "alice b"}, []float64{1}, "m")
	db.UpsertDocument(ctx, "alice", index.Document{ID: "a", Text: "alice a"}, []float64{1}, "m")
	db.UpsertDocument(ctx, "bob", index.Document{ID: "a", Text: "bob a"}, []float64{1}, "m")

	docs, err := db.OwnerDocuments(ctx, "alice")
	if err != nil {
		t.Fatalf("OwnerDocuments: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "a" || docs[0].Text != "alice a" {
		t.Fatalf("unexpected alice documents %+v", docs)
	}
	for _, d := range docs {
		if d.Metadata == nil {
			t.Error("metadata should decode to an empty map, not nil")
		}
	}

	n, _ := db.CountDocuments(ctx, "bob")
	if n != 1 {
		t.Errorf("bob has %d documents, want 1", n)
	}
}

func TestIndexOverSQLite(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	ix := index.New(db, index.NewHashEmbedder(64))

	ix.Upsert(ctx, "alice", "workout_1", "Deadlift 3x5 @ 140kg", map[string]string{"type": "workout"})
	ix.Upsert(ctx, "alice", "health_1", "Slept 5h, mood 4/10.", map[string]string{"type": "health"})
	ix.Upsert(ctx, "bob", "workout_1", "Deadlift 3x5 @ 140kg", map[string]string{"type": "workout"})

	results := ix.Query(ctx, "alice", "Deadlift 3x5 @ 140kg", 5)
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].Document.ID != "workout_1" || results[0].Document.OwnerID != "alice" {
		t.Errorf("top result = %+v", results[0].Document)
	}
}

func TestAbilitiesRoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	zero, err := db.GetAbilities(ctx, "alice")
	if err != nil {
		t.Fatalf("GetAbilities: %v", err)
	}
	if zero != (ability.State{}) {
		t.Errorf("expected zero state, got %+v", zero)
	}

	s := ability.State{Willpower: 35, Health: 71, Strength: 22.4, ComputedAt: day(2025, 6, 1)}
	if err := db.SaveAbilities(ctx, "alice", s); err != nil {
		t.Fatalf("SaveAbilities: %v", err)
	}
	s.Health = 70
	if err := db.SaveAbilities(ctx, "alice", s); err != nil {
		t.Fatalf("SaveAbilities overwrite: %v", err)
	}

	got, err := db.GetAbilities(ctx, "alice")
	if err != nil {
		t.Fatalf("GetAbilities: %v", err)
	}
	if got.Health != 70 || got.Strength != 22.4 || !got.ComputedAt.Equal(s.ComputedAt) {
		t.Errorf("got %+v, want %+v", got, s)
	}
}

func TestRecomputeOverSQLite(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		task := &activity.Task{OwnerID: "alice", Content: "x"}
		db.CreateTask(ctx, task)
		db.CompleteTask(ctx, "alice", task.ID, now.Add(-time.Duration(i)*24*time.Hour))
	}
	db.CreateHealthEntry(ctx, &activity.HealthEntry{OwnerID: "alice", Date: day(2025, 6, 9), SleepHours: 7.5, MoodScore: 8})
	db.CreateWorkout(ctx, &activity.Workout{OwnerID: "alice", Date: day(2025, 6, 8), Name: "Push",
		Exercises: []activity.ExerciseLog{{ExerciseName: "Bench", Sets: 4, Reps: "10", Weight: 50}}})

	engine := ability.NewEngine(db, db, ability.DefaultConfig())
	state, err := engine.Recompute(ctx, "alice", now)
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if state.Willpower != 15 || state.Health != 100 || state.Strength != 10 {
		t.Errorf("state = %+v, want willpower 15, health 100, strength 10", state)
	}

	got, err := db.GetAbilities(ctx, "alice")
	if err != nil {
		t.Fatalf("GetAbilities: %v", err)
	}
	if got.Willpower != 15 || !got.ComputedAt.Equal(now) {
		t.Errorf("persisted state = %+v", got)
	}
}

func TestRecomputeWestOfUTC(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	west := time.FixedZone("UTC-5", -5*60*60)
	now := time.Date(2025, 4, 10, 12, 0, 0, 0, west)

	if err := db.SaveAbilities(ctx, "alice", ability.State{Health: 10, ComputedAt: now.Add(-24 * time.Hour)}); err != nil {
		t.Fatalf("SaveAbilities: %v", err)
	}
	// First day of the seven-day health window in the owner's zone.
	if err := db.CreateHealthEntry(ctx, &activity.HealthEntry{OwnerID: "alice", Date: day(2025, 4, 3), SleepHours: 7.5, MoodScore: 8}); err != nil {
		t.Fatalf("CreateHealthEntry: %v", err)
	}

	state, err := ability.NewEngine(db, db, ability.DefaultConfig()).Recompute(ctx, "alice", now)
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if state.Health != 100 {
		t.Errorf("health = %v, want 100 from the entry on the window's first day", state.Health)
	}
}

func TestCreateUser(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	u, err := db.CreateUser(ctx, " Ada@Example.com ", "Ada")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if len(u.ID) != 36 || u.Email != "ada@example.com" {
		t.Errorf("unexpected user %+v", u)
	}
	if _, err := db.CreateUser(ctx, "ada@example.com", "Again"); err == nil {
		t.Error("expected unique violation for duplicate email")
	}

	got, err := db.GetUser(ctx, u.ID)
	if err != nil || got.DisplayName != "Ada" {
		t.Errorf("GetUser = %+v, %v", got, err)
	}
	if _, err := db.GetUser(ctx, "missing"); err == nil {
		t.Error("expected ErrNotFound for unknown user")
	}
}

func TestDocumentTexts(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	db.UpsertDocument(ctx, "alice", index.Document{ID: "a", Text: "first"}, []float64{1}, "m")
	db.UpsertDocument(ctx, "bob", index.Document{ID: "a", Text: "second"}, []float64{1}, "m")

	texts, err := db.DocumentTexts(ctx, 0)
	if err != nil {
		t.Fatalf("DocumentTexts: %v", err)
	}
	if len(texts) != 2 {
		t.Errorf("texts = %v, want both owners' documents", texts)
	}

	texts, _ = db.DocumentTexts(ctx, 1)
	if len(texts) != 1 {
		t.Errorf("limit ignored: %v", texts)
	}

	owners, err := db.DocumentOwners(ctx)
	if err != nil {
		t.Fatalf("DocumentOwners: %v", err)
	}
	if len(owners) != 2 || owners[0] != "alice" || owners[1] != "bob" {
		t.Errorf("owners = %v, want [alice bob]", owners)
	}
}
