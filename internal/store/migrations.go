package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "users: account owners",
		SQL: `
CREATE TABLE users (
    id           TEXT PRIMARY KEY,
    email        TEXT NOT NULL UNIQUE,
    display_name TEXT,
    created_at   INTEGER NOT NULL
);
`,
	},
	{
		Version:     2,
		Description: "projects and tasks",
		SQL: `
CREATE TABLE projects (
    id          INTEGER PRIMARY KEY,
    owner_id    TEXT NOT NULL,
    name        TEXT NOT NULL,
    description TEXT,
    color       TEXT,
    created_at  INTEGER NOT NULL
);

CREATE INDEX idx_projects_owner ON projects(owner_id);

CREATE TABLE tasks (
    id           INTEGER PRIMARY KEY,
    owner_id     TEXT NOT NULL,
    project_id   INTEGER,
    content      TEXT NOT NULL,
    task_date    TEXT,
    is_completed INTEGER NOT NULL DEFAULT 0,
    completed_at INTEGER,
    points       INTEGER NOT NULL DEFAULT 0,
    sort_order   INTEGER NOT NULL DEFAULT 0,

    FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE SET NULL
);

CREATE INDEX idx_tasks_owner_project   ON tasks(owner_id, project_id);
CREATE INDEX idx_tasks_owner_date      ON tasks(owner_id, task_date);
CREATE INDEX idx_tasks_owner_completed ON tasks(owner_id, completed_at);
`,
	},
	{
		Version:     3,
		Description: "pomodoro_sessions: focus sessions",
		SQL: `
CREATE TABLE pomodoro_sessions (
    id               INTEGER PRIMARY KEY,
    owner_id         TEXT NOT NULL,
    project_id       INTEGER,
    date             TEXT NOT NULL,
    duration_minutes INTEGER NOT NULL CHECK (duration_minutes >= 0),

    FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE SET NULL
);

CREATE INDEX idx_pomodoro_owner_project ON pomodoro_sessions(owner_id, project_id);
CREATE INDEX idx_pomodoro_owner_date    ON pomodoro_sessions(owner_id, date);
`,
	},
	{
		Version:     4,
		Description: "workout_sessions and exercise_logs",
		SQL: `
CREATE TABLE workout_sessions (
    id               INTEGER PRIMARY KEY,
    owner_id         TEXT NOT NULL,
    date             TEXT NOT NULL,
    name             TEXT NOT NULL,
    duration_minutes INTEGER NOT NULL DEFAULT 0,
    note             TEXT
);

CREATE INDEX idx_workout_owner_date ON workout_sessions(owner_id, date);

CREATE TABLE exercise_logs (
    id            INTEGER PRIMARY KEY,
    workout_id    INTEGER NOT NULL,
    exercise_name TEXT NOT NULL,
    sets          INTEGER NOT NULL DEFAULT 0,
    reps          TEXT NOT NULL DEFAULT '',
    weight        REAL NOT NULL DEFAULT 0,
    volume_load   REAL NOT NULL DEFAULT 0,

    FOREIGN KEY (workout_id) REFERENCES workout_sessions(id) ON DELETE CASCADE
);

CREATE INDEX idx_exercise_workout ON exercise_logs(workout_id);
`,
	},
	{
		Version:     5,
		Description: "daily_health: sleep and mood",
		SQL: `
CREATE TABLE daily_health (
    id          INTEGER PRIMARY KEY,
    owner_id    TEXT NOT NULL,
    date        TEXT NOT NULL,
    sleep_hours REAL NOT NULL CHECK (sleep_hours >= 0),
    mood_score  REAL NOT NULL CHECK (mood_score >= 0),
    note        TEXT
);

CREATE INDEX idx_health_owner_date ON daily_health(owner_id, date);
`,
	},
	{
		Version:     6,
		Description: "user_abilities: persisted ability scores",
		SQL: `
CREATE TABLE user_abilities (
    owner_id    TEXT PRIMARY KEY,
    willpower   REAL NOT NULL DEFAULT 0,
    health      REAL NOT NULL DEFAULT 0,
    strength    REAL NOT NULL DEFAULT 0,
    computed_at INTEGER
);
`,
	},
	{
		Version:     7,
		Description: "index_documents: owner-scoped semantic index",
		SQL: `
CREATE TABLE index_documents (
    owner_id   TEXT NOT NULL,
    doc_id     TEXT NOT NULL,
    text       TEXT NOT NULL,
    metadata   TEXT NOT NULL DEFAULT '{}',
    embedding  BLOB NOT NULL,
    model      TEXT NOT NULL,
    dimensions INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,

    PRIMARY KEY (owner_id, doc_id)
);
`,
	},
}

func (db *DB) migrate() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
