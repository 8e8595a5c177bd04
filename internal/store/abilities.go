package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/motivaitor/insight/internal/ability"
	"github.com/motivaitor/insight/internal/activity"
)

// GetAbilities returns the owner's stored scores, or the zero State if none
// have been computed yet.
func (db *DB) GetAbilities(ctx context.Context, owner activity.OwnerID) (ability.State, error) {
	var s ability.State
	var computedAt sql.NullInt64
	err := db.QueryRowContext(ctx, `
		SELECT willpower, health, strength, computed_at
		FROM user_abilities WHERE owner_id = ?
	`, owner).Scan(&s.Willpower, &s.Health, &s.Strength, &computedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ability.State{}, nil
	}
	if err != nil {
		return ability.State{}, fmt.Errorf("get abilities: %w", err)
	}
	if computedAt.Valid {
		s.ComputedAt = fromMillis(computedAt.Int64)
	}
	return s, nil
}

// SaveAbilities stores or replaces the owner's scores.
func (db *DB) SaveAbilities(ctx context.Context, owner activity.OwnerID, s ability.State) error {
	if !owner.Valid() {
		return activity.ErrEmptyOwner
	}
	computed := s.ComputedAt
	if computed.IsZero() {
		computed = time.Now()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO user_abilities (owner_id, willpower, health, strength, computed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(owner_id) DO UPDATE SET
			willpower = excluded.willpower,
			health = excluded.health,
			strength = excluded.strength,
			computed_at = excluded.computed_at
	`, owner, s.Willpower, s.Health, s.Strength, millis(computed))
	if err != nil {
		return fmt.Errorf("save abilities: %w", err)
	}
	return nil
}
