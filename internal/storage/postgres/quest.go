package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fablebot/fablebot/internal/game/quest"
)

// QuestRepository provides assignment and daily-counter persistence operations.
type QuestRepository struct {
	db Querier
}

// NewQuestRepository creates a QuestRepository backed by the given querier.
//
// Precondition: db must be a valid, open pool or transaction.
func NewQuestRepository(db Querier) *QuestRepository {
	return &QuestRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *QuestRepository) WithTx(tx Querier) *QuestRepository {
	return &QuestRepository{db: tx}
}

// CreateAssignment inserts a new assignment for a chat. The partial unique
// index on (chat_id) WHERE NOT completed makes concurrent requests race
// safely: exactly one insert wins.
//
// Precondition: a.ChatID and a.TemplateID must be set; a.ExpiresAt > a.AssignedAt.
// Postcondition: Returns the stored assignment with ID set, or
// quest.ErrActiveAssignmentExists if the chat already has an open assignment.
func (r *QuestRepository) CreateAssignment(ctx context.Context, a *quest.Assignment) (*quest.Assignment, error) {
	var out quest.Assignment
	err := r.db.QueryRow(ctx, `
		INSERT INTO quest_assignments (chat_id, template_id, assigned_at, expires_at, completed)
		VALUES ($1, $2, $3, $4, false)
		RETURNING id, chat_id, template_id, assigned_at, expires_at, completed`,
		a.ChatID, a.TemplateID, a.AssignedAt, a.ExpiresAt,
	).Scan(&out.ID, &out.ChatID, &out.TemplateID, &out.AssignedAt, &out.ExpiresAt, &out.Completed)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, quest.ErrActiveAssignmentExists
		}
		return nil, fmt.Errorf("inserting assignment: %w", err)
	}
	return &out, nil
}

// GetActive returns the chat's uncompleted, unexpired assignment.
//
// Postcondition: Returns the assignment or quest.ErrNoActiveAssignment.
func (r *QuestRepository) GetActive(ctx context.Context, chatID int64, now time.Time) (*quest.Assignment, error) {
	var a quest.Assignment
	err := r.db.QueryRow(ctx, `
		SELECT id, chat_id, template_id, assigned_at, expires_at, completed
		FROM quest_assignments
		WHERE chat_id = $1 AND NOT completed AND expires_at > $2`,
		chatID, now,
	).Scan(&a.ID, &a.ChatID, &a.TemplateID, &a.AssignedAt, &a.ExpiresAt, &a.Completed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, quest.ErrNoActiveAssignment
		}
		return nil, fmt.Errorf("querying active assignment: %w", err)
	}
	return &a, nil
}

// Complete flips the assignment to completed if and only if it is still open.
// The conditional update is the serialization point for concurrent
// resolutions: the caller that observes flipped == true owns the resolution.
//
// Precondition: id must be > 0.
// Postcondition: Returns true if this call performed the flip.
func (r *QuestRepository) Complete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE quest_assignments SET completed = true
		WHERE id = $1 AND NOT completed`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("completing assignment: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// SweepExpired marks all expired, uncompleted assignments completed.
//
// Postcondition: Returns the number of assignments swept.
func (r *QuestRepository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE quest_assignments SET completed = true
		WHERE NOT completed AND expires_at <= $1`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("sweeping expired assignments: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DailyCount returns the number of quests assigned to the chat on the given day.
//
// Precondition: day must be truncated to the calendar day in the serving zone.
func (r *QuestRepository) DailyCount(ctx context.Context, chatID int64, day time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT count FROM daily_quest_counters WHERE chat_id = $1 AND day = $2`,
		chatID, day,
	).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("querying daily counter: %w", err)
	}
	return count, nil
}

// IncrementDailyCount bumps the chat's counter for the given day, creating the
// row on first use.
//
// Postcondition: Returns the new count.
func (r *QuestRepository) IncrementDailyCount(ctx context.Context, chatID int64, day time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		INSERT INTO daily_quest_counters (chat_id, day, count)
		VALUES ($1, $2, 1)
		ON CONFLICT (chat_id, day)
		DO UPDATE SET count = daily_quest_counters.count + 1
		RETURNING count`,
		chatID, day,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("incrementing daily counter: %w", err)
	}
	return count, nil
}

// UpsertTemplate stores a quest template and its outcome tiers, replacing any
// previous version. Used by the content seeder; the engine reads templates
// from the in-memory catalog.
//
// Precondition: t has passed Validate.
func (r *QuestRepository) UpsertTemplate(ctx context.Context, t *quest.Template) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO quest_templates (id, title, description, difficulty, attribute, base_xp, base_gold, min_level, hook)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title, description = EXCLUDED.description,
			difficulty = EXCLUDED.difficulty, attribute = EXCLUDED.attribute,
			base_xp = EXCLUDED.base_xp, base_gold = EXCLUDED.base_gold,
			min_level = EXCLUDED.min_level, hook = EXCLUDED.hook`,
		t.ID, t.Title, t.Description, string(t.Difficulty), string(t.Attribute),
		t.BaseXP, t.BaseGold, t.MinLevel, t.Hook,
	)
	if err != nil {
		return fmt.Errorf("upserting template %q: %w", t.ID, err)
	}

	if _, err := r.db.Exec(ctx,
		`DELETE FROM outcome_tiers WHERE template_id = $1`, t.ID); err != nil {
		return fmt.Errorf("clearing tiers for template %q: %w", t.ID, err)
	}
	for i, tier := range t.Tiers {
		effectsJSON, err := json.Marshal(tier.Effects)
		if err != nil {
			return fmt.Errorf("encoding effects for template %q tier %d: %w", t.ID, i, err)
		}
		_, err = r.db.Exec(ctx, `
			INSERT INTO outcome_tiers
				(template_id, position, roll_range, text, success, xp_multiplier, gold_multiplier, damage, effects)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			t.ID, i, tier.Range.Raw, tier.Text, tier.Success,
			tier.XPMultiplier, tier.GoldMultiplier, tier.Damage, effectsJSON,
		)
		if err != nil {
			return fmt.Errorf("inserting tier %d for template %q: %w", i, t.ID, err)
		}
	}
	return nil
}
