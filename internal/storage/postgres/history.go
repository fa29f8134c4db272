package postgres

import (
	"context"
	"fmt"

	"github.com/fablebot/fablebot/internal/game/quest"
)

// HistoryRepository provides write-once quest resolution audit records.
type HistoryRepository struct {
	db Querier
}

// NewHistoryRepository creates a HistoryRepository backed by the given querier.
//
// Precondition: db must be a valid, open pool or transaction.
func NewHistoryRepository(db Querier) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *HistoryRepository) WithTx(tx Querier) *HistoryRepository {
	return &HistoryRepository{db: tx}
}

// Record inserts one resolution audit row.
//
// Precondition: e.ChatID, e.CharacterID, e.AssignmentID, and e.TemplateID must be set.
// Postcondition: Returns the stored entry with ID and ResolvedAt set.
func (r *HistoryRepository) Record(ctx context.Context, e *quest.HistoryEntry) (*quest.HistoryEntry, error) {
	var out quest.HistoryEntry
	err := r.db.QueryRow(ctx, `
		INSERT INTO quest_history
			(chat_id, character_id, assignment_id, template_id,
			 roll, modifier, total, tier_range, success, critical,
			 xp_awarded, gold_delta, damage_taken, item_ids, resolved_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING id, chat_id, character_id, assignment_id, template_id,
		          roll, modifier, total, tier_range, success, critical,
		          xp_awarded, gold_delta, damage_taken, item_ids, resolved_at`,
		e.ChatID, e.CharacterID, e.AssignmentID, e.TemplateID,
		e.Roll, e.Modifier, e.Total, e.TierRange, e.Success, e.Critical,
		e.XPAwarded, e.GoldDelta, e.DamageTaken, e.ItemIDs, e.ResolvedAt,
	).Scan(
		&out.ID, &out.ChatID, &out.CharacterID, &out.AssignmentID, &out.TemplateID,
		&out.Roll, &out.Modifier, &out.Total, &out.TierRange, &out.Success, &out.Critical,
		&out.XPAwarded, &out.GoldDelta, &out.DamageTaken, &out.ItemIDs, &out.ResolvedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting history entry: %w", err)
	}
	return &out, nil
}

// ListByChat returns the chat's most recent resolutions, newest first.
//
// Precondition: limit must be >= 1.
func (r *HistoryRepository) ListByChat(ctx context.Context, chatID int64, limit int) ([]*quest.HistoryEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, chat_id, character_id, assignment_id, template_id,
		       roll, modifier, total, tier_range, success, critical,
		       xp_awarded, gold_delta, damage_taken, item_ids, resolved_at
		FROM quest_history WHERE chat_id = $1
		ORDER BY resolved_at DESC, id DESC LIMIT $2`,
		chatID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	entries := make([]*quest.HistoryEntry, 0)
	for rows.Next() {
		var e quest.HistoryEntry
		if err := rows.Scan(
			&e.ID, &e.ChatID, &e.CharacterID, &e.AssignmentID, &e.TemplateID,
			&e.Roll, &e.Modifier, &e.Total, &e.TierRange, &e.Success, &e.Critical,
			&e.XPAwarded, &e.GoldDelta, &e.DamageTaken, &e.ItemIDs, &e.ResolvedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
