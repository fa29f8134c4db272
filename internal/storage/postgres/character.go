package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/fablebot/fablebot/internal/game/character"
	"github.com/fablebot/fablebot/internal/game/effect"
)

// ErrCharacterNameTaken is returned when creating a character with a name already used in the chat.
var ErrCharacterNameTaken = errors.New("character name already taken")

// CharacterRepository provides character persistence operations.
type CharacterRepository struct {
	db Querier
}

// NewCharacterRepository creates a CharacterRepository backed by the given querier.
//
// Precondition: db must be a valid, open pool or transaction.
func NewCharacterRepository(db Querier) *CharacterRepository {
	return &CharacterRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *CharacterRepository) WithTx(tx Querier) *CharacterRepository {
	return &CharacterRepository{db: tx}
}

const characterColumns = `id, chat_id, name, class, race, level, experience, gold, ability_points,
	       strength, dexterity, constitution, intelligence, wisdom, charisma,
	       max_hp, current_hp, alive, created_at, updated_at`

func scanCharacter(row pgx.Row) (*character.Character, error) {
	var c character.Character
	err := row.Scan(
		&c.ID, &c.ChatID, &c.Name, &c.Class, &c.Race,
		&c.Level, &c.Experience, &c.Gold, &c.AbilityPoints,
		&c.Abilities.Strength, &c.Abilities.Dexterity, &c.Abilities.Constitution,
		&c.Abilities.Intelligence, &c.Abilities.Wisdom, &c.Abilities.Charisma,
		&c.MaxHP, &c.CurrentHP, &c.Alive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new character and returns it with ID and timestamps set.
//
// Precondition: c.ChatID must be set; c.Name must be non-empty.
// Postcondition: Returns the created character with ID set, or ErrCharacterNameTaken on duplicate.
func (r *CharacterRepository) Create(ctx context.Context, c *character.Character) (*character.Character, error) {
	out, err := scanCharacter(r.db.QueryRow(ctx, `
		INSERT INTO characters
			(chat_id, name, class, race, level, experience, gold, ability_points,
			 strength, dexterity, constitution, intelligence, wisdom, charisma,
			 max_hp, current_hp, alive)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		RETURNING `+characterColumns,
		c.ChatID, c.Name, c.Class, c.Race, c.Level, c.Experience, c.Gold, c.AbilityPoints,
		c.Abilities.Strength, c.Abilities.Dexterity, c.Abilities.Constitution,
		c.Abilities.Intelligence, c.Abilities.Wisdom, c.Abilities.Charisma,
		c.MaxHP, c.CurrentHP, c.Alive,
	))
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrCharacterNameTaken
		}
		return nil, fmt.Errorf("inserting character: %w", err)
	}
	return out, nil
}

// GetByID retrieves a character by its primary key.
//
// Precondition: id must be > 0.
// Postcondition: Returns the Character or character.ErrNotFound.
func (r *CharacterRepository) GetByID(ctx context.Context, id int64) (*character.Character, error) {
	c, err := scanCharacter(r.db.QueryRow(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, character.ErrNotFound
		}
		return nil, fmt.Errorf("querying character: %w", err)
	}
	return c, nil
}

// ListAliveByChat returns all living characters in the given chat, ordered by created_at.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *CharacterRepository) ListAliveByChat(ctx context.Context, chatID int64) ([]*character.Character, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+characterColumns+` FROM characters
		 WHERE chat_id = $1 AND alive ORDER BY created_at ASC`, chatID)
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}
	defer rows.Close()

	chars := make([]*character.Character, 0)
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning character row: %w", err)
		}
		chars = append(chars, c)
	}
	return chars, rows.Err()
}

// UpdateProgress persists a character's mutable progression state after a
// resolution: level, experience, gold, ability points, HP, and the alive flag.
//
// Precondition: c.ID must be > 0.
// Postcondition: Returns nil on success, character.ErrNotFound if no row updated.
func (r *CharacterRepository) UpdateProgress(ctx context.Context, c *character.Character) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE characters
		SET level = $2, experience = $3, gold = $4, ability_points = $5,
		    max_hp = $6, current_hp = $7, alive = $8, updated_at = NOW()
		WHERE id = $1`,
		c.ID, c.Level, c.Experience, c.Gold, c.AbilityPoints,
		c.MaxHP, c.CurrentHP, c.Alive,
	)
	if err != nil {
		return fmt.Errorf("updating character progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return character.ErrNotFound
	}
	return nil
}

// Revive restores a dead character to life at a fraction of max HP.
// The quest engine never calls this; it exists for the external revival path.
//
// Precondition: id must be > 0; fraction must be in (0, 1].
// Postcondition: The character is alive with at least 1 HP, or character.ErrNotFound.
func (r *CharacterRepository) Revive(ctx context.Context, id int64, fraction float64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE characters
		SET alive = true,
		    current_hp = GREATEST(1, FLOOR(max_hp * $2)::int),
		    updated_at = NOW()
		WHERE id = $1 AND NOT alive`,
		id, fraction,
	)
	if err != nil {
		return fmt.Errorf("reviving character: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return character.ErrNotFound
	}
	return nil
}

// AddEffect records an applied effect on a character.
//
// Precondition: a.Effect has passed Validate.
func (r *CharacterRepository) AddEffect(ctx context.Context, characterID int64, a effect.Active) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO character_effects
			(character_id, kind, duration, remaining, attribute, delta, state, title)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		characterID, string(a.Effect.Kind), a.Effect.Duration, a.Remaining,
		a.Effect.Attribute, a.Effect.Delta, a.Effect.State, a.Effect.Title,
	)
	if err != nil {
		return fmt.Errorf("inserting character effect: %w", err)
	}
	return nil
}

// DecayEffects ages a character's timed effects by one unit and removes the
// ones that expire. Permanent effects carry the -1 sentinel in remaining and
// are never touched.
func (r *CharacterRepository) DecayEffects(ctx context.Context, characterID int64) error {
	if _, err := r.db.Exec(ctx, `
		UPDATE character_effects SET remaining = remaining - 1
		WHERE character_id = $1 AND remaining > 0`,
		characterID,
	); err != nil {
		return fmt.Errorf("decaying character effects: %w", err)
	}
	if _, err := r.db.Exec(ctx, `
		DELETE FROM character_effects
		WHERE character_id = $1 AND remaining = 0`,
		characterID,
	); err != nil {
		return fmt.Errorf("pruning expired effects: %w", err)
	}
	return nil
}

// ListEffects returns the active effects recorded for a character, in
// application order.
func (r *CharacterRepository) ListEffects(ctx context.Context, characterID int64) ([]effect.Active, error) {
	rows, err := r.db.Query(ctx, `
		SELECT kind, duration, remaining, attribute, delta, state, title
		FROM character_effects WHERE character_id = $1 ORDER BY id ASC`,
		characterID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing character effects: %w", err)
	}
	defer rows.Close()

	effects := make([]effect.Active, 0)
	for rows.Next() {
		var a effect.Active
		var kind string
		if err := rows.Scan(
			&kind, &a.Effect.Duration, &a.Remaining,
			&a.Effect.Attribute, &a.Effect.Delta, &a.Effect.State, &a.Effect.Title,
		); err != nil {
			return nil, fmt.Errorf("scanning effect row: %w", err)
		}
		a.Effect.Kind = effect.Kind(kind)
		effects = append(effects, a)
	}
	return effects, rows.Err()
}
