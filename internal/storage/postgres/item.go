package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/fablebot/fablebot/internal/game/character"
	"github.com/fablebot/fablebot/internal/game/loot"
)

// ErrItemNotFound is returned when an item lookup yields no results.
var ErrItemNotFound = errors.New("item not found")

// ItemRepository provides item catalog and inventory persistence operations.
// It satisfies loot.CatalogSource for the generator's catalog path.
type ItemRepository struct {
	db Querier
}

// NewItemRepository creates an ItemRepository backed by the given querier.
//
// Precondition: db must be a valid, open pool or transaction.
func NewItemRepository(db Querier) *ItemRepository {
	return &ItemRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *ItemRepository) WithTx(tx Querier) *ItemRepository {
	return &ItemRepository{db: tx}
}

const itemColumns = `id, instance_id, name, description, rarity, category, bonuses,
	       required_level, required_attribute, required_score, value, is_unique, synthesized`

func scanItem(row pgx.Row) (*loot.Item, error) {
	var (
		i           loot.Item
		bonusesJSON []byte
		reqAttr     string
	)
	err := row.Scan(
		&i.ID, &i.InstanceID, &i.Name, &i.Description, &i.Rarity, &i.Category, &bonusesJSON,
		&i.RequiredLevel, &reqAttr, &i.RequiredScore, &i.Value, &i.Unique, &i.Synthesized,
	)
	if err != nil {
		return nil, err
	}
	i.RequiredAttribute = character.Attribute(reqAttr)
	if len(bonusesJSON) > 0 {
		if err := json.Unmarshal(bonusesJSON, &i.Bonuses); err != nil {
			return nil, fmt.Errorf("decoding item bonuses: %w", err)
		}
	}
	return &i, nil
}

// Create inserts an item row and returns it with ID set. Both authored
// catalog entries (seeder) and synthesized instances (engine, pre-award) go
// through here.
//
// Precondition: item has passed Validate.
func (r *ItemRepository) Create(ctx context.Context, item *loot.Item) (*loot.Item, error) {
	bonusesJSON, err := json.Marshal(item.Bonuses)
	if err != nil {
		return nil, fmt.Errorf("encoding item bonuses: %w", err)
	}

	out, err := scanItem(r.db.QueryRow(ctx, `
		INSERT INTO items
			(instance_id, name, description, rarity, category, bonuses,
			 required_level, required_attribute, required_score, value, is_unique, synthesized)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING `+itemColumns,
		item.InstanceID, item.Name, item.Description, string(item.Rarity), string(item.Category),
		bonusesJSON, item.RequiredLevel, string(item.RequiredAttribute), item.RequiredScore,
		item.Value, item.Unique, item.Synthesized,
	))
	if err != nil {
		return nil, fmt.Errorf("inserting item: %w", err)
	}
	return out, nil
}

// UpsertAuthored inserts or refreshes an authored catalog item keyed on its
// name, so seeding is idempotent. Synthesized instance rows never conflict
// with authored rows; the unique index only covers NOT synthesized.
//
// Precondition: item has passed Validate and item.Synthesized is false.
func (r *ItemRepository) UpsertAuthored(ctx context.Context, item *loot.Item) (*loot.Item, error) {
	bonusesJSON, err := json.Marshal(item.Bonuses)
	if err != nil {
		return nil, fmt.Errorf("encoding item bonuses: %w", err)
	}

	out, err := scanItem(r.db.QueryRow(ctx, `
		INSERT INTO items
			(instance_id, name, description, rarity, category, bonuses,
			 required_level, required_attribute, required_score, value, is_unique, synthesized)
		VALUES ('', $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, FALSE)
		ON CONFLICT (name) WHERE NOT synthesized DO UPDATE SET
			description        = EXCLUDED.description,
			rarity             = EXCLUDED.rarity,
			category           = EXCLUDED.category,
			bonuses            = EXCLUDED.bonuses,
			required_level     = EXCLUDED.required_level,
			required_attribute = EXCLUDED.required_attribute,
			required_score     = EXCLUDED.required_score,
			value              = EXCLUDED.value,
			is_unique          = EXCLUDED.is_unique
		RETURNING `+itemColumns,
		item.Name, item.Description, string(item.Rarity), string(item.Category),
		bonusesJSON, item.RequiredLevel, string(item.RequiredAttribute), item.RequiredScore,
		item.Value, item.Unique,
	))
	if err != nil {
		return nil, fmt.Errorf("upserting authored item: %w", err)
	}
	return out, nil
}

// GetByID retrieves an item by its primary key.
//
// Postcondition: Returns the item or ErrItemNotFound.
func (r *ItemRepository) GetByID(ctx context.Context, id int64) (*loot.Item, error) {
	item, err := scanItem(r.db.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("querying item: %w", err)
	}
	return item, nil
}

// CandidatesByRarity returns authored catalog items of the given rarity.
// When includeOwnedUniques is false, unique items already in the character's
// inventory are excluded.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *ItemRepository) CandidatesByRarity(ctx context.Context, rarity loot.Rarity, characterID int64, includeOwnedUniques bool) ([]*loot.Item, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+itemColumns+` FROM items
		WHERE rarity = $1 AND NOT synthesized
		  AND ($3 OR NOT is_unique OR id NOT IN
		       (SELECT item_id FROM inventory WHERE character_id = $2))
		ORDER BY id ASC`,
		string(rarity), characterID, includeOwnedUniques,
	)
	if err != nil {
		return nil, fmt.Errorf("listing catalog candidates: %w", err)
	}
	defer rows.Close()

	items := make([]*loot.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item row: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// AddToInventory grants quantity copies of an item to a character. Repeated
// grants of the same item accumulate quantity, which is how consumables stack.
//
// Precondition: characterID and itemID must reference existing rows; quantity >= 1.
func (r *ItemRepository) AddToInventory(ctx context.Context, characterID, itemID int64, quantity int) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO inventory (character_id, item_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (character_id, item_id)
		DO UPDATE SET quantity = inventory.quantity + EXCLUDED.quantity`,
		characterID, itemID, quantity,
	)
	if err != nil {
		return fmt.Errorf("adding item to inventory: %w", err)
	}
	return nil
}

// InventoryEntry is one inventory row joined with its item.
type InventoryEntry struct {
	Item     *loot.Item
	Quantity int
}

// Inventory returns a character's full inventory, ordered by acquisition.
func (r *ItemRepository) Inventory(ctx context.Context, characterID int64) ([]InventoryEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT i.id, i.instance_id, i.name, i.description, i.rarity, i.category, i.bonuses,
		       i.required_level, i.required_attribute, i.required_score, i.value, i.is_unique, i.synthesized,
		       inv.quantity
		FROM inventory inv JOIN items i ON i.id = inv.item_id
		WHERE inv.character_id = $1
		ORDER BY inv.acquired_at ASC, i.id ASC`,
		characterID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing inventory: %w", err)
	}
	defer rows.Close()

	entries := make([]InventoryEntry, 0)
	for rows.Next() {
		var (
			i           loot.Item
			bonusesJSON []byte
			reqAttr     string
			qty         int
		)
		if err := rows.Scan(
			&i.ID, &i.InstanceID, &i.Name, &i.Description, &i.Rarity, &i.Category, &bonusesJSON,
			&i.RequiredLevel, &reqAttr, &i.RequiredScore, &i.Value, &i.Unique, &i.Synthesized,
			&qty,
		); err != nil {
			return nil, fmt.Errorf("scanning inventory row: %w", err)
		}
		i.RequiredAttribute = character.Attribute(reqAttr)
		if len(bonusesJSON) > 0 {
			if err := json.Unmarshal(bonusesJSON, &i.Bonuses); err != nil {
				return nil, fmt.Errorf("decoding item bonuses: %w", err)
			}
		}
		entries = append(entries, InventoryEntry{Item: &i, Quantity: qty})
	}
	return entries, rows.Err()
}
