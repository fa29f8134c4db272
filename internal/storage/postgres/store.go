package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/fablebot/fablebot/internal/game/character"
	"github.com/fablebot/fablebot/internal/game/effect"
	"github.com/fablebot/fablebot/internal/game/loot"
	"github.com/fablebot/fablebot/internal/game/quest"
	"github.com/fablebot/fablebot/internal/storage"
)

// Store aggregates the repositories behind the storage.Store contract and
// adds pgx transaction support.
type Store struct {
	pool       *Pool // nil when the store is a transactional view
	db         Querier
	characters *CharacterRepository
	quests     *QuestRepository
	items      *ItemRepository
	history    *HistoryRepository
}

var _ storage.Store = (*Store)(nil)

// NewStore creates a Store backed by the given pool.
//
// Precondition: pool must be open.
func NewStore(pool *Pool) *Store {
	return newStore(pool, pool.DB())
}

func newStore(pool *Pool, db Querier) *Store {
	return &Store{
		pool:       pool,
		db:         db,
		characters: NewCharacterRepository(db),
		quests:     NewQuestRepository(db),
		items:      NewItemRepository(db),
		history:    NewHistoryRepository(db),
	}
}

// Characters exposes the character repository for callers outside the engine
// (revival, character creation).
func (s *Store) Characters() *CharacterRepository { return s.characters }

// Items exposes the item repository; it doubles as the loot.CatalogSource.
func (s *Store) Items() *ItemRepository { return s.items }

// History exposes the history repository.
func (s *Store) History() *HistoryRepository { return s.history }

// Quests exposes the quest repository (template seeding).
func (s *Store) Quests() *QuestRepository { return s.quests }

// InTx begins a transaction, runs fn against a transaction-bound view of the
// store, and commits if fn returns nil.
//
// Precondition: the store must not already be a transactional view.
// Postcondition: all writes performed by fn are committed or rolled back together.
func (s *Store) InTx(ctx context.Context, fn func(storage.Store) error) error {
	if s.pool == nil {
		return fmt.Errorf("store: nested transactions are not supported")
	}
	tx, err := s.pool.DB().Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	// Rollback after a successful commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(newStore(nil, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *Store) GetCharacter(ctx context.Context, id int64) (*character.Character, error) {
	return s.characters.GetByID(ctx, id)
}

func (s *Store) ListAliveCharacters(ctx context.Context, chatID int64) ([]*character.Character, error) {
	return s.characters.ListAliveByChat(ctx, chatID)
}

func (s *Store) UpdateCharacterProgress(ctx context.Context, c *character.Character) error {
	return s.characters.UpdateProgress(ctx, c)
}

func (s *Store) AddEffect(ctx context.Context, characterID int64, a effect.Active) error {
	return s.characters.AddEffect(ctx, characterID, a)
}

func (s *Store) ListEffects(ctx context.Context, characterID int64) ([]effect.Active, error) {
	return s.characters.ListEffects(ctx, characterID)
}

func (s *Store) DecayEffects(ctx context.Context, characterID int64) error {
	return s.characters.DecayEffects(ctx, characterID)
}

func (s *Store) CreateAssignment(ctx context.Context, a *quest.Assignment) (*quest.Assignment, error) {
	return s.quests.CreateAssignment(ctx, a)
}

func (s *Store) GetActiveAssignment(ctx context.Context, chatID int64, now time.Time) (*quest.Assignment, error) {
	return s.quests.GetActive(ctx, chatID, now)
}

func (s *Store) CompleteAssignment(ctx context.Context, id int64) (bool, error) {
	return s.quests.Complete(ctx, id)
}

func (s *Store) SweepExpiredAssignments(ctx context.Context, now time.Time) (int64, error) {
	return s.quests.SweepExpired(ctx, now)
}

func (s *Store) DailyCount(ctx context.Context, chatID int64, day time.Time) (int, error) {
	return s.quests.DailyCount(ctx, chatID, day)
}

func (s *Store) IncrementDailyCount(ctx context.Context, chatID int64, day time.Time) (int, error) {
	return s.quests.IncrementDailyCount(ctx, chatID, day)
}

func (s *Store) CreateItem(ctx context.Context, item *loot.Item) (*loot.Item, error) {
	return s.items.Create(ctx, item)
}

func (s *Store) AddItemToInventory(ctx context.Context, characterID, itemID int64, quantity int) error {
	return s.items.AddToInventory(ctx, characterID, itemID, quantity)
}

func (s *Store) RecordHistory(ctx context.Context, e *quest.HistoryEntry) (*quest.HistoryEntry, error) {
	return s.history.Record(ctx, e)
}
