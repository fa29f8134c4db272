// Package engine orchestrates the quest lifecycle: eligibility-gated
// assignment, roll resolution against outcome tables, and the transactional
// application of rewards and mutations.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fablebot/fablebot/internal/config"
	"github.com/fablebot/fablebot/internal/game/character"
	"github.com/fablebot/fablebot/internal/game/dice"
	"github.com/fablebot/fablebot/internal/game/effect"
	"github.com/fablebot/fablebot/internal/game/loot"
	"github.com/fablebot/fablebot/internal/game/quest"
	"github.com/fablebot/fablebot/internal/scripting"
	"github.com/fablebot/fablebot/internal/storage"
)

// AssignmentResult is the outcome of a successful TryAssign.
type AssignmentResult struct {
	Assignment *quest.Assignment
	Template   *quest.Template
	// DailyCount is the chat's assignment count for the day after this grant.
	DailyCount int
}

// QuestResult is the outcome of a successful Resolve.
type QuestResult struct {
	Template   *quest.Template
	Tier       quest.OutcomeTier
	Resolution quest.Resolution

	XPAwarded   int
	GoldDelta   int // quest gold including the lose-all sentinel, plus loot gold
	DamageTaken int
	Died        bool
	LevelUps    []character.LevelUp
	Items       []*loot.Item
	Effects     []effect.Effect

	Character *character.Character
	History   *quest.HistoryEntry
}

// Engine drives quest assignment and resolution. All state lives in the
// store; the engine holds only immutable content and per-chat mutexes.
type Engine struct {
	store     storage.Store
	catalog   *quest.Catalog
	generator *loot.Generator
	hooks     *scripting.Hooks // nil when scripting is disabled
	clock     Clock
	src       dice.Source
	logger    *zap.Logger
	cfg       config.QuestConfig
	loc       *time.Location

	mu        sync.Mutex
	chatLocks map[int64]*sync.Mutex
}

// New creates an Engine.
//
// Precondition: store, catalog, generator, clock, src, and logger are non-nil;
// cfg has passed config validation. hooks may be nil.
func New(store storage.Store, catalog *quest.Catalog, generator *loot.Generator, hooks *scripting.Hooks, clock Clock, src dice.Source, logger *zap.Logger, cfg config.QuestConfig) (*Engine, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("engine: resolving timezone: %w", err)
	}
	return &Engine{
		store:     store,
		catalog:   catalog,
		generator: generator,
		hooks:     hooks,
		clock:     clock,
		src:       src,
		logger:    logger,
		cfg:       cfg,
		loc:       loc,
		chatLocks: make(map[int64]*sync.Mutex),
	}, nil
}

// chatLock returns the mutex serialising resolutions for one chat.
func (e *Engine) chatLock(chatID int64) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.chatLocks[chatID]
	if !ok {
		l = &sync.Mutex{}
		e.chatLocks[chatID] = l
	}
	return l
}

// servingDay truncates t to the calendar day in the serving zone.
func (e *Engine) servingDay(t time.Time) time.Time {
	t = t.In(e.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, e.loc)
}

// inWindow reports whether t falls inside the daily serving window.
func (e *Engine) inWindow(t time.Time) bool {
	hour := t.In(e.loc).Hour()
	return hour >= e.cfg.WindowOpenHour && hour < e.cfg.WindowCloseHour
}

// TryAssign runs the eligibility gate for a chat and, if every check passes,
// assigns a random quest. Checks run in order: serving window, one active
// quest per chat, daily cap. The template pick prefers the requesting
// character's class-primary attribute half the time.
//
// Precondition: requesterID should name a character in the chat; an unknown
// requester disables the attribute preference but does not refuse.
// Postcondition: on success the assignment row and daily counter are
// committed together. Refusals are *IneligibleError.
func (e *Engine) TryAssign(ctx context.Context, chatID, requesterID int64) (*AssignmentResult, error) {
	now := e.clock.Now()

	if !e.inWindow(now) {
		return nil, &IneligibleError{Reason: ReasonOutsideWindow}
	}

	if _, err := e.store.GetActiveAssignment(ctx, chatID, now); err == nil {
		return nil, &IneligibleError{Reason: ReasonAlreadyActive}
	} else if !errors.Is(err, quest.ErrNoActiveAssignment) {
		return nil, fmt.Errorf("engine: checking active assignment: %w", err)
	}

	day := e.servingDay(now)
	count, err := e.store.DailyCount(ctx, chatID, day)
	if err != nil {
		return nil, fmt.Errorf("engine: checking daily cap: %w", err)
	}
	if count >= e.cfg.DailyCap {
		return nil, &IneligibleError{Reason: ReasonCapReached}
	}

	chars, err := e.store.ListAliveCharacters(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("engine: listing characters: %w", err)
	}
	if len(chars) == 0 {
		return nil, &IneligibleError{Reason: ReasonNoCharacters}
	}

	levelCap := chars[0].Level
	var preferred character.Attribute
	for _, c := range chars {
		if c.Level < levelCap {
			levelCap = c.Level
		}
		if c.ID == requesterID {
			preferred = character.PrimaryAttribute(c.Class)
		}
	}

	tmpl, ok := e.catalog.PickRandom(e.src, levelCap, preferred)
	if !ok {
		return nil, &IneligibleError{Reason: ReasonNoTemplates}
	}

	result := &AssignmentResult{Template: tmpl}
	err = e.store.InTx(ctx, func(tx storage.Store) error {
		a, err := tx.CreateAssignment(ctx, &quest.Assignment{
			ChatID:     chatID,
			TemplateID: tmpl.ID,
			AssignedAt: now,
			ExpiresAt:  now.Add(e.cfg.AssignmentDuration),
		})
		if err != nil {
			return err
		}
		result.Assignment = a

		result.DailyCount, err = tx.IncrementDailyCount(ctx, chatID, day)
		return err
	})
	if err != nil {
		if errors.Is(err, quest.ErrActiveAssignmentExists) {
			// Lost the insert race to a concurrent request.
			return nil, &IneligibleError{Reason: ReasonAlreadyActive}
		}
		return nil, fmt.Errorf("engine: creating assignment: %w", err)
	}

	e.logger.Info("quest assigned",
		zap.Int64("chat_id", chatID),
		zap.String("template_id", tmpl.ID),
		zap.Time("expires_at", result.Assignment.ExpiresAt),
		zap.Int("daily_count", result.DailyCount),
	)
	return result, nil
}

// Resolve applies a natural d20 roll to the chat's active assignment. The
// matched tier's rewards and mutations — XP with leveling, gold including the
// lose-all sentinel, damage with possible death, effects, and loot — are
// computed in memory and committed in one transaction whose first statement
// is the conditional completion flip. Losing that flip writes nothing: the
// transaction rolls back and ErrAlreadyResolved is returned.
//
// The character's active effects shift the governing attribute's score before
// the modifier is computed, and age by one quest when the resolution commits;
// expired effects are pruned, permanent ones never age.
//
// Precondition: naturalRoll in [1, 20]; characterID names a living character
// in the chat.
func (e *Engine) Resolve(ctx context.Context, chatID, characterID int64, naturalRoll int) (*QuestResult, error) {
	if naturalRoll < 1 || naturalRoll > 20 {
		return nil, ErrRollOutOfRange
	}

	lock := e.chatLock(chatID)
	lock.Lock()
	defer lock.Unlock()

	now := e.clock.Now()

	assignment, err := e.store.GetActiveAssignment(ctx, chatID, now)
	if err != nil {
		return nil, err
	}

	char, err := e.store.GetCharacter(ctx, characterID)
	if err != nil {
		return nil, err
	}
	if char.ChatID != chatID {
		return nil, ErrCharacterNotInChat
	}
	if !char.Alive {
		return nil, ErrDead
	}

	tmpl, ok := e.catalog.Get(assignment.TemplateID)
	if !ok {
		return nil, fmt.Errorf("engine: assignment %d references unknown template %q", assignment.ID, assignment.TemplateID)
	}

	active, err := e.store.ListEffects(ctx, characterID)
	if err != nil {
		return nil, err
	}
	activeSet := effect.NewActiveSet(active...)

	// Active effects shift the governing attribute's score before the
	// modifier is computed, so a -2 strength curse can change the tier.
	score := char.Abilities.Score(tmpl.Attribute) + activeSet.AttributeModifier(string(tmpl.Attribute))
	mod := character.Modifier(score)
	tier, res := quest.ResolveOutcome(tmpl, naturalRoll, mod)
	if res.Fallback {
		e.logger.Warn("outcome table gap, substituted worst tier",
			zap.String("template_id", tmpl.ID),
			zap.Int("roll", res.Roll),
			zap.Int("total", res.Total),
		)
	}

	xp := int(float64(tmpl.BaseXP) * tier.XPMultiplier)
	var gold int
	if tier.GoldMultiplier == quest.LoseAllGold {
		gold = -char.Gold
	} else {
		gold = int(float64(tmpl.BaseGold) * tier.GoldMultiplier)
	}
	if naturalRoll == 20 && gold > 0 {
		gold *= 2
	}

	if e.hooks != nil && tmpl.Hook != "" {
		xp, gold = e.hooks.AdjustRewards(tmpl.Hook, scripting.RewardContext{
			QuestID: tmpl.ID,
			Roll:    res.Roll,
			Total:   res.Total,
			Success: tier.Success,
			XP:      xp,
			Gold:    gold,
		})
	}

	result := &QuestResult{
		Template:   tmpl,
		Tier:       tier,
		Resolution: res,
		XPAwarded:  xp,
		GoldDelta:  gold,
		Effects:    tier.Effects,
		Character:  char,
	}

	result.LevelUps = character.ApplyExperience(char, xp)
	character.ApplyGoldDelta(char, gold)

	if tier.Damage != "" {
		roll, err := dice.RollExpr(tier.Damage, e.src)
		if err != nil {
			return nil, fmt.Errorf("engine: template %q damage formula: %w", tmpl.ID, err)
		}
		result.DamageTaken = roll.ClampedTotal()
		result.Died = character.ApplyDamage(char, result.DamageTaken)
	}

	if tier.Success || (naturalRoll == 20 && e.cfg.CritLoot) {
		lootResult, err := e.generator.Generate(ctx, loot.Request{
			Difficulty:        tmpl.Difficulty,
			NaturalRoll:       naturalRoll,
			CharacterID:       characterID,
			CharacterLevel:    char.Level,
			LegendaryUnlocked: e.cfg.LegendaryUnlocked,
		})
		if err != nil {
			return nil, fmt.Errorf("engine: generating loot: %w", err)
		}
		result.Items = lootResult.Items
		result.GoldDelta += lootResult.Gold
		character.ApplyGoldDelta(char, lootResult.Gold)
	}

	err = e.store.InTx(ctx, func(tx storage.Store) error {
		flipped, err := tx.CompleteAssignment(ctx, assignment.ID)
		if err != nil {
			return err
		}
		if !flipped {
			return ErrAlreadyResolved
		}

		itemIDs := make([]int64, 0, len(result.Items))
		for i, item := range result.Items {
			if item.ID == 0 {
				saved, err := tx.CreateItem(ctx, item)
				if err != nil {
					return err
				}
				result.Items[i] = saved
				item = saved
			}
			if err := tx.AddItemToInventory(ctx, characterID, item.ID, 1); err != nil {
				return err
			}
			itemIDs = append(itemIDs, item.ID)
		}

		if err := tx.UpdateCharacterProgress(ctx, char); err != nil {
			return err
		}

		// Age existing effects by one quest before applying this tier's,
		// so fresh effects keep their full duration.
		if err := tx.DecayEffects(ctx, characterID); err != nil {
			return err
		}
		for _, ef := range tier.Effects {
			if err := tx.AddEffect(ctx, characterID, effect.Active{Effect: ef, Remaining: ef.Duration}); err != nil {
				return err
			}
		}

		result.History, err = tx.RecordHistory(ctx, &quest.HistoryEntry{
			ChatID:       chatID,
			CharacterID:  characterID,
			AssignmentID: assignment.ID,
			TemplateID:   tmpl.ID,
			Roll:         res.Roll,
			Modifier:     res.Modifier,
			Total:        res.Total,
			TierRange:    tier.Range.Raw,
			Success:      tier.Success,
			Critical:     res.Critical,
			XPAwarded:    xp,
			GoldDelta:    result.GoldDelta,
			DamageTaken:  result.DamageTaken,
			ItemIDs:      itemIDs,
			ResolvedAt:   now,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyResolved) {
			return nil, ErrAlreadyResolved
		}
		return nil, fmt.Errorf("engine: committing resolution: %w", err)
	}

	e.logger.Info("quest resolved",
		zap.Int64("chat_id", chatID),
		zap.Int64("character_id", characterID),
		zap.String("template_id", tmpl.ID),
		zap.Int("roll", res.Roll),
		zap.Int("total", res.Total),
		zap.Bool("success", tier.Success),
		zap.Int("xp", xp),
		zap.Int("gold", result.GoldDelta),
		zap.Int("damage", result.DamageTaken),
		zap.Bool("died", result.Died),
		zap.Int("items", len(result.Items)),
	)
	return result, nil
}

// SweepExpired marks every expired, unresolved assignment completed. Run it
// on a ticker; a missed sweep only delays the next assignment, it never
// corrupts state.
func (e *Engine) SweepExpired(ctx context.Context) (int64, error) {
	swept, err := e.store.SweepExpiredAssignments(ctx, e.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("engine: sweeping expired assignments: %w", err)
	}
	if swept > 0 {
		e.logger.Info("expired assignments swept", zap.Int64("count", swept))
	}
	return swept, nil
}
