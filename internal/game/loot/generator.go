package loot

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fablebot/fablebot/internal/game/dice"
	"github.com/fablebot/fablebot/internal/game/quest"
)

// CatalogSource supplies pre-authored catalog items for the selection path.
type CatalogSource interface {
	// CandidatesByRarity returns catalog items of the given rarity. When
	// includeOwnedUniques is false, unique items already owned by the
	// character are excluded.
	CandidatesByRarity(ctx context.Context, rarity Rarity, characterID int64, includeOwnedUniques bool) ([]*Item, error)
}

// Request carries everything one loot generation needs to know.
type Request struct {
	Difficulty        quest.Difficulty
	NaturalRoll       int // unmodified d20 value
	CharacterID       int64
	CharacterLevel    int
	LegendaryUnlocked bool
}

// Result is the outcome of one loot generation.
type Result struct {
	Gold  int
	Items []*Item
}

// Generator runs the two-stage loot process: a weighted rarity draw, then a
// catalog pick or full synthesis. It is invoked only for successful or
// natural-20 outcomes; the caller decides that.
type Generator struct {
	parts   *Parts
	catalog CatalogSource
	src     dice.Source
	logger  *zap.Logger
}

// NewGenerator creates a Generator.
//
// Precondition: parts has passed Validate; catalog, src, and logger are non-nil.
func NewGenerator(parts *Parts, catalog CatalogSource, src dice.Source, logger *zap.Logger) *Generator {
	return &Generator{parts: parts, catalog: catalog, src: src, logger: logger}
}

// Generate rolls loot for one resolved quest. A natural 20 guarantees at
// least one item draw even when the difficulty's item-chance roll fails, and
// adds one bonus draw from the crit weight table. Loot gold is drawn from the
// difficulty's gold range and doubled on a natural 20.
//
// Postcondition: every returned item passes Validate; synthesized items carry
// Synthesized == true and no ID (the caller persists them).
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	profile := Profile(req.Difficulty, req.LegendaryUnlocked)
	crit := req.NaturalRoll == 20

	result := &Result{Gold: g.rollGold(profile)}
	if crit {
		result.Gold *= 2
	}

	draws := 0
	if g.src.Intn(100) < profile.ItemChance {
		draws = 1
	}
	if crit && draws == 0 {
		draws = 1
	}

	for i := 0; i < draws; i++ {
		rarity := profile.Weights.Draw(g.src)
		item, err := g.itemFor(ctx, profile, rarity, req)
		if err != nil {
			return nil, err
		}
		result.Items = append(result.Items, item)
	}

	if crit {
		rarity := CritBonusWeights().Draw(g.src)
		item, err := g.itemFor(ctx, profile, rarity, req)
		if err != nil {
			return nil, err
		}
		result.Items = append(result.Items, item)
	}

	g.logger.Debug("loot generated",
		zap.String("difficulty", string(req.Difficulty)),
		zap.Int("natural_roll", req.NaturalRoll),
		zap.Int("gold", result.Gold),
		zap.Int("items", len(result.Items)),
	)
	return result, nil
}

// itemFor runs stage B for one drawn rarity: synthesis with the difficulty's
// probability, otherwise a uniform catalog pick that relaxes the owned-unique
// exclusion when it empties the pool and synthesizes as the final fallback.
func (g *Generator) itemFor(ctx context.Context, profile DifficultyProfile, rarity Rarity, req Request) (*Item, error) {
	if g.src.Intn(100) < profile.SynthesisChance {
		return Synthesize(g.parts, rarity, req.CharacterLevel, g.src), nil
	}

	candidates, err := g.catalog.CandidatesByRarity(ctx, rarity, req.CharacterID, false)
	if err != nil {
		return nil, fmt.Errorf("loot: querying catalog for rarity %q: %w", rarity, err)
	}
	if len(candidates) == 0 {
		candidates, err = g.catalog.CandidatesByRarity(ctx, rarity, req.CharacterID, true)
		if err != nil {
			return nil, fmt.Errorf("loot: querying catalog for rarity %q: %w", rarity, err)
		}
	}
	if len(candidates) == 0 {
		// Nothing authored at this rarity at all; synthesize instead.
		g.logger.Warn("loot: empty catalog rarity, synthesizing",
			zap.String("rarity", string(rarity)))
		return Synthesize(g.parts, rarity, req.CharacterLevel, g.src), nil
	}
	return candidates[g.src.Intn(len(candidates))], nil
}

func (g *Generator) rollGold(p DifficultyProfile) int {
	spread := p.GoldMax - p.GoldMin
	if spread <= 0 {
		return p.GoldMin
	}
	return p.GoldMin + g.src.Intn(spread+1)
}
