package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/fablebot/fablebot/internal/game/character"
	"github.com/fablebot/fablebot/internal/game/engine"
	"github.com/fablebot/fablebot/internal/game/quest"
	"github.com/fablebot/fablebot/internal/observability"
)

// QuestService is the slice of the engine the console drives.
type QuestService interface {
	TryAssign(ctx context.Context, chatID, requesterID int64) (*engine.AssignmentResult, error)
	Resolve(ctx context.Context, chatID, characterID int64, naturalRoll int) (*engine.QuestResult, error)
}

// PartyLister lists the living characters of a chat.
type PartyLister interface {
	ListAliveCharacters(ctx context.Context, chatID int64) ([]*character.Character, error)
}

// DieRoller produces the natural d20 roll for a resolution.
type DieRoller func() int

// Console is a line-oriented operator console over an io.Reader, used by
// the development server against stdin. It drives the same engine paths a
// chat frontend would.
type Console struct {
	engine QuestService
	party  PartyLister
	roll   DieRoller
	logger *zap.Logger
	in     io.Reader
	out    io.Writer

	cancel context.CancelFunc
}

// NewConsole creates a Console.
//
// Precondition: all arguments are non-nil.
func NewConsole(eng QuestService, party PartyLister, roll DieRoller, logger *zap.Logger, in io.Reader, out io.Writer) *Console {
	return &Console{engine: eng, party: party, roll: roll, logger: logger, in: in, out: out}
}

// Start reads commands until EOF, "quit", or Stop.
func (c *Console) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	fmt.Fprintln(c.out, "fablebot console — type 'help' for commands")
	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}
		c.dispatch(ctx, line)
	}
	return scanner.Err()
}

// Stop interrupts the command loop. The blocked read returns on the next
// line of input or EOF.
func (c *Console) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *Console) dispatch(ctx context.Context, line string) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	var err error
	switch cmd {
	case "help":
		c.printHelp()
	case "party":
		err = c.cmdParty(ctx, args)
	case "quest":
		err = c.cmdQuest(ctx, args)
	case "resolve":
		err = c.cmdResolve(ctx, args)
	default:
		fmt.Fprintf(c.out, "unknown command %q — type 'help'\n", cmd)
	}
	if err != nil {
		c.logger.Debug("console command failed", zap.String("command", cmd), zap.Error(err))
		fmt.Fprintf(c.out, "error: %v\n", err)
	}
}

func (c *Console) printHelp() {
	fmt.Fprint(c.out, `commands:
  party <chat_id>                   list living characters
  quest <chat_id> <character_id>    request a quest assignment
  resolve <chat_id> <character_id>  roll a d20 and resolve the active quest
  quit                              exit
`)
}

func parseIDs(args []string, n int) ([]int64, error) {
	if len(args) != n {
		return nil, fmt.Errorf("expected %d argument(s), got %d", n, len(args))
	}
	ids := make([]int64, n)
	for i, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a numeric id", a)
		}
		ids[i] = id
	}
	return ids, nil
}

func (c *Console) cmdParty(ctx context.Context, args []string) error {
	ids, err := parseIDs(args, 1)
	if err != nil {
		return err
	}
	chars, err := c.party.ListAliveCharacters(ctx, ids[0])
	if err != nil {
		return err
	}
	if len(chars) == 0 {
		fmt.Fprintln(c.out, "no living characters in this chat")
		return nil
	}
	for _, ch := range chars {
		fmt.Fprintf(c.out, "  [%d] %s, level %d %s %s, %d/%d HP, %d gold, %d xp\n",
			ch.ID, ch.Name, ch.Level, ch.Race, ch.Class, ch.CurrentHP, ch.MaxHP, ch.Gold, ch.Experience)
	}
	return nil
}

func (c *Console) cmdQuest(ctx context.Context, args []string) error {
	ids, err := parseIDs(args, 2)
	if err != nil {
		return err
	}
	logger := observability.WithChat(c.logger, ids[0])
	res, err := c.engine.TryAssign(ctx, ids[0], ids[1])
	if reason, ok := engine.Ineligible(err); ok {
		logger.Debug("assignment refused", zap.String("reason", string(reason)))
		fmt.Fprintf(c.out, "no quest: %s\n", reasonText(reason))
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "quest assigned: %s (%s)\n  %s\n  expires %s, quest %d of the day\n",
		res.Template.Title, res.Template.Difficulty, res.Template.Description,
		res.Assignment.ExpiresAt.Format("15:04 MST"), res.DailyCount)
	return nil
}

func (c *Console) cmdResolve(ctx context.Context, args []string) error {
	ids, err := parseIDs(args, 2)
	if err != nil {
		return err
	}
	roll := c.roll()
	res, err := c.engine.Resolve(ctx, ids[0], ids[1], roll)
	switch {
	case errors.Is(err, quest.ErrNoActiveAssignment):
		fmt.Fprintln(c.out, "no active quest for this chat")
		return nil
	case errors.Is(err, engine.ErrDead):
		fmt.Fprintln(c.out, "that character is dead")
		return nil
	case errors.Is(err, engine.ErrAlreadyResolved):
		fmt.Fprintln(c.out, "someone else resolved this quest first")
		return nil
	case err != nil:
		return err
	}
	c.printResult(res)
	return nil
}

func (c *Console) printResult(res *engine.QuestResult) {
	fmt.Fprintf(c.out, "%s — %s\n", res.Template.Title, res.Resolution)
	fmt.Fprintf(c.out, "  %s\n", res.Tier.Text)
	fmt.Fprintf(c.out, "  xp %+d, gold %+d", res.XPAwarded, res.GoldDelta)
	if res.DamageTaken > 0 {
		fmt.Fprintf(c.out, ", %d damage", res.DamageTaken)
	}
	fmt.Fprintln(c.out)
	for _, lu := range res.LevelUps {
		fmt.Fprintf(c.out, "  level up! %s is now level %d (+%d HP)\n",
			res.Character.Name, lu.NewLevel, lu.HPGained)
	}
	for _, item := range res.Items {
		fmt.Fprintf(c.out, "  loot: %s (%s)\n", item.Name, item.Rarity)
	}
	for _, eff := range res.Effects {
		fmt.Fprintf(c.out, "  effect: %s\n", eff)
	}
	if res.Died {
		fmt.Fprintf(c.out, "  %s has died.\n", res.Character.Name)
	}
}

func reasonText(reason engine.IneligibleReason) string {
	switch reason {
	case engine.ReasonOutsideWindow:
		return "the quest board is closed right now"
	case engine.ReasonAlreadyActive:
		return "this chat already has an unresolved quest"
	case engine.ReasonCapReached:
		return "this chat has used up today's quests"
	case engine.ReasonNoCharacters:
		return "no living characters in this chat"
	case engine.ReasonNoTemplates:
		return "no quest fits this party yet"
	default:
		return string(reason)
	}
}
