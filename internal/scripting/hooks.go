package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RewardContext is the snapshot of a computed reward passed to a hook.
type RewardContext struct {
	QuestID string
	Roll    int // natural die value
	Total   int // roll + modifier
	Success bool
	XP      int
	Gold    int
}

// maxAdjustFactor caps how far a hook can inflate a reward: adjusted values
// are clamped to [0, maxAdjustFactor * original].
const maxAdjustFactor = 2

// Hooks owns one sandboxed LState holding every loaded hook function.
// All methods are safe for concurrent use; hook calls on the single VM are
// serialized by a mutex.
type Hooks struct {
	mu     sync.Mutex
	state  *lua.LState
	logger *zap.Logger
}

// NewHooks creates an empty Hooks manager. Until LoadDirectory succeeds,
// AdjustRewards passes every reward through unchanged.
//
// Precondition: logger must be non-nil.
func NewHooks(logger *zap.Logger) *Hooks {
	return &Hooks{logger: logger}
}

// LoadDirectory creates a sandboxed VM and executes every *.lua file in dir
// in lexicographic order, replacing any previously loaded VM.
//
// Precondition: dir must be a readable directory.
// Postcondition: returns error on Lua load failure; the previous VM (if any)
// is retained on failure.
func (h *Hooks) LoadDirectory(dir string, instLimit int) error {
	L := NewSandboxedState(instLimit)

	entries, err := os.ReadDir(dir)
	if err != nil {
		L.Close()
		return fmt.Errorf("scripting: reading hook dir %q: %w", dir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		if err := L.DoFile(path); err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}

	h.mu.Lock()
	if h.state != nil {
		h.state.Close()
	}
	h.state = L
	h.mu.Unlock()
	return nil
}

// Close releases the VM.
func (h *Hooks) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != nil {
		h.state.Close()
		h.state = nil
	}
}

// AdjustRewards calls the named Lua global with the reward context and
// returns the (possibly) adjusted xp and gold. The hook receives a table
// {quest, roll, total, success, xp, gold} and may return a table with "xp"
// and/or "gold" fields. Results are clamped to [0, 2x the computed value].
//
// A missing hook, a missing VM, or a Lua runtime error leaves the reward
// unchanged; runtime errors are logged at warn level and never propagated —
// authored hooks must not be able to break a resolution.
func (h *Hooks) AdjustRewards(hook string, rc RewardContext) (xp, gold int) {
	xp, gold = rc.XP, rc.Gold
	if hook == "" {
		return xp, gold
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == nil {
		return xp, gold
	}
	L := h.state

	fn := L.GetGlobal(hook)
	if fn == lua.LNil {
		return xp, gold
	}

	arg := L.NewTable()
	L.SetField(arg, "quest", lua.LString(rc.QuestID))
	L.SetField(arg, "roll", lua.LNumber(rc.Roll))
	L.SetField(arg, "total", lua.LNumber(rc.Total))
	L.SetField(arg, "success", lua.LBool(rc.Success))
	L.SetField(arg, "xp", lua.LNumber(rc.XP))
	L.SetField(arg, "gold", lua.LNumber(rc.Gold))

	if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, arg); err != nil {
		h.logger.Warn("scripting: hook runtime error",
			zap.String("hook", hook),
			zap.String("quest", rc.QuestID),
			zap.Error(err),
		)
		return rc.XP, rc.Gold
	}

	ret := L.Get(-1)
	L.Pop(1)

	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return xp, gold
	}
	if v, ok := L.GetField(tbl, "xp").(lua.LNumber); ok {
		xp = clampAdjusted(int(v), rc.XP)
	}
	if v, ok := L.GetField(tbl, "gold").(lua.LNumber); ok {
		gold = clampAdjusted(int(v), rc.Gold)
	}
	return xp, gold
}

// clampAdjusted bounds a hook-adjusted value to [0, maxAdjustFactor*original].
// Negative originals (gold penalties) only clamp the floor at the original.
func clampAdjusted(adjusted, original int) int {
	if original < 0 {
		if adjusted < original {
			return original
		}
		if adjusted > 0 {
			return 0
		}
		return adjusted
	}
	if adjusted < 0 {
		return 0
	}
	if max := original * maxAdjustFactor; adjusted > max {
		return max
	}
	return adjusted
}
