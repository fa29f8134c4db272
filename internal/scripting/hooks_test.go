package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func writeHookDir(t *testing.T, scripts map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range scripts {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestSandbox_StripsDangerousGlobals(t *testing.T) {
	L := NewSandboxedState(0)
	defer L.Close()
	for _, name := range []string{"dofile", "loadfile", "load", "collectgarbage", "require"} {
		assert.Equal(t, lua.LNil, L.GetGlobal(name), "global %q must be stripped", name)
	}
	// Safe libraries stay available.
	assert.NotEqual(t, lua.LNil, L.GetGlobal("math"))
	assert.NotEqual(t, lua.LNil, L.GetGlobal("string"))
}

func TestSandbox_InstructionLimitTerminatesRunawayScripts(t *testing.T) {
	L := NewSandboxedState(10_000)
	defer L.Close()
	err := L.DoString(`while true do end`)
	assert.Error(t, err, "an infinite loop must be cancelled by the opcode limit")
}

func TestHooks_AdjustRewards(t *testing.T) {
	dir := writeHookDir(t, map[string]string{
		"festival.lua": `
function festival_bonus(ctx)
  return { xp = ctx.xp * 2, gold = ctx.gold + 10 }
end
`,
	})

	h := NewHooks(zaptest.NewLogger(t))
	defer h.Close()
	require.NoError(t, h.LoadDirectory(dir, 0))

	xp, gold := h.AdjustRewards("festival_bonus", RewardContext{
		QuestID: "rat-cellar", Roll: 15, Total: 17, Success: true, XP: 150, Gold: 75,
	})
	assert.Equal(t, 300, xp)
	assert.Equal(t, 85, gold)
}

// TestHooks_ClampsAdjustments: hooks cannot push rewards past 2x or below 0.
func TestHooks_ClampsAdjustments(t *testing.T) {
	dir := writeHookDir(t, map[string]string{
		"greedy.lua": `
function greedy(ctx)
  return { xp = ctx.xp * 100, gold = -999 }
end
`,
	})

	h := NewHooks(zaptest.NewLogger(t))
	defer h.Close()
	require.NoError(t, h.LoadDirectory(dir, 0))

	xp, gold := h.AdjustRewards("greedy", RewardContext{XP: 100, Gold: 50})
	assert.Equal(t, 200, xp, "xp clamps at 2x")
	assert.Equal(t, 0, gold, "gold clamps at 0")
}

func TestHooks_MissingHookPassesThrough(t *testing.T) {
	h := NewHooks(zaptest.NewLogger(t))
	defer h.Close()

	// No VM loaded at all.
	xp, gold := h.AdjustRewards("anything", RewardContext{XP: 10, Gold: 5})
	assert.Equal(t, 10, xp)
	assert.Equal(t, 5, gold)

	// VM loaded, hook undefined.
	require.NoError(t, h.LoadDirectory(t.TempDir(), 0))
	xp, gold = h.AdjustRewards("undefined_hook", RewardContext{XP: 10, Gold: 5})
	assert.Equal(t, 10, xp)
	assert.Equal(t, 5, gold)
}

// TestHooks_RuntimeErrorIsLoggedAndSwallowed: a broken hook never breaks the
// resolution; the reward passes through and the error is logged at warn.
func TestHooks_RuntimeErrorIsLoggedAndSwallowed(t *testing.T) {
	dir := writeHookDir(t, map[string]string{
		"broken.lua": `
function broken(ctx)
  error("authored badly")
end
`,
	})

	core, logs := observer.New(zap.WarnLevel)
	h := NewHooks(zap.New(core))
	defer h.Close()
	require.NoError(t, h.LoadDirectory(dir, 0))

	xp, gold := h.AdjustRewards("broken", RewardContext{QuestID: "q", XP: 42, Gold: 7})
	assert.Equal(t, 42, xp)
	assert.Equal(t, 7, gold)
	require.Equal(t, 1, logs.Len(), "the runtime error must be logged")
	assert.Contains(t, logs.All()[0].Message, "hook runtime error")
}

func TestHooks_LoadDirectory_BadLuaFails(t *testing.T) {
	dir := writeHookDir(t, map[string]string{"bad.lua": `function oops(`})
	h := NewHooks(zaptest.NewLogger(t))
	assert.Error(t, h.LoadDirectory(dir, 0))
}

func TestClampAdjusted_NegativeOriginal(t *testing.T) {
	// Gold penalties: a hook may soften but never deepen them, and never
	// flip them into a gain.
	assert.Equal(t, -10, clampAdjusted(-50, -10))
	assert.Equal(t, -5, clampAdjusted(-5, -10))
	assert.Equal(t, 0, clampAdjusted(20, -10))
}
