package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiskManager_KillsAfterFiveConsecutiveLosses(t *testing.T) {
	rm := NewRiskManager(DefaultRiskLimits())
	rm.Record(400) // cumulative stays positive throughout

	for i := 1; i <= 4; i++ {
		rm.Record(-1)
		require.False(t, rm.Killed(), "killed after %d losses", i)
		require.True(t, rm.CanTrade())
	}
	rm.Record(-1)

	assert.True(t, rm.Killed())
	assert.Equal(t, StateKilled, rm.State())
	assert.False(t, rm.CanTrade())
	assert.Contains(t, rm.KillReason(), "5 consecutive losses")
	assert.InDelta(t, 395.0, rm.DailyPnL(), 1e-9)
}

func TestRiskManager_WinResetsStreak(t *testing.T) {
	rm := NewRiskManager(DefaultRiskLimits())
	for i := 0; i < 4; i++ {
		rm.Record(-10)
	}
	rm.Record(0) // breakeven counts as a win
	for i := 0; i < 4; i++ {
		rm.Record(-10)
	}
	assert.False(t, rm.Killed())
	assert.Equal(t, 4, rm.Status().ConsecutiveLosses)
}

func TestRiskManager_KillsAtDailyLossFloor(t *testing.T) {
	rm := NewRiskManager(DefaultRiskLimits())
	rm.Record(-300)
	require.False(t, rm.Killed())
	rm.Record(-200)

	assert.True(t, rm.Killed(), "daily P&L exactly at the floor kills")
	assert.Contains(t, rm.KillReason(), "daily loss")
}

func TestRiskManager_KilledIsPermanent(t *testing.T) {
	rm := NewRiskManager(DefaultRiskLimits())
	rm.Record(-600)
	require.True(t, rm.Killed())

	rm.Record(1000)
	assert.True(t, rm.Killed())
	assert.False(t, rm.CanTrade())
}

func TestRiskManager_MaxTradesBlocksWithoutKilling(t *testing.T) {
	limits := DefaultRiskLimits()
	limits.MaxTrades = 3
	rm := NewRiskManager(limits)
	for i := 0; i < 3; i++ {
		require.True(t, rm.CanTrade())
		rm.Record(25)
	}
	assert.False(t, rm.CanTrade())
	assert.False(t, rm.Killed())
	assert.Equal(t, 3, rm.Trades())
}

func TestRiskManager_PerTradeCapNotEnforced(t *testing.T) {
	rm := NewRiskManager(DefaultRiskLimits())
	rm.Record(-200) // beyond the -150 per-trade cap
	assert.False(t, rm.Killed())
	assert.True(t, rm.CanTrade())
	assert.Equal(t, -150.0, rm.Status().Limits.MaxPerTradeLoss)
}

func TestRiskManager_KillReasonSetOnce(t *testing.T) {
	rm := NewRiskManager(DefaultRiskLimits())
	rm.Record(-700)
	first := rm.KillReason()
	rm.Record(-10)
	rm.Record(-10)
	rm.Record(-10)
	rm.Record(-10)

	assert.Contains(t, first, "daily loss")
	assert.Equal(t, first, rm.KillReason())
}

func TestRiskManager_Status(t *testing.T) {
	rm := NewRiskManager(DefaultRiskLimits())
	rm.Record(-20)
	rm.Record(-30)

	st := rm.Status()
	assert.Equal(t, "TRADING", st.State)
	assert.Empty(t, st.KillReason)
	assert.Equal(t, -50.0, st.DailyPnL)
	assert.Equal(t, 2, st.Trades)
	assert.Equal(t, 2, st.ConsecutiveLosses)
	assert.True(t, st.CanTrade)
}
