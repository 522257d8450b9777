package portfolio

import (
	"fmt"
	"log"
	"sync"
)

// RiskLimits defines configurable risk management thresholds.
// Loss limits are negative dollar amounts.
type RiskLimits struct {
	MaxDailyLoss         float64 `json:"max_daily_loss"`     // kill when daily P&L falls to this floor
	MaxPerTradeLoss      float64 `json:"max_per_trade_loss"` // reported only, not enforced
	MaxTrades            int     `json:"max_trades"`
	MaxConsecutiveLosses int     `json:"max_consecutive_losses"`
}

// DefaultRiskLimits returns the session limits for a single ES contract.
func DefaultRiskLimits() RiskLimits {
	return RiskLimits{
		MaxDailyLoss:         -500,
		MaxPerTradeLoss:      -150,
		MaxTrades:            50,
		MaxConsecutiveLosses: 5,
	}
}

// RiskState is the circuit breaker state of a RiskManager.
type RiskState int

const (
	// StateTrading allows new entries subject to limits.
	StateTrading RiskState = iota
	// StateKilled halts trading for the rest of the session. There is no way back.
	StateKilled
)

func (s RiskState) String() string {
	switch s {
	case StateTrading:
		return "TRADING"
	case StateKilled:
		return "KILLED"
	default:
		return fmt.Sprintf("RiskState(%d)", int(s))
	}
}

// RiskManager tracks realized session P&L and trips a kill switch when the
// loss streak or daily loss limit is breached.
type RiskManager struct {
	mu     sync.RWMutex
	limits RiskLimits

	state             RiskState
	killReason        string
	dailyPnL          float64
	trades            int
	consecutiveLosses int
}

// NewRiskManager creates a RiskManager in the TRADING state.
func NewRiskManager(limits RiskLimits) *RiskManager {
	return &RiskManager{limits: limits}
}

// CanTrade reports whether a new position may be opened.
func (rm *RiskManager) CanTrade() bool {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.canTradeLocked()
}

func (rm *RiskManager) canTradeLocked() bool {
	return rm.state == StateTrading &&
		rm.trades < rm.limits.MaxTrades &&
		rm.dailyPnL > rm.limits.MaxDailyLoss
}

// Record books one closed trade's realized P&L.
// A loss extends the streak, anything else resets it.
func (rm *RiskManager) Record(pnl float64) {
	rm.mu.Lock()

	rm.dailyPnL += pnl
	rm.trades++
	if pnl < 0 {
		rm.consecutiveLosses++
	} else {
		rm.consecutiveLosses = 0
	}

	var tripped string
	if rm.state == StateTrading {
		switch {
		case rm.consecutiveLosses >= rm.limits.MaxConsecutiveLosses:
			tripped = fmt.Sprintf("%d consecutive losses", rm.consecutiveLosses)
		case rm.dailyPnL <= rm.limits.MaxDailyLoss:
			tripped = fmt.Sprintf("daily loss %.2f at or below limit %.2f", rm.dailyPnL, rm.limits.MaxDailyLoss)
		}
		if tripped != "" {
			rm.state = StateKilled
			rm.killReason = tripped
		}
	}
	daily, streak := rm.dailyPnL, rm.consecutiveLosses
	rm.mu.Unlock()

	log.Printf("[risk] trade P&L: %.2f, daily P&L: %.2f, loss streak: %d", pnl, daily, streak)
	if tripped != "" {
		log.Printf("[risk] circuit breaker KILLED: %s", tripped)
	}
}

// Killed reports whether the kill switch has tripped.
func (rm *RiskManager) Killed() bool {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.state == StateKilled
}

// State returns the current circuit breaker state.
func (rm *RiskManager) State() RiskState {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.state
}

// KillReason is empty while trading.
func (rm *RiskManager) KillReason() string {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.killReason
}

// DailyPnL returns cumulative realized P&L for the session.
func (rm *RiskManager) DailyPnL() float64 {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.dailyPnL
}

// Trades returns the number of recorded trades.
func (rm *RiskManager) Trades() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.trades
}

// RiskStatus is a point-in-time view of the risk state.
type RiskStatus struct {
	State             string     `json:"state"`
	KillReason        string     `json:"kill_reason,omitempty"`
	DailyPnL          float64    `json:"daily_pnl"`
	Trades            int        `json:"trades"`
	ConsecutiveLosses int        `json:"consecutive_losses"`
	CanTrade          bool       `json:"can_trade"`
	Limits            RiskLimits `json:"limits"`
}

// Status returns current risk status.
func (rm *RiskManager) Status() RiskStatus {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return RiskStatus{
		State:             rm.state.String(),
		KillReason:        rm.killReason,
		DailyPnL:          rm.dailyPnL,
		Trades:            rm.trades,
		ConsecutiveLosses: rm.consecutiveLosses,
		CanTrade:          rm.canTradeLocked(),
		Limits:            rm.limits,
	}
}
