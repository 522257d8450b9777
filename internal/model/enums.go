package model

import "fmt"

// Side is the direction of a position.
type Side int8

const (
	SideNone Side = iota
	SideLong
	SideShort
)

func (s Side) String() string {
	switch s {
	case SideLong:
		return "LONG"
	case SideShort:
		return "SHORT"
	default:
		return "NONE"
	}
}

// Sign returns +1 for LONG, -1 for SHORT and 0 when flat.
func (s Side) Sign() float64 {
	switch s {
	case SideLong:
		return 1
	case SideShort:
		return -1
	default:
		return 0
	}
}

func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Side) UnmarshalText(b []byte) error {
	switch string(b) {
	case "LONG":
		*s = SideLong
	case "SHORT":
		*s = SideShort
	case "NONE", "":
		*s = SideNone
	default:
		return fmt.Errorf("unknown side %q", b)
	}
	return nil
}

// Action is the recommendation carried by a Signal.
type Action int8

const (
	ActionNone Action = iota
	ActionBuy
	ActionSell
)

func (a Action) String() string {
	switch a {
	case ActionBuy:
		return "BUY"
	case ActionSell:
		return "SELL"
	default:
		return "NONE"
	}
}

// Side maps BUY to LONG and SELL to SHORT.
func (a Action) Side() Side {
	switch a {
	case ActionBuy:
		return SideLong
	case ActionSell:
		return SideShort
	default:
		return SideNone
	}
}

func (a Action) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// ExitReason records why a position was closed.
type ExitReason int8

const (
	ExitNone ExitReason = iota
	ExitStopLoss
	ExitTrailingStop
	ExitTakeProfit
	ExitMaxHold
	ExitEODFlatten
)

// ExitReasons lists every reason a trade can close with, in report order.
var ExitReasons = []ExitReason{ExitStopLoss, ExitTakeProfit, ExitTrailingStop, ExitMaxHold, ExitEODFlatten}

func (r ExitReason) String() string {
	switch r {
	case ExitStopLoss:
		return "STOP_LOSS"
	case ExitTrailingStop:
		return "TRAILING_STOP"
	case ExitTakeProfit:
		return "TAKE_PROFIT"
	case ExitMaxHold:
		return "MAX_HOLD"
	case ExitEODFlatten:
		return "EOD_FLATTEN"
	default:
		return "NONE"
	}
}

func (r ExitReason) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *ExitReason) UnmarshalText(b []byte) error {
	for _, candidate := range ExitReasons {
		if candidate.String() == string(b) {
			*r = candidate
			return nil
		}
	}
	if string(b) == "NONE" || len(b) == 0 {
		*r = ExitNone
		return nil
	}
	return fmt.Errorf("unknown exit reason %q", b)
}
