// internal/engine/types.go
package engine

import (
	"fmt"
	"strings"
)

// Phase is the lifecycle stage of a game. Phases only move forward:
// Setup -> InProgress -> End.
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseInProgress
	PhaseEnd
)

var phaseNames = map[Phase]string{
	PhaseSetup:      "setup",
	PhaseInProgress: "in_progress",
	PhaseEnd:        "end",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// MarshalText encodes the phase by name so snapshots stay readable in storage.
func (p Phase) MarshalText() ([]byte, error) {
	name, ok := phaseNames[p]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported phase %d", ErrInvalidSnapshot, int(p))
	}
	return []byte(name), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for phase, name := range phaseNames {
		if name == string(text) {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("%w: unsupported phase %q", ErrInvalidSnapshot, string(text))
}

// Action is what the current player chose to do with their card.
type Action int

const (
	ActionKeep Action = iota
	ActionSwap
)

func (a Action) String() string {
	switch a {
	case ActionKeep:
		return "keep"
	case ActionSwap:
		return "swap"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// ParseAction converts "keep" or "swap" (any case) into an Action.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "keep":
		return ActionKeep, nil
	case "swap":
		return ActionSwap, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// ResultKind describes how a submitted action was resolved.
type ResultKind int

const (
	ResultKept ResultKind = iota
	ResultSwapped
	ResultBlocked
	ResultSkipped
	ResultShowdown
)

var resultNames = map[ResultKind]string{
	ResultKept:     "kept",
	ResultSwapped:  "swapped",
	ResultBlocked:  "blocked",
	ResultSkipped:  "skipped",
	ResultShowdown: "showdown",
}

func (k ResultKind) String() string {
	if name, ok := resultNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ResultKind(%d)", int(k))
}

func (k ResultKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ResultKind) UnmarshalText(text []byte) error {
	for kind, name := range resultNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown result kind %q", string(text))
}

// PlayerState is a detached view of one player. CardValue is nil until cards are dealt.
type PlayerState struct {
	Username  string `json:"username"`
	CardValue *int   `json:"cardValue,omitempty"`
}

// ActionResult is returned for every accepted action. ActingPlayer and NextPlayer
// are nil on a showdown; Losers is only set on a showdown.
type ActionResult struct {
	Kind         ResultKind    `json:"kind"`
	ActingPlayer *PlayerState  `json:"actingPlayer,omitempty"`
	NextPlayer   *PlayerState  `json:"nextPlayer,omitempty"`
	Losers       []PlayerState `json:"losers,omitempty"`
}
