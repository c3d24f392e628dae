// README: Session aggregate, dialogue states, and the transition table.
package dialog

import (
	"sync"
	"time"

	"mesa/internal/modules/booking"
)

type State string

const (
	StateIdle                 State = "idle"
	StateCollectingSlots      State = "collecting_slots"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateExecutingAction      State = "executing_action"
	StateFaulted              State = "faulted"
)

// AllowedTransitions represents the dialogue state flow (diagram) as code.
// Self-loops (re-asking for slots, re-asking for confirmation) are implicit
// and need no entry.
var AllowedTransitions = map[State][]State{
	StateIdle:                 {StateCollectingSlots, StateAwaitingConfirmation, StateExecutingAction},
	StateCollectingSlots:      {StateAwaitingConfirmation, StateExecutingAction, StateIdle},
	StateAwaitingConfirmation: {StateExecutingAction, StateCollectingSlots, StateIdle},
	StateExecutingAction:      {StateIdle, StateCollectingSlots, StateAwaitingConfirmation, StateFaulted},
	StateFaulted:              {StateIdle, StateAwaitingConfirmation, StateCollectingSlots},
}

func CanTransition(from, to State) bool {
	if from == to {
		return true
	}
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// Slots is the fixed reservation parameter record. Empty string / zero means
// unset; there are no dynamic keys.
type Slots struct {
	Date             string `json:"date,omitempty"`
	Time             string `json:"time,omitempty"`
	PartySize        int    `json:"party_size,omitempty"`
	SectorPreference string `json:"sector_preference,omitempty"`
	CustomerName     string `json:"customer_name,omitempty"`
	Phone            string `json:"phone,omitempty"`
	Email            string `json:"email,omitempty"`
	ReservationCode  string `json:"reservation_code,omitempty"`
	Notes            string `json:"notes,omitempty"`
}

// PendingAction is a fully-specified state-changing operation waiting for an
// explicit user confirmation. SlotsSnapshot freezes the values the user is
// confirming; a later correction to any of them cancels the confirmation.
type PendingAction struct {
	Intent        string         `json:"intent"`
	SlotsSnapshot Slots          `json:"slots"`
	Sector        booking.Sector `json:"sector,omitempty"`
}

// Turn is one exchanged message, kept for classifier/extractor context.
type Turn struct {
	Role string    `json:"role"` // "user" or "assistant"
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Session is one ongoing conversation. A session is owned by exactly one
// in-flight turn at a time; mu serializes turns, never held across process
// boundaries.
type Session struct {
	mu sync.Mutex

	ID            string         `json:"id"`
	State         State          `json:"state"`
	CurrentIntent string         `json:"current_intent"`
	Slots         Slots          `json:"slots"`
	Pending       *PendingAction `json:"pending,omitempty"`
	// LastResult is the most recent gateway outcome, kept for grounding and
	// for resolving a sector on a booking that follows an availability query.
	LastResult       *booking.Outcome      `json:"last_result,omitempty"`
	LastAvailability *booking.Availability `json:"last_availability,omitempty"`
	Turns            []Turn                `json:"turns,omitempty"`
	TurnCount        int                   `json:"turn_count"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

const turnHistoryLimit = 12

func (s *Session) appendTurn(role, text string, at time.Time) {
	s.Turns = append(s.Turns, Turn{Role: role, Text: text, At: at})
	if len(s.Turns) > turnHistoryLimit {
		s.Turns = s.Turns[len(s.Turns)-turnHistoryLimit:]
	}
}

// recentTurns renders the newest n messages for prompt context.
func (s *Session) recentTurns(n int) []string {
	start := len(s.Turns) - n
	if start < 0 {
		start = 0
	}
	out := make([]string, 0, len(s.Turns)-start)
	for _, t := range s.Turns[start:] {
		out = append(out, t.Role+": "+t.Text)
	}
	return out
}
