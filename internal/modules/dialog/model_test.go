// README: Transition table tests.
package dialog

import "testing"

// TestCanTransition verifies the dialogue state flow without any services.
func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to State
		want     bool
	}{
		// happy-path forward transitions
		{StateIdle, StateCollectingSlots, true},
		{StateCollectingSlots, StateAwaitingConfirmation, true},
		{StateAwaitingConfirmation, StateExecutingAction, true},
		{StateExecutingAction, StateIdle, true},
		// single-utterance shortcuts
		{StateIdle, StateExecutingAction, true},
		{StateIdle, StateAwaitingConfirmation, true},
		{StateCollectingSlots, StateExecutingAction, true},
		// declined or corrected confirmation
		{StateAwaitingConfirmation, StateCollectingSlots, true},
		// business-rule recovery re-opens collection
		{StateExecutingAction, StateCollectingSlots, true},
		// transport fault, with and without a pending action
		{StateExecutingAction, StateFaulted, true},
		{StateFaulted, StateIdle, true},
		{StateFaulted, StateAwaitingConfirmation, true},
		// self-loops (re-ask) are always allowed
		{StateCollectingSlots, StateCollectingSlots, true},
		{StateAwaitingConfirmation, StateAwaitingConfirmation, true},
		// invalid jumps
		{StateIdle, StateFaulted, false},
		{StateCollectingSlots, StateFaulted, false},
		{StateAwaitingConfirmation, StateFaulted, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
