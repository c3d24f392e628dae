// README: Slot Store; merge policy and required/missing slot computation.
package dialog

import (
	"strconv"
	"strings"

	"mesa/internal/ai"
)

// Canonical slot names, used in missing-slot prompts and conflict clearing.
const (
	SlotDate      = "date"
	SlotTime      = "time"
	SlotPartySize = "party_size"
	SlotSector    = "sector_preference"
	SlotName      = "customer_name"
	SlotPhone     = "phone"
	SlotEmail     = "email"
	SlotCode      = "reservation_code"
)

// Merge applies an extractor patch, last write wins per field. Empty or nil
// incoming values leave existing ones untouched. Returns the names of the
// fields that actually changed.
func (sl *Slots) Merge(patch ai.SlotPatch) []string {
	var changed []string
	set := func(dst *string, v *string, name string) {
		if v == nil {
			return
		}
		val := strings.TrimSpace(*v)
		if val == "" || val == *dst {
			return
		}
		*dst = val
		changed = append(changed, name)
	}

	set(&sl.Date, patch.Date, SlotDate)
	set(&sl.Time, patch.Time, SlotTime)
	if patch.PartySize != nil && *patch.PartySize > 0 && *patch.PartySize != sl.PartySize {
		sl.PartySize = *patch.PartySize
		changed = append(changed, SlotPartySize)
	}
	set(&sl.SectorPreference, patch.Sector, SlotSector)
	set(&sl.CustomerName, patch.Name, SlotName)
	set(&sl.Phone, patch.Phone, SlotPhone)
	set(&sl.Email, patch.Email, SlotEmail)
	set(&sl.ReservationCode, patch.Code, SlotCode)
	if patch.Notes != nil && strings.TrimSpace(*patch.Notes) != "" {
		sl.Notes = strings.TrimSpace(*patch.Notes)
	}
	return changed
}

// Known returns the filled slots as strings, fed back to the extractor so it
// does not re-extract values the session already holds.
func (sl Slots) Known() map[string]string {
	out := make(map[string]string)
	if sl.Date != "" {
		out[SlotDate] = sl.Date
	}
	if sl.Time != "" {
		out[SlotTime] = sl.Time
	}
	if sl.PartySize > 0 {
		out[SlotPartySize] = strconv.Itoa(sl.PartySize)
	}
	if sl.SectorPreference != "" {
		out[SlotSector] = sl.SectorPreference
	}
	if sl.CustomerName != "" {
		out[SlotName] = sl.CustomerName
	}
	if sl.Phone != "" {
		out[SlotPhone] = sl.Phone
	}
	if sl.Email != "" {
		out[SlotEmail] = sl.Email
	}
	if sl.ReservationCode != "" {
		out[SlotCode] = sl.ReservationCode
	}
	return out
}

func (sl Slots) filled(name string) bool {
	switch name {
	case SlotDate:
		return sl.Date != ""
	case SlotTime:
		return sl.Time != ""
	case SlotPartySize:
		return sl.PartySize > 0
	case SlotSector:
		return sl.SectorPreference != ""
	case SlotName:
		return sl.CustomerName != ""
	case SlotPhone:
		return sl.Phone != ""
	case SlotEmail:
		return sl.Email != ""
	case SlotCode:
		return sl.ReservationCode != ""
	}
	return false
}

// Clear unsets the named slots in place (used after a business-rule
// violation names the conflicting fields).
func (sl *Slots) Clear(names []string) {
	for _, name := range names {
		switch name {
		case SlotDate:
			sl.Date = ""
		case SlotTime:
			sl.Time = ""
		case SlotPartySize:
			sl.PartySize = 0
		case SlotSector:
			sl.SectorPreference = ""
		case SlotName:
			sl.CustomerName = ""
		case SlotPhone:
			sl.Phone = ""
		case SlotEmail:
			sl.Email = ""
		case SlotCode:
			sl.ReservationCode = ""
		}
	}
}

// requirement is either a single mandatory slot or a group of alternatives
// where any one member satisfies it.
type requirement struct {
	anyOf [][]string
}

func need(names ...string) requirement { return requirement{anyOf: [][]string{names}} }

// oneOf is satisfied when every slot of at least one alternative is filled,
// e.g. a cancellation identified by code OR by date+time.
func oneOf(alternatives ...[]string) requirement { return requirement{anyOf: alternatives} }

var requiredSlots = map[string][]requirement{
	ai.IntentCheckAvailability: {
		need(SlotDate), need(SlotTime), need(SlotPartySize),
	},
	ai.IntentCreateReservation: {
		need(SlotDate), need(SlotTime), need(SlotPartySize),
		need(SlotName), need(SlotPhone), need(SlotEmail),
	},
	ai.IntentViewNextReservation: {
		oneOf([]string{SlotPhone}, []string{SlotEmail}),
	},
	ai.IntentCancelReservation: {
		oneOf([]string{SlotDate, SlotTime}, []string{SlotCode}),
		oneOf([]string{SlotPhone}, []string{SlotEmail}),
	},
}

// MissingSlots returns the slots still needed before the intent's action can
// execute. For an alternative group the first alternative's unfilled members
// are reported, so the user gets one concrete ask.
func MissingSlots(intent string, sl Slots) []string {
	var missing []string
	for _, req := range requiredSlots[intent] {
		satisfied := false
		for _, alt := range req.anyOf {
			all := true
			for _, name := range alt {
				if !sl.filled(name) {
					all = false
					break
				}
			}
			if all {
				satisfied = true
				break
			}
		}
		if satisfied {
			continue
		}
		for _, name := range req.anyOf[0] {
			if !sl.filled(name) {
				missing = append(missing, name)
			}
		}
	}
	return missing
}

// IsStateChanging reports whether the intent's action mutates reservations
// and therefore needs confirmation before execution.
func IsStateChanging(intent string) bool {
	return intent == ai.IntentCreateReservation || intent == ai.IntentCancelReservation
}
