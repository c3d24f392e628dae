// README: Structured results exchanged with the language model.
package ai

// Intent labels the classifier is allowed to emit. "none" covers everything
// that does not clearly match a reservation operation.
const (
	IntentCheckAvailability   = "check_availability"
	IntentCreateReservation   = "create_reservation"
	IntentViewNextReservation = "view_next_reservation"
	IntentCancelReservation   = "cancel_reservation"
	IntentRestaurantFAQ       = "restaurant_faq"
	IntentNone                = "none"
)

// AllowedIntents is the closed label set; anything else from the model is
// normalized to IntentNone.
var AllowedIntents = map[string]bool{
	IntentCheckAvailability:   true,
	IntentCreateReservation:   true,
	IntentViewNextReservation: true,
	IntentCancelReservation:   true,
	IntentRestaurantFAQ:       true,
	IntentNone:                true,
}

// Classification is the classifier output for one turn.
type Classification struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// SlotPatch is the extractor output: every field is optional, nil means the
// utterance did not mention it.
type SlotPatch struct {
	Date      *string `json:"date"`
	Time      *string `json:"time"`
	PartySize *int    `json:"party_size"`
	Name      *string `json:"name"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email"`
	Sector    *string `json:"sector"`
	Code      *string `json:"reservation_code"`
	Notes     *string `json:"notes"`
}

// ComposeRequest carries everything the composer may ground a reply on. The
// composer must never state facts outside Data.
type ComposeRequest struct {
	UserMessage string
	Intent      string
	// Decision names what the orchestrator chose to do this turn, e.g.
	// "ask_slots", "ask_confirmation", "answer", "error".
	Decision string
	// Data is the grounding payload (missing slot names, gateway result,
	// retrieved passages, error reason). Marshaled to JSON for the prompt.
	Data any
	// Language defaults to pt-BR.
	Language string
}
