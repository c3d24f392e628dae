// README: Gateway domain types and the normalized call outcome.
package booking

// OutcomeKind is the closed set of result categories every gateway call is
// normalized into. The dialogue state machine consumes exactly these four.
type OutcomeKind string

const (
	KindSuccess               OutcomeKind = "success"
	KindBusinessRuleViolation OutcomeKind = "business_rule_violation"
	KindNotFound              OutcomeKind = "not_found"
	KindTransportError        OutcomeKind = "transport_error"
)

// Outcome is the normalized result of one gateway call.
type Outcome struct {
	Kind OutcomeKind `json:"kind"`
	// Data is the success payload (Availability, CreatedReservation,
	// []Reservation, ...). Nil for failures.
	Data any `json:"data,omitempty"`
	// Reason carries the API's own message for violations and not-found
	// results, so the composer can surface the specific cause.
	Reason string `json:"reason,omitempty"`
	// ConflictSlots names the slot(s) the caller must renegotiate after a
	// business-rule violation (e.g. "time" on a duplicate reservation).
	ConflictSlots []string `json:"conflict_slots,omitempty"`
}

// Sector is one bookable room/area of the restaurant.
type Sector struct {
	ID   string `json:"sector_id"`
	Name string `json:"sector_name"`
	// Source is "data" for exact schedule slots, "suggestions" for flexible
	// seating offered when no exact slot matched.
	Source string `json:"source"`
}

// Availability is the payload of a successful schedule query.
type Availability struct {
	Date          string   `json:"date"`
	Time          string   `json:"time"`
	PartySize     int      `json:"party_size"`
	Sectors       []Sector `json:"sectors"`
	HasExactSlots bool     `json:"has_exact_slots"`
}

// Reservation mirrors the fields of a Getin reservation the assistant needs.
type Reservation struct {
	ID          string `json:"id"`
	UnitID      string `json:"unit_id"`
	SectorID    string `json:"sector_id"`
	SectorName  string `json:"sector_name,omitempty"`
	Name        string `json:"name"`
	Phone       string `json:"mobile"`
	Email       string `json:"email"`
	People      int    `json:"people"`
	TablePeople int    `json:"table_people"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Status      string `json:"status"`
	Info        string `json:"info,omitempty"`
}

// CreatedReservation is the payload of a successful creation.
type CreatedReservation struct {
	Code string `json:"code"`
	// Status is "pending" until the restaurant confirms; the composer must
	// not call a pending reservation confirmed.
	Status           string `json:"status"`
	SectorName       string `json:"sector_name,omitempty"`
	ConfirmationSent bool   `json:"confirmation_sent"`
}

// CreateRequest carries everything needed for POST /reservations.
type CreateRequest struct {
	Date       string
	Time       string
	PartySize  int
	Name       string
	Phone      string
	Email      string
	SectorID   string
	SectorName string
	Info       string
}

// CancelRequest identifies the reservation to cancel, either by code or by
// date+time (plus whatever contact data is known for disambiguation).
type CancelRequest struct {
	Code  string
	Date  string
	Time  string
	Phone string
	Email string
}

// ListFilter narrows a reservation listing; at least one field must be set.
type ListFilter struct {
	Phone     string
	Email     string
	Date      string
	StartDate string
	EndDate   string
	Status    string
}
