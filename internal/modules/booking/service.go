// README: Availability Gateway; normalizes every Getin call into the four outcome kinds.
package booking

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// Service is the Availability Gateway: it executes booking operations for a
// single restaurant unit and folds every result into an Outcome.
type Service struct {
	client *Client
	unitID string
	log    *zap.Logger
}

func NewService(client *Client, unitID string, log *zap.Logger) *Service {
	return &Service{client: client, unitID: unitID, log: log}
}

// CheckAvailability queries the schedule for date/time/partySize. Read-only,
// so one transparent retry is allowed on transport failure.
func (s *Service) CheckAvailability(ctx context.Context, date, hour string, partySize int) Outcome {
	var entries, suggestions []scheduleEntry
	err := s.withReadRetry(ctx, func() error {
		var callErr error
		entries, suggestions, callErr = s.client.SchedulesByUnit(ctx, s.unitID, date, hour, partySize)
		return callErr
	})
	if err != nil {
		return s.normalizeError("check_availability", err)
	}

	av := Availability{
		Date:          date,
		Time:          hour,
		PartySize:     partySize,
		Sectors:       extractSectors(entries, suggestions),
		HasExactSlots: len(entries) > 0,
	}
	return Outcome{Kind: KindSuccess, Data: av}
}

// CreateReservation issues POST /reservations. Never retried: a duplicate
// side effect is worse than asking the user to try again.
func (s *Service) CreateReservation(ctx context.Context, req CreateRequest) Outcome {
	data, err := s.client.CreateReservation(ctx, reservationPayload{
		UnitID:      s.unitID,
		SectorID:    req.SectorID,
		Name:        req.Name,
		Mobile:      req.Phone,
		Email:       req.Email,
		People:      req.PartySize,
		TablePeople: req.PartySize,
		Date:        req.Date,
		Time:        req.Time,
		Info:        req.Info,
	})
	if err != nil {
		return s.normalizeError("create_reservation", err)
	}

	status := data.Status
	if status == "" {
		status = "pending"
	}
	return Outcome{Kind: KindSuccess, Data: CreatedReservation{
		Code:             data.ID,
		Status:           status,
		SectorName:       req.SectorName,
		ConfirmationSent: data.ConfirmationSent,
	}}
}

// NextReservation fetches the customer's upcoming reservation by phone or
// email. Read-only, retried once on transport failure.
func (s *Service) NextReservation(ctx context.Context, phone, email string) Outcome {
	var reservations []Reservation
	err := s.withReadRetry(ctx, func() error {
		var callErr error
		reservations, callErr = s.client.NextReservations(ctx, s.unitID, ListFilter{Phone: phone, Email: email})
		return callErr
	})
	if err != nil {
		return s.normalizeError("view_next_reservation", err)
	}
	if len(reservations) == 0 {
		return Outcome{Kind: KindNotFound, Reason: "nenhuma reserva futura encontrada para este contato"}
	}
	return Outcome{Kind: KindSuccess, Data: reservations[0]}
}

// ListReservations returns the customer's reservations matching the filter.
// Read-only, retried once on transport failure.
func (s *Service) ListReservations(ctx context.Context, filter ListFilter) Outcome {
	var reservations []Reservation
	err := s.withReadRetry(ctx, func() error {
		var callErr error
		reservations, callErr = s.client.ListReservations(ctx, s.unitID, filter)
		return callErr
	})
	if err != nil {
		return s.normalizeError("list_reservations", err)
	}
	if len(reservations) == 0 {
		return Outcome{Kind: KindNotFound, Reason: "nenhuma reserva encontrada para este contato"}
	}
	return Outcome{Kind: KindSuccess, Data: reservations}
}

// Cancel lists the customer's reservations, disambiguates by code or
// date+time, then deletes the match. The listing is read-only and retried;
// the delete is not.
func (s *Service) Cancel(ctx context.Context, req CancelRequest) Outcome {
	var reservations []Reservation
	err := s.withReadRetry(ctx, func() error {
		var callErr error
		reservations, callErr = s.client.ListReservations(ctx, s.unitID, ListFilter{
			Phone: req.Phone,
			Email: req.Email,
			Date:  req.Date,
		})
		return callErr
	})
	if err != nil {
		return s.normalizeError("cancel_reservation", err)
	}

	match, ok := matchReservation(reservations, req)
	if !ok {
		return Outcome{Kind: KindNotFound, Reason: "nenhuma reserva encontrada para esses dados"}
	}

	if err := s.client.DeleteReservation(ctx, match.ID, reservationPayload{
		UnitID:      match.UnitID,
		SectorID:    match.SectorID,
		Name:        match.Name,
		Mobile:      match.Phone,
		Email:       match.Email,
		People:      match.People,
		TablePeople: match.TablePeople,
		Date:        match.Date,
		Time:        match.Time,
	}); err != nil {
		return s.normalizeError("cancel_reservation", err)
	}
	return Outcome{Kind: KindSuccess, Data: match}
}

func matchReservation(reservations []Reservation, req CancelRequest) (Reservation, bool) {
	for _, r := range reservations {
		if req.Code != "" && r.ID == req.Code {
			return r, true
		}
		if req.Code == "" && req.Date != "" && req.Time != "" && r.Date == req.Date && r.Time == req.Time {
			return r, true
		}
	}
	return Reservation{}, false
}

// withReadRetry runs fn and retries exactly once when the failure was a
// transport error. Business-rule and not-found responses are never retried.
func (s *Service) withReadRetry(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil || !isTransportError(err) {
		return err
	}
	if ctx.Err() != nil {
		return err
	}
	s.log.Debug("retrying read-only gateway call after transport error", zap.Error(err))
	return fn()
}

func isTransportError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return true
	}
	return apiErr.StatusCode == 0 || apiErr.StatusCode >= 500
}

// normalizeError folds a client error into the outcome taxonomy.
func (s *Service) normalizeError(op string, err error) Outcome {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || isTransportError(err) {
		s.log.Warn("gateway transport failure", zap.String("op", op), zap.Error(err))
		return Outcome{Kind: KindTransportError, Reason: "falha temporária ao falar com o sistema de reservas"}
	}

	if apiErr.StatusCode == 404 {
		return Outcome{Kind: KindNotFound, Reason: apiErr.Message}
	}
	if conflicts := duplicateContactConflicts(apiErr.Message); len(conflicts) > 0 {
		return Outcome{Kind: KindBusinessRuleViolation, Reason: apiErr.Message, ConflictSlots: conflicts}
	}
	if apiErr.StatusCode == 400 || apiErr.StatusCode == 409 || apiErr.StatusCode == 422 {
		return Outcome{Kind: KindBusinessRuleViolation, Reason: apiErr.Message}
	}
	s.log.Warn("unrecognized gateway failure", zap.String("op", op), zap.Int("status", apiErr.StatusCode), zap.String("message", apiErr.Message))
	return Outcome{Kind: KindTransportError, Reason: apiErr.Message}
}

// duplicateContactConflicts recognizes the Getin duplicate-contact rule
// ("Não é possível realizar 2 reservas para o mesmo dia/horário utilizando
// este celular ou e-mail"). It is a contact-duplication rule, not a lack of
// availability: the user keeps date and contact data and renegotiates the
// time.
func duplicateContactConflicts(message string) []string {
	msg := strings.ToLower(message)
	if strings.Contains(msg, "2 reservas") ||
		(strings.Contains(msg, "mesmo") && (strings.Contains(msg, "celular") || strings.Contains(msg, "e-mail") || strings.Contains(msg, "email"))) {
		return []string{"time"}
	}
	return nil
}

// extractSectors dedupes (sector_id, sector_name) pairs from exact schedule
// entries, falling back to suggestions when no exact slot matched.
func extractSectors(entries, suggestions []scheduleEntry) []Sector {
	seen := make(map[string]bool)
	var out []Sector

	for _, e := range entries {
		if e.SectorID == "" || e.SectorName == "" || seen[e.SectorID] {
			continue
		}
		seen[e.SectorID] = true
		out = append(out, Sector{ID: e.SectorID, Name: e.SectorName, Source: "data"})
	}
	if len(out) > 0 {
		return out
	}
	for _, e := range suggestions {
		if e.SectorID == "" || e.SectorName == "" || seen[e.SectorID] {
			continue
		}
		seen[e.SectorID] = true
		out = append(out, Sector{ID: e.SectorID, Name: e.SectorName, Source: "suggestions"})
	}
	return out
}

// ResolveSector picks the sector to book: an explicit preference matches by
// (case-insensitive) name containment, a single available sector resolves
// automatically, anything else stays unresolved.
func ResolveSector(preference string, sectors []Sector) (Sector, bool) {
	if preference != "" {
		pref := strings.ToLower(strings.TrimSpace(preference))
		for _, sec := range sectors {
			name := strings.ToLower(sec.Name)
			if name == "" {
				continue
			}
			if strings.Contains(name, pref) || strings.Contains(pref, name) {
				return sec, true
			}
		}
	}
	if len(sectors) == 1 {
		return sectors[0], true
	}
	return Sector{}, false
}
