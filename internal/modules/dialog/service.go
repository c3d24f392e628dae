// README: Dialogue service; runs one turn through classify, merge, decide, execute, compose.
package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"mesa/internal/ai"
	"mesa/internal/modules/booking"
	"mesa/internal/modules/knowledge"
)

// Brain is the language-model capability the orchestrator consumes.
type Brain interface {
	Classify(ctx context.Context, utterance string, recentTurns []string) (ai.Classification, error)
	Extract(ctx context.Context, utterance string, recentTurns []string, knownSlots map[string]string) (ai.SlotPatch, error)
	Compose(ctx context.Context, req ai.ComposeRequest) (string, error)
}

// Gateway is the booking operations surface the orchestrator dispatches to.
type Gateway interface {
	CheckAvailability(ctx context.Context, date, hour string, partySize int) booking.Outcome
	CreateReservation(ctx context.Context, req booking.CreateRequest) booking.Outcome
	NextReservation(ctx context.Context, phone, email string) booking.Outcome
	Cancel(ctx context.Context, req booking.CancelRequest) booking.Outcome
}

// Retriever grounds FAQ answers in the restaurant corpus.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]knowledge.Passage, error)
}

// Policy is the tunable dialogue behavior, fixed at startup.
type Policy struct {
	// ConfidenceThreshold below which a classification is ignored and the
	// turn is treated as slot-merge only.
	ConfidenceThreshold float64
	// ImplicitConfirm executes a state-changing action as soon as its slots
	// are complete, skipping the explicit yes/no turn.
	ImplicitConfirm bool
	// TopK passages retrieved per FAQ answer.
	TopK int
}

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrEmptyUtterance  = errors.New("empty utterance")
)

// Orchestrator decision labels handed to the composer.
const (
	decisionAnswer          = "answer"
	decisionAskSlots        = "ask_slots"
	decisionAskConfirmation = "ask_confirmation"
	decisionError           = "error"
)

type Service struct {
	store     *Store
	brain     Brain
	gateway   Gateway
	retriever Retriever
	policy    Policy
	log       *zap.Logger

	now func() time.Time
}

func NewService(store *Store, brain Brain, gateway Gateway, retriever Retriever, policy Policy, log *zap.Logger) *Service {
	return &Service{
		store:     store,
		brain:     brain,
		gateway:   gateway,
		retriever: retriever,
		policy:    policy,
		log:       log,
		now:       time.Now,
	}
}

// TurnResult is what one processed turn returns to the transport layer.
type TurnResult struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	State     State  `json:"state"`
	Intent    string `json:"intent"`
	// MissingSlots lists what is still needed while collecting, so API
	// clients can render structured prompts.
	MissingSlots []string `json:"missing_slots,omitempty"`
}

// aiCallTimeout bounds each classifier/extractor/composer/retriever call.
const aiCallTimeout = 20 * time.Second

// Turn processes one user utterance. Turns of the same session run strictly
// one at a time; independent sessions run concurrently.
func (s *Service) Turn(ctx context.Context, sessionID, utterance string) (TurnResult, error) {
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return TurnResult{}, ErrEmptyUtterance
	}

	sess := s.store.GetOrCreate(ctx, sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	now := s.now()
	recent := sess.recentTurns(6)
	sess.appendTurn("user", utterance, now)
	sess.TurnCount++

	cls := s.classify(ctx, utterance, recent)
	patch := s.extract(ctx, utterance, recent, sess.Slots.Known())
	normalizePatch(&patch, now)

	decision, data := s.advance(ctx, sess, utterance, cls, patch)

	reply := s.compose(ctx, sess, utterance, decision, data)
	sess.appendTurn("assistant", reply, s.now())
	sess.UpdatedAt = s.now()
	s.store.Save(ctx, sess)

	s.log.Info("turn processed",
		zap.String("session_id", sess.ID),
		zap.String("intent", sess.CurrentIntent),
		zap.String("state", string(sess.State)),
		zap.String("decision", decision),
	)
	result := TurnResult{SessionID: sess.ID, Reply: reply, State: sess.State, Intent: sess.CurrentIntent}
	if sess.State == StateCollectingSlots && sess.CurrentIntent != "" && sess.CurrentIntent != ai.IntentNone {
		result.MissingSlots = MissingSlots(sess.CurrentIntent, sess.Slots)
	}
	return result, nil
}

// advance applies one turn to the state machine and returns the decision for
// the composer. Confirmation of a pending action takes precedence over
// re-classification.
func (s *Service) advance(ctx context.Context, sess *Session, utterance string, cls ai.Classification, patch ai.SlotPatch) (string, any) {
	if sess.Pending != nil {
		// A corrected value for a slot the user is confirming cancels the
		// confirmation and resumes collection with the new value.
		if changed := correctionAgainstPending(patch, sess.Pending); len(changed) > 0 {
			sess.Pending = nil
			s.moveTo(sess, StateCollectingSlots)
			sess.Slots.Merge(patch)
			return s.proceed(ctx, sess, utterance)
		}
		switch interpretConfirmation(utterance, sess.Pending.Intent) {
		case confirmYes:
			sess.Slots.Merge(patch)
			return s.execute(ctx, sess, sess.Pending.Intent)
		case confirmNo:
			dismissed := sess.Pending.Intent
			sess.Pending = nil
			s.moveTo(sess, StateCollectingSlots)
			sess.Slots.Merge(patch)
			return decisionAnswer, map[string]any{
				"dismissed_action": dismissed,
				"note":             "ação pendente descartada a pedido do usuário; pergunte como mais pode ajudar",
			}
		default:
			return decisionAskConfirmation, pendingData(sess.Pending)
		}
	}

	if cls.Confidence >= s.policy.ConfidenceThreshold && cls.Intent != ai.IntentNone && cls.Intent != sess.CurrentIntent {
		sess.CurrentIntent = cls.Intent
		s.moveTo(sess, StateCollectingSlots)
	}
	sess.Slots.Merge(patch)
	return s.proceed(ctx, sess, utterance)
}

// proceed runs the readiness check for the current intent and either asks
// for slots, asks for confirmation, or executes.
func (s *Service) proceed(ctx context.Context, sess *Session, utterance string) (string, any) {
	intent := sess.CurrentIntent
	if intent == "" || intent == ai.IntentNone {
		s.moveTo(sess, StateIdle)
		return decisionAnswer, map[string]any{
			"note": "sem intenção ativa; cumprimente e diga que pode consultar disponibilidade, criar, consultar e cancelar reservas, e responder dúvidas sobre o restaurante",
		}
	}
	if intent == ai.IntentRestaurantFAQ {
		return s.answerFAQ(ctx, sess, utterance)
	}

	if missing := MissingSlots(intent, sess.Slots); len(missing) > 0 {
		s.moveTo(sess, StateCollectingSlots)
		return decisionAskSlots, map[string]any{"missing_slots": missing}
	}

	if IsStateChanging(intent) {
		sess.Pending = s.buildPending(sess, intent)
		if s.policy.ImplicitConfirm {
			return s.execute(ctx, sess, intent)
		}
		s.moveTo(sess, StateAwaitingConfirmation)
		return decisionAskConfirmation, pendingData(sess.Pending)
	}
	return s.execute(ctx, sess, intent)
}

// buildPending freezes the slots being confirmed and resolves the sector
// from the last availability result when possible.
func (s *Service) buildPending(sess *Session, intent string) *PendingAction {
	pending := &PendingAction{Intent: intent, SlotsSnapshot: sess.Slots}
	if intent == ai.IntentCreateReservation && sess.LastAvailability != nil {
		if sector, ok := booking.ResolveSector(sess.Slots.SectorPreference, sess.LastAvailability.Sectors); ok {
			pending.Sector = sector
		}
	}
	return pending
}

func (s *Service) execute(ctx context.Context, sess *Session, intent string) (string, any) {
	s.moveTo(sess, StateExecutingAction)

	var out booking.Outcome
	switch intent {
	case ai.IntentCheckAvailability:
		out = s.gateway.CheckAvailability(ctx, sess.Slots.Date, sess.Slots.Time, sess.Slots.PartySize)
	case ai.IntentViewNextReservation:
		out = s.gateway.NextReservation(ctx, sess.Slots.Phone, sess.Slots.Email)
	case ai.IntentCreateReservation:
		slots := sess.Slots
		var sector booking.Sector
		if sess.Pending != nil {
			slots = sess.Pending.SlotsSnapshot
			sector = sess.Pending.Sector
		}
		out = s.gateway.CreateReservation(ctx, booking.CreateRequest{
			Date:       slots.Date,
			Time:       slots.Time,
			PartySize:  slots.PartySize,
			Name:       slots.CustomerName,
			Phone:      slots.Phone,
			Email:      slots.Email,
			SectorID:   sector.ID,
			SectorName: sector.Name,
			Info:       slots.Notes,
		})
	case ai.IntentCancelReservation:
		slots := sess.Slots
		if sess.Pending != nil {
			slots = sess.Pending.SlotsSnapshot
		}
		out = s.gateway.Cancel(ctx, booking.CancelRequest{
			Code:  slots.ReservationCode,
			Date:  slots.Date,
			Time:  slots.Time,
			Phone: slots.Phone,
			Email: slots.Email,
		})
	default:
		s.moveTo(sess, StateIdle)
		return decisionAnswer, map[string]any{"note": "nada a executar"}
	}

	sess.LastResult = &out
	return s.fold(sess, intent, out)
}

// fold applies a gateway outcome to the session and picks the decision.
func (s *Service) fold(sess *Session, intent string, out booking.Outcome) (string, any) {
	switch out.Kind {
	case booking.KindSuccess:
		sess.Pending = nil
		if av, ok := out.Data.(booking.Availability); ok {
			sess.LastAvailability = &av
		}
		// A completed create/cancel ends the task; a repeated "sim" must
		// not re-trigger it.
		if IsStateChanging(intent) {
			sess.CurrentIntent = ai.IntentNone
		}
		s.moveTo(sess, StateIdle)
		return decisionAnswer, map[string]any{"operation": intent, "result": out.Data}

	case booking.KindBusinessRuleViolation:
		sess.Pending = nil
		s.moveTo(sess, StateCollectingSlots)
		if len(out.ConflictSlots) > 0 {
			sess.Slots.Clear(out.ConflictSlots)
			return decisionAskSlots, map[string]any{
				"reason":        out.Reason,
				"missing_slots": out.ConflictSlots,
			}
		}
		return decisionAnswer, map[string]any{"reason": out.Reason}

	case booking.KindNotFound:
		sess.Pending = nil
		s.moveTo(sess, StateIdle)
		return decisionAnswer, map[string]any{"operation": intent, "found": false, "reason": out.Reason}

	default: // booking.KindTransportError
		s.moveTo(sess, StateFaulted)
		if sess.Pending != nil {
			// Slots and pending action survive so the user can just retry.
			s.moveTo(sess, StateAwaitingConfirmation)
		} else {
			s.moveTo(sess, StateIdle)
		}
		return decisionError, map[string]any{"reason": out.Reason}
	}
}

func (s *Service) answerFAQ(ctx context.Context, sess *Session, utterance string) (string, any) {
	s.moveTo(sess, StateExecutingAction)
	retrCtx, cancel := context.WithTimeout(ctx, aiCallTimeout)
	defer cancel()
	passages, err := s.retriever.Retrieve(retrCtx, utterance, s.policy.TopK)
	if err != nil {
		s.log.Warn("retrieval failed", zap.String("session_id", sess.ID), zap.Error(err))
		s.moveTo(sess, StateFaulted)
		s.moveTo(sess, StateIdle)
		return decisionError, map[string]any{"reason": "falha temporária ao consultar as informações do restaurante"}
	}
	s.moveTo(sess, StateIdle)
	return decisionAnswer, map[string]any{"passages": passages}
}

// SessionSnapshot marshals the session under its own lock, for inspection
// endpoints.
func (s *Service) SessionSnapshot(id string) (json.RawMessage, error) {
	sess, ok := s.store.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return json.Marshal(sess)
}

// EndSession discards a conversation on explicit goodbye.
func (s *Service) EndSession(ctx context.Context, id string) error {
	if _, ok := s.store.Get(id); !ok {
		return ErrSessionNotFound
	}
	s.store.Delete(ctx, id)
	return nil
}

func (s *Service) moveTo(sess *Session, to State) {
	if !CanTransition(sess.State, to) {
		s.log.Error("disallowed dialogue transition",
			zap.String("session_id", sess.ID),
			zap.String("from", string(sess.State)),
			zap.String("to", string(to)),
		)
	}
	sess.State = to
}

func (s *Service) classify(ctx context.Context, utterance string, recent []string) ai.Classification {
	ctx, cancel := context.WithTimeout(ctx, aiCallTimeout)
	defer cancel()
	cls, err := s.brain.Classify(ctx, utterance, recent)
	if err != nil {
		s.log.Warn("classification failed, treating turn as slot-merge only", zap.Error(err))
		return ai.Classification{Intent: ai.IntentNone, Confidence: 0}
	}
	return cls
}

func (s *Service) extract(ctx context.Context, utterance string, recent []string, known map[string]string) ai.SlotPatch {
	ctx, cancel := context.WithTimeout(ctx, aiCallTimeout)
	defer cancel()
	patch, err := s.brain.Extract(ctx, utterance, recent, known)
	if err != nil {
		s.log.Warn("extraction failed, no slots merged this turn", zap.Error(err))
		return ai.SlotPatch{}
	}
	return patch
}

func (s *Service) compose(ctx context.Context, sess *Session, utterance, decision string, data any) string {
	ctx, cancel := context.WithTimeout(ctx, aiCallTimeout)
	defer cancel()
	reply, err := s.brain.Compose(ctx, ai.ComposeRequest{
		UserMessage: utterance,
		Intent:      sess.CurrentIntent,
		Decision:    decision,
		Data:        data,
		Language:    "pt-BR",
	})
	if err != nil {
		s.log.Warn("composition failed, using fallback reply", zap.String("decision", decision), zap.Error(err))
		return fallbackReply(decision)
	}
	return reply
}

func fallbackReply(decision string) string {
	switch decision {
	case decisionAskSlots:
		return "Pode me passar as informações que faltam para eu continuar com a sua reserva?"
	case decisionAskConfirmation:
		return "Posso confirmar essa ação? Responda sim ou não, por favor."
	case decisionError:
		return "Desculpe, tive um problema temporário. Suas informações foram preservadas, tente novamente em instantes."
	default:
		return "Certo! Posso consultar disponibilidade, criar, consultar ou cancelar reservas, e tirar dúvidas sobre o restaurante."
	}
}

func normalizePatch(patch *ai.SlotPatch, now time.Time) {
	if patch.Date != nil {
		v := NormalizeDate(*patch.Date, now)
		patch.Date = &v
	}
	if patch.Time != nil {
		v := NormalizeTime(*patch.Time)
		patch.Time = &v
	}
}

func pendingData(p *PendingAction) map[string]any {
	data := map[string]any{"action": p.Intent, "slots": p.SlotsSnapshot}
	if p.Sector.Name != "" {
		data["sector"] = p.Sector.Name
	}
	return data
}

// correctionAgainstPending lists the confirmed slots this turn's extraction
// changed to a different value.
func correctionAgainstPending(patch ai.SlotPatch, pending *PendingAction) []string {
	snap := pending.SlotsSnapshot
	var changed []string
	diff := func(name, current string, v *string) {
		if v == nil {
			return
		}
		val := strings.TrimSpace(*v)
		if val != "" && current != "" && val != current {
			changed = append(changed, name)
		}
	}
	diff(SlotDate, snap.Date, patch.Date)
	diff(SlotTime, snap.Time, patch.Time)
	if patch.PartySize != nil && snap.PartySize > 0 && *patch.PartySize != snap.PartySize {
		changed = append(changed, SlotPartySize)
	}
	diff(SlotSector, snap.SectorPreference, patch.Sector)
	diff(SlotName, snap.CustomerName, patch.Name)
	diff(SlotPhone, snap.Phone, patch.Phone)
	diff(SlotEmail, snap.Email, patch.Email)
	diff(SlotCode, snap.ReservationCode, patch.Code)
	return changed
}

type confirmVerdict int

const (
	confirmUnclear confirmVerdict = iota
	confirmYes
	confirmNo
)

var affirmativeWords = map[string]bool{
	"sim": true, "claro": true, "pode": true, "confirmo": true, "confirma": true,
	"confirmado": true, "isso": true, "ok": true, "beleza": true, "certo": true,
	"perfeito": true, "fechado": true, "quero": true, "bora": true, "vamos": true,
}

var negativeWords = map[string]bool{
	"não": true, "nao": true, "negativo": true,
	"deixa": true, "espera": true, "mudei": true,
}

// interpretConfirmation reads a turn as a yes/no answer to the pending
// action. "cancela" confirms a pending cancellation instead of negating it.
// Mixed or unrecognizable signals stay unclear and get re-asked.
func interpretConfirmation(utterance, pendingIntent string) confirmVerdict {
	cleaned := strings.ToLower(utterance)
	cleaned = strings.Map(func(r rune) rune {
		switch r {
		case '.', ',', '!', '?', ';', ':':
			return ' '
		}
		return r
	}, cleaned)

	cancelling := pendingIntent == ai.IntentCancelReservation
	var yes, no bool
	for _, word := range strings.Fields(cleaned) {
		if affirmativeWords[word] {
			yes = true
		}
		if word == "cancela" || word == "cancelar" {
			if cancelling {
				yes = true
			} else {
				no = true
			}
			continue
		}
		if negativeWords[word] {
			no = true
		}
	}
	switch {
	case yes && !no:
		return confirmYes
	case no && !yes:
		return confirmNo
	default:
		return confirmUnclear
	}
}
