package dialer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dialdesk/internal/calls"
	"dialdesk/internal/compliance"
	"dialdesk/internal/rbac"
	"dialdesk/internal/telephony"
)

var (
	ErrTooManyActiveCalls = errors.New("dialer: agent concurrent dial limit reached")
	ErrPermissionDenied   = errors.New("dialer: caller may not act on this call")
	ErrCallNotActive      = errors.New("dialer: call is not active")
)

// BlockedError is returned when compliance refuses the dial. It carries the
// decision so the API layer can tell the agent why.
type BlockedError struct {
	Decision compliance.Decision
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("dialer: number %s blocked (%s)", e.Decision.Number, e.Decision.Reason)
}

// WebhookURLs are the externally reachable callback endpoints handed to the
// telephony provider on every dial.
type WebhookURLs struct {
	Voice     string
	Status    string
	Recording string
}

// Service coordinates one outbound dial end to end: compliance gate, slot
// acquisition, session creation, provider dial.
type Service struct {
	gate     *compliance.Gate
	sessions *calls.Store
	provider telephony.Provider
	slots    SlotLimiter
	log      *slog.Logger

	fromNumber  string
	urls        WebhookURLs
	record      bool
	ringTimeout int
	maxParallel int
}

type Config struct {
	FromNumber  string
	URLs        WebhookURLs
	Record      bool
	RingTimeout int

	// MaxParallel caps one parallel-dial batch; requests above it are
	// rejected outright.
	MaxParallel int
}

func NewService(gate *compliance.Gate, sessions *calls.Store, provider telephony.Provider, slots SlotLimiter, cfg Config, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = 3
	}
	if cfg.RingTimeout <= 0 {
		cfg.RingTimeout = 30
	}
	return &Service{
		gate:        gate,
		sessions:    sessions,
		provider:    provider,
		slots:       slots,
		log:         log,
		fromNumber:  cfg.FromNumber,
		urls:        cfg.URLs,
		record:      cfg.Record,
		ringTimeout: cfg.RingTimeout,
		maxParallel: cfg.MaxParallel,
	}
}

// SlotReleaser returns a notifier that frees the agent's dial slot whenever
// one of their calls reaches a terminal state. Wire it into the session
// store alongside the realtime notifier.
func (s *Service) SlotReleaser() calls.Notifier {
	return slotReleaser{s}
}

type slotReleaser struct{ svc *Service }

func (r slotReleaser) CallUpdated(change calls.StatusChange) {
	if !calls.IsTerminal(change.Current) {
		return
	}
	if err := r.svc.slots.Release(context.Background(), change.Session.AgentID); err != nil {
		r.svc.log.Warn("failed to release dial slot",
			"agent_id", change.Session.AgentID, "error", err)
	}
}

// DialParams describes one outbound dial request.
type DialParams struct {
	To         string
	ContactID  string
	CampaignID string
}

// Dial places one outbound call for the agent. The session is created before
// the provider is contacted; if the provider refuses, the session is failed
// rather than left dangling in initiated.
func (s *Service) Dial(ctx context.Context, agentID string, p DialParams) (calls.CallSession, error) {
	decision, err := s.gate.CheckDialable(ctx, p.To)
	if err != nil {
		return calls.CallSession{}, err
	}
	if !decision.Allowed {
		return calls.CallSession{}, &BlockedError{Decision: decision}
	}

	ok, err := s.slots.Acquire(ctx, agentID)
	if err != nil {
		return calls.CallSession{}, err
	}
	if !ok {
		return calls.CallSession{}, ErrTooManyActiveCalls
	}

	sess, err := s.sessions.Create(ctx, calls.CreateParams{
		Direction:  calls.DirectionOutbound,
		FromNumber: s.fromNumber,
		ToNumber:   decision.Number,
		AgentID:    agentID,
		ContactID:  p.ContactID,
		CampaignID: p.CampaignID,
	})
	if err != nil {
		s.releaseSlot(agentID)
		return calls.CallSession{}, err
	}

	res, err := s.provider.Dial(ctx, telephony.DialRequest{
		To:                   decision.Number,
		From:                 s.fromNumber,
		VoiceURL:             s.urls.Voice,
		StatusCallbackURL:    s.urls.Status,
		RecordingCallbackURL: s.urls.Recording,
		Record:               s.record,
		RingTimeoutSeconds:   s.ringTimeout,
	})
	if err != nil {
		s.log.Warn("provider dial failed", "agent_id", agentID, "to", decision.Number, "error", err)
		// FailSession fires the slot releaser through the notifier chain.
		if _, ferr := s.sessions.FailSession(ctx, sess.ID); ferr != nil {
			s.log.Error("failed to mark session failed", "session_id", sess.ID, "error", ferr)
			s.releaseSlot(agentID)
		}
		return calls.CallSession{}, err
	}

	if err := s.sessions.AttachProviderID(ctx, sess.ID, res.ProviderCallID); err != nil {
		return calls.CallSession{}, err
	}
	sess.ProviderCallID = res.ProviderCallID

	s.log.Info("outbound dial placed",
		"session_id", sess.ID, "agent_id", agentID,
		"to", decision.Number, "provider_call_id", res.ProviderCallID)
	return sess, nil
}

// End hangs up an active call. Agents may only end their own calls; admins
// may end any. The terminal status lands via the provider webhook.
func (s *Service) End(ctx context.Context, userID, role, sessionID string) (calls.CallSession, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return calls.CallSession{}, err
	}
	if !rbac.CanAccessCall(role, userID, sess.AgentID) {
		return calls.CallSession{}, ErrPermissionDenied
	}
	if calls.IsTerminal(sess.Status) {
		return sess, nil
	}
	if sess.ProviderCallID == "" {
		return calls.CallSession{}, ErrCallNotActive
	}
	if err := s.provider.Hangup(ctx, sess.ProviderCallID); err != nil {
		return calls.CallSession{}, err
	}
	s.log.Info("hangup requested", "session_id", sess.ID, "by", userID)
	return sess, nil
}

func (s *Service) releaseSlot(agentID string) {
	if err := s.slots.Release(context.Background(), agentID); err != nil {
		s.log.Warn("failed to release dial slot", "agent_id", agentID, "error", err)
	}
}
