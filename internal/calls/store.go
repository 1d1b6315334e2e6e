package calls

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("calls: session not found")
	ErrUnknownSession = errors.New("calls: unknown provider call id")
	ErrOutOfOrder     = errors.New("calls: out-of-order status event")
	ErrInvalidStatus  = errors.New("calls: invalid status")
)

// Repository is the persistence contract for call sessions.
type Repository interface {
	Insert(ctx context.Context, s CallSession) error
	Update(ctx context.Context, s CallSession) error
	Get(ctx context.Context, id string) (CallSession, bool, error)
	GetByProviderID(ctx context.Context, providerCallID string) (CallSession, bool, error)
	List(ctx context.Context, f ListFilter) ([]CallSession, error)
	UpsertRecording(ctx context.Context, r CallRecording) error
}

// Notifier receives a StatusChange for every applied transition.
// Implementations must not block; delivery is best-effort.
type Notifier interface {
	CallUpdated(change StatusChange)
}

// NopNotifier discards all changes.
type NopNotifier struct{}

func (NopNotifier) CallUpdated(StatusChange) {}

// SetNotifier replaces the store's notifier. Call during wiring, before the
// store starts taking traffic; it is not synchronized against ApplyStatus.
func (s *Store) SetNotifier(n Notifier) {
	if n == nil {
		n = NopNotifier{}
	}
	s.notifier = n
}

// MultiNotifier fans a change out to several notifiers in order.
type MultiNotifier []Notifier

func (m MultiNotifier) CallUpdated(change StatusChange) {
	for _, n := range m {
		n.CallUpdated(change)
	}
}

// Store is the source of truth for call sessions. Webhook deliveries for one
// call may race, so all mutation goes through a per-session mutex; the state
// machine in machine.go decides which transitions apply.
type Store struct {
	repo     Repository
	notifier Notifier
	log      *slog.Logger
	clock    func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex // keyed by session id
}

func NewStore(repo Repository, notifier Notifier, log *slog.Logger) *Store {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		repo:     repo,
		notifier: notifier,
		log:      log,
		clock:    time.Now,
		locks:    map[string]*sync.Mutex{},
	}
}

// sessionLock returns the mutex serializing updates for one session id.
// Locks are never removed; session cardinality is bounded by call volume and
// rows are small.
func (s *Store) sessionLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

type CreateParams struct {
	Direction  Direction
	FromNumber string
	ToNumber   string
	AgentID    string
	ContactID  string
	CampaignID string
}

// Create opens a new session in the initiated state. Called before the
// provider confirms the dial, so ProviderCallID starts empty.
func (s *Store) Create(ctx context.Context, p CreateParams) (CallSession, error) {
	if p.AgentID == "" || p.ToNumber == "" {
		return CallSession{}, errors.New("calls: agent_id and to_number are required")
	}
	if p.Direction != DirectionInbound && p.Direction != DirectionOutbound {
		return CallSession{}, errors.New("calls: invalid direction")
	}

	sess := CallSession{
		ID:         uuid.NewString(),
		AgentID:    p.AgentID,
		ContactID:  p.ContactID,
		CampaignID: p.CampaignID,
		Direction:  p.Direction,
		FromNumber: p.FromNumber,
		ToNumber:   p.ToNumber,
		Status:     CallStatusInitiated,
		CreatedAt:  s.clock().UTC(),
	}
	if err := s.repo.Insert(ctx, sess); err != nil {
		return CallSession{}, err
	}
	return sess, nil
}

// AttachProviderID records the provider's call identifier once the dial
// request is accepted.
func (s *Store) AttachProviderID(ctx context.Context, sessionID, providerCallID string) error {
	l := s.sessionLock(sessionID)
	l.Lock()
	defer l.Unlock()

	sess, ok, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	sess.ProviderCallID = providerCallID
	return s.repo.Update(ctx, sess)
}

func (s *Store) Get(ctx context.Context, sessionID string) (CallSession, error) {
	sess, ok, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return CallSession{}, err
	}
	if !ok {
		return CallSession{}, ErrNotFound
	}
	return sess, nil
}

func (s *Store) GetByProviderID(ctx context.Context, providerCallID string) (CallSession, error) {
	sess, ok, err := s.repo.GetByProviderID(ctx, providerCallID)
	if err != nil {
		return CallSession{}, err
	}
	if !ok {
		return CallSession{}, ErrUnknownSession
	}
	return sess, nil
}

func (s *Store) List(ctx context.Context, f ListFilter) ([]CallSession, error) {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}
	return s.repo.List(ctx, f)
}

// ApplyStatus applies a provider status event to the session identified by
// providerCallID. Unknown ids return ErrUnknownSession and regressive events
// return ErrOutOfOrder; both are no-ops the webhook layer logs and then
// acknowledges, so the provider never retries.
func (s *Store) ApplyStatus(ctx context.Context, providerCallID string, status CallStatus, eventTime time.Time) (StatusChange, error) {
	if !ValidStatus(status) {
		return StatusChange{}, ErrInvalidStatus
	}

	sess, ok, err := s.repo.GetByProviderID(ctx, providerCallID)
	if err != nil {
		return StatusChange{}, err
	}
	if !ok {
		return StatusChange{}, ErrUnknownSession
	}

	l := s.sessionLock(sess.ID)
	l.Lock()
	defer l.Unlock()

	// Re-read under the lock: a racing delivery may have advanced the
	// session between lookup and lock acquisition.
	sess, ok, err = s.repo.GetByProviderID(ctx, providerCallID)
	if err != nil {
		return StatusChange{}, err
	}
	if !ok {
		return StatusChange{}, ErrUnknownSession
	}

	if !CanTransition(sess.Status, status) {
		return StatusChange{}, ErrOutOfOrder
	}

	if eventTime.IsZero() {
		eventTime = s.clock()
	}
	eventTime = eventTime.UTC()

	prev := sess.Status
	sess.Status = status

	if status == CallStatusAnswered && sess.AnsweredAt == nil {
		t := eventTime
		sess.AnsweredAt = &t
	}
	if IsTerminal(status) {
		if sess.EndedAt == nil {
			t := eventTime
			sess.EndedAt = &t
		}
		if sess.AnsweredAt != nil {
			d := sess.EndedAt.Sub(*sess.AnsweredAt)
			if d < 0 {
				d = 0
			}
			sess.DurationSeconds = int(d / time.Second)
		}
	}

	if err := s.repo.Update(ctx, sess); err != nil {
		return StatusChange{}, err
	}

	change := StatusChange{Session: sess, Previous: prev, Current: status, EventTime: eventTime}
	s.notifier.CallUpdated(change)
	return change, nil
}

// FailSession marks a session failed when the outbound dial never reached
// the provider, so no webhook will ever arrive for it. Sessions that already
// advanced past initiated are left alone.
func (s *Store) FailSession(ctx context.Context, sessionID string) (StatusChange, error) {
	l := s.sessionLock(sessionID)
	l.Lock()
	defer l.Unlock()

	sess, ok, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return StatusChange{}, err
	}
	if !ok {
		return StatusChange{}, ErrNotFound
	}
	if !CanTransition(sess.Status, CallStatusFailed) {
		return StatusChange{}, ErrOutOfOrder
	}

	now := s.clock().UTC()
	prev := sess.Status
	sess.Status = CallStatusFailed
	if sess.EndedAt == nil {
		t := now
		sess.EndedAt = &t
	}

	if err := s.repo.Update(ctx, sess); err != nil {
		return StatusChange{}, err
	}

	change := StatusChange{Session: sess, Previous: prev, Current: CallStatusFailed, EventTime: now}
	s.notifier.CallUpdated(change)
	return change, nil
}

// SetDisposition records the agent's after-call outcome tag and notes.
// Empty fields leave the existing values untouched.
func (s *Store) SetDisposition(ctx context.Context, sessionID, disposition, notes string) (CallSession, error) {
	l := s.sessionLock(sessionID)
	l.Lock()
	defer l.Unlock()

	sess, ok, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return CallSession{}, err
	}
	if !ok {
		return CallSession{}, ErrNotFound
	}

	if disposition != "" {
		sess.Disposition = disposition
	}
	if notes != "" {
		sess.Notes = notes
	}
	if err := s.repo.Update(ctx, sess); err != nil {
		return CallSession{}, err
	}
	return sess, nil
}

// SaveRecording attaches provider recording metadata to the session that owns
// providerCallID. Events referencing unknown calls are dropped with
// ErrUnknownSession. Redelivered events for the same provider recording id
// overwrite the stored URL and duration.
func (s *Store) SaveRecording(ctx context.Context, providerCallID string, providerRecordingID, url string, durationSeconds int) (CallRecording, error) {
	sess, ok, err := s.repo.GetByProviderID(ctx, providerCallID)
	if err != nil {
		return CallRecording{}, err
	}
	if !ok {
		return CallRecording{}, ErrUnknownSession
	}

	rec := CallRecording{
		ID:                  uuid.NewString(),
		SessionID:           sess.ID,
		ProviderRecordingID: providerRecordingID,
		URL:                 url,
		DurationSeconds:     durationSeconds,
		CreatedAt:           s.clock().UTC(),
	}
	if err := s.repo.UpsertRecording(ctx, rec); err != nil {
		return CallRecording{}, err
	}
	return rec, nil
}
