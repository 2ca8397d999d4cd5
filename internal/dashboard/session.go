package dashboard

import (
	"errors"
	"slices"
	"sync"
	"time"

	"VitalScan/internal/geminiservice"
	"VitalScan/internal/health"
)

// State is where a session sits in the assessment lifecycle.
type State string

const (
	StateIdle     State = "idle"
	StatePending  State = "pending"
	StateResolved State = "resolved"
	StateRejected State = "rejected"
)

// GenericFailureMessage is the only failure text shown to users.
const GenericFailureMessage = "Failed to analyze health data. Please try again later."

var (
	// ErrBusy is returned when an assessment is already in flight for the session.
	ErrBusy = errors.New("an assessment is already in progress")
	// ErrNotPending guards Resolve and Reject against stale completions.
	ErrNotPending = errors.New("no assessment is in progress")
)

// Session holds one browser's assessment. All methods are safe for
// concurrent use.
type Session struct {
	mu sync.Mutex

	id        string
	attempt   uint64
	state     State
	profile   *health.HealthProfile
	result    *geminiservice.PredictionResult
	view      *View
	message   string
	cause     error
	createdAt time.Time
	updatedAt time.Time
}

// Snapshot is a point-in-time copy of a Session, safe to render or encode.
type Snapshot struct {
	ID        string                          `json:"session_id"`
	State     State                           `json:"state"`
	Profile   *health.HealthProfile           `json:"profile,omitempty"`
	Result    *geminiservice.PredictionResult `json:"result,omitempty"`
	View      *View                           `json:"view,omitempty"`
	Error     string                          `json:"error,omitempty"`
	CreatedAt time.Time                       `json:"created_at"`
	UpdatedAt time.Time                       `json:"updated_at"`
}

func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		id:        id,
		state:     StateIdle,
		createdAt: now,
		updatedAt: now,
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Submit moves the session to pending with the given profile. Any previous
// result or error is dropped.
func (s *Session) Submit(profile health.HealthProfile) error {
	_, err := s.begin(profile)
	return err
}

// begin is Submit that also returns the attempt number the completion must
// quote, so a result that outlives a Reset cannot land on a newer attempt.
func (s *Session) begin(profile health.HealthProfile) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StatePending {
		return 0, ErrBusy
	}

	profile.ExistingConditions = slices.Clone(profile.ExistingConditions)
	profile.Symptoms = slices.Clone(profile.Symptoms)

	s.state = StatePending
	s.profile = &profile
	s.result = nil
	s.view = nil
	s.message = ""
	s.cause = nil
	s.attempt++
	s.touch()
	return s.attempt, nil
}

// Resolve stores a validated result and its view.
func (s *Session) Resolve(result *geminiservice.PredictionResult, view View) error {
	return s.resolve(s.currentAttempt(), result, view)
}

func (s *Session) resolve(attempt uint64, result *geminiservice.PredictionResult, view View) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePending || s.attempt != attempt {
		return ErrNotPending
	}
	s.state = StateResolved
	s.result = result
	s.view = &view
	s.touch()
	return nil
}

// Reject records a failed assessment. Users only ever see the generic
// message; cause is kept for diagnostics.
func (s *Session) Reject(cause error) error {
	return s.reject(s.currentAttempt(), cause)
}

func (s *Session) reject(attempt uint64, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePending || s.attempt != attempt {
		return ErrNotPending
	}
	s.state = StateRejected
	s.message = GenericFailureMessage
	s.cause = cause
	s.touch()
	return nil
}

// Reset returns the session to idle and forgets the profile, result and error.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateIdle
	s.profile = nil
	s.result = nil
	s.view = nil
	s.message = ""
	s.cause = nil
	s.attempt++
	s.touch()
}

// Cause returns the diagnostic error of the last rejection, if any.
func (s *Session) Cause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cause
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		ID:        s.id,
		State:     s.state,
		Profile:   s.profile,
		Result:    s.result,
		View:      s.view,
		Error:     s.message,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
}

func (s *Session) currentAttempt() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempt
}

func (s *Session) touch() {
	s.updatedAt = time.Now().UTC()
}
