package dashboard

import (
	"context"
	"errors"
	"fmt"

	"VitalScan/internal/geminiservice"
	"VitalScan/internal/health"
	"github.com/rs/zerolog"
)

// ErrAssessmentFailed wraps every prediction failure surfaced to callers.
var ErrAssessmentFailed = errors.New("assessment failed")

// Event names pushed to listeners.
const (
	EventPending  = "pending"
	EventResolved = "resolved"
	EventRejected = "rejected"
	EventReset    = "reset"
)

// Predictor produces a validated risk assessment for a profile.
type Predictor interface {
	Predict(ctx context.Context, profile health.HealthProfile) (*geminiservice.PredictionResult, error)
}

// Event is a session state change pushed to live listeners.
type Event struct {
	Event     string `json:"event"`
	SessionID string `json:"session_id"`
	State     State  `json:"state"`
	View      *View  `json:"view,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Notifier delivers events to whoever is watching a session.
type Notifier interface {
	Notify(sessionID string, ev Event)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, Event) {}

// Assessor drives one assessment through its session:
// submit, predict, present, then resolve or reject.
type Assessor struct {
	predictor Predictor
	notifier  Notifier
}

func NewAssessor(predictor Predictor, notifier Notifier) *Assessor {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Assessor{predictor: predictor, notifier: notifier}
}

// Assess runs the prediction for profile synchronously. It returns ErrBusy
// when the session already has an assessment in flight, and an error
// wrapping ErrAssessmentFailed when the prediction fails for any reason.
func (a *Assessor) Assess(ctx context.Context, sess *Session, profile health.HealthProfile) (Snapshot, error) {
	logger := zerolog.Ctx(ctx).With().Str("session_id", sess.ID()).Logger()

	attempt, err := sess.begin(profile)
	if err != nil {
		logger.Warn().Err(err).Msg("Assessment rejected: session busy")
		return sess.Snapshot(), err
	}
	a.publish(sess, EventPending)

	result, err := a.predictor.Predict(ctx, profile)
	if err == nil {
		err = geminiservice.ValidatePrediction(result)
	}
	if err != nil {
		logger.Error().Err(err).Str("failure", failureClass(err)).Msg("Risk assessment failed")
		if rejectErr := sess.reject(attempt, err); rejectErr != nil {
			logger.Warn().Err(rejectErr).Msg("Session changed while assessment was running")
		} else {
			a.publish(sess, EventRejected)
		}
		return sess.Snapshot(), fmt.Errorf("%w: %w", ErrAssessmentFailed, err)
	}

	if err := sess.resolve(attempt, result, Present(result)); err != nil {
		// Reset mid-flight; the result is discarded.
		logger.Warn().Err(err).Msg("Session changed while assessment was running")
		return sess.Snapshot(), nil
	}
	a.publish(sess, EventResolved)

	logger.Info().Int("risks", len(result.Risks)).Msg("Risk assessment resolved")
	return sess.Snapshot(), nil
}

// Reset clears the session and tells listeners.
func (a *Assessor) Reset(sess *Session) Snapshot {
	sess.Reset()
	a.publish(sess, EventReset)
	return sess.Snapshot()
}

func (a *Assessor) publish(sess *Session, name string) {
	snap := sess.Snapshot()
	a.notifier.Notify(snap.ID, Event{
		Event:     name,
		SessionID: snap.ID,
		State:     snap.State,
		View:      snap.View,
		Error:     snap.Error,
	})
}

// failureClass names the failure for logs.
func failureClass(err error) string {
	switch {
	case errors.Is(err, geminiservice.ErrNetwork):
		return "network"
	case errors.Is(err, geminiservice.ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, geminiservice.ErrSchemaViolation):
		return "schema_violation"
	default:
		return "unknown"
	}
}
