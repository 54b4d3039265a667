package lifecycle

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"
)

// RecoveryAttempt tracks the retry budget for one error kind. The map of
// attempts is bounded by the closed kind set; entries are evicted on
// success or when the rolling window expires.
type RecoveryAttempt struct {
	Kind        ErrorKind
	Attempts    int
	WindowStart time.Time
}

// RecoveryStep is one user-facing guidance step. Steps are pure data
// derived from the error kind, used only for display; they are distinct
// from the automatic actions the engine initiates.
type RecoveryStep struct {
	Title  string
	Detail string
}

// RecoveryActions is the coordinator surface the engine drives. All
// methods are invoked from the coordinator's serialized context; the
// coordinator dispatches any blocking work itself.
type RecoveryActions interface {
	// RetryNegotiation schedules a re-invocation of the negotiation entry
	// point after delay, attributed to kind.
	RetryNegotiation(kind ErrorKind, delay time.Duration)

	// DowngradeCapability lowers the video tier by one and re-triggers
	// negotiation immediately. Returns false when already at the lowest
	// tier.
	DowngradeCapability(kind ErrorKind) bool

	// SwitchAudioDevice starts an asynchronous device switch. Its outcome
	// re-enters the coordinator as a new event.
	SwitchAudioDevice(reason string)

	// ResumeSession resumes paused media after an interruption ends.
	ResumeSession()
}

// RecoveryEngine selects a recovery action for a classified error: retry
// the identical operation, downgrade the requested capability, switch the
// audio device, resume after an interruption, or surface the error with
// guidance only. Retries are bounded per error kind by a rolling-window
// budget so a persistent failure can never produce a retry storm.
//
// The engine never mutates coordinator state directly; every action goes
// through RecoveryActions on the single serialized context.
type RecoveryEngine struct {
	mu   sync.Mutex
	cfg  *Config
	host RecoveryActions
	time TimeProvider

	attempts map[ErrorKind]*RecoveryAttempt
	backoffs map[ErrorKind]*backoff.ExponentialBackOff
}

// NewRecoveryEngine creates an engine bound to the given action host.
func NewRecoveryEngine(cfg *Config, host RecoveryActions, tp TimeProvider) *RecoveryEngine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &RecoveryEngine{
		cfg:      cfg,
		host:     host,
		time:     getTimeProvider(tp),
		attempts: make(map[ErrorKind]*RecoveryAttempt, int(kindCount)),
		backoffs: make(map[ErrorKind]*backoff.ExponentialBackOff, int(kindCount)),
	}
}

// AttemptRecovery selects and initiates a recovery action for the error.
// The return value reports whether an action was initiated, not whether
// it ultimately succeeds. Policy, in priority order:
//
//  1. interruption ended: resume, never budget-gated
//  2. non-retryable: guidance only
//  3. camera/screen-capture: downgrade one capability tier and retry
//     immediately, without consuming a budget slot
//  4. audio device: switch to the best alternative device (budgeted)
//  5. transient kinds: retry the identical operation (budgeted)
func (e *RecoveryEngine) AttemptRecovery(rec ErrorRecord, context string) bool {
	log := logrus.WithFields(logrus.Fields{
		"function": "AttemptRecovery",
		"kind":     rec.Kind.String(),
		"context":  context,
	})

	if rec.Kind == KindCallInterruption && rec.InterruptionEnded {
		log.Info("Interruption ended, resuming session")
		observeRecoveryAction(rec.Kind, "resume")
		e.host.ResumeSession()
		return true
	}

	if !rec.Retryable {
		log.Info("Error is not retryable, guidance only")
		observeRecoveryAction(rec.Kind, "guidance")
		return false
	}

	switch rec.Kind {
	case KindCamera, KindScreenCapture:
		// Changing the requested capability is not a repeat of the same
		// operation, so it does not consume a budget slot.
		if !e.host.DowngradeCapability(rec.Kind) {
			log.Warn("No lower capability tier available")
			observeRecoveryAction(rec.Kind, "guidance")
			return false
		}
		observeRecoveryAction(rec.Kind, "downgrade")
		return true

	case KindAudioDevice:
		if !e.consumeBudget(rec.Kind) {
			log.Warn("Device-switch budget exhausted")
			observeRecoveryAction(rec.Kind, "terminal")
			return false
		}
		log.Info("Initiating audio device switch")
		observeRecoveryAction(rec.Kind, "device-switch")
		e.host.SwitchAudioDevice(context)
		return true

	case KindCallInterruption:
		// Still interrupted; the coordinator already paused. Nothing to do
		// until the interruption ends.
		observeRecoveryAction(rec.Kind, "defer")
		return false

	default:
		if !e.consumeBudget(rec.Kind) {
			log.Warn("Retry budget exhausted, surfacing as terminal")
			observeRecoveryAction(rec.Kind, "terminal")
			return false
		}
		delay := e.nextDelay(rec.Kind)
		log.WithField("delay", delay).Info("Scheduling retry")
		observeRecoveryAction(rec.Kind, "retry")
		e.host.RetryNegotiation(rec.Kind, delay)
		return true
	}
}

// consumeBudget records one automatic attempt for kind and reports
// whether it is within the budget. The window is rolling: an entry older
// than the window restarts the count. An exhausted entry is retained, so
// every further consecutive failure of that kind is terminal as well;
// only window expiry or a success re-arms the budget.
func (e *RecoveryEngine) consumeBudget(kind ErrorKind) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.time.Now()
	a, ok := e.attempts[kind]
	if ok && now.Sub(a.WindowStart) > e.cfg.RetryWindow {
		delete(e.attempts, kind)
		ok = false
	}

	if !ok {
		e.attempts[kind] = &RecoveryAttempt{Kind: kind, Attempts: 1, WindowStart: now}
		return true
	}

	if a.Attempts >= e.cfg.RetryMaxAttempts {
		delete(e.backoffs, kind)
		return false
	}

	a.Attempts++
	return true
}

// nextDelay returns the backoff delay for the next retry of kind.
func (e *RecoveryEngine) nextDelay(kind ErrorKind) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	b, ok := e.backoffs[kind]
	if !ok {
		b = backoff.NewExponentialBackOff()
		b.InitialInterval = e.cfg.InitialRetryBackoff
		b.MaxInterval = e.cfg.MaxRetryBackoff
		b.Reset()
		e.backoffs[kind] = b
	}
	return b.NextBackOff()
}

// RecordSuccess resets the budget for kind. The counter returns to zero
// the moment any operation for that kind succeeds.
func (e *RecoveryEngine) RecordSuccess(kind ErrorKind) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.attempts[kind]; ok {
		logrus.WithFields(logrus.Fields{
			"function": "RecordSuccess",
			"kind":     kind.String(),
		}).Debug("Retry budget reset after success")
	}
	delete(e.attempts, kind)
	delete(e.backoffs, kind)
}

// Reset clears all budget entries, used when the session stops.
func (e *RecoveryEngine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attempts = make(map[ErrorKind]*RecoveryAttempt, int(kindCount))
	e.backoffs = make(map[ErrorKind]*backoff.ExponentialBackOff, int(kindCount))
}

// AttemptCount returns the recorded attempts for kind within the current
// window. Zero means no entry.
func (e *RecoveryEngine) AttemptCount(kind ErrorKind) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if a, ok := e.attempts[kind]; ok {
		return a.Attempts
	}
	return 0
}

// SelectAlternativeDevice picks the highest-priority device other than
// the current one, using the fixed preference order wired > bluetooth >
// speaker > earpiece.
func (e *RecoveryEngine) SelectAlternativeDevice(devices []AudioDevice, current AudioDevice) (AudioDevice, bool) {
	var best AudioDevice
	found := false
	for _, d := range devices {
		if d.ID == current.ID {
			continue
		}
		if !found || d.Class < best.Class {
			best = d
			found = true
		}
	}
	return best, found
}

// GuidedSteps returns user-facing recovery guidance for the error. The
// result is a pure function of the error kind.
func (e *RecoveryEngine) GuidedSteps(rec ErrorRecord) []RecoveryStep {
	info := kindTable[rec.Kind]
	steps := make([]RecoveryStep, 0, len(info.suggestions))
	for _, s := range info.suggestions {
		steps = append(steps, RecoveryStep{
			Title:  info.userMessage,
			Detail: s,
		})
	}
	return steps
}
