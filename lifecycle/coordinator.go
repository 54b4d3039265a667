package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Dependencies collects the external collaborators the coordinator
// consumes. Transport and Interruptions are required; the rest may be nil,
// which disables the corresponding reactions (pause/resume, device switch,
// resource advice).
type Dependencies struct {
	Transport     Transport
	Interruptions InterruptionSource
	Media         MediaControl
	Devices       DeviceManager
	Resources     ResourceMonitor
}

// Coordinator owns the single authoritative ConnectionState for one
// session at a time. It subscribes to the transport phase stream and the
// interruption stream, folds both into state transitions, forwards
// failures to the RecoveryEngine, and runs the periodic advisor tick.
//
// All mutations happen on one serialized execution context (the run
// loop); cross-component calls within a reaction are synchronous on that
// context, and blocking I/O (negotiation, device enumeration) is
// dispatched to goroutines whose completion re-enters the loop as a new
// event tagged with the session epoch, so stale completions are dropped.
type Coordinator struct {
	cfg       *Config
	transport Transport
	interrupt InterruptionSource
	media     MediaControl
	devices   DeviceManager
	resources ResourceMonitor

	recovery *RecoveryEngine
	advisor  *ResourceAdvisor
	audit    *ActionLog
	time     TimeProvider

	// Observable snapshot, written only by the run loop.
	mu         sync.RWMutex
	state      ConnectionState
	paused     bool
	profile    CapabilityProfile
	lastError  *ErrorRecord
	suggestion *CapabilityProfile
	session    *SessionHandle

	stateCb      func(ConnectionState)
	errorCb      func(ErrorRecord)
	suggestionCb func(CapabilityProfile)
	offerCb      func(Descriptor)
	pauseCb      func(bool)

	// Loop plumbing. epoch and sessionActive are loop-owned.
	events        chan func()
	done          chan struct{}
	closeOnce     sync.Once
	stopRequested atomic.Bool
	sessionActive bool
	epoch         uint64
	sessionCtx    context.Context
	sessionCancel context.CancelFunc
}

// NewCoordinator creates a coordinator and starts its run loop. Callers
// must Close it to release the loop.
func NewCoordinator(deps Dependencies, cfg *Config, tp TimeProvider) (*Coordinator, error) {
	if deps.Transport == nil {
		return nil, fmt.Errorf("transport collaborator cannot be nil")
	}
	if deps.Interruptions == nil {
		return nil, fmt.Errorf("interruption collaborator cannot be nil")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clock := getTimeProvider(tp)
	c := &Coordinator{
		cfg:       cfg,
		transport: deps.Transport,
		interrupt: deps.Interruptions,
		media:     deps.Media,
		devices:   deps.Devices,
		resources: deps.Resources,
		advisor:   NewResourceAdvisor(cfg),
		audit:     NewActionLog(cfg.AuditLogCapacity, clock),
		time:      clock,
		state:     StateDisconnected,
		profile:   DefaultProfile(),
		events:    make(chan func(), 64),
		done:      make(chan struct{}),
	}
	c.recovery = NewRecoveryEngine(cfg, (*recoveryHost)(c), clock)

	logrus.WithFields(logrus.Fields{
		"function":         "NewCoordinator",
		"advisor_interval": cfg.AdvisorInterval,
		"retry_budget":     cfg.RetryMaxAttempts,
	}).Info("Coordinator created")

	go c.run()
	return c, nil
}

// Callback setters. Callbacks run on the coordinator's serialized context
// and must not block.

// SetStateCallback registers a callback for ConnectionState changes.
func (c *Coordinator) SetStateCallback(cb func(ConnectionState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stateCb = cb
}

// SetErrorCallback registers a callback for surfaced ErrorRecords.
func (c *Coordinator) SetErrorCallback(cb func(ErrorRecord)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errorCb = cb
}

// SetSuggestionCallback registers a callback for advisor suggestions.
func (c *Coordinator) SetSuggestionCallback(cb func(CapabilityProfile)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suggestionCb = cb
}

// SetOfferCallback registers a callback for locally created negotiation
// offers, to be forwarded by the application's signaling layer.
func (c *Coordinator) SetOfferCallback(cb func(Descriptor)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offerCb = cb
}

// SetPauseCallback registers a callback for paused-flag changes.
func (c *Coordinator) SetPauseCallback(cb func(bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pauseCb = cb
}

// Observable accessors.

// State returns the current authoritative connection state.
func (c *Coordinator) State() ConnectionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Paused reports whether a connected session is paused by an interruption.
func (c *Coordinator) Paused() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.paused
}

// Profile returns the current capability profile.
func (c *Coordinator) Profile() CapabilityProfile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.profile
}

// LastError returns the latest unresolved error record, if any.
func (c *Coordinator) LastError() (ErrorRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.lastError == nil {
		return ErrorRecord{}, false
	}
	return *c.lastError, true
}

// PendingSuggestion returns the advisor suggestion awaiting user decision.
func (c *Coordinator) PendingSuggestion() (CapabilityProfile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.suggestion == nil {
		return CapabilityProfile{}, false
	}
	return *c.suggestion, true
}

// Session returns the active session handle, if any.
func (c *Coordinator) Session() (SessionHandle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return SessionHandle{}, false
	}
	return *c.session, true
}

// AuditLog exposes the bounded action log.
func (c *Coordinator) AuditLog() *ActionLog { return c.audit }

// GuidedSteps returns user-facing guidance for an error record.
func (c *Coordinator) GuidedSteps(rec ErrorRecord) []RecoveryStep {
	return c.recovery.GuidedSteps(rec)
}

// RecoveryEngine exposes the engine for budget inspection.
func (c *Coordinator) RecoveryEngine() *RecoveryEngine { return c.recovery }

// Operations.

type startReply struct {
	handle SessionHandle
	err    error
}

// Start begins a session with the given capability profile and invokes
// the negotiation entry point. It fails synchronously only on invalid
// invocation; negotiation failures arrive through the error stream.
func (c *Coordinator) Start(profile CapabilityProfile) (SessionHandle, error) {
	reply := make(chan startReply, 1)
	if !c.post(func() { reply <- c.handleStart(profile) }) {
		return SessionHandle{}, ErrCoordinatorClosed
	}
	r := <-reply
	return r.handle, r.err
}

// Stop ends the session, cancels in-flight retries and negotiation, and
// releases transport resources. Idempotent; the capability profile is
// preserved for the next Start. If a transport phase event races with
// Stop, Stop wins: the request flag is raised before the loop sees either.
func (c *Coordinator) Stop() {
	c.stopRequested.Store(true)
	reply := make(chan struct{})
	if !c.post(func() { c.handleStop(); close(reply) }) {
		return
	}
	<-reply
}

// RetryCurrentError manually re-invokes negotiation for the latest
// surfaced error with the current profile. Unlike automatic recovery it
// is not budget-gated, but it does not reset the budget either; only a
// success does that.
func (c *Coordinator) RetryCurrentError() error {
	reply := make(chan error, 1)
	if !c.post(func() { reply <- c.handleManualRetry() }) {
		return ErrCoordinatorClosed
	}
	return <-reply
}

// ApplySuggestedProfile applies a user-accepted advisor suggestion. The
// new profile takes effect on the next negotiation attempt.
func (c *Coordinator) ApplySuggestedProfile(p CapabilityProfile) {
	c.post(func() { c.handleApplySuggestion(p) })
}

// DismissSuggestion discards the pending advisor suggestion.
func (c *Coordinator) DismissSuggestion() {
	c.post(func() { c.handleDismissSuggestion() })
}

// ApplyRemoteDescriptor forwards the remote peer's descriptor, received
// by the application's signaling layer, to the transport.
func (c *Coordinator) ApplyRemoteDescriptor(d Descriptor) {
	c.post(func() { c.dispatchApplyRemote(d) })
}

// ReportFailure classifies and processes a failure raised by a platform
// layer (camera, capture, audio device) outside the transport path.
func (c *Coordinator) ReportFailure(err error) {
	occurred := c.time.Now()
	c.post(func() { c.handleFailure(Classify(err, occurred), "reported") })
}

// ReportError processes an already-classified error record.
func (c *Coordinator) ReportError(rec ErrorRecord) {
	c.post(func() { c.handleFailure(rec, "reported") })
}

// Close stops the session and shuts the run loop down.
func (c *Coordinator) Close() {
	c.Stop()
	c.closeOnce.Do(func() { close(c.done) })
}

// post hands fn to the run loop. Returns false once the coordinator is
// closed. The closed check comes first so a buffered send cannot win a
// race against shutdown and strand a caller waiting on a reply.
func (c *Coordinator) post(fn func()) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.events <- fn:
		return true
	case <-c.done:
		return false
	}
}

// run is the single serialized execution context. No two transition rules
// ever run concurrently against the same session.
func (c *Coordinator) run() {
	phaseCh := c.transport.ObserveConnectionPhase()
	intCh := c.interrupt.ObserveInterruptions()
	ticker := time.NewTicker(c.cfg.AdvisorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case fn := <-c.events:
			fn()
		case p, ok := <-phaseCh:
			if !ok {
				phaseCh = nil
				continue
			}
			c.handlePhase(p)
		case sig, ok := <-intCh:
			if !ok {
				intCh = nil
				continue
			}
			c.handleInterruption(sig)
		case <-ticker.C:
			c.handleAdvisorTick()
		}
	}
}

// Loop-context handlers below. Everything here runs on the run loop.

func (c *Coordinator) handleStart(profile CapabilityProfile) startReply {
	st := c.State()
	if c.sessionActive && (st == StateConnecting || st == StateConnected || st == StateReconnecting) {
		return startReply{err: ErrSessionActive}
	}

	c.stopRequested.Store(false)
	c.epoch++
	c.sessionActive = true
	// Re-entry from Failed replaces the session context; cancel the old one
	// so in-flight transport calls from the failed attempt unwind.
	if c.sessionCancel != nil {
		c.sessionCancel()
	}
	c.sessionCtx, c.sessionCancel = context.WithCancel(context.Background())

	handle := newSessionHandle(c.time)
	c.mu.Lock()
	c.profile = profile
	c.session = &handle
	c.lastError = nil
	c.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "handleStart",
		"session":  handle.ID.String(),
		"profile":  profile.String(),
	}).Info("Starting session")

	c.setState(StateConnecting)
	c.beginNegotiation()
	return startReply{handle: handle}
}

func (c *Coordinator) handleStop() {
	if !c.sessionActive && c.State() == StateDisconnected {
		// Idempotent; still drop any leftover budget entries.
		c.recovery.Reset()
		c.stopRequested.Store(false)
		return
	}

	logrus.WithFields(logrus.Fields{
		"function": "handleStop",
		"state":    c.State().String(),
	}).Info("Stopping session")

	c.endSession()
	c.setState(StateDisconnected)
	c.stopRequested.Store(false)
}

// endSession tears down session-scoped resources. The capability profile
// is deliberately preserved.
func (c *Coordinator) endSession() {
	c.sessionActive = false
	c.epoch++
	if c.sessionCancel != nil {
		c.sessionCancel()
		c.sessionCancel = nil
	}
	if err := c.transport.Close(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "endSession",
			"error":    err.Error(),
		}).Warn("Transport close failed")
	}
	c.recovery.Reset()

	c.mu.Lock()
	c.session = nil
	c.suggestion = nil
	c.lastError = nil
	wasPaused := c.paused
	c.paused = false
	cb := c.pauseCb
	c.mu.Unlock()
	if wasPaused && cb != nil {
		cb(false)
	}
}

// beginNegotiation dispatches offer creation for the current epoch. Any
// error or panic raised inside the negotiation call is caught, classified,
// and treated identically to a transport failure.
func (c *Coordinator) beginNegotiation() {
	epoch := c.epoch
	ctx := c.sessionCtx
	profile := c.Profile()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				occurred := c.time.Now()
				c.post(func() {
					c.handleNegotiationResult(epoch, Descriptor{}, fmt.Errorf("negotiation panic: %v", r), occurred)
				})
			}
		}()
		offer, err := c.transport.CreateNegotiationOffer(ctx, profile)
		occurred := c.time.Now()
		c.post(func() { c.handleNegotiationResult(epoch, offer, err, occurred) })
	}()
}

func (c *Coordinator) handleNegotiationResult(epoch uint64, offer Descriptor, err error, occurred time.Time) {
	if epoch != c.epoch || !c.sessionActive {
		logrus.WithFields(logrus.Fields{
			"function": "handleNegotiationResult",
			"epoch":    epoch,
		}).Debug("Dropping stale negotiation result")
		return
	}
	if err != nil {
		c.handleFailure(Classify(err, occurred), "negotiation")
		return
	}

	c.audit.Record(ActionTransition, "negotiation offer created")
	c.mu.RLock()
	cb := c.offerCb
	c.mu.RUnlock()
	if cb != nil {
		cb(offer)
	}
}

// dispatchApplyRemote installs the remote descriptor off-loop; failures
// re-enter as classified events.
func (c *Coordinator) dispatchApplyRemote(d Descriptor) {
	if !c.sessionActive || c.stopRequested.Load() {
		return
	}
	epoch := c.epoch
	ctx := c.sessionCtx

	go func() {
		err := c.transport.ApplyRemoteDescriptor(ctx, d)
		if err == nil {
			return
		}
		occurred := c.time.Now()
		c.post(func() {
			if epoch != c.epoch || !c.sessionActive {
				return
			}
			c.handleFailure(Classify(err, occurred), "apply-remote")
		})
	}()
}

// handlePhase folds one transport phase event into ConnectionState per
// the transition table. Once stop has been requested no further phase
// transitions are applied.
func (c *Coordinator) handlePhase(p TransportPhase) {
	if c.stopRequested.Load() || !c.sessionActive {
		logrus.WithFields(logrus.Fields{
			"function": "handlePhase",
			"phase":    p.String(),
		}).Trace("Ignoring phase event outside active session")
		return
	}

	st := c.State()
	switch st {
	case StateConnecting, StateReconnecting:
		switch p {
		case PhaseNew, PhaseChecking:
			// Still negotiating.
		case PhaseConnected, PhaseCompleted:
			c.markConnected()
		case PhaseFailed:
			c.handleFailure(NewErrorRecord(KindNegotiation, c.time.Now(), ErrNegotiationFailed), "phase")
		case PhaseClosed:
			c.endSession()
			c.setState(StateDisconnected)
		}

	case StateConnected:
		switch p {
		case PhaseFailed:
			c.handleFailure(NewErrorRecord(KindNegotiation, c.time.Now(), ErrNegotiationFailed), "phase")
		case PhaseDisconnected:
			c.handleConnectionDrop()
		case PhaseClosed:
			c.endSession()
			c.setState(StateDisconnected)
		}

	default:
		// Failed and Disconnected leave the table only via Start or a
		// recovery-issued retry.
	}
}

// markConnected applies the Connecting->Connected transition and clears
// the retry counters for transport errors.
func (c *Coordinator) markConnected() {
	c.setState(StateConnected)
	c.recovery.RecordSuccess(KindNegotiation)
	c.recovery.RecordSuccess(KindNetwork)

	c.mu.Lock()
	c.lastError = nil
	c.mu.Unlock()
}

// handleConnectionDrop processes an unexpected drop of an established
// session: a warning-level record is surfaced and the session does not
// auto-retry unless the recovery engine opts in, in which case the state
// becomes Reconnecting.
func (c *Coordinator) handleConnectionDrop() {
	rec := NewErrorRecord(KindNetwork, c.time.Now(), ErrNetworkUnavailable)
	rec.Severity = SeverityWarning

	c.setState(StateDisconnected)
	initiated := c.recovery.AttemptRecovery(rec, "connection-dropped")
	if initiated {
		c.setState(StateReconnecting)
	} else {
		if rec.Retryable {
			rec.Terminal = true
		}
		c.endSession()
	}
	c.surfaceError(rec)
}

// handleFailure routes a classified error through state transition,
// recovery, and surfacing. Exactly one record is surfaced per failure.
func (c *Coordinator) handleFailure(rec ErrorRecord, context string) {
	if c.stopRequested.Load() {
		return
	}

	if c.sessionActive && rec.Severity == SeverityError {
		c.setState(StateFailed)
	}

	initiated := c.recovery.AttemptRecovery(rec, context)
	if !initiated && rec.Retryable {
		rec.Terminal = true
	}
	c.surfaceError(rec)
}

// handleInterruption reacts to one system interruption signal.
func (c *Coordinator) handleInterruption(sig InterruptionSignal) {
	if c.stopRequested.Load() || !c.sessionActive {
		return
	}

	log := logrus.WithFields(logrus.Fields{
		"function":     "handleInterruption",
		"type":         sig.Type.String(),
		"should_pause": sig.ShouldPause,
	})

	switch sig.Type {
	case InterruptionPhoneCall, InterruptionSystemCall:
		if sig.ShouldPause {
			if c.State() != StateConnected || c.Paused() {
				return
			}
			log.Info("Pausing session for call interruption")
			c.setPaused(true)
			if c.media != nil {
				if err := c.media.Pause(); err != nil {
					log.WithField("error", err.Error()).Warn("Media pause failed")
				}
			}
			c.audit.Record(ActionInterruption, "paused: "+sig.Type.String())
			rec := NewErrorRecord(KindCallInterruption, c.time.Now(), nil)
			rec.Severity = SeverityWarning
			c.surfaceError(rec)
			return
		}
		if !c.Paused() {
			return
		}
		rec := NewErrorRecord(KindCallInterruption, c.time.Now(), nil)
		rec.Severity = SeverityWarning
		rec.InterruptionEnded = true
		c.audit.Record(ActionInterruption, "ended: "+sig.Type.String())
		c.recovery.AttemptRecovery(rec, "interruption-ended")

	case InterruptionNetworkLoss:
		if c.State() == StateConnected {
			log.Warn("Network loss while connected")
			c.handleConnectionDrop()
		}

	case InterruptionLowPower:
		log.Info("Low power signal, evaluating resources")
		c.audit.Record(ActionInterruption, "low-power")
		c.evaluateResources()
	}
}

// handleAdvisorTick runs the periodic resource evaluation while connected.
func (c *Coordinator) handleAdvisorTick() {
	if c.State() != StateConnected {
		return
	}
	c.evaluateResources()
}

func (c *Coordinator) evaluateResources() {
	if c.resources == nil {
		return
	}
	percent, charging := c.resources.BatteryLevel()
	snap := ResourceSnapshot{
		BatteryPercent:  percent,
		Charging:        charging,
		Network:         c.resources.NetworkQuality(),
		AvailableMemory: c.resources.AvailableMemory(),
	}

	current := c.Profile()
	suggested, ok := c.advisor.Evaluate(current, snap)
	if !ok || suggested == current {
		return
	}

	c.mu.Lock()
	already := c.suggestion != nil && *c.suggestion == suggested
	if !already {
		s := suggested
		c.suggestion = &s
	}
	cb := c.suggestionCb
	c.mu.Unlock()
	if already {
		return
	}

	observeSuggestion("raised")
	c.audit.Record(ActionSuggestion, "raised: "+suggested.String())
	logrus.WithFields(logrus.Fields{
		"function":  "evaluateResources",
		"suggested": suggested.String(),
	}).Info("Advisor raised downgrade suggestion")
	if cb != nil {
		cb(suggested)
	}
}

func (c *Coordinator) handleApplySuggestion(p CapabilityProfile) {
	c.mu.Lock()
	c.suggestion = nil
	changed := c.profile != p
	c.profile = p
	c.mu.Unlock()

	if !changed {
		return
	}
	observeSuggestion("applied")
	observeDowngrade("suggestion")
	c.audit.Record(ActionDowngrade, "suggestion applied: "+p.String())
	logrus.WithFields(logrus.Fields{
		"function": "handleApplySuggestion",
		"profile":  p.String(),
	}).Info("Suggested profile applied; effective next negotiation attempt")
}

func (c *Coordinator) handleDismissSuggestion() {
	c.mu.Lock()
	had := c.suggestion != nil
	c.suggestion = nil
	c.mu.Unlock()
	if had {
		observeSuggestion("dismissed")
		c.audit.Record(ActionSuggestion, "dismissed")
	}
}

func (c *Coordinator) handleManualRetry() error {
	rec, ok := c.LastError()
	if !ok {
		return fmt.Errorf("no current error to retry")
	}

	logrus.WithFields(logrus.Fields{
		"function": "handleManualRetry",
		"kind":     rec.Kind.String(),
	}).Info("Manual retry requested")
	c.audit.Record(ActionRecovery, "manual retry: "+rec.Kind.String())

	if c.sessionActive {
		c.setState(StateConnecting)
		c.beginNegotiation()
		return nil
	}
	r := c.handleStart(c.Profile())
	return r.err
}

// setState applies a state transition with metrics, audit, and callback.
func (c *Coordinator) setState(next ConnectionState) {
	c.mu.Lock()
	prev := c.state
	if prev == next {
		c.mu.Unlock()
		return
	}
	c.state = next
	cb := c.stateCb
	c.mu.Unlock()

	observeTransition(prev, next)
	c.audit.Record(ActionTransition, prev.String()+" -> "+next.String())
	logrus.WithFields(logrus.Fields{
		"function": "setState",
		"from":     prev.String(),
		"to":       next.String(),
	}).Info("Connection state changed")
	if cb != nil {
		cb(next)
	}
}

func (c *Coordinator) setPaused(paused bool) {
	c.mu.Lock()
	if c.paused == paused {
		c.mu.Unlock()
		return
	}
	c.paused = paused
	cb := c.pauseCb
	c.mu.Unlock()
	if cb != nil {
		cb(paused)
	}
}

// surfaceError publishes one error record to observers.
func (c *Coordinator) surfaceError(rec ErrorRecord) {
	c.mu.Lock()
	r := rec
	c.lastError = &r
	cb := c.errorCb
	c.mu.Unlock()

	observeError(rec)
	detail := rec.Kind.String()
	if rec.Terminal {
		detail += " (terminal)"
	}
	c.audit.Record(ActionError, detail)
	if cb != nil {
		cb(rec)
	}
}

// recoveryHost adapts the coordinator to the RecoveryActions surface.
// All methods are invoked from the run loop.
type recoveryHost Coordinator

func (h *recoveryHost) coord() *Coordinator { return (*Coordinator)(h) }

// RetryNegotiation schedules a retry for the current epoch. A stop or
// restart before the timer fires invalidates the epoch and the retry is
// dropped.
func (h *recoveryHost) RetryNegotiation(kind ErrorKind, delay time.Duration) {
	c := h.coord()
	epoch := c.epoch
	c.audit.Record(ActionRecovery, fmt.Sprintf("retry scheduled for %s in %v", kind, delay))

	c.time.AfterFunc(delay, func() {
		c.post(func() {
			if epoch != c.epoch || !c.sessionActive || c.stopRequested.Load() {
				return
			}
			if c.State() == StateFailed {
				c.setState(StateConnecting)
			}
			c.beginNegotiation()
		})
	})
}

// DowngradeCapability lowers the video tier by one and re-invokes
// negotiation immediately with the reduced profile.
func (h *recoveryHost) DowngradeCapability(kind ErrorKind) bool {
	c := h.coord()

	c.mu.Lock()
	if c.profile.VideoMode == VideoAudioOnly {
		c.mu.Unlock()
		return false
	}
	c.profile = c.profile.DowngradeVideo()
	downgraded := c.profile
	c.mu.Unlock()

	observeDowngrade("recovery")
	c.audit.Record(ActionDowngrade, fmt.Sprintf("video tier lowered to %s after %s", downgraded.VideoMode, kind))
	logrus.WithFields(logrus.Fields{
		"function": "DowngradeCapability",
		"kind":     kind.String(),
		"profile":  downgraded.String(),
	}).Info("Capability downgraded, re-invoking negotiation")

	if c.sessionActive {
		if c.State() != StateConnecting {
			c.setState(StateConnecting)
		}
		c.beginNegotiation()
	}
	return true
}

// SwitchAudioDevice enumerates devices off-loop, applies the best
// alternative, and re-invokes negotiation. A switch failure produces a
// new audio-device record and consumes another budget slot.
func (h *recoveryHost) SwitchAudioDevice(reason string) {
	c := h.coord()
	if c.devices == nil {
		c.post(func() {
			c.handleFailure(NewErrorRecord(KindAudioDevice, c.time.Now(), ErrNoAlternativeDevice), "device-switch")
		})
		return
	}

	epoch := c.epoch
	ctx := c.sessionCtx
	c.audit.Record(ActionRecovery, "device switch: "+reason)

	go func() {
		switched, err := c.performDeviceSwitch(ctx)
		occurred := c.time.Now()
		c.post(func() {
			if epoch != c.epoch || !c.sessionActive || c.stopRequested.Load() {
				return
			}
			if err != nil {
				c.handleFailure(Classify(err, occurred), "device-switch")
				return
			}
			c.recovery.RecordSuccess(KindAudioDevice)
			c.audit.Record(ActionRecovery, "switched to device "+switched.Name)
			if c.State() == StateFailed {
				c.setState(StateConnecting)
			}
			c.beginNegotiation()
		})
	}()
}

// performDeviceSwitch selects and applies the highest-priority alternative.
func (c *Coordinator) performDeviceSwitch(ctx context.Context) (AudioDevice, error) {
	available, err := c.devices.ListDevices(ctx)
	if err != nil {
		return AudioDevice{}, fmt.Errorf("list devices: %w", err)
	}
	current, _ := c.devices.ActiveDevice()
	alt, ok := c.recovery.SelectAlternativeDevice(available, current)
	if !ok {
		return AudioDevice{}, ErrNoAlternativeDevice
	}
	if err := c.devices.SelectDevice(ctx, alt); err != nil {
		return AudioDevice{}, fmt.Errorf("select device %s: %w", alt.Name, err)
	}
	return alt, nil
}

// ResumeSession resumes paused media exactly once per pause.
func (h *recoveryHost) ResumeSession() {
	c := h.coord()
	if !c.Paused() {
		return
	}
	c.setPaused(false)
	if c.media != nil {
		if err := c.media.Resume(); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "ResumeSession",
				"error":    err.Error(),
			}).Warn("Media resume failed")
		}
	}
	c.audit.Record(ActionRecovery, "session resumed")
}
