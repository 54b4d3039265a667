// Package callbridge exposes the connection lifecycle coordinator to the
// UI layer of a real-time voice/video chat client.
//
// A Client owns one lifecycle.Coordinator and presents the surface a UI
// binds to: the observable connection state, the latest unresolved error,
// the current capability profile, and the session operations Start, Stop,
// RetryCurrentError, ApplySuggestedProfile, and DismissSuggestion.
package callbridge

import (
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/callbridge/lifecycle"
)

// Client is the UI-facing handle for one call session at a time.
//
// Client follows the callback-based eventing model: the UI registers
// handlers for state, error, and suggestion changes, then drives the
// session through the operation methods. All callbacks run on the
// coordinator's serialized context and must not block.
type Client struct {
	coord *lifecycle.Coordinator
}

// Options configures a Client beyond its collaborators.
type Options struct {
	// Config overrides lifecycle defaults. Nil means DefaultConfig.
	Config *lifecycle.Config

	// TimeProvider injects a clock for deterministic tests. Nil means the
	// system clock.
	TimeProvider lifecycle.TimeProvider
}

// New creates a Client wired to the given collaborators.
//
// Parameters:
//   - deps: external collaborators; Transport and Interruptions are required
//   - opts: optional configuration, may be nil
//
// Returns:
//   - *Client: the new client
//   - error: any error during coordinator setup
func New(deps lifecycle.Dependencies, opts *Options) (*Client, error) {
	if opts == nil {
		opts = &Options{}
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = lifecycle.DefaultConfig()
	}
	if cfg.LogLevel != "" {
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		logrus.SetLevel(level)
	}

	coord, err := lifecycle.NewCoordinator(deps, cfg, opts.TimeProvider)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function": "New",
	}).Info("Client created")

	return &Client{coord: coord}, nil
}

// OnStateChange registers a handler for connection state changes.
func (c *Client) OnStateChange(cb func(lifecycle.ConnectionState)) {
	c.coord.SetStateCallback(cb)
}

// OnError registers a handler for surfaced error records.
func (c *Client) OnError(cb func(lifecycle.ErrorRecord)) {
	c.coord.SetErrorCallback(cb)
}

// OnSuggestion registers a handler for advisor downgrade suggestions.
func (c *Client) OnSuggestion(cb func(lifecycle.CapabilityProfile)) {
	c.coord.SetSuggestionCallback(cb)
}

// OnLocalOffer registers a handler receiving locally created negotiation
// offers for the application's signaling layer to forward.
func (c *Client) OnLocalOffer(cb func(lifecycle.Descriptor)) {
	c.coord.SetOfferCallback(cb)
}

// OnPauseChange registers a handler for the paused flag of a connected
// session.
func (c *Client) OnPauseChange(cb func(bool)) {
	c.coord.SetPauseCallback(cb)
}

// Start begins a session with the given capability profile.
func (c *Client) Start(profile lifecycle.CapabilityProfile) (lifecycle.SessionHandle, error) {
	return c.coord.Start(profile)
}

// Stop ends the session. Idempotent; the capability profile survives.
func (c *Client) Stop() {
	c.coord.Stop()
}

// ConnectionState returns the current authoritative state.
func (c *Client) ConnectionState() lifecycle.ConnectionState {
	return c.coord.State()
}

// Paused reports whether the connected session is paused.
func (c *Client) Paused() bool {
	return c.coord.Paused()
}

// CurrentProfile returns the capability profile used for the next
// negotiation attempt.
func (c *Client) CurrentProfile() lifecycle.CapabilityProfile {
	return c.coord.Profile()
}

// CurrentError returns the latest unresolved error record.
func (c *Client) CurrentError() (lifecycle.ErrorRecord, bool) {
	return c.coord.LastError()
}

// PendingSuggestion returns the advisor suggestion awaiting a decision.
func (c *Client) PendingSuggestion() (lifecycle.CapabilityProfile, bool) {
	return c.coord.PendingSuggestion()
}

// RetryCurrentError manually re-invokes negotiation for the latest error.
func (c *Client) RetryCurrentError() error {
	return c.coord.RetryCurrentError()
}

// ApplySuggestedProfile applies a user-accepted advisor suggestion.
func (c *Client) ApplySuggestedProfile(p lifecycle.CapabilityProfile) {
	c.coord.ApplySuggestedProfile(p)
}

// DismissSuggestion discards the pending advisor suggestion.
func (c *Client) DismissSuggestion() {
	c.coord.DismissSuggestion()
}

// ApplyRemoteDescriptor forwards the remote peer's answer descriptor from
// the signaling layer to the transport.
func (c *Client) ApplyRemoteDescriptor(d lifecycle.Descriptor) {
	c.coord.ApplyRemoteDescriptor(d)
}

// ReportFailure feeds a platform-layer failure (camera, capture, audio
// device) into classification and recovery.
func (c *Client) ReportFailure(err error) {
	if err == nil {
		return
	}
	c.coord.ReportFailure(err)
}

// ReportError feeds an already-classified error record into recovery.
func (c *Client) ReportError(rec lifecycle.ErrorRecord) {
	c.coord.ReportError(rec)
}

// GuidedSteps returns user-facing recovery guidance for an error record.
func (c *Client) GuidedSteps(rec lifecycle.ErrorRecord) []lifecycle.RecoveryStep {
	return c.coord.GuidedSteps(rec)
}

// AuditLog exposes the bounded action log for diagnostics display.
func (c *Client) AuditLog() *lifecycle.ActionLog {
	return c.coord.AuditLog()
}

// Close stops the session and releases the coordinator.
func (c *Client) Close() {
	c.coord.Close()
}

// IsTerminal reports whether an error record carries an exhausted retry
// budget, meaning the automatic-retry option should be withheld.
func IsTerminal(rec lifecycle.ErrorRecord) bool {
	return rec.Terminal
}
