package callbridge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/callbridge/lifecycle"
)

type stubTransport struct {
	mu     sync.Mutex
	phases chan lifecycle.TransportPhase
	closes int
}

func newStubTransport() *stubTransport {
	return &stubTransport{phases: make(chan lifecycle.TransportPhase, 8)}
}

func (s *stubTransport) ObserveConnectionPhase() <-chan lifecycle.TransportPhase {
	return s.phases
}

func (s *stubTransport) CreateNegotiationOffer(_ context.Context, profile lifecycle.CapabilityProfile) (lifecycle.Descriptor, error) {
	return lifecycle.Descriptor{Type: "offer", Body: []byte(profile.String())}, nil
}

func (s *stubTransport) ApplyRemoteDescriptor(context.Context, lifecycle.Descriptor) error {
	return nil
}

func (s *stubTransport) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

type stubInterrupts struct {
	sigs chan lifecycle.InterruptionSignal
}

func newStubInterrupts() *stubInterrupts {
	return &stubInterrupts{sigs: make(chan lifecycle.InterruptionSignal, 8)}
}

func (s *stubInterrupts) ObserveInterruptions() <-chan lifecycle.InterruptionSignal {
	return s.sigs
}

func newTestClient(t *testing.T) (*Client, *stubTransport) {
	t.Helper()
	tr := newStubTransport()
	client, err := New(lifecycle.Dependencies{Transport: tr, Interruptions: newStubInterrupts()}, nil)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client, tr
}

func awaitState(t *testing.T, client *Client, want lifecycle.ConnectionState) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if client.ConnectionState() == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("State never reached %s, currently %s", want, client.ConnectionState())
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(lifecycle.Dependencies{}, nil)
	assert.Error(t, err)

	_, err = New(lifecycle.Dependencies{Transport: newStubTransport(), Interruptions: newStubInterrupts()},
		&Options{Config: &lifecycle.Config{}})
	assert.Error(t, err, "zero config must fail validation")
}

func TestNewRejectsBadLogLevel(t *testing.T) {
	cfg := lifecycle.DefaultConfig()
	cfg.LogLevel = "shouting"
	_, err := New(lifecycle.Dependencies{Transport: newStubTransport(), Interruptions: newStubInterrupts()},
		&Options{Config: cfg})
	assert.Error(t, err)
}

func TestClientSessionLifecycle(t *testing.T) {
	client, tr := newTestClient(t)

	var mu sync.Mutex
	var states []lifecycle.ConnectionState
	var offers []lifecycle.Descriptor
	client.OnStateChange(func(s lifecycle.ConnectionState) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, s)
	})
	client.OnLocalOffer(func(d lifecycle.Descriptor) {
		mu.Lock()
		defer mu.Unlock()
		offers = append(offers, d)
	})

	handle, err := client.Start(lifecycle.DefaultProfile())
	require.NoError(t, err)
	assert.NotEqual(t, time.Time{}, handle.StartedAt)

	tr.phases <- lifecycle.PhaseChecking
	tr.phases <- lifecycle.PhaseConnected
	awaitState(t, client, lifecycle.StateConnected)

	client.ApplyRemoteDescriptor(lifecycle.Descriptor{Type: "answer"})
	assert.Equal(t, lifecycle.DefaultProfile(), client.CurrentProfile())
	assert.False(t, client.Paused())

	client.Stop()
	assert.Equal(t, lifecycle.StateDisconnected, client.ConnectionState())

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, states)
	assert.Equal(t, lifecycle.StateConnecting, states[0])
	assert.Equal(t, lifecycle.StateDisconnected, states[len(states)-1])
	assert.Len(t, offers, 1)
}

func TestClientSurfacesReportedFailures(t *testing.T) {
	client, tr := newTestClient(t)

	var mu sync.Mutex
	var recs []lifecycle.ErrorRecord
	client.OnError(func(rec lifecycle.ErrorRecord) {
		mu.Lock()
		defer mu.Unlock()
		recs = append(recs, rec)
	})

	_, err := client.Start(lifecycle.DefaultProfile())
	require.NoError(t, err)
	tr.phases <- lifecycle.PhaseConnected
	awaitState(t, client, lifecycle.StateConnected)

	client.ReportFailure(lifecycle.ErrPermissionDenied)
	awaitState(t, client, lifecycle.StateFailed)

	rec, ok := client.CurrentError()
	require.True(t, ok)
	assert.Equal(t, lifecycle.KindPermission, rec.Kind)
	assert.False(t, IsTerminal(rec))
	assert.NotEmpty(t, client.GuidedSteps(rec))
	assert.NotEmpty(t, client.AuditLog().Snapshot())

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, recs)
	assert.True(t, errors.Is(recs[len(recs)-1], lifecycle.ErrPermissionDenied))
}

func TestClientReportFailureIgnoresNil(t *testing.T) {
	client, _ := newTestClient(t)
	client.ReportFailure(nil)
	_, ok := client.CurrentError()
	assert.False(t, ok)
}

func TestClientRetryWithoutErrorFails(t *testing.T) {
	client, _ := newTestClient(t)
	assert.Error(t, client.RetryCurrentError())
}

func TestClientSuggestionRoundTrip(t *testing.T) {
	client, _ := newTestClient(t)

	// No collaborator-driven suggestion here; apply directly to verify the
	// profile plumbing.
	lowered := lifecycle.CapabilityProfile{
		VideoMode:    lifecycle.VideoAudioOnly,
		AudioQuality: lifecycle.AudioLow,
	}
	client.ApplySuggestedProfile(lowered)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && client.CurrentProfile() != lowered {
		time.Sleep(2 * time.Millisecond)
	}
	assert.Equal(t, lowered, client.CurrentProfile())

	client.DismissSuggestion()
	_, ok := client.PendingSuggestion()
	assert.False(t, ok)
}
