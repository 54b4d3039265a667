package lifecycle

import (
	"testing"
	"time"
)

// TestConnectionStateString verifies the five-member state enum strings.
func TestConnectionStateString(t *testing.T) {
	cases := map[ConnectionState]string{
		StateDisconnected: "Disconnected",
		StateConnecting:   "Connecting",
		StateConnected:    "Connected",
		StateReconnecting: "Reconnecting",
		StateFailed:       "Failed",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("ConnectionState(%d).String() = %q, want %q", int(state), got, want)
		}
	}
	if got := ConnectionState(99).String(); got != "Unknown(99)" {
		t.Errorf("Unexpected string for invalid state: %q", got)
	}
}

// TestTransportPhaseString verifies the transport phase enum strings.
func TestTransportPhaseString(t *testing.T) {
	cases := map[TransportPhase]string{
		PhaseNew:          "New",
		PhaseChecking:     "Checking",
		PhaseConnected:    "Connected",
		PhaseCompleted:    "Completed",
		PhaseFailed:       "Failed",
		PhaseDisconnected: "Disconnected",
		PhaseClosed:       "Closed",
	}
	for phase, want := range cases {
		if got := phase.String(); got != want {
			t.Errorf("TransportPhase(%d).String() = %q, want %q", int(phase), got, want)
		}
	}
}

// TestVideoModeDowngrade verifies the one-tier downgrade ladder.
func TestVideoModeDowngrade(t *testing.T) {
	if got := VideoScreenShare.Downgrade(); got != VideoWebcam {
		t.Errorf("ScreenShare should downgrade to Webcam, got %s", got)
	}
	if got := VideoWebcam.Downgrade(); got != VideoAudioOnly {
		t.Errorf("Webcam should downgrade to AudioOnly, got %s", got)
	}
	if got := VideoAudioOnly.Downgrade(); got != VideoAudioOnly {
		t.Errorf("AudioOnly should downgrade to itself, got %s", got)
	}
}

// TestDowngradeMonotonic verifies a downgrade chain never raises the tier.
func TestDowngradeMonotonic(t *testing.T) {
	p := CapabilityProfile{VideoMode: VideoScreenShare, AudioQuality: AudioHigh, PreviewEnabled: true}
	for i := 0; i < 5; i++ {
		next := p.DowngradeVideo()
		if next.VideoMode > p.VideoMode {
			t.Fatalf("Downgrade raised tier from %s to %s", p.VideoMode, next.VideoMode)
		}
		p = next
	}
	if p.VideoMode != VideoAudioOnly {
		t.Errorf("Repeated downgrades should reach AudioOnly, got %s", p.VideoMode)
	}
}

// TestDefaultProfile verifies the user-facing defaults.
func TestDefaultProfile(t *testing.T) {
	p := DefaultProfile()
	if p.VideoMode != VideoWebcam {
		t.Errorf("Default video mode should be Webcam, got %s", p.VideoMode)
	}
	if p.AudioQuality != AudioHigh {
		t.Errorf("Default audio quality should be High, got %s", p.AudioQuality)
	}
	if !p.PreviewEnabled {
		t.Error("Default profile should have preview enabled")
	}
}

// TestDeviceClassPreferenceOrder verifies wired beats bluetooth beats
// speaker beats earpiece.
func TestDeviceClassPreferenceOrder(t *testing.T) {
	order := []DeviceClass{DeviceWired, DeviceBluetooth, DeviceSpeaker, DeviceEarpiece}
	for i := 1; i < len(order); i++ {
		if order[i-1] >= order[i] {
			t.Errorf("Preference order broken between %s and %s", order[i-1], order[i])
		}
	}
}

// TestSessionHandleTimestamp verifies handles use the injected clock.
func TestSessionHandleTimestamp(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mt := NewMockTimeProvider(start)
	h := newSessionHandle(mt)
	if !h.StartedAt.Equal(start) {
		t.Errorf("Expected handle timestamp %v, got %v", start, h.StartedAt)
	}
	h2 := newSessionHandle(mt)
	if h.ID == h2.ID {
		t.Error("Session handles should have unique IDs")
	}
}
