package lifecycle

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ConnectionState is the single authoritative session status.
//
// Exactly one ConnectionState is live per active session. It is owned
// exclusively by the Coordinator; every other component only observes it.
type ConnectionState int

const (
	// StateDisconnected indicates no session is active.
	StateDisconnected ConnectionState = iota
	// StateConnecting indicates a negotiation attempt is in progress.
	StateConnecting
	// StateConnected indicates an established session.
	StateConnected
	// StateReconnecting indicates automatic recovery of a dropped session.
	StateReconnecting
	// StateFailed indicates the last attempt failed; re-entry via Start.
	StateFailed
)

// String returns the string representation of ConnectionState.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateReconnecting:
		return "Reconnecting"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// TransportPhase is the fine-grained negotiation/connectivity status
// produced by the transport collaborator. The Coordinator folds it into
// ConnectionState; nothing else reads it.
type TransportPhase int

const (
	// PhaseNew indicates the transport has been created but not started.
	PhaseNew TransportPhase = iota
	// PhaseChecking indicates candidate connectivity checks are running.
	PhaseChecking
	// PhaseConnected indicates at least one working candidate pair.
	PhaseConnected
	// PhaseCompleted indicates candidate selection has finished.
	PhaseCompleted
	// PhaseFailed indicates negotiation failed.
	PhaseFailed
	// PhaseDisconnected indicates an established transport was lost.
	PhaseDisconnected
	// PhaseClosed indicates the transport has been shut down.
	PhaseClosed
)

// String returns the string representation of TransportPhase.
func (p TransportPhase) String() string {
	switch p {
	case PhaseNew:
		return "New"
	case PhaseChecking:
		return "Checking"
	case PhaseConnected:
		return "Connected"
	case PhaseCompleted:
		return "Completed"
	case PhaseFailed:
		return "Failed"
	case PhaseDisconnected:
		return "Disconnected"
	case PhaseClosed:
		return "Closed"
	default:
		return fmt.Sprintf("Unknown(%d)", int(p))
	}
}

// VideoMode is the requested video capability tier, ordered from lowest
// (VideoAudioOnly) to highest (VideoScreenShare).
type VideoMode int

const (
	// VideoAudioOnly disables video entirely.
	VideoAudioOnly VideoMode = iota
	// VideoWebcam enables camera capture.
	VideoWebcam
	// VideoScreenShare enables screen capture.
	VideoScreenShare
)

// String returns the string representation of VideoMode.
func (v VideoMode) String() string {
	switch v {
	case VideoAudioOnly:
		return "AudioOnly"
	case VideoWebcam:
		return "Webcam"
	case VideoScreenShare:
		return "ScreenShare"
	default:
		return fmt.Sprintf("Unknown(%d)", int(v))
	}
}

// Downgrade returns the next lower tier. VideoAudioOnly downgrades to itself.
func (v VideoMode) Downgrade() VideoMode {
	if v <= VideoAudioOnly {
		return VideoAudioOnly
	}
	return v - 1
}

// AudioQuality is the requested audio quality tier.
type AudioQuality int

const (
	// AudioLow is minimum-bandwidth speech quality.
	AudioLow AudioQuality = iota
	// AudioMedium is standard voice quality.
	AudioMedium
	// AudioHigh is full-band voice quality.
	AudioHigh
)

// String returns the string representation of AudioQuality.
func (q AudioQuality) String() string {
	switch q {
	case AudioLow:
		return "Low"
	case AudioMedium:
		return "Medium"
	case AudioHigh:
		return "High"
	default:
		return fmt.Sprintf("Unknown(%d)", int(q))
	}
}

// CapabilityProfile is the media capability requested for the next
// negotiation attempt. It is mutated only through the Coordinator's
// serialized context, by the RecoveryEngine (corrective downgrade) or by
// a user-accepted advisor suggestion.
type CapabilityProfile struct {
	VideoMode      VideoMode
	AudioQuality   AudioQuality
	PreviewEnabled bool
}

// DefaultProfile returns the profile used when the caller supplies none:
// webcam video, high audio quality, preview on.
func DefaultProfile() CapabilityProfile {
	return CapabilityProfile{
		VideoMode:      VideoWebcam,
		AudioQuality:   AudioHigh,
		PreviewEnabled: true,
	}
}

// DowngradeVideo returns a copy of the profile one video tier lower.
func (p CapabilityProfile) DowngradeVideo() CapabilityProfile {
	p.VideoMode = p.VideoMode.Downgrade()
	return p
}

// String returns a compact description for logging.
func (p CapabilityProfile) String() string {
	return fmt.Sprintf("%s/%s/preview=%t", p.VideoMode, p.AudioQuality, p.PreviewEnabled)
}

// InterruptionType classifies system interruption events.
type InterruptionType int

const (
	// InterruptionPhoneCall is a cellular call taking over the audio route.
	InterruptionPhoneCall InterruptionType = iota
	// InterruptionSystemCall is another VoIP app claiming the audio session.
	InterruptionSystemCall
	// InterruptionLowPower is the OS entering low-power mode.
	InterruptionLowPower
	// InterruptionNetworkLoss is a full connectivity drop reported by the OS.
	InterruptionNetworkLoss
)

// String returns the string representation of InterruptionType.
func (t InterruptionType) String() string {
	switch t {
	case InterruptionPhoneCall:
		return "PhoneCall"
	case InterruptionSystemCall:
		return "SystemCall"
	case InterruptionLowPower:
		return "LowPower"
	case InterruptionNetworkLoss:
		return "NetworkLoss"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

// InterruptionSignal is a discrete interruption event from the system
// collaborator. It is ephemeral: the Coordinator reacts and discards it.
type InterruptionSignal struct {
	Type        InterruptionType
	ShouldPause bool
	CanResume   bool
}

// NetworkQuality is the coarse connectivity assessment supplied by the
// network collaborator and consumed by the ResourceAdvisor.
type NetworkQuality int

const (
	// NetworkExcellent indicates optimal network conditions.
	NetworkExcellent NetworkQuality = iota
	// NetworkGood indicates good network conditions.
	NetworkGood
	// NetworkFair indicates fair network conditions.
	NetworkFair
	// NetworkPoor indicates poor network conditions.
	NetworkPoor
)

// String returns human-readable network quality description.
func (nq NetworkQuality) String() string {
	switch nq {
	case NetworkExcellent:
		return "excellent"
	case NetworkGood:
		return "good"
	case NetworkFair:
		return "fair"
	case NetworkPoor:
		return "poor"
	default:
		return "unknown"
	}
}

// DeviceClass orders audio output devices by switch preference:
// wired beats bluetooth beats speaker beats earpiece.
type DeviceClass int

const (
	// DeviceWired is a wired headset or headphones.
	DeviceWired DeviceClass = iota
	// DeviceBluetooth is a bluetooth audio device.
	DeviceBluetooth
	// DeviceSpeaker is the built-in loudspeaker.
	DeviceSpeaker
	// DeviceEarpiece is the built-in earpiece.
	DeviceEarpiece
)

// String returns the string representation of DeviceClass.
func (c DeviceClass) String() string {
	switch c {
	case DeviceWired:
		return "wired"
	case DeviceBluetooth:
		return "bluetooth"
	case DeviceSpeaker:
		return "speaker"
	case DeviceEarpiece:
		return "earpiece"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// AudioDevice describes one enumerable audio output device.
type AudioDevice struct {
	ID    string
	Name  string
	Class DeviceClass
}

// ResourceSnapshot is one periodic reading of device resource signals,
// consumed by the ResourceAdvisor.
type ResourceSnapshot struct {
	BatteryPercent  int
	Charging        bool
	Network         NetworkQuality
	AvailableMemory uint64 // bytes
}

// SessionHandle identifies one successful Start for audit correlation.
type SessionHandle struct {
	ID        uuid.UUID
	StartedAt time.Time
}

// newSessionHandle creates a handle stamped with the provided clock.
func newSessionHandle(tp TimeProvider) SessionHandle {
	return SessionHandle{
		ID:        uuid.New(),
		StartedAt: tp.Now(),
	}
}
