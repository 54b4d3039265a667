package lifecycle

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind is the closed classification of failure causes. Retryability
// and user guidance are static per-kind data, never behavior computed
// elsewhere, so the Coordinator and RecoveryEngine stay free of
// duplicated message strings.
type ErrorKind int

const (
	// KindNetwork is a general connectivity failure.
	KindNetwork ErrorKind = iota
	// KindPermission is a permanently denied platform permission.
	KindPermission
	// KindNegotiation is a transport negotiation failure.
	KindNegotiation
	// KindAudioDevice is a busy or disconnected audio device.
	KindAudioDevice
	// KindCamera is a camera capture failure.
	KindCamera
	// KindScreenCapture is a screen capture failure.
	KindScreenCapture
	// KindService is a background service failure.
	KindService
	// KindCallInterruption is a system call interrupting the session.
	KindCallInterruption
	// KindBattery is a battery-optimization restriction.
	KindBattery
	// KindNetworkQuality is sustained degraded connectivity.
	KindNetworkQuality
	// KindUpstreamAPI is a signaling backend error carrying a status code.
	KindUpstreamAPI
	// KindDeviceState is an unexpected device state (locked, dozing).
	KindDeviceState

	// kindCount caps the retry budget map; the key space is closed.
	kindCount
)

// String returns the string representation of ErrorKind.
func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindPermission:
		return "permission"
	case KindNegotiation:
		return "transport-negotiation"
	case KindAudioDevice:
		return "audio-device"
	case KindCamera:
		return "camera"
	case KindScreenCapture:
		return "screen-capture"
	case KindService:
		return "service"
	case KindCallInterruption:
		return "call-interruption"
	case KindBattery:
		return "battery"
	case KindNetworkQuality:
		return "network-quality"
	case KindUpstreamAPI:
		return "upstream-api"
	case KindDeviceState:
		return "device-state"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Severity distinguishes warnings (session degraded) from errors
// (session attempt failed).
type Severity int

const (
	// SeverityWarning marks a degraded but continuing session.
	SeverityWarning Severity = iota
	// SeverityError marks a failed operation.
	SeverityError
)

// String returns the string representation of Severity.
func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// kindInfo is the static per-kind data backing ErrorRecord construction.
type kindInfo struct {
	retryable   bool
	userMessage string
	suggestions []string
}

// kindTable holds the full taxonomy. Indexed by ErrorKind.
var kindTable = [kindCount]kindInfo{
	KindNetwork: {
		retryable:   true,
		userMessage: "Connection problem. Check your network and try again.",
		suggestions: []string{"Check Wi-Fi or mobile data", "Move closer to the router", "Retry the call"},
	},
	KindPermission: {
		retryable:   false,
		userMessage: "A required permission was denied.",
		suggestions: []string{"Open system settings", "Grant microphone and camera access", "Restart the app"},
	},
	KindNegotiation: {
		retryable:   true,
		userMessage: "Could not establish the call connection.",
		suggestions: []string{"Retry the call", "Check firewall or VPN settings"},
	},
	KindAudioDevice: {
		retryable:   true,
		userMessage: "Audio device is busy or disconnected.",
		suggestions: []string{"Reconnect your headset", "Switch to another audio output"},
	},
	KindCamera: {
		retryable:   true,
		userMessage: "Camera is unavailable.",
		suggestions: []string{"Close other apps using the camera", "Continue with audio only"},
	},
	KindScreenCapture: {
		retryable:   true,
		userMessage: "Screen sharing failed.",
		suggestions: []string{"Re-grant the screen capture permission", "Continue with camera or audio only"},
	},
	KindService: {
		retryable:   true,
		userMessage: "The call service stopped unexpectedly.",
		suggestions: []string{"Retry the call", "Restart the app"},
	},
	KindCallInterruption: {
		retryable:   true,
		userMessage: "The call was interrupted by another call.",
		suggestions: []string{"The call resumes when the interruption ends"},
	},
	KindBattery: {
		retryable:   false,
		userMessage: "Battery optimization is restricting the call.",
		suggestions: []string{"Disable battery optimization for this app", "Connect a charger"},
	},
	KindNetworkQuality: {
		retryable:   true,
		userMessage: "Network quality is too low for the current call settings.",
		suggestions: []string{"Switch to audio only", "Move to better coverage"},
	},
	KindUpstreamAPI: {
		retryable:   true,
		userMessage: "The call server returned an error.",
		suggestions: []string{"Retry in a moment", "Check service status"},
	},
	KindDeviceState: {
		retryable:   true,
		userMessage: "The device is in a state that blocks calls.",
		suggestions: []string{"Unlock the device", "Disable do-not-disturb"},
	},
}

// ErrorRecord is an immutable description of one failure. A new record is
// produced on every failure and never mutated afterwards.
type ErrorRecord struct {
	Kind        ErrorKind
	Severity    Severity
	Retryable   bool
	UserMessage string
	Suggestions []string
	OccurredAt  time.Time

	// Kind-specific context.
	StatusCode        int    // upstream-api HTTP status, 0 otherwise
	DeviceID          string // audio-device identifier, "" otherwise
	InterruptionEnded bool   // call-interruption: the interruption finished

	// Terminal marks a retry budget exhausted for this kind. A terminal
	// record is surfaced like any other except automatic retry is withheld.
	Terminal bool

	// Cause is the underlying error, if any. Not shown to users.
	Cause error
}

// NewErrorRecord builds a record for kind at the given time, copying the
// static taxonomy data.
func NewErrorRecord(kind ErrorKind, occurredAt time.Time, cause error) ErrorRecord {
	info := kindTable[kind]
	return ErrorRecord{
		Kind:        kind,
		Severity:    SeverityError,
		Retryable:   info.retryable,
		UserMessage: info.userMessage,
		Suggestions: info.suggestions,
		OccurredAt:  occurredAt,
		Cause:       cause,
	}
}

// NewUpstreamAPIError builds an upstream-api record carrying a status code.
// Codes outside the transient set (429, 500, 502, 503, 504) are not
// retryable regardless of the taxonomy default.
func NewUpstreamAPIError(status int, occurredAt time.Time, cause error) ErrorRecord {
	rec := NewErrorRecord(KindUpstreamAPI, occurredAt, cause)
	rec.StatusCode = status
	rec.Retryable = transientStatus(status)
	return rec
}

// transientStatus reports whether an upstream status code is worth retrying.
func transientStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}

// Error implements the error interface.
func (r ErrorRecord) Error() string {
	if r.Cause != nil {
		return fmt.Sprintf("%s: %v", r.Kind, r.Cause)
	}
	return r.Kind.String()
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (r ErrorRecord) Unwrap() error { return r.Cause }

// Sentinel errors raised by collaborators. Classification maps them onto
// the taxonomy using errors.Is.
var (
	// ErrNetworkUnavailable indicates no usable network path.
	ErrNetworkUnavailable = errors.New("network unavailable")

	// ErrPermissionDenied indicates a permanently denied permission.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNegotiationFailed indicates offer/answer exchange failed.
	ErrNegotiationFailed = errors.New("negotiation failed")

	// ErrAudioDeviceBusy indicates the audio device is held by another app.
	ErrAudioDeviceBusy = errors.New("audio device busy")

	// ErrNoAlternativeDevice indicates device switching found no candidate.
	ErrNoAlternativeDevice = errors.New("no alternative audio device")

	// ErrCameraUnavailable indicates camera capture failed.
	ErrCameraUnavailable = errors.New("camera unavailable")

	// ErrScreenCaptureFailed indicates screen capture failed.
	ErrScreenCaptureFailed = errors.New("screen capture failed")

	// ErrServiceStopped indicates the background call service died.
	ErrServiceStopped = errors.New("call service stopped")

	// ErrSessionActive indicates Start was called with a session running.
	ErrSessionActive = errors.New("session already active")

	// ErrCoordinatorClosed indicates the coordinator has been shut down.
	ErrCoordinatorClosed = errors.New("coordinator closed")
)

// Classify converts a raw collaborator error into an ErrorRecord. Unknown
// errors fall back to the service kind so nothing escapes unclassified.
func Classify(err error, occurredAt time.Time) ErrorRecord {
	var rec ErrorRecord
	if errors.As(err, &rec) {
		return rec
	}

	switch {
	case errors.Is(err, ErrNetworkUnavailable):
		return NewErrorRecord(KindNetwork, occurredAt, err)
	case errors.Is(err, ErrPermissionDenied):
		return NewErrorRecord(KindPermission, occurredAt, err)
	case errors.Is(err, ErrNegotiationFailed):
		return NewErrorRecord(KindNegotiation, occurredAt, err)
	case errors.Is(err, ErrAudioDeviceBusy), errors.Is(err, ErrNoAlternativeDevice):
		return NewErrorRecord(KindAudioDevice, occurredAt, err)
	case errors.Is(err, ErrCameraUnavailable):
		return NewErrorRecord(KindCamera, occurredAt, err)
	case errors.Is(err, ErrScreenCaptureFailed):
		return NewErrorRecord(KindScreenCapture, occurredAt, err)
	case errors.Is(err, ErrServiceStopped):
		return NewErrorRecord(KindService, occurredAt, err)
	default:
		return NewErrorRecord(KindService, occurredAt, err)
	}
}
