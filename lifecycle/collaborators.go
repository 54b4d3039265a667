package lifecycle

import "context"

// Descriptor is an opaque negotiation descriptor exchanged through the
// transport collaborator. Its contents are never interpreted here.
type Descriptor struct {
	Type string
	Body []byte
}

// Transport is the consumed surface of the wire-level transport
// collaborator. The coordinator never implements it; timeout detection is
// the transport's job, which is expected to eventually emit PhaseFailed.
type Transport interface {
	// ObserveConnectionPhase returns the phase stream. Events are
	// delivered in emission order and never reordered.
	ObserveConnectionPhase() <-chan TransportPhase

	// CreateNegotiationOffer produces a local descriptor for the given
	// capability profile. Suspends until offer creation completes.
	CreateNegotiationOffer(ctx context.Context, profile CapabilityProfile) (Descriptor, error)

	// ApplyRemoteDescriptor installs the remote peer's answer.
	ApplyRemoteDescriptor(ctx context.Context, d Descriptor) error

	// Close releases transport resources. Idempotent.
	Close() error
}

// InterruptionSource is the consumed surface of the system interruption
// collaborator (incoming calls, network loss, low power).
type InterruptionSource interface {
	ObserveInterruptions() <-chan InterruptionSignal
}

// MediaControl pauses and resumes the underlying media pipeline without
// tearing it down. A paused session keeps its resources and stays
// Connected.
type MediaControl interface {
	Pause() error
	Resume() error
}

// DeviceManager is the consumed surface of the platform audio collaborator
// used for device-switch recovery.
type DeviceManager interface {
	ListDevices(ctx context.Context) ([]AudioDevice, error)
	SelectDevice(ctx context.Context, d AudioDevice) error
	ActiveDevice() (AudioDevice, bool)
}

// ResourceMonitor is the consumed surface of the battery/network/memory
// collaborators, polled by the advisor tick. Implementations must not block.
type ResourceMonitor interface {
	BatteryLevel() (percent int, charging bool)
	NetworkQuality() NetworkQuality
	AvailableMemory() uint64
}
