package lifecycle

import (
	"github.com/sirupsen/logrus"
)

// ResourceAdvisor evaluates battery, network, and memory snapshots
// against fixed thresholds and produces capability downgrade suggestions
// independent of error occurrence. It is strictly advisory: suggestions
// are surfaced for explicit accept/dismiss, never applied automatically,
// and the advisor never touches the retry budget. Evaluate is
// deterministic and side-effect-free; the coordinator owns scheduling
// and surfacing.
type ResourceAdvisor struct {
	batteryThreshold int
	memoryThreshold  uint64
}

// NewResourceAdvisor creates an advisor with the config's thresholds.
func NewResourceAdvisor(cfg *Config) *ResourceAdvisor {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &ResourceAdvisor{
		batteryThreshold: cfg.BatteryThresholdPercent,
		memoryThreshold:  cfg.MemoryThresholdBytes,
	}
}

// Evaluate returns a suggested downgraded profile for the snapshot, or
// ok=false when conditions warrant no suggestion. First matching rule
// wins:
//
//  1. battery below threshold and not charging: audio only, low quality,
//     preview disabled
//  2. poor network quality: audio only, low quality, preview unchanged
//  3. available memory below threshold: audio only, medium quality,
//     preview disabled
func (a *ResourceAdvisor) Evaluate(current CapabilityProfile, snap ResourceSnapshot) (CapabilityProfile, bool) {
	switch {
	case snap.BatteryPercent < a.batteryThreshold && !snap.Charging:
		logrus.WithFields(logrus.Fields{
			"function": "Evaluate",
			"rule":     "battery",
			"battery":  snap.BatteryPercent,
		}).Debug("Advisor matched battery rule")
		return CapabilityProfile{
			VideoMode:      VideoAudioOnly,
			AudioQuality:   AudioLow,
			PreviewEnabled: false,
		}, true

	case snap.Network == NetworkPoor:
		logrus.WithFields(logrus.Fields{
			"function": "Evaluate",
			"rule":     "network",
			"network":  snap.Network.String(),
		}).Debug("Advisor matched network rule")
		return CapabilityProfile{
			VideoMode:      VideoAudioOnly,
			AudioQuality:   AudioLow,
			PreviewEnabled: current.PreviewEnabled,
		}, true

	case snap.AvailableMemory < a.memoryThreshold:
		logrus.WithFields(logrus.Fields{
			"function":  "Evaluate",
			"rule":      "memory",
			"mem_bytes": snap.AvailableMemory,
		}).Debug("Advisor matched memory rule")
		return CapabilityProfile{
			VideoMode:      VideoAudioOnly,
			AudioQuality:   AudioMedium,
			PreviewEnabled: false,
		}, true
	}

	return CapabilityProfile{}, false
}
