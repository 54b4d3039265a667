package lifecycle

import "testing"

func goodSnapshot() ResourceSnapshot {
	return ResourceSnapshot{
		BatteryPercent:  80,
		Charging:        false,
		Network:         NetworkGood,
		AvailableMemory: 500 * 1024 * 1024,
	}
}

// TestAdvisorLowBattery verifies the battery rule: battery=10%, not
// charging, good network, plenty of memory suggests audio-only at low
// quality with preview disabled.
func TestAdvisorLowBattery(t *testing.T) {
	advisor := NewResourceAdvisor(nil)
	snap := goodSnapshot()
	snap.BatteryPercent = 10

	suggested, ok := advisor.Evaluate(DefaultProfile(), snap)
	if !ok {
		t.Fatal("Expected a suggestion for low battery")
	}
	want := CapabilityProfile{VideoMode: VideoAudioOnly, AudioQuality: AudioLow, PreviewEnabled: false}
	if suggested != want {
		t.Errorf("Expected %+v, got %+v", want, suggested)
	}
}

// TestAdvisorLowBatteryCharging verifies charging suppresses the battery rule.
func TestAdvisorLowBatteryCharging(t *testing.T) {
	advisor := NewResourceAdvisor(nil)
	snap := goodSnapshot()
	snap.BatteryPercent = 10
	snap.Charging = true

	if _, ok := advisor.Evaluate(DefaultProfile(), snap); ok {
		t.Error("Charging device should not trigger the battery rule")
	}
}

// TestAdvisorPoorNetwork verifies the network rule leaves preview untouched.
func TestAdvisorPoorNetwork(t *testing.T) {
	advisor := NewResourceAdvisor(nil)
	snap := goodSnapshot()
	snap.Network = NetworkPoor

	current := CapabilityProfile{VideoMode: VideoWebcam, AudioQuality: AudioHigh, PreviewEnabled: true}
	suggested, ok := advisor.Evaluate(current, snap)
	if !ok {
		t.Fatal("Expected a suggestion for poor network")
	}
	if suggested.VideoMode != VideoAudioOnly || suggested.AudioQuality != AudioLow {
		t.Errorf("Unexpected suggestion: %+v", suggested)
	}
	if !suggested.PreviewEnabled {
		t.Error("Network rule must not change the preview setting")
	}
}

// TestAdvisorLowMemory verifies the memory rule suggests medium audio.
func TestAdvisorLowMemory(t *testing.T) {
	advisor := NewResourceAdvisor(nil)
	snap := goodSnapshot()
	snap.AvailableMemory = 50 * 1024 * 1024

	suggested, ok := advisor.Evaluate(DefaultProfile(), snap)
	if !ok {
		t.Fatal("Expected a suggestion for low memory")
	}
	want := CapabilityProfile{VideoMode: VideoAudioOnly, AudioQuality: AudioMedium, PreviewEnabled: false}
	if suggested != want {
		t.Errorf("Expected %+v, got %+v", want, suggested)
	}
}

// TestAdvisorFirstMatchWins verifies the battery rule shadows the others.
func TestAdvisorFirstMatchWins(t *testing.T) {
	advisor := NewResourceAdvisor(nil)
	snap := ResourceSnapshot{
		BatteryPercent:  5,
		Charging:        false,
		Network:         NetworkPoor,
		AvailableMemory: 10 * 1024 * 1024,
	}

	suggested, ok := advisor.Evaluate(DefaultProfile(), snap)
	if !ok {
		t.Fatal("Expected a suggestion")
	}
	if suggested.AudioQuality != AudioLow || suggested.PreviewEnabled {
		t.Errorf("Battery rule should win, got %+v", suggested)
	}
}

// TestAdvisorHealthySnapshot verifies no suggestion under good conditions.
func TestAdvisorHealthySnapshot(t *testing.T) {
	advisor := NewResourceAdvisor(nil)
	if _, ok := advisor.Evaluate(DefaultProfile(), goodSnapshot()); ok {
		t.Error("Healthy snapshot should yield no suggestion")
	}
}

// TestAdvisorDeterministic verifies identical inputs always produce the
// identical result and the input profile is never mutated.
func TestAdvisorDeterministic(t *testing.T) {
	advisor := NewResourceAdvisor(nil)
	snap := goodSnapshot()
	snap.BatteryPercent = 15
	current := DefaultProfile()

	first, ok1 := advisor.Evaluate(current, snap)
	for i := 0; i < 10; i++ {
		got, ok := advisor.Evaluate(current, snap)
		if ok != ok1 || got != first {
			t.Fatalf("Evaluation %d diverged: %+v vs %+v", i, got, first)
		}
	}
	if current != DefaultProfile() {
		t.Error("Evaluate must not mutate the current profile")
	}
}

// TestAdvisorCustomThresholds verifies config thresholds are honored.
func TestAdvisorCustomThresholds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BatteryThresholdPercent = 50
	advisor := NewResourceAdvisor(cfg)

	snap := goodSnapshot()
	snap.BatteryPercent = 40
	if _, ok := advisor.Evaluate(DefaultProfile(), snap); !ok {
		t.Error("Battery below custom threshold should trigger a suggestion")
	}
}
