package features_test

import (
	"math"
	"testing"

	"finback/internal/features"
)

func sineWindow(seconds float64, rate int, freq float64) []float32 {
	samples := make([]float32, int(seconds*float64(rate)))
	for i := range samples {
		samples[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return samples
}

func TestLogMelShapeAndDeterminism(t *testing.T) {
	window := sineWindow(5.0, 32000, 440)
	cfg := features.DefaultConfig()

	first, err := features.LogMel(window, 32000, cfg)
	if err != nil {
		t.Fatalf("LogMel: %v", err)
	}
	if len(first) != cfg.Size() {
		t.Fatalf("feature length = %d, want %d", len(first), cfg.Size())
	}

	second, err := features.LogMel(window, 32000, cfg)
	if err != nil {
		t.Fatalf("LogMel: %v", err)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("extraction is not deterministic at index %d: %v != %v", i, first[i], second[i])
		}
	}
}

func TestLogMelPerWindowMaxScale(t *testing.T) {
	window := sineWindow(5.0, 32000, 440)
	flat, err := features.LogMel(window, 32000, features.DefaultConfig())
	if err != nil {
		t.Fatalf("LogMel: %v", err)
	}

	var peak float32 = -1000
	for _, v := range flat {
		if v > peak {
			peak = v
		}
		if v < -80.0001 {
			t.Fatalf("value %v below the -80 dB floor", v)
		}
	}
	if peak > 0.0001 || peak < -0.0001 {
		t.Fatalf("peak = %v, want 0 dB under per-window-max normalization", peak)
	}
}

func TestLogMelStandardizeRange(t *testing.T) {
	cfg := features.DefaultConfig()
	cfg.Normalization = features.NormStandardize

	flat, err := features.LogMel(sineWindow(5.0, 32000, 440), 32000, cfg)
	if err != nil {
		t.Fatalf("LogMel: %v", err)
	}
	for i, v := range flat {
		if v < 0 || v > 1 {
			t.Fatalf("standardized value %v at index %d outside [0, 1]", v, i)
		}
	}
}

func TestLogMelPadsShortWindows(t *testing.T) {
	cfg := features.DefaultConfig()
	// One second at 32 kHz yields 26 raw frames, well under the 128 target.
	flat, err := features.LogMel(sineWindow(1.0, 32000, 440), 32000, cfg)
	if err != nil {
		t.Fatalf("LogMel: %v", err)
	}
	if len(flat) != cfg.Size() {
		t.Fatalf("feature length = %d, want %d", len(flat), cfg.Size())
	}
}

func TestLogMelDistinguishesContent(t *testing.T) {
	cfg := features.DefaultConfig()
	low, err := features.LogMel(sineWindow(5.0, 32000, 200), 32000, cfg)
	if err != nil {
		t.Fatalf("LogMel low: %v", err)
	}
	high, err := features.LogMel(sineWindow(5.0, 32000, 4000), 32000, cfg)
	if err != nil {
		t.Fatalf("LogMel high: %v", err)
	}

	same := true
	for i := range low {
		if low[i] != high[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different tones produced identical features")
	}
}

func TestConfigFromMap(t *testing.T) {
	cfg, err := features.ConfigFromMap(map[string]any{
		"n_mels":        float64(64),
		"hop_length":    float64(512),
		"normalization": features.NormGlobalRef,
		"custom_tag":    "ignored",
	})
	if err != nil {
		t.Fatalf("ConfigFromMap: %v", err)
	}
	if cfg.NMels != 64 || cfg.HopLength != 512 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.NFFT != 2048 || cfg.TargetFrames != 128 {
		t.Fatalf("defaults not preserved: %+v", cfg)
	}
	if cfg.Normalization != features.NormGlobalRef {
		t.Fatalf("normalization = %q", cfg.Normalization)
	}
}

func TestConfigFromMapRejectsBadValues(t *testing.T) {
	if _, err := features.ConfigFromMap(map[string]any{"n_mels": "many"}); err == nil {
		t.Fatal("expected error for non-numeric n_mels")
	}
	if _, err := features.ConfigFromMap(map[string]any{"n_mels": float64(-1)}); err == nil {
		t.Fatal("expected error for negative n_mels")
	}
	if _, err := features.ConfigFromMap(map[string]any{"normalization": "loudest"}); err == nil {
		t.Fatal("expected error for unknown normalization")
	}
}
