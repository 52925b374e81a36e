package features

import "fmt"

// Normalization modes for the log-power scale.
const (
	// NormPerWindowMax references each window's own peak, putting the
	// loudest bin at 0 dB.
	NormPerWindowMax = "per_window_max"
	// NormGlobalRef keeps an absolute dB scale so energy differences
	// between windows survive.
	NormGlobalRef = "global_ref"
	// NormStandardize clips the absolute scale to [-80, 0] dB and rescales
	// to [0, 1].
	NormStandardize = "standardize"
)

// Config holds log-mel extraction parameters. Jobs override individual
// fields through their feature config map; everything else keeps the
// defaults.
type Config struct {
	NMels         int
	NFFT          int
	HopLength     int
	TargetFrames  int
	Normalization string
}

// DefaultConfig returns the extraction parameters used when a job supplies
// no overrides: 128 mel bands over a 2048-sample FFT with hop 1252, fit to
// 128 frames.
func DefaultConfig() Config {
	return Config{
		NMels:         128,
		NFFT:          2048,
		HopLength:     1252,
		TargetFrames:  128,
		Normalization: NormPerWindowMax,
	}
}

// ConfigFromMap overlays job feature-config values onto the defaults.
// Recognized keys are n_mels, n_fft, hop_length, target_frames, and
// normalization; unknown keys only contribute to the encoding signature and
// are ignored here. Numeric values arrive as JSON float64.
func ConfigFromMap(overrides map[string]any) (Config, error) {
	cfg := DefaultConfig()
	for key, value := range overrides {
		switch key {
		case "n_mels":
			n, err := asInt(key, value)
			if err != nil {
				return Config{}, err
			}
			cfg.NMels = n
		case "n_fft":
			n, err := asInt(key, value)
			if err != nil {
				return Config{}, err
			}
			cfg.NFFT = n
		case "hop_length":
			n, err := asInt(key, value)
			if err != nil {
				return Config{}, err
			}
			cfg.HopLength = n
		case "target_frames":
			n, err := asInt(key, value)
			if err != nil {
				return Config{}, err
			}
			cfg.TargetFrames = n
		case "normalization":
			s, ok := value.(string)
			if !ok {
				return Config{}, fmt.Errorf("feature config normalization must be a string, got %T", value)
			}
			cfg.Normalization = s
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the parameters describe a computable spectrogram.
func (c Config) Validate() error {
	if c.NMels <= 0 {
		return fmt.Errorf("n_mels must be positive, got %d", c.NMels)
	}
	if c.NFFT <= 0 {
		return fmt.Errorf("n_fft must be positive, got %d", c.NFFT)
	}
	if c.HopLength <= 0 {
		return fmt.Errorf("hop_length must be positive, got %d", c.HopLength)
	}
	if c.TargetFrames <= 0 {
		return fmt.Errorf("target_frames must be positive, got %d", c.TargetFrames)
	}
	switch c.Normalization {
	case NormPerWindowMax, NormGlobalRef, NormStandardize:
	default:
		return fmt.Errorf("unknown normalization %q", c.Normalization)
	}
	return nil
}

// Size returns the flattened feature vector length.
func (c Config) Size() int {
	return c.NMels * c.TargetFrames
}

func asInt(key string, value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("feature config %s must be a number, got %T", key, value)
	}
}
