package audio

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Resample converts mono samples from one rate to another. Equal rates pass
// the input through untouched.
func Resample(samples []float32, fromRate, toRate int) ([]float32, error) {
	if fromRate <= 0 || toRate <= 0 {
		return nil, fmt.Errorf("invalid sample rates %d -> %d", fromRate, toRate)
	}
	if fromRate == toRate || len(samples) == 0 {
		return samples, nil
	}

	config := &resampling.Config{
		InputRate:  float64(fromRate),
		OutputRate: float64(toRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	}
	resampler, err := resampling.New(config)
	if err != nil {
		return nil, fmt.Errorf("create resampler: %w", err)
	}

	input := make([]float64, len(samples))
	for i, s := range samples {
		input[i] = float64(s)
	}
	output, err := resampler.Process(input)
	if err != nil {
		return nil, fmt.Errorf("resample %d -> %d: %w", fromRate, toRate, err)
	}

	out := make([]float32, len(output))
	for i, s := range output {
		switch {
		case s > 1.0:
			out[i] = 1.0
		case s < -1.0:
			out[i] = -1.0
		default:
			out[i] = float32(s)
		}
	}
	return out, nil
}
