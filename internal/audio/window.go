package audio

import "fmt"

// Window slices samples into consecutive windows of windowSeconds at the
// given rate. The final window is zero-padded to full length, and empty
// input yields a single all-zero window so every recording produces at
// least one embedding row.
func Window(samples []float32, sampleRate int, windowSeconds float64) ([][]float32, error) {
	windowSamples := int(float64(sampleRate) * windowSeconds)
	if windowSamples <= 0 {
		return nil, fmt.Errorf("window of %.3fs at %d Hz has no samples", windowSeconds, sampleRate)
	}

	count := (len(samples) + windowSamples - 1) / windowSamples
	if count == 0 {
		count = 1
	}

	windows := make([][]float32, count)
	for i := 0; i < count; i++ {
		window := make([]float32, windowSamples)
		start := i * windowSamples
		if start < len(samples) {
			copy(window, samples[start:])
		}
		windows[i] = window
	}
	return windows, nil
}
