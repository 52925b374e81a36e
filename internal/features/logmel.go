package features

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Floor for power values before the log, matching the usual dB conversion
// guard.
const aminPower = 1e-10

// Dynamic range below the peak that survives dB conversion.
const topDB = 80.0

// LogMel extracts a log-mel spectrogram from one mono window and returns it
// flattened mel-major as n_mels * target_frames float32 values. Frames are
// centered on multiples of the hop length with zero padding at the edges;
// the time axis is truncated or padded to target_frames.
func LogMel(window []float32, sampleRate int, cfg Config) ([]float32, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	pad := cfg.NFFT / 2
	padded := make([]float64, len(window)+2*pad)
	for i, s := range window {
		padded[pad+i] = float64(s)
	}
	frames := 1 + len(window)/cfg.HopLength

	fft := fourier.NewFFT(cfg.NFFT)
	hann := hannWindow(cfg.NFFT)
	filters := melFilterbank(cfg.NMels, cfg.NFFT, sampleRate)
	bins := cfg.NFFT/2 + 1

	mel := make([][]float64, cfg.NMels)
	for m := range mel {
		mel[m] = make([]float64, frames)
	}

	frame := make([]float64, cfg.NFFT)
	power := make([]float64, bins)
	coeffs := make([]complex128, bins)
	for f := 0; f < frames; f++ {
		start := f * cfg.HopLength
		for i := 0; i < cfg.NFFT; i++ {
			frame[i] = padded[start+i] * hann[i]
		}
		coeffs = fft.Coefficients(coeffs, frame)
		for k, c := range coeffs {
			power[k] = real(c)*real(c) + imag(c)*imag(c)
		}
		for m := 0; m < cfg.NMels; m++ {
			var sum float64
			row := filters[m]
			for k := 0; k < bins; k++ {
				sum += row[k] * power[k]
			}
			mel[m][f] = sum
		}
	}

	toDecibels(mel, cfg.Normalization)
	fitted := fitTimeFrames(mel, cfg.TargetFrames)

	flat := make([]float32, 0, cfg.NMels*cfg.TargetFrames)
	for m := 0; m < cfg.NMels; m++ {
		for f := 0; f < cfg.TargetFrames; f++ {
			flat = append(flat, float32(fitted[m][f]))
		}
	}
	return flat, nil
}

// toDecibels converts mel powers to a log scale in place. per_window_max
// references the window's own peak; the other modes keep an absolute
// reference of 1.0. All modes clamp to topDB below the peak, and
// standardize additionally rescales [-80, 0] dB to [0, 1].
func toDecibels(mel [][]float64, normalization string) {
	ref := 1.0
	if normalization == NormPerWindowMax {
		for _, row := range mel {
			for _, p := range row {
				if p > ref {
					ref = p
				}
			}
		}
		if ref < aminPower {
			ref = aminPower
		}
	}
	refDB := 10 * math.Log10(ref)

	maxDB := math.Inf(-1)
	for _, row := range mel {
		for i, p := range row {
			if p < aminPower {
				p = aminPower
			}
			db := 10*math.Log10(p) - refDB
			row[i] = db
			if db > maxDB {
				maxDB = db
			}
		}
	}

	floor := maxDB - topDB
	for _, row := range mel {
		for i, db := range row {
			if db < floor {
				db = floor
			}
			if normalization == NormStandardize {
				if db < -topDB {
					db = -topDB
				}
				if db > 0 {
					db = 0
				}
				db = (db + topDB) / topDB
			}
			row[i] = db
		}
	}
}

// fitTimeFrames truncates or pads the time axis to target frames. Padding
// uses the matrix minimum, which reads as silence on the log scale.
func fitTimeFrames(mel [][]float64, target int) [][]float64 {
	current := len(mel[0])
	if current == target {
		return mel
	}

	fitted := make([][]float64, len(mel))
	if current > target {
		for m, row := range mel {
			fitted[m] = row[:target]
		}
		return fitted
	}

	minVal := math.Inf(1)
	for _, row := range mel {
		for _, v := range row {
			if v < minVal {
				minVal = v
			}
		}
	}
	for m, row := range mel {
		padded := make([]float64, target)
		copy(padded, row)
		for i := current; i < target; i++ {
			padded[i] = minVal
		}
		fitted[m] = padded
	}
	return fitted
}

// hannWindow returns a periodic Hann window of length n.
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n)))
	}
	return w
}

// melFilterbank builds n triangular filters over the FFT bins, spaced
// evenly on the mel scale between 0 Hz and Nyquist.
func melFilterbank(nMels, nFFT, sampleRate int) [][]float64 {
	bins := nFFT/2 + 1
	maxMel := hzToMel(float64(sampleRate) / 2)

	centers := make([]int, nMels+2)
	for i := range centers {
		hz := melToHz(maxMel * float64(i) / float64(nMels+1))
		bin := int(float64(nFFT+1) * hz / float64(sampleRate))
		if bin > bins-1 {
			bin = bins - 1
		}
		centers[i] = bin
	}

	filters := make([][]float64, nMels)
	for m := 0; m < nMels; m++ {
		row := make([]float64, bins)
		left, center, right := centers[m], centers[m+1], centers[m+2]
		for k := left; k <= right && k < bins; k++ {
			switch {
			case k < center && center > left:
				row[k] = float64(k-left) / float64(center-left)
			case k == center:
				row[k] = 1
			case center < right:
				row[k] = float64(right-k) / float64(right-center)
			}
		}
		filters[m] = row
	}
	return filters
}

func hzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

func melToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10, mel/2595.0) - 1.0)
}
