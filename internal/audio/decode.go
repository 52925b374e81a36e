package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
	"github.com/mewkiz/flac"
)

// Decode reads an audio file and returns mono float32 samples in [-1, 1]
// together with the file's native sample rate. The container format is
// chosen by extension; WAV, MP3, and FLAC are supported.
func Decode(path string) ([]float32, int, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return decodeWAV(path)
	case ".mp3":
		return decodeMP3(path)
	case ".flac":
		return decodeFLAC(path)
	default:
		return nil, 0, fmt.Errorf("unsupported audio format %q", filepath.Ext(path))
	}
}

func decodeWAV(path string) ([]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	decoder.ReadInfo()
	rate := int(decoder.SampleRate)
	bitDepth := int(decoder.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}

	buffer, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode wav: %w", err)
	}
	if rate == 0 && buffer.Format != nil {
		rate = buffer.Format.SampleRate
	}
	if rate == 0 {
		return nil, 0, fmt.Errorf("decode wav: missing sample rate")
	}

	channels := 1
	if buffer.Format != nil && buffer.Format.NumChannels > 1 {
		channels = buffer.Format.NumChannels
	}
	scale := float32(math.Pow(2, float64(bitDepth-1)))

	frames := len(buffer.Data) / channels
	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		sum := 0
		for ch := 0; ch < channels; ch++ {
			sum += buffer.Data[i*channels+ch]
		}
		samples[i] = float32(sum/channels) / scale
	}
	return samples, rate, nil
}

// decodeMP3 reads an MP3 file. The decoder always emits 16-bit little-endian
// stereo PCM, so frames are downmixed pairwise.
func decodeMP3(path string) ([]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, 0, fmt.Errorf("decode mp3: %w", err)
	}
	raw, err := io.ReadAll(decoder)
	if err != nil {
		return nil, 0, fmt.Errorf("decode mp3: %w", err)
	}

	frames := len(raw) / 4
	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		j := i * 4
		left := int16(raw[j]) | int16(raw[j+1])<<8
		right := int16(raw[j+2]) | int16(raw[j+3])<<8
		samples[i] = float32((int32(left)+int32(right))/2) / 32768.0
	}
	return samples, decoder.SampleRate(), nil
}

func decodeFLAC(path string) ([]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	stream, err := flac.New(f)
	if err != nil {
		return nil, 0, fmt.Errorf("decode flac: %w", err)
	}
	rate := int(stream.Info.SampleRate)
	channels := int(stream.Info.NChannels)
	if channels < 1 {
		return nil, 0, fmt.Errorf("decode flac: no channels")
	}
	scale := float32(math.Pow(2, float64(stream.Info.BitsPerSample-1)))

	var samples []float32
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("decode flac: %w", err)
		}
		n := frame.Subframes[0].NSamples
		for i := 0; i < n; i++ {
			var sum int64
			for ch := 0; ch < channels; ch++ {
				sum += int64(frame.Subframes[ch].Samples[i])
			}
			samples = append(samples, float32(sum/int64(channels))/scale)
		}
	}
	return samples, rate, nil
}
