package testsupport

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWAV writes a mono 16-bit sine tone of the given duration and sample
// rate to path, creating parent directories as needed, and returns path.
func WriteWAV(t testing.TB, path string, durationSeconds float64, sampleRate int) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for wav: %v", err)
	}
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}
	defer file.Close()

	sampleCount := int(durationSeconds * float64(sampleRate))
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           make([]int, sampleCount),
		SourceBitDepth: 16,
	}
	for i := range buf.Data {
		buf.Data[i] = int(10000 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
	}

	encoder := wav.NewEncoder(file, sampleRate, 16, 1, 1)
	if err := encoder.Write(buf); err != nil {
		t.Fatalf("write wav samples: %v", err)
	}
	if err := encoder.Close(); err != nil {
		t.Fatalf("finalize wav: %v", err)
	}
	return path
}
