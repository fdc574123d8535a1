package audio

import (
	"bytes"
	"strings"

	"github.com/hajimehoshi/go-mp3"
	"github.com/youpy/go-wav"
	"medscribe-go/internal/types"
)

// EstimateDuration reads the container header of WAV and MP3 audio.
// Other formats report ok=false.
func EstimateDuration(a types.AudioBytes) (seconds int, ok bool) {
	if len(a.Data) == 0 {
		return 0, false
	}
	ct := strings.ToLower(a.ContentType)
	name := strings.ToLower(a.Filename)
	switch {
	case isWAVE(a.Data):
		return wavDuration(a.Data)
	case strings.Contains(ct, "wav") || strings.HasSuffix(name, ".wav"):
		// named WAV without a RIFF/WAVE header
		return 0, false
	case strings.Contains(ct, "mpeg") || strings.Contains(ct, "mp3") || strings.HasSuffix(name, ".mp3"):
		return mp3Duration(a.Data)
	}
	return 0, false
}

// isWAVE requires a full canonical header; go-wav panics on shorter input.
func isWAVE(data []byte) bool {
	return len(data) >= wavHeaderSize &&
		bytes.Equal(data[0:4], []byte("RIFF")) &&
		bytes.Equal(data[8:12], []byte("WAVE"))
}

const wavHeaderSize = 44

func wavDuration(data []byte) (secs int, ok bool) {
	defer func() {
		if recover() != nil {
			secs, ok = 0, false
		}
	}()
	r := wav.NewReader(bytes.NewReader(data))
	d, err := r.Duration()
	if err != nil || d <= 0 {
		return 0, false
	}
	return int(d.Seconds() + 0.5), true
}

func mp3Duration(data []byte) (secs int, ok bool) {
	defer func() {
		if recover() != nil {
			secs, ok = 0, false
		}
	}()
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return 0, false
	}
	// decoded stream is 16-bit stereo: 4 bytes per sample frame
	n := dec.Length()
	if n <= 0 || dec.SampleRate() <= 0 {
		return 0, false
	}
	return int(float64(n)/4/float64(dec.SampleRate()) + 0.5), true
}
