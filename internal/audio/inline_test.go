package audio

import (
	"encoding/base64"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"medscribe-go/internal/apperr"
	"medscribe-go/internal/types"
)

// makeWAV builds a mono 16-bit PCM WAV with the given number of samples.
func makeWAV(sampleRate, samples int) []byte {
	dataSize := samples * 2
	buf := make([]byte, 44+dataSize)
	copy(buf[0:], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:], uint32(36+dataSize))
	copy(buf[8:], "WAVE")
	copy(buf[12:], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:], 16)
	binary.LittleEndian.PutUint16(buf[20:], 1)
	binary.LittleEndian.PutUint16(buf[22:], 1)
	binary.LittleEndian.PutUint32(buf[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(buf[32:], 2)
	binary.LittleEndian.PutUint16(buf[34:], 16)
	copy(buf[36:], "data")
	binary.LittleEndian.PutUint32(buf[40:], uint32(dataSize))
	return buf
}

// makeMP3 builds a run of silent MPEG-1 Layer III frames: 128 kbit/s,
// 44.1 kHz, mono, no CRC, zeroed side info and main data.
func makeMP3(frames int) []byte {
	const frameLen = 144 * 128000 / 44100 // 417 bytes, no padding
	out := make([]byte, 0, frames*frameLen)
	for i := 0; i < frames; i++ {
		frame := make([]byte, frameLen)
		copy(frame, []byte{0xFF, 0xFB, 0x90, 0xC0})
		out = append(out, frame...)
	}
	return out
}

func TestDecodeInline(t *testing.T) {
	raw := []byte("some audio bytes")
	got, err := DecodeInline(base64.StdEncoding.EncodeToString(raw), "consult.webm", "audio/webm")
	require.NoError(t, err)
	assert.Equal(t, raw, got.Data)
	assert.Equal(t, "audio/webm", got.ContentType)
	assert.Equal(t, "consult.webm", got.Filename)
}

func TestDecodeInlineDataURL(t *testing.T) {
	raw := []byte("abc")
	got, err := DecodeInline("data:audio/ogg;base64,"+base64.StdEncoding.EncodeToString(raw), "", "")
	require.NoError(t, err)
	assert.Equal(t, raw, got.Data)
	assert.Equal(t, "audio/ogg", got.ContentType)
	assert.Equal(t, "inline_audio", got.Filename)
}

func TestDecodeInlineUnpadded(t *testing.T) {
	got, err := DecodeInline(base64.RawStdEncoding.EncodeToString([]byte("ab")), "a.mp3", "audio/mpeg")
	require.NoError(t, err)
	assert.Equal(t, []byte("ab"), got.Data)
}

func TestDecodeInlineRejects(t *testing.T) {
	for _, in := range []string{"", "   ", "%%%not-base64%%%", "data:audio/ogg,plain", "data:nocomma"} {
		_, err := DecodeInline(in, "a.mp3", "")
		assert.Equal(t, apperr.InvalidReference, apperr.KindOf(err), "%q", in)
	}
}

func TestEstimateDurationWAV(t *testing.T) {
	a := types.AudioBytes{Data: makeWAV(16000, 16000*3), ContentType: "audio/wav"}
	secs, ok := EstimateDuration(a)
	require.True(t, ok)
	assert.Equal(t, 3, secs)
}

func TestEstimateDurationUnknown(t *testing.T) {
	_, ok := EstimateDuration(types.AudioBytes{Data: []byte("x"), ContentType: "audio/webm"})
	assert.False(t, ok)

	_, ok = EstimateDuration(types.AudioBytes{})
	assert.False(t, ok)

	_, ok = EstimateDuration(types.AudioBytes{Data: []byte("not an mp3 at all"), ContentType: "audio/mpeg"})
	assert.False(t, ok)
}

func TestEstimateDurationMP3(t *testing.T) {
	// 115 frames of 1152 samples at 44.1 kHz is just over 3 s
	secs, ok := EstimateDuration(types.AudioBytes{Data: makeMP3(115), Filename: "consulta.mp3"})
	require.True(t, ok)
	assert.InDelta(t, 3, secs, 1)

	secs, ok = EstimateDuration(types.AudioBytes{Data: makeMP3(115), ContentType: "audio/mpeg"})
	require.True(t, ok)
	assert.InDelta(t, 3, secs, 1)
}

func TestEstimateDurationMalformedHeadersNeverPanic(t *testing.T) {
	wav := makeWAV(16000, 1600)
	inputs := [][]byte{
		[]byte("RIFF"),
		[]byte("RIFF\x24\x00"),
		wav[:12],
		wav[:43],
		wav[:44],
		append([]byte("RIFF\x00\x00\x00\x00WAVEjunk"), make([]byte, 40)...),
		{0xFF, 0xFB},
		{0xFF, 0xFB, 0x90, 0xC0, 0x00},
		makeMP3(3)[:500],
		[]byte("ID3\x04\x00\x00\x00\x00\x00\x7f"),
	}
	names := []string{"a.wav", "a.mp3", "a"}
	contentTypes := []string{"", "audio/wav", "audio/mpeg"}
	for _, in := range inputs {
		for _, name := range names {
			for _, ct := range contentTypes {
				a := types.AudioBytes{Data: in, Filename: name, ContentType: ct}
				assert.NotPanics(t, func() { EstimateDuration(a) }, "%q %s %s", in, name, ct)
			}
		}
	}

	_, ok := EstimateDuration(types.AudioBytes{Data: []byte("RIFF"), Filename: "x.wav"})
	assert.False(t, ok)
	_, ok = EstimateDuration(types.AudioBytes{Data: []byte("garbage, not frames"), Filename: "x.mp3"})
	assert.False(t, ok)
}
