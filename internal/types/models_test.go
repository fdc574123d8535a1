package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAudioReferenceSource(t *testing.T) {
	assert.Equal(t, "https://x.test/a.mp3", URLReference("https://x.test/a.mp3").Source())
	assert.Equal(t, "https://x.test/a.mp3", AudioReference{URL: "https://x.test/a.mp3"}.Source())
	assert.Equal(t, "a.wav", InlineReference("YWJj", "a.wav", "").Source())
	assert.Equal(t, "inline-audio", AudioReference{Data: "YWJj"}.Source())
}
