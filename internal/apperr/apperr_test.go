package apperr

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	assert.Equal(t, "audio.fetch: http status 404", Newf(DownloadFailed, "audio.fetch", "http status %d", 404).Error())
	assert.Equal(t, "llm.generate: upstream_error: EOF", Wrap(UpstreamError, "llm.generate", io.EOF).Error())
	assert.Equal(t, "no_json_found", (&Error{Kind: NoJSONFound}).Error())
}

func TestKindOfThroughWrapping(t *testing.T) {
	base := Wrap(DownloadFailed, "audio.fetch", io.ErrUnexpectedEOF)
	wrapped := fmt.Errorf("pipeline: %w", base)

	assert.Equal(t, DownloadFailed, KindOf(wrapped))
	assert.True(t, Is(wrapped, DownloadFailed))
	assert.True(t, errors.Is(wrapped, io.ErrUnexpectedEOF))
	assert.Equal(t, Internal, KindOf(errors.New("plain")))
	assert.False(t, Is(nil, Internal))
}

func TestCategories(t *testing.T) {
	cases := map[Kind]Category{
		InvalidScheme:       Input,
		UnsupportedFormat:   Input,
		InvalidReference:    Input,
		MissingField:        Input,
		TextTooLong:         Input,
		UpstreamUnavailable: Unavailable,
		DownloadFailed:      Processing,
		EmptyResponse:       Processing,
		NoJSONFound:         Processing,
		MalformedJSON:       Processing,
		UpstreamError:       Processing,
		Internal:            Processing,
	}
	for k, want := range cases {
		assert.Equal(t, want, k.Category(), k.String())
	}
	assert.Equal(t, Input, CategoryOf(New(TextTooLong, "", "")))
	assert.Equal(t, "kind(99)", Kind(99).String())
}
