package audio

import (
	"encoding/base64"
	"strings"

	"medscribe-go/internal/apperr"
	"medscribe-go/internal/types"
)

// DecodeInline turns base64 audio into AudioBytes. A "data:<mime>;base64,"
// prefix is accepted and its mime type used when contentType is empty.
func DecodeInline(data, filename, contentType string) (types.AudioBytes, error) {
	const op = "audio.decode_inline"

	payload := strings.TrimSpace(data)
	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 {
			return types.AudioBytes{}, apperr.New(apperr.InvalidReference, op, "malformed data url")
		}
		meta := payload[len("data:"):comma]
		if !strings.HasSuffix(meta, ";base64") {
			return types.AudioBytes{}, apperr.New(apperr.InvalidReference, op, "data url is not base64")
		}
		if contentType == "" {
			contentType = strings.TrimSuffix(meta, ";base64")
		}
		payload = payload[comma+1:]
	}
	if payload == "" {
		return types.AudioBytes{}, apperr.New(apperr.InvalidReference, op, "inline audio is empty")
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// some clients strip padding
		raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return types.AudioBytes{}, apperr.Wrap(apperr.InvalidReference, op, err)
		}
	}
	if len(raw) == 0 {
		return types.AudioBytes{}, apperr.New(apperr.InvalidReference, op, "inline audio is empty")
	}

	if filename == "" {
		filename = "inline_audio"
	}
	return types.AudioBytes{
		Data:        raw,
		ContentType: resolveContentType(contentType, raw),
		Filename:    filename,
		Source:      filename,
	}, nil
}
