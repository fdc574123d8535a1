package transcription

import (
	"context"
	"fmt"

	speech "cloud.google.com/go/speech/apiv1p1beta1"
	"cloud.google.com/go/speech/apiv1p1beta1/speechpb"
	"google.golang.org/api/option"
	"medscribe-go/internal/types"
)

// GoogleRecognizer calls Google Cloud Speech-to-Text synchronously.
type GoogleRecognizer struct {
	client *speech.Client
}

// NewGoogleRecognizer dials the speech API. With an empty credentialsFile
// Application Default Credentials are used; missing credentials fail here,
// at startup, rather than on the first request.
func NewGoogleRecognizer(ctx context.Context, credentialsFile string) (*GoogleRecognizer, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	c, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	return &GoogleRecognizer{client: c}, nil
}

func (g *GoogleRecognizer) Recognize(ctx context.Context, audio []byte, cfg RecognitionConfig) ([]Segment, error) {
	enc, err := speechEncoding(cfg.Encoding)
	if err != nil {
		return nil, err
	}
	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   enc,
			SampleRateHertz:            int32(cfg.SampleRateHertz),
			LanguageCode:               cfg.LanguageCode,
			Model:                      cfg.Model,
			UseEnhanced:                cfg.UseEnhanced,
			EnableAutomaticPunctuation: cfg.EnableAutomaticPunctuation,
			EnableWordTimeOffsets:      cfg.EnableWordTimeOffsets,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}

	segments := make([]Segment, 0, len(resp.GetResults()))
	for _, r := range resp.GetResults() {
		var seg Segment
		for _, alt := range r.GetAlternatives() {
			seg.Alternatives = append(seg.Alternatives, alt.GetTranscript())
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

func (g *GoogleRecognizer) Close() error {
	return g.client.Close()
}

func speechEncoding(e types.RecognitionEncoding) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch e {
	case types.EncodingMP3:
		return speechpb.RecognitionConfig_MP3, nil
	case types.EncodingLinear16:
		return speechpb.RecognitionConfig_LINEAR16, nil
	case types.EncodingFLAC:
		return speechpb.RecognitionConfig_FLAC, nil
	}
	return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported encoding %q", e)
}
