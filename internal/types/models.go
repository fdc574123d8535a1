package types

import "time"

type ReferenceKind string

const (
	ReferenceURL    ReferenceKind = "url"
	ReferenceInline ReferenceKind = "inline"
)

// AudioReference is either a URL or inline base64 audio, never both.
type AudioReference struct {
	Kind        ReferenceKind `json:"kind"`
	URL         string        `json:"url,omitempty"`
	Data        string        `json:"data,omitempty"`
	Filename    string        `json:"filename,omitempty"`
	ContentType string        `json:"contentType,omitempty"`
}

func URLReference(u string) AudioReference {
	return AudioReference{Kind: ReferenceURL, URL: u}
}

func InlineReference(data, filename, contentType string) AudioReference {
	return AudioReference{Kind: ReferenceInline, Data: data, Filename: filename, ContentType: contentType}
}

// Source is a short human label for logs and mock keys. A URL wins
// whatever Kind says.
func (r AudioReference) Source() string {
	if r.URL != "" {
		return r.URL
	}
	if r.Filename != "" {
		return r.Filename
	}
	return "inline-audio"
}

// AudioBytes is the raw audio of one request.
type AudioBytes struct {
	Data        []byte
	ContentType string
	Filename    string
	Source      string
}

func (a AudioBytes) Size() int { return len(a.Data) }

// RecognitionEncoding mirrors the speech backend's codec enum.
type RecognitionEncoding string

const (
	EncodingMP3      RecognitionEncoding = "MP3"
	EncodingLinear16 RecognitionEncoding = "LINEAR16"
	EncodingFLAC     RecognitionEncoding = "FLAC"
)

type EncodingHypothesis struct {
	Encoding     RecognitionEncoding
	SampleRateHz int
	Label        string
}

type TranscriptionResult struct {
	Transcription   string  `json:"transcription"`
	ConfidenceScore float64 `json:"confidenceScore"`
	LanguageTag     string  `json:"languageTag"`
	DurationSeconds *int    `json:"durationSeconds,omitempty"`
	// Mock marks placeholder text; the confidence value alone cannot.
	Mock bool `json:"mock"`
}

type Diagnosis struct {
	DiagnosisText string    `json:"diagnosisText"`
	GeneratedAt   time.Time `json:"generatedAt"`
}

// AnalysisResult is what a full transcribe → extract → diagnose run returns.
type AnalysisResult struct {
	Source        string               `json:"source"`
	Transcription *TranscriptionResult `json:"transcription,omitempty"`
	Record        MedicalRecord        `json:"record"`
	Diagnosis     *Diagnosis           `json:"diagnosis,omitempty"`
	DurationMs    int64                `json:"durationMs"`
}

// ConsultationRow is one input row of a batch workbook.
type ConsultationRow struct {
	ID       string `json:"id"`
	AudioURL string `json:"audio_url,omitempty"`
	Text     string `json:"text,omitempty"`
}

// Outcome is one analysed consultation of a batch; Err is set when the run
// failed and Result is then zero.
type Outcome struct {
	Row    ConsultationRow
	Result AnalysisResult
	Err    error
}
