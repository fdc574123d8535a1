package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"medscribe-go/internal/apperr"
	"medscribe-go/internal/llm"
	"medscribe-go/internal/logger"
	"medscribe-go/internal/types"
)

// RecommendedMaxChars is the input ceiling callers are expected to enforce.
const RecommendedMaxChars = 5000

const extractionPrompt = `Analyze the following medical text and extract structured information.

TEXT: %s

Extract and return ONLY a valid JSON object with the following structure:
{
  "symptoms": ["symptom1", "symptom2", "symptom3"],
  "patient": {
    "name": "patient name if mentioned",
    "age": numeric age if mentioned,
    "identificationNumber": "identification number if mentioned",
    "gender": "gender if mentioned"
  },
  "consultationReason": "consultation reason in a clear sentence",
  "additionalNotes": "relevant additional observations if any"
}

IMPORTANT:
- Return ONLY the JSON, without additional text
- If any information is not present, use null or an empty string
- Keep exactly the format above
- Use double quotes for strings
- "symptoms" is always an array, even if empty
LANGUAGE: ENGLISH ONLY, whatever the language of the text
`

type Extractor struct {
	gen llm.Generator
}

func New(gen llm.Generator) *Extractor {
	return &Extractor{gen: gen}
}

// BuildPrompt returns the extraction prompt for text.
func BuildPrompt(text string) string {
	return fmt.Sprintf(extractionPrompt, text)
}

// Extract asks the backend for a MedicalRecord describing text. The backend
// is called once; its answer is never trusted to match the schema.
func (x *Extractor) Extract(ctx context.Context, text string) (types.MedicalRecord, error) {
	const op = "extractor.extract"
	log := logger.New().WithField("component", "medical-extractor")

	if strings.TrimSpace(text) == "" {
		return types.MedicalRecord{}, apperr.New(apperr.NoJSONFound, op, "no text to extract from")
	}

	out, err := x.gen.Generate(ctx, BuildPrompt(text))
	if err != nil {
		return types.MedicalRecord{}, err
	}
	if strings.TrimSpace(out) == "" {
		return types.MedicalRecord{}, apperr.New(apperr.EmptyResponse, op, "language model returned no text")
	}
	log.WithField("completion_len", len(out)).Debug("extraction completion received")

	rec, err := ParseRecord(out)
	if err != nil {
		log.WithError(err).Warn("could not parse extraction completion")
		return types.MedicalRecord{}, err
	}
	log.WithField("symptoms", len(rec.Symptoms)).Info("medical record extracted")
	return rec, nil
}

// ParseRecord locates the JSON object in a completion and normalizes it.
func ParseRecord(completion string) (types.MedicalRecord, error) {
	const op = "extractor.parse"

	raw := extractJSON(completion)
	if raw == "" {
		return types.MedicalRecord{}, apperr.New(apperr.NoJSONFound, op, "response does not contain a JSON object")
	}
	var generic map[string]any
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return types.MedicalRecord{}, apperr.Wrap(apperr.MalformedJSON, op, err)
	}
	return Normalize(generic), nil
}

// extractJSON returns the span from the first '{' to the last '}'.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end < start {
		return ""
	}
	return s[start : end+1]
}
