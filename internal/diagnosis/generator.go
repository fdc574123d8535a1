package diagnosis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"medscribe-go/internal/apperr"
	"medscribe-go/internal/llm"
	"medscribe-go/internal/logger"
	"medscribe-go/internal/types"
)

const diagnosisPrompt = `As a medical specialist, analyze the following medical data and write a complete diagnosis.

PATIENT DATA:
%s

You MUST respond in ENGLISH ONLY, whatever language the data is in.

Structure the answer in these five sections:

1. PRIMARY DIAGNOSIS: the most likely medical condition
2. DIFFERENTIAL DIAGNOSES: other possibilities to consider
3. RECOMMENDED TREATMENT: a specific therapeutic protocol
4. RECOMMENDATIONS: guidance for the patient
5. FOLLOW-UP: when to return for reassessment

Use precise but accessible medical language. Be specific and practical.
Answer with medical content only, as plain prose, not JSON, no introduction or conclusion.
`

type Generator struct {
	gen llm.Generator
	now func() time.Time
}

func New(gen llm.Generator) *Generator {
	return &Generator{gen: gen, now: time.Now}
}

func BuildPrompt(rec types.MedicalRecord) (string, error) {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}
	return fmt.Sprintf(diagnosisPrompt, string(data)), nil
}

// Diagnose makes a single backend call. A blank answer is an error, never
// an empty diagnosis.
func (g *Generator) Diagnose(ctx context.Context, rec types.MedicalRecord) (types.Diagnosis, error) {
	const op = "diagnosis.generate"
	log := logger.New().WithField("component", "diagnosis")

	prompt, err := BuildPrompt(rec)
	if err != nil {
		return types.Diagnosis{}, apperr.Wrap(apperr.Internal, op, err)
	}

	out, err := g.gen.Generate(ctx, prompt)
	if err != nil {
		return types.Diagnosis{}, err
	}
	text := strings.TrimSpace(out)
	if text == "" {
		return types.Diagnosis{}, apperr.New(apperr.EmptyResponse, op, "language model returned no diagnosis")
	}

	name := "n/a"
	if rec.Patient.Name != nil {
		name = *rec.Patient.Name
	}
	log.WithField("patient", name).WithField("chars", len(text)).Info("diagnosis generated")
	return types.Diagnosis{DiagnosisText: text, GeneratedAt: g.now().UTC()}, nil
}
