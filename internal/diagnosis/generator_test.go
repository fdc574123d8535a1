package diagnosis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"medscribe-go/internal/apperr"
	"medscribe-go/internal/llm"
	"medscribe-go/internal/types"
)

func record() types.MedicalRecord {
	name := "Pedro"
	age := 55
	return types.MedicalRecord{
		Symptoms:           []string{"chest pain", "shortness of breath"},
		Patient:            types.Patient{Name: &name, Age: &age},
		ConsultationReason: "Chest pain suspected cardiac origin",
	}
}

func TestDiagnoseTrimsAndStamps(t *testing.T) {
	var prompt string
	g := New(llm.GeneratorFunc(func(_ context.Context, p string) (string, error) {
		prompt = p
		return "\n  1. PRIMARY DIAGNOSIS: Acute coronary syndrome\n", nil
	}))
	fixedNow := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("BRT", -3*3600))
	g.now = func() time.Time { return fixedNow }

	d, err := g.Diagnose(context.Background(), record())
	require.NoError(t, err)
	assert.Equal(t, "1. PRIMARY DIAGNOSIS: Acute coronary syndrome", d.DiagnosisText)
	assert.Equal(t, fixedNow.UTC(), d.GeneratedAt)

	for _, section := range []string{"PRIMARY DIAGNOSIS", "DIFFERENTIAL DIAGNOSES", "RECOMMENDED TREATMENT", "RECOMMENDATIONS", "FOLLOW-UP", "ENGLISH ONLY"} {
		assert.Contains(t, prompt, section)
	}
	assert.Contains(t, prompt, `"consultationReason": "Chest pain suspected cardiac origin"`)
	assert.Contains(t, prompt, `"additionalNotes": null`)
}

func TestDiagnoseBlankIsEmptyResponse(t *testing.T) {
	g := New(llm.GeneratorFunc(func(context.Context, string) (string, error) { return " \t\n", nil }))
	_, err := g.Diagnose(context.Background(), record())
	assert.Equal(t, apperr.EmptyResponse, apperr.KindOf(err))
}

func TestDiagnoseUpstreamKindsPassThrough(t *testing.T) {
	for _, kind := range []apperr.Kind{apperr.UpstreamUnavailable, apperr.UpstreamError} {
		g := New(llm.GeneratorFunc(func(context.Context, string) (string, error) {
			return "", apperr.Wrap(kind, "llm.generate", errors.New("boom"))
		}))
		_, err := g.Diagnose(context.Background(), record())
		assert.Equal(t, kind, apperr.KindOf(err))
	}
}
