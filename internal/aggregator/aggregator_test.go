package aggregator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"medscribe-go/internal/apperr"
	"medscribe-go/internal/types"
)

func outcome(mock bool, symptoms ...string) types.Outcome {
	return types.Outcome{Result: types.AnalysisResult{
		Transcription: &types.TranscriptionResult{Mock: mock},
		Record:        types.MedicalRecord{Symptoms: symptoms},
	}}
}

func TestAggregate(t *testing.T) {
	ins := Aggregate([]types.Outcome{
		outcome(false, "febre", "tosse", "febre"),
		outcome(true, "febre"),
		{Result: types.AnalysisResult{Record: types.MedicalRecord{Symptoms: []string{"dor"}}}},
		{Err: apperr.New(apperr.NoJSONFound, "x", "y")},
		{Err: errors.New("plain")},
	})

	assert.Equal(t, 5, ins.Total)
	assert.Equal(t, 2, ins.Failed)
	assert.Equal(t, 1, ins.MockTranscripts)
	assert.InDelta(t, 0.5, ins.MockRate, 1e-9)
	assert.Equal(t, map[string]int{"no_json_found": 1, "internal": 1}, ins.FailureKinds)
	assert.Equal(t, map[string]int{"febre": 2, "tosse": 1, "dor": 1}, ins.SymptomCounts)
	assert.Equal(t, []SymptomCount{{"febre", 2}, {"dor", 1}}, ins.TopSymptoms(2))
}

func TestAggregateEmpty(t *testing.T) {
	ins := Aggregate(nil)
	assert.Zero(t, ins.Total)
	assert.Zero(t, ins.MockRate)
	assert.Empty(t, ins.TopSymptoms(5))
}
