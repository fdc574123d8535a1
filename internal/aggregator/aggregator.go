package aggregator

import (
	"sort"

	"medscribe-go/internal/apperr"
	"medscribe-go/internal/types"
)

// Insight summarises a batch of consultations.
type Insight struct {
	Total           int            `json:"total"`
	Failed          int            `json:"failed"`
	MockTranscripts int            `json:"mock_transcripts"`
	MockRate        float64        `json:"mock_rate"`
	FailureKinds    map[string]int `json:"failure_kinds"`
	SymptomCounts   map[string]int `json:"symptom_counts"`
}

// SymptomCount is one entry of TopSymptoms.
type SymptomCount struct {
	Symptom string
	Count   int
}

func Aggregate(outcomes []types.Outcome) Insight {
	ins := Insight{
		Total:         len(outcomes),
		FailureKinds:  map[string]int{},
		SymptomCounts: map[string]int{},
	}
	transcribed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			ins.Failed++
			ins.FailureKinds[apperr.KindOf(o.Err).String()]++
			continue
		}
		if t := o.Result.Transcription; t != nil {
			transcribed++
			if t.Mock {
				ins.MockTranscripts++
			}
		}
		seen := map[string]bool{}
		for _, s := range o.Result.Record.Symptoms {
			if !seen[s] {
				seen[s] = true
				ins.SymptomCounts[s]++
			}
		}
	}
	if transcribed > 0 {
		ins.MockRate = float64(ins.MockTranscripts) / float64(transcribed)
	}
	return ins
}

// TopSymptoms returns the n most frequent symptoms, ties broken by name.
func (ins Insight) TopSymptoms(n int) []SymptomCount {
	out := make([]SymptomCount, 0, len(ins.SymptomCounts))
	for s, c := range ins.SymptomCounts {
		out = append(out, SymptomCount{Symptom: s, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Symptom < out[j].Symptom
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
