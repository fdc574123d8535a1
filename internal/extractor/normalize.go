package extractor

import (
	"math"
	"strconv"
	"strings"

	"medscribe-go/internal/types"
)

// Normalize maps any decoded JSON object, including an empty one, onto a
// MedicalRecord. It is idempotent over the record's own JSON encoding.
func Normalize(data map[string]any) types.MedicalRecord {
	patient, _ := data["patient"].(map[string]any)

	rec := types.MedicalRecord{
		Symptoms: symptoms(data["symptoms"]),
		Patient: types.Patient{
			Name:                 truthyString(patient["name"]),
			Age:                  age(patient["age"]),
			IdentificationNumber: truthyString(patient["identificationNumber"]),
			Gender:               truthyString(patient["gender"]),
		},
		ConsultationReason: types.DefaultConsultationReason,
		AdditionalNotes:    trimmedString(data["additionalNotes"]),
	}
	if s, ok := data["consultationReason"].(string); ok {
		if s = strings.TrimSpace(s); s != "" {
			rec.ConsultationReason = s
		}
	}
	return rec
}

func symptoms(v any) []string {
	out := []string{}
	list, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range list {
		if s, ok := item.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// age keeps only finite, non-negative JSON numbers.
func age(v any) *int {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > math.MaxInt32 {
		return nil
	}
	n := int(f)
	return &n
}

// truthyString keeps non-blank strings and non-zero numbers.
func truthyString(v any) *string {
	switch t := v.(type) {
	case string:
		return trimmedString(t)
	case float64:
		if t == 0 || math.IsNaN(t) {
			return nil
		}
		s := strconv.FormatFloat(t, 'f', -1, 64)
		return &s
	}
	return nil
}

func trimmedString(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}
