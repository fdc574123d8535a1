package transcription

import (
	"fmt"
	"path/filepath"

	"medscribe-go/internal/types"
)

// MockConfidence is reported for every transcript, real or mock.
const MockConfidence = 0.95

const mockDurationSeconds = 120

var mockConsultations = []string{
	"Paciente Maria Santos, 32 anos, sexo feminino, CPF 987.654.321-00. Refere dor abdominal forte há dois dias no quadrante inferior direito, febre baixa de 37,8 graus e falta de apetite. Nega cirurgias abdominais anteriores. Motivo da consulta: avaliação de dor abdominal aguda.",
	"Paciente Pedro Oliveira, 55 anos, sexo masculino, CPF 456.789.123-00. Refere dor no peito em aperto há três horas irradiando para o braço esquerdo, com sudorese fria e falta de ar. Hipertenso e diabético. Motivo da consulta: dor torácica com suspeita de origem cardíaca.",
	"Paciente Ana Costa, 28 anos, sexo feminino, CPF 321.654.987-00. Refere cefaleia pulsátil há cinco dias com náusea e sensibilidade à luz, precedida de aura visual. Mãe com enxaqueca. Trabalha dez horas por dia ao computador. Motivo da consulta: avaliação de cefaleia crônica.",
	"Paciente Carlos Mendes, 42 anos, sexo masculino, CPF 789.123.456-00. Refere dor lombar há um mês que piora ao levantar peso e irradia para a perna direita. Motorista de caminhão. Motivo da consulta: avaliação de lombociatalgia.",
}

// MockForPath is the placeholder returned when a local file could not be
// recognized.
func MockForPath(path, language string) types.TranscriptionResult {
	if language == "" {
		language = DefaultLanguage
	}
	return types.TranscriptionResult{
		Transcription:   fmt.Sprintf("[MOCK TRANSCRIPTION] Audio file processed: %s", filepath.Base(path)),
		ConfidenceScore: MockConfidence,
		LanguageTag:     language,
		Mock:            true,
	}
}

// MockForSource picks one of a fixed set of consultations keyed on source,
// so the same source always yields the same text.
func MockForSource(source string) types.TranscriptionResult {
	d := mockDurationSeconds
	return types.TranscriptionResult{
		Transcription:   mockConsultations[hashIndex(source, len(mockConsultations))],
		ConfidenceScore: MockConfidence,
		LanguageTag:     DefaultLanguage,
		DurationSeconds: &d,
		Mock:            true,
	}
}

// hashIndex is a 32-bit rolling hash (h*31 + c) folded into [0, n).
func hashIndex(s string, n int) int {
	var h int32
	for _, c := range s {
		h = h*31 + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return int(v % int64(n))
}
