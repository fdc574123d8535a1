package dataset

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"medscribe-go/internal/actionable"
	"medscribe-go/internal/aggregator"
	"medscribe-go/internal/apperr"
	"medscribe-go/internal/logger"
	"medscribe-go/internal/types"
)

const (
	resultsSheet = "Results"
	summarySheet = "Summary"
	topSymptoms  = 10
)

var reportHeader = []any{
	"id", "source", "transcription", "mock", "symptoms", "patient_name", "patient_age",
	"identification_number", "gender", "consultation_reason", "additional_notes",
	"diagnosis", "duration_ms", "error", "error_kind",
}

// WriteReport writes one row per outcome to a new workbook at path, plus a
// summary sheet with batch totals and the action card.
func WriteReport(path string, outcomes []types.Outcome) error {
	log := logger.New().WithField("component", "dataset.report").WithField("path", path)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(resultsSheet, "A1", &reportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	failed := 0
	for i, o := range outcomes {
		values := reportRow(o)
		if o.Err != nil {
			failed++
		}
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(resultsSheet, axis, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := writeSummary(f, aggregator.Aggregate(outcomes)); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	log.WithField("rows", len(outcomes)).WithField("failed", failed).Info("report written")
	return nil
}

func reportRow(o types.Outcome) []any {
	res := o.Result
	rec := res.Record
	row := []any{o.Row.ID, res.Source, "", false, strings.Join(rec.Symptoms, "; "),
		deref(rec.Patient.Name), "", deref(rec.Patient.IdentificationNumber), deref(rec.Patient.Gender),
		rec.ConsultationReason, deref(rec.AdditionalNotes), "", res.DurationMs, "", ""}

	if res.Transcription != nil {
		row[2] = res.Transcription.Transcription
		row[3] = res.Transcription.Mock
	}
	if rec.Patient.Age != nil {
		row[6] = *rec.Patient.Age
	}
	if res.Diagnosis != nil {
		row[11] = res.Diagnosis.DiagnosisText
	}
	if o.Err != nil {
		row[13] = o.Err.Error()
		row[14] = apperr.KindOf(o.Err).String()
	}
	return row
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func writeSummary(f *excelize.File, ins aggregator.Insight) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("add summary sheet: %w", err)
	}
	card := actionable.Generate(ins)
	rows := [][]any{
		{"total", ins.Total},
		{"failed", ins.Failed},
		{"mock_transcripts", ins.MockTranscripts},
		{"mock_rate", ins.MockRate},
		{"insight", card.Insight},
		{"action", card.Action},
		{"impact", card.Impact},
		{},
		{"symptom", "consultations"},
	}
	for _, sc := range ins.TopSymptoms(topSymptoms) {
		rows = append(rows, []any{sc.Symptom, sc.Count})
	}
	for i, r := range rows {
		if len(r) == 0 {
			continue
		}
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, axis, &r); err != nil {
			return fmt.Errorf("write summary row %d: %w", i+1, err)
		}
	}
	return nil
}
