package dataset

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"medscribe-go/internal/logger"
	"medscribe-go/internal/types"
)

// columns holds the header positions found by detectColumns; -1 is absent.
type columns struct {
	id, audio, text int
}

// detectColumns matches header names loosely, first match wins.
func detectColumns(header []string) columns {
	c := columns{id: -1, audio: -1, text: -1}
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "audio") || strings.Contains(l, "url") || strings.Contains(l, "recording") || strings.Contains(l, "link"):
			if c.audio == -1 {
				c.audio = i
			}
		case strings.Contains(l, "transcript") || strings.Contains(l, "text") || strings.Contains(l, "notes"):
			if c.text == -1 {
				c.text = i
			}
		case l == "id" || strings.Contains(l, "consultation") || strings.Contains(l, "patient id") || strings.HasSuffix(l, " id") || strings.HasSuffix(l, "_id"):
			if c.id == -1 {
				c.id = i
			}
		}
	}
	return c
}

func cell(r []string, idx int) string {
	if idx < 0 || idx >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[idx])
}

// Load reads consultations from the first sheet of an xlsx workbook. Rows
// with neither an http(s) audio link nor transcript text are skipped; rows
// without an id get their 1-based row number.
func Load(path string) ([]types.ConsultationRow, error) {
	log := logger.New().WithField("component", "dataset").WithField("path", path)

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}

	cols := detectColumns(rows[0])
	if cols.audio == -1 && cols.text == -1 {
		return nil, fmt.Errorf("no audio or transcript column in header %v", rows[0])
	}

	var out []types.ConsultationRow
	skipped := 0
	for i, r := range rows[1:] {
		row := types.ConsultationRow{
			ID:       cell(r, cols.id),
			AudioURL: cell(r, cols.audio),
			Text:     cell(r, cols.text),
		}
		lower := strings.ToLower(row.AudioURL)
		if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
			row.AudioURL = ""
		}
		if row.AudioURL == "" && row.Text == "" {
			skipped++
			continue
		}
		if row.ID == "" {
			row.ID = fmt.Sprintf("row-%d", i+2)
		}
		out = append(out, row)
	}
	log.WithField("rows", len(out)).WithField("skipped", skipped).Info("consultations loaded")
	return out, nil
}
