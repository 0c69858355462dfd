package services

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"collocation-backend/domain/core/entities"
	pkgerrors "collocation-backend/pkg/errors"
)

// ExportHeader is the fixed column order of the CSV export
var ExportHeader = []string{"collocation", "ipa", "meaning", "synonyms"}

// NoDataMessage is reported when there is nothing to export
const NoDataMessage = "no data to export"

// ExportCSV renders records as CSV with a header row. Fields are quoted
// only when they contain a separator, quote or newline.
func ExportCSV(records []*entities.Collocation) ([]byte, error) {
	if len(records) == 0 {
		return nil, pkgerrors.NewValidationError(NoDataMessage)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(ExportHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range records {
		if err := w.Write([]string{r.Collocation, r.IPA, r.Meaning, r.Synonyms}); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}
