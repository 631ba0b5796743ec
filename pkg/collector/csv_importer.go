// Package collector feeds meals from bulk sources into the gateway.
package collector

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"SodiumWatch/pkg/gateway"
	"SodiumWatch/pkg/model"
)

// Columns is the expected CSV layout. A header row with these names is
// optional; portion and recorded_at may be empty or absent.
var Columns = []string{"name", "sodium_mg", "recorded_at", "portion"}

// RowError is a skipped CSV row.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// ImportReport summarises one import run.
type ImportReport struct {
	Imported int
	Skipped  []RowError
}

type CSVImporter struct {
	recorder MealRecorder
	log      zerolog.Logger
}

func NewCSVImporter(recorder MealRecorder, log zerolog.Logger) *CSVImporter {
	return &CSVImporter{
		recorder: recorder,
		log:      log.With().Str("component", "csv_importer").Logger(),
	}
}

// Import records every row of r for id with source "import". Rows with an
// invalid payload are skipped and reported; any other failure stops the
// import and is returned along with the rows done so far.
func (im *CSVImporter) Import(ctx context.Context, id *gateway.Identity, r io.Reader) (*ImportReport, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	report := &ImportReport{}
	for first := true; ; first = false {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				report.Skipped = append(report.Skipped, RowError{Line: perr.Line, Err: perr.Err})
				continue
			}
			return report, fmt.Errorf("failed to read CSV: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if first && isHeader(record) {
			continue
		}

		in, err := rowInput(record)
		if err == nil {
			_, err = im.recorder.RecordFor(ctx, id, in)
		}
		switch {
		case err == nil:
			report.Imported++
		case errors.Is(err, gateway.ErrInvalidPayload):
			im.log.Warn().Err(err).Int("line", line).Msg("skipping row")
			report.Skipped = append(report.Skipped, RowError{Line: line, Err: err})
		default:
			return report, fmt.Errorf("line %d: %w", line, err)
		}
	}

	im.log.Info().
		Str("user_id", id.UserID).
		Int("imported", report.Imported).
		Int("skipped", len(report.Skipped)).
		Msg("import finished")
	return report, nil
}

func isHeader(record []string) bool {
	return len(record) >= 2 &&
		strings.EqualFold(strings.TrimSpace(record[0]), Columns[0]) &&
		strings.EqualFold(strings.TrimSpace(record[1]), Columns[1])
}

func rowInput(record []string) (gateway.MealInput, error) {
	field := func(i int) string {
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}
	if len(record) < 2 {
		return gateway.MealInput{}, &gateway.PayloadError{Field: "row", Reason: "needs at least name and sodium_mg"}
	}

	amount, err := json.Marshal(field(1))
	if err != nil {
		return gateway.MealInput{}, err
	}
	return gateway.MealInput{
		Name:       field(0),
		SodiumMG:   amount,
		RecordedAt: field(2),
		Portion:    field(3),
		Source:     model.SourceImport,
	}, nil
}
