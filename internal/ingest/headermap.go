// Package ingest implements the LLM-assisted spreadsheet header-mapping
// pass of §6.3: headers are free-form and unknown a priori, so the
// canonical field set is recovered by sampling a few rows and asking a
// text LLM to assign each field its source column.
package ingest

import (
	"context"
	"strings"

	"github.com/tealeg/xlsx/v2"

	"github.com/catalogforge/enrichment-engine/internal/apperr"
	"github.com/catalogforge/enrichment-engine/internal/providers"
)

// sampleRowCount is how many data rows, beyond the header, are sent to
// the LLM alongside the header row (§6.3: "first three rows").
const sampleRowCount = 3

// ColumnIndex is a HeaderMapping resolved to zero-based column indexes
// into a sheet's rows, the form row-by-row ingestion actually consumes.
type ColumnIndex struct {
	Name        int
	Phone       int
	Address     int
	City        int
	State       int
	Zip         int
	Document    int
	ServiceType int
}

// ReadSheet loads the first sheet of an .xlsx workbook into a header row
// plus data rows of cell strings. Legacy .xls workbooks and CSV files are
// not read.
func ReadSheet(path string) (header []string, rows [][]string, err error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, nil, apperr.Wrap(err, apperr.ParseError, "failed to open ingest workbook")
	}
	if len(f.Sheets) == 0 {
		return nil, nil, apperr.New(apperr.ParseError, "ingest workbook has no sheets")
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, nil, apperr.New(apperr.ParseError, "ingest sheet has no rows")
	}

	header = cellStrings(sheet.Rows[0])
	for _, r := range sheet.Rows[1:] {
		rows = append(rows, cellStrings(r))
	}
	return header, rows, nil
}

func cellStrings(row *xlsx.Row) []string {
	out := make([]string, len(row.Cells))
	for i, c := range row.Cells {
		out[i] = strings.TrimSpace(c.String())
	}
	return out
}

// MapHeaders submits the header row and up to sampleRowCount data rows
// to llm and resolves the response onto column indexes of header. Only
// "document" is required (§6.3); every other missing field resolves
// to -1.
func MapHeaders(ctx context.Context, llm providers.TextLLM, header []string, rows [][]string) (ColumnIndex, error) {
	sample := rows
	if len(sample) > sampleRowCount {
		sample = sample[:sampleRowCount]
	}

	res := llm.MapHeaders(ctx, header, sample)
	if !res.Ok {
		return ColumnIndex{}, res.Err
	}

	idx := ColumnIndex{
		Name:        columnFor(header, res.Value.Name),
		Phone:       columnFor(header, res.Value.Phone),
		Address:     columnFor(header, res.Value.Address),
		City:        columnFor(header, res.Value.City),
		State:       columnFor(header, res.Value.State),
		Zip:         columnFor(header, res.Value.Zip),
		Document:    columnFor(header, res.Value.Document),
		ServiceType: columnFor(header, res.Value.ServiceType),
	}
	if idx.Document < 0 {
		return idx, apperr.New(apperr.InvalidInput, "header mapping could not identify a document column")
	}
	return idx, nil
}

func columnFor(header []string, name string) int {
	if name == "" {
		return -1
	}
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// RowValue reads idx out of a data row, returning "" for an unmapped
// (-1) or out-of-range column instead of panicking on ragged rows.
func RowValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
