package importer

import (
	"strings"
	"time"

	"limscore/internal/workbook"
	"limscore/pkg/domain"
)

// addressCategories are the column-name prefixes exploded into nested
// address maps by the normalizer. CountryState is assembled later by
// FillAddressFields and is not a normalizer category.
var addressCategories = []string{"Physical", "Postal", "Billing"}

// addressKeys are the sub-columns of one address category, stored under
// their lowercase names.
var addressKeys = []string{"Address", "City", "State", "District", "Zip", "Country"}

// Record is one normalized worksheet row: header name to trimmed cell,
// plus the exploded address categories. Records are built once per row and
// must not be mutated by consumers.
type Record struct {
	Sheet string
	Row   int // physical row number, 1-based

	cells map[string]workbook.Cell
	addrs map[string]domain.Record
}

func newRecord(sheet string, row int, headers []string, cols []workbook.Cell) Record {
	cells := make(map[string]workbook.Cell, len(headers))
	for i, header := range headers {
		if header == "" {
			continue
		}
		cell := workbook.EmptyCell()
		if i < len(cols) {
			cell = cols[i]
		}
		if cell.Kind == workbook.CellText {
			trimmed := strings.Trim(cell.Text, " \t\n\r")
			if trimmed == "" {
				cell = workbook.EmptyCell()
			} else {
				cell = workbook.TextCell(trimmed)
			}
		}
		cells[header] = cell
	}

	addrs := make(map[string]domain.Record, len(addressCategories))
	for _, category := range addressCategories {
		sub := domain.Record{}
		if _, ok := cells[category+"_Address"]; ok {
			for _, key := range addressKeys {
				sub[strings.ToLower(key)] = cells[category+"_"+key].String()
			}
		}
		addrs[category] = sub
	}
	return Record{Sheet: sheet, Row: row, cells: cells, addrs: addrs}
}

// RecordFromPairs builds a synthetic record from a Field/Value map, as
// produced by the vertical singleton sheets (Lab Information, Setup).
// Values are trimmed like regular cells so the field-fill helpers work on
// the result.
func RecordFromPairs(sheet string, pairs map[string]string) Record {
	headers := make([]string, 0, len(pairs))
	cols := make([]workbook.Cell, 0, len(pairs))
	for field, value := range pairs {
		headers = append(headers, field)
		cols = append(cols, workbook.TextCell(value))
	}
	return newRecord(sheet, 0, headers, cols)
}

// Cell returns the raw cell for a header, reporting whether the header
// exists on this sheet.
func (r Record) Cell(name string) (workbook.Cell, bool) {
	c, ok := r.cells[name]
	return c, ok
}

// Text returns the trimmed textual value for a header, or "" when the
// header is absent or the cell is empty.
func (r Record) Text(name string) string {
	return r.cells[name].String()
}

// Bool reads a boolean cell; see ParseBool for the accepted spellings.
func (r Record) Bool(name string) bool {
	cell := r.cells[name]
	if cell.Kind == workbook.CellBool {
		return cell.Bool
	}
	return ParseBool(cell.String())
}

// IntOr reads an integer cell, returning def when it does not parse.
func (r Record) IntOr(name string, def int64) int64 {
	cell := r.cells[name]
	if cell.Kind == workbook.CellNumber {
		return int64(cell.Number)
	}
	return ParseIntOr(cell.String(), def)
}

// FloatOr reads a numeric cell, returning def when it does not parse.
func (r Record) FloatOr(name string, def float64) float64 {
	cell := r.cells[name]
	if cell.Kind == workbook.CellNumber {
		return cell.Number
	}
	return ParseFloatOr(cell.String(), def)
}

// Date reads a date cell, either natively typed or rendered as text. The
// second return is false when the cell is absent or unparseable.
func (r Record) Date(name string) (time.Time, bool) {
	cell := r.cells[name]
	if cell.Kind == workbook.CellDate {
		return cell.Date, true
	}
	return ParseDate(cell.String())
}

// Address returns the exploded sub-map for one of the recognized
// categories (Physical, Postal, Billing). The map carries all six
// lowercase keys when the category's Address column exists on the sheet,
// and is empty otherwise. Callers must not modify it.
func (r Record) Address(category string) domain.Record {
	return r.addrs[category]
}
