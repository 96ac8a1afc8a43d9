// Package workbook abstracts the tabular input a setup-data import run reads
// from. The import engine consumes the Workbook/Sheet contracts only; the
// xlsx, csv-directory and in-memory adapters live here at the boundary.
package workbook

import (
	"strconv"
	"time"
)

// CellKind enumerates the closed set of raw cell shapes a sheet can yield.
type CellKind uint8

// Raw cell kinds.
const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
	CellBool
	CellDate
)

// Cell is a tagged variant holding one raw worksheet cell. Exactly one
// payload member is meaningful, selected by Kind.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
	Bool   bool
	Date   time.Time
}

// EmptyCell returns the absent-cell value.
func EmptyCell() Cell { return Cell{Kind: CellEmpty} }

// TextCell wraps a raw string cell. Empty strings stay text cells; adapters
// that cannot distinguish blank from absent emit EmptyCell instead.
func TextCell(s string) Cell { return Cell{Kind: CellText, Text: s} }

// NumberCell wraps a numeric cell.
func NumberCell(f float64) Cell { return Cell{Kind: CellNumber, Number: f} }

// BoolCell wraps a boolean cell.
func BoolCell(b bool) Cell { return Cell{Kind: CellBool, Bool: b} }

// DateCell wraps a date cell.
func DateCell(t time.Time) Cell { return Cell{Kind: CellDate, Date: t} }

// IsEmpty reports whether the cell carries no value.
func (c Cell) IsEmpty() bool { return c.Kind == CellEmpty }

// String renders the cell as text. Whole-number cells render without a
// decimal point, dates as RFC 3339.
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case CellBool:
		return strconv.FormatBool(c.Bool)
	case CellDate:
		return c.Date.Format(time.RFC3339)
	default:
		return ""
	}
}
