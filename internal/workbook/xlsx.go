package workbook

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

var _ Workbook = (*XLSX)(nil)

// XLSX adapts an Office Open XML spreadsheet via excelize.
type XLSX struct {
	file *excelize.File
}

// OpenXLSX opens the workbook at path.
func OpenXLSX(path string) (*XLSX, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	return &XLSX{file: f}, nil
}

// OpenXLSXReader reads a workbook from r.
func OpenXLSXReader(r io.Reader) (*XLSX, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return &XLSX{file: f}, nil
}

// Sheets lists worksheet titles in workbook order.
func (x *XLSX) Sheets() []string { return x.file.GetSheetList() }

// Sheet returns the named worksheet by exact title.
func (x *XLSX) Sheet(name string) (Sheet, bool) {
	for _, title := range x.file.GetSheetList() {
		if title == name {
			return &xlsxSheet{file: x.file, name: name}, true
		}
	}
	return nil, false
}

// Close releases the underlying spreadsheet.
func (x *XLSX) Close() error { return x.file.Close() }

type xlsxSheet struct {
	file *excelize.File
	name string
}

func (s *xlsxSheet) Name() string { return s.name }

func (s *xlsxSheet) Rows() (Cursor, error) {
	rows, err := s.file.Rows(s.name)
	if err != nil {
		return nil, fmt.Errorf("rows %s: %w", s.name, err)
	}
	return &xlsxCursor{rows: rows}, nil
}

type xlsxCursor struct {
	rows *excelize.Rows
}

func (c *xlsxCursor) Next() bool { return c.rows.Next() }

// Columns converts the formatted cell strings excelize yields. Blank and
// absent cells are indistinguishable in that representation; both map to
// EmptyCell.
func (c *xlsxCursor) Columns() ([]Cell, error) {
	raw, err := c.rows.Columns()
	if err != nil {
		return nil, err
	}
	cells := make([]Cell, len(raw))
	for i, v := range raw {
		if v == "" {
			cells[i] = EmptyCell()
			continue
		}
		cells[i] = TextCell(v)
	}
	return cells, nil
}

func (c *xlsxCursor) Close() error { return c.rows.Close() }
