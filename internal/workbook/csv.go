package workbook

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var _ Workbook = (*CSVDir)(nil)

// CSVDir adapts a directory of "<sheet title>.csv" files. File base names
// (minus the extension) become worksheet titles; titles are listed in
// lexical order.
type CSVDir struct {
	root   string
	titles []string
	paths  map[string]string
}

// OpenCSVDir scans root for .csv files.
func OpenCSVDir(root string) (*CSVDir, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("open csv workbook %s: %w", root, err)
	}
	wb := &CSVDir{root: root, paths: map[string]string{}}
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		title := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		wb.titles = append(wb.titles, title)
		wb.paths[title] = filepath.Join(root, entry.Name())
	}
	if len(wb.titles) == 0 {
		return nil, fmt.Errorf("no .csv worksheets under %s", root)
	}
	sort.Strings(wb.titles)
	return wb, nil
}

// Sheets lists worksheet titles in lexical order.
func (w *CSVDir) Sheets() []string { return append([]string(nil), w.titles...) }

// Sheet returns the named worksheet by exact title.
func (w *CSVDir) Sheet(name string) (Sheet, bool) {
	path, ok := w.paths[name]
	if !ok {
		return nil, false
	}
	return &csvSheet{name: name, path: path}, true
}

// Close is a no-op; files are opened per cursor.
func (w *CSVDir) Close() error { return nil }

type csvSheet struct {
	name string
	path string
}

func (s *csvSheet) Name() string { return s.name }

func (s *csvSheet) Rows() (Cursor, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open sheet %s: %w", s.name, err)
	}
	r := csv.NewReader(f)
	// Ragged rows are normal in setup sheets; the normalizer pads and trims.
	r.FieldsPerRecord = -1
	return &csvCursor{file: f, reader: r}, nil
}

type csvCursor struct {
	file   *os.File
	reader *csv.Reader
	record []string
	err    error
}

// Next stages the following row. Read errors other than EOF are surfaced by
// the subsequent Columns call.
func (c *csvCursor) Next() bool {
	record, err := c.reader.Read()
	if errors.Is(err, io.EOF) {
		return false
	}
	if err != nil {
		c.record, c.err = nil, err
		return true
	}
	c.record, c.err = record, nil
	return true
}

func (c *csvCursor) Columns() ([]Cell, error) {
	if c.err != nil {
		return nil, c.err
	}
	cells := make([]Cell, len(c.record))
	for i, v := range c.record {
		if v == "" {
			cells[i] = EmptyCell()
			continue
		}
		cells[i] = TextCell(v)
	}
	return cells, nil
}

func (c *csvCursor) Close() error { return c.file.Close() }
