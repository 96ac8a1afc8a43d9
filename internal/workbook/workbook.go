package workbook

// Workbook is a collection of named worksheets. Sheet lookup is by exact
// title; a missing sheet is reported with false, never an error.
type Workbook interface {
	// Sheets lists worksheet titles in workbook order.
	Sheets() []string
	// Sheet returns the named worksheet, or false when absent.
	Sheet(name string) (Sheet, bool)
	// Close releases any underlying resources.
	Close() error
}

// Sheet is a source of raw rows. Each Rows call returns a fresh forward-only
// cursor positioned before the first row.
type Sheet interface {
	Name() string
	Rows() (Cursor, error)
}

// Cursor iterates rows one at a time. Next advances and reports whether a
// row is available; Columns returns the current row's cells. Callers must
// Close the cursor when done.
type Cursor interface {
	Next() bool
	Columns() ([]Cell, error)
	Close() error
}
