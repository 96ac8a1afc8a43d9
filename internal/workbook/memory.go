package workbook

var _ Workbook = (*Memory)(nil)

// Memory is a programmatic workbook for tests and fixtures.
type Memory struct {
	order  []string
	sheets map[string][][]Cell
}

// NewMemory returns an empty in-memory workbook.
func NewMemory() *Memory { return &Memory{sheets: map[string][][]Cell{}} }

// AddSheet stores rows under name, replacing any previous sheet contents.
func (m *Memory) AddSheet(name string, rows ...[]Cell) {
	if _, ok := m.sheets[name]; !ok {
		m.order = append(m.order, name)
	}
	m.sheets[name] = rows
}

// Strings builds a row of text cells; empty strings become empty cells.
func Strings(values ...string) []Cell {
	row := make([]Cell, len(values))
	for i, v := range values {
		if v == "" {
			row[i] = EmptyCell()
			continue
		}
		row[i] = TextCell(v)
	}
	return row
}

// Sheets lists worksheet titles in insertion order.
func (m *Memory) Sheets() []string { return append([]string(nil), m.order...) }

// Sheet returns the named worksheet.
func (m *Memory) Sheet(name string) (Sheet, bool) {
	rows, ok := m.sheets[name]
	if !ok {
		return nil, false
	}
	return &memSheet{name: name, rows: rows}, true
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

type memSheet struct {
	name string
	rows [][]Cell
}

func (s *memSheet) Name() string { return s.name }

func (s *memSheet) Rows() (Cursor, error) {
	return &memCursor{rows: s.rows, idx: -1}, nil
}

type memCursor struct {
	rows [][]Cell
	idx  int
}

func (c *memCursor) Next() bool {
	if c.idx+1 >= len(c.rows) {
		return false
	}
	c.idx++
	return true
}

func (c *memCursor) Columns() ([]Cell, error) {
	return append([]Cell(nil), c.rows[c.idx]...), nil
}

func (c *memCursor) Close() error { return nil }
