package workbook

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Open loads a workbook from path. Directories are treated as one CSV file
// per worksheet; files are dispatched on extension.
func Open(path string) (Workbook, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	if info.IsDir() {
		return OpenCSVDir(path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return OpenXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported workbook format %q", filepath.Ext(path))
	}
}
