package importer

import (
	"strconv"
	"strings"
	"time"
)

// ParseBool reads a worksheet boolean. "true" in any case and the integer 1
// count as true; everything else, including blanks and unparseable text, is
// false.
func ParseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "true" {
		return true
	}
	n, err := strconv.Atoi(s)
	return err == nil && n == 1
}

// ParseIntOr reads an integer cell, returning def when the value does not
// parse. Parsing never signals failure through an error.
func ParseIntOr(s string, def int64) int64 {
	if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
		return n
	}
	return def
}

// ParseFloatOr reads a numeric cell, returning def when the value does not
// parse.
func ParseFloatOr(s string, def float64) float64 {
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return f
	}
	return def
}

// dateLayouts lists the cell formats seen in setup workbooks, most specific
// first.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

// ParseDate reads a date cell rendered as text. The second return is false
// when no known layout matches.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
