package workbook

import (
	"testing"
	"time"
)

func TestCellString(t *testing.T) {
	stamp := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	cases := []struct {
		name string
		cell Cell
		want string
	}{
		{"empty", EmptyCell(), ""},
		{"text", TextCell(" Acme Labs "), " Acme Labs "},
		{"whole number", NumberCell(42), "42"},
		{"fractional number", NumberCell(0.125), "0.125"},
		{"bool", BoolCell(true), "true"},
		{"date", DateCell(stamp), "2025-03-14T09:26:53Z"},
	}
	for _, tc := range cases {
		if got := tc.cell.String(); got != tc.want {
			t.Fatalf("%s: String() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestCellIsEmpty(t *testing.T) {
	if !EmptyCell().IsEmpty() {
		t.Fatal("expected empty cell to report IsEmpty")
	}
	if TextCell("").IsEmpty() {
		t.Fatal("text cell should not report IsEmpty even when blank")
	}
	if NumberCell(0).IsEmpty() {
		t.Fatal("number cell should not report IsEmpty")
	}
}
