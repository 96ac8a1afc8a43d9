package setupdata

import (
	"testing"
)

func TestDriversCoverEveryWorksheetOnce(t *testing.T) {
	drivers := Drivers()
	if len(drivers) != 44 {
		t.Fatalf("expected 44 drivers, got %d", len(drivers))
	}
	seen := map[string]bool{}
	for _, d := range drivers {
		sheet := d.Sheet()
		if sheet == "" {
			t.Fatalf("driver %T has no sheet name", d)
		}
		if seen[sheet] {
			t.Fatalf("sheet %q registered twice", sheet)
		}
		seen[sheet] = true
	}
}

// The registration order is the dependency order: entities referenced
// eagerly must already exist when their referrer loads.
func TestDriversDependencyOrder(t *testing.T) {
	position := map[string]int{}
	for i, d := range Drivers() {
		position[d.Sheet()] = i
	}
	before := [][2]string{
		{"Lab Contacts", "Lab Departments"},
		{"Clients", "Client Contacts"},
		{"Container Types", "Containers"},
		{"Preservations", "Containers"},
		{"Suppliers", "Instruments"},
		{"Manufacturers", "Instruments"},
		{"Instrument Types", "Instruments"},
		{"Instruments", "Instrument Calibrations"},
		{"Sample Matrices", "Sample Types"},
		{"Lab Departments", "Analysis Categories"},
		{"Analysis Categories", "Analysis Services"},
		{"Methods", "Analysis Services"},
		{"Calculations", "Analysis Services"},
		{"Analysis Services", "Analysis Specifications"},
		{"Analysis Services", "Analysis Profiles"},
		{"Analysis Services", "Reference Definitions"},
		{"Reference Definitions", "Worksheet Templates"},
		{"Reference Definitions", "Reference Samples"},
		{"Suppliers", "Reference Samples"},
		{"Client Contacts", "Analysis Requests"},
		{"Analysis Services", "Analysis Requests"},
	}
	for _, pair := range before {
		earlier, ok := position[pair[0]]
		if !ok {
			t.Fatalf("sheet %q not registered", pair[0])
		}
		later, ok := position[pair[1]]
		if !ok {
			t.Fatalf("sheet %q not registered", pair[1])
		}
		if earlier >= later {
			t.Fatalf("%q must load before %q", pair[0], pair[1])
		}
	}
}
