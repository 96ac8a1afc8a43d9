package setupdata

import (
	"testing"

	"limscore/internal/workbook"
	"limscore/pkg/domain"
)

func TestSuppliersBankingDetails(t *testing.T) {
	book := workbook.NewMemory()
	addSheet(book, "Suppliers",
		[]string{"Name", "TaxNumber", "AccountNumber", "BankName", "SWIFTcode", "EmailAddress"},
		[]string{"ChemSupply", "555", "12-99", "First Bank", "FIRBZAJJ", "orders@chemsupply.example"},
	)
	run, store := newTestRun(book)
	runDrivers(t, run, Suppliers{})

	supplier := one(t, store, domain.KindSupplier, domain.Filters{"title": "ChemSupply"})
	if got := fieldText(t, supplier, "SWIFTcode"); got != "FIRBZAJJ" {
		t.Fatalf("SWIFTcode = %q", got)
	}
	if got := fieldText(t, supplier, "EmailAddress"); got != "orders@chemsupply.example" {
		t.Fatalf("EmailAddress = %q", got)
	}
}

func TestSupplierContactsRequireSupplier(t *testing.T) {
	book := workbook.NewMemory()
	addSheet(book, "Suppliers",
		[]string{"Name"},
		[]string{"ChemSupply"},
	)
	addSheet(book, "Supplier Contacts",
		[]string{"Supplier_Name", "Firstname", "Surname", "Username", "EmailAddress", "Password"},
		[]string{"ChemSupply", "Piet", "Botha", "piet", "piet@chemsupply.example", "pw"},
		[]string{"Ghost Corp", "No", "Body", "", "", ""},
		[]string{"", "Also", "Dropped", "", "", ""},
	)
	run, store := newTestRun(book)
	runDrivers(t, run, Suppliers{}, SupplierContacts{})

	contacts := mustQuery(t, store, domain.KindSupplierContact, nil)
	if len(contacts) != 1 {
		t.Fatalf("expected 1 supplier contact, got %d", len(contacts))
	}
	supplier := one(t, store, domain.KindSupplier, nil)
	if contacts[0].Parent != supplier.UID {
		t.Fatal("contact must live under its supplier")
	}
	if contacts[0].Title != "Piet Botha" {
		t.Fatalf("title = %q", contacts[0].Title)
	}
}
