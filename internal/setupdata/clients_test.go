package setupdata

import (
	"context"
	"strings"
	"testing"

	"limscore/internal/importer"
	"limscore/internal/workbook"
	"limscore/pkg/domain"
)

func TestClientsLoadsRow(t *testing.T) {
	book := workbook.NewMemory()
	addSheet(book, "Clients",
		[]string{"Name", "ClientID", "MemberDiscountApplies", "BulkDiscount", "TaxNumber", "EmailAddress", "Postal_Address", "Postal_City"},
		[]string{"Happy Hills", "HH", "True", "False", "9001", "info@hh.example", "PO Box 12", "Uitenhage"},
	)
	run, store := newTestRun(book)
	runDrivers(t, run, Clients{})

	client := one(t, store, domain.KindClient, domain.Filters{"ClientID": "HH"})
	if client.Title != "Happy Hills" {
		t.Fatalf("title = %q", client.Title)
	}
	md, ok := client.Field("MemberDiscountApplies")
	if !ok || !md.Bool {
		t.Fatalf("MemberDiscountApplies = %+v ok=%v", md, ok)
	}
	bd, _ := client.Field("BulkDiscount")
	if bd.Bool {
		t.Fatal("BulkDiscount should be false")
	}
	postal, ok := client.Field("PostalAddress")
	if !ok || postal.Record["city"] != "Uitenhage" {
		t.Fatalf("postal address = %+v ok=%v", postal, ok)
	}
}

func TestClientsWithoutNameAborts(t *testing.T) {
	book := workbook.NewMemory()
	addSheet(book, "Clients",
		[]string{"Name", "ClientID"},
		[]string{"", "X1"},
	)
	run, _ := newTestRun(book)
	engine := importer.Engine{Drivers: []importer.Driver{Clients{}}, Dataset: "test"}
	_, err := engine.Execute(context.Background(), run)
	if err == nil || !strings.Contains(err.Error(), "client has no Name") {
		t.Fatalf("expected fatal error, got %v", err)
	}
}

func TestClientsWithoutIDAborts(t *testing.T) {
	book := workbook.NewMemory()
	addSheet(book, "Clients",
		[]string{"Name", "ClientID"},
		[]string{"Happy Hills", ""},
	)
	run, _ := newTestRun(book)
	engine := importer.Engine{Drivers: []importer.Driver{Clients{}}, Dataset: "test"}
	_, err := engine.Execute(context.Background(), run)
	if err == nil || !strings.Contains(err.Error(), `client "Happy Hills" has no ClientID`) {
		t.Fatalf("expected fatal error, got %v", err)
	}
}

func TestClientsDuplicateIDSkipsRow(t *testing.T) {
	book := workbook.NewMemory()
	addSheet(book, "Clients",
		[]string{"Name", "ClientID"},
		[]string{"Happy Hills", "HH"},
		[]string{"Happy Hills Again", "HH"},
	)
	run, store := newTestRun(book)
	runDrivers(t, run, Clients{})

	clients := mustQuery(t, store, domain.KindClient, nil)
	if len(clients) != 1 {
		t.Fatalf("duplicate ClientID must skip, got %d clients", len(clients))
	}
	if clients[0].Title != "Happy Hills" {
		t.Fatalf("first row wins, got %q", clients[0].Title)
	}
}

func TestClientContactsForwardCCReference(t *testing.T) {
	book := workbook.NewMemory()
	addSheet(book, "Clients",
		[]string{"Name", "ClientID"},
		[]string{"Happy Hills", "HH"},
	)
	addSheet(book, "Client Contacts",
		[]string{"Client_title", "Firstname", "Surname", "CCContacts", "PublicationPreference"},
		[]string{"Happy Hills", "Neil", "Standard", "Rita Mohale", "email, print"},
		[]string{"Happy Hills", "Rita", "Mohale", "", ""},
		[]string{"No Such Client", "Lost", "Soul", "", ""},
	)
	run, store := newTestRun(book)
	report := runDrivers(t, run, Clients{}, ClientContacts{})

	contacts := mustQuery(t, store, domain.KindClientContact, nil)
	if len(contacts) != 2 {
		t.Fatalf("row with unknown client must be skipped, got %d contacts", len(contacts))
	}

	client := one(t, store, domain.KindClient, nil)
	neil := one(t, store, domain.KindClientContact, domain.Filters{"Fullname": "Neil Standard"})
	if neil.Parent != client.UID {
		t.Fatal("contact must be created under its client")
	}
	prefs, ok := neil.Field("PublicationPreference")
	if !ok || len(prefs.List) != 2 || prefs.List[0] != "email" || prefs.List[1] != "print" {
		t.Fatalf("publication preference = %+v", prefs)
	}

	// Rita appears after Neil in the sheet, so the CC binding had to wait
	// for the drain.
	rita := one(t, store, domain.KindClientContact, domain.Filters{"Fullname": "Rita Mohale"})
	neil, _ = store.Get(context.Background(), neil.UID)
	cc, ok := neil.Field("CCContact")
	if !ok || len(cc.Refs) != 1 || cc.Refs[0] != rita.UID {
		t.Fatalf("CC contact binding = %+v ok=%v", cc, ok)
	}
	if report.Deferred != 1 {
		t.Fatalf("expected 1 deferred reference, got %d", report.Deferred)
	}
	if report.Unresolved != 0 {
		t.Fatalf("expected no unresolved references, got %d", report.Unresolved)
	}
}
