package setupdata

import (
	"context"
	"testing"
	"time"

	"limscore/internal/assets"
	"limscore/internal/importer"
	"limscore/internal/infra/persistence/memory"
	"limscore/internal/workbook"
	"limscore/pkg/domain"
)

func seedInstrument(t *testing.T, store *memory.Store, title string) domain.Entity {
	t.Helper()
	instrument, err := store.Create(context.Background(), "", domain.KindInstrument, title, domain.Values{})
	if err != nil {
		t.Fatalf("seed instrument: %v", err)
	}
	return instrument
}

func TestInstrumentsResolveRefsAndDeferMethod(t *testing.T) {
	book := workbook.NewMemory()
	addSheet(book, "Instrument Types",
		[]string{"title"},
		[]string{"Mass Spectrometer"},
	)
	addSheet(book, "Manufacturers",
		[]string{"title"},
		[]string{"Agilent"},
	)
	addSheet(book, "Suppliers",
		[]string{"Name"},
		[]string{"ChemSupply"},
	)
	addSheet(book, "Instruments",
		[]string{"title", "Type", "Brand", "Supplier", "Model", "assetnumber", "Instalationdate", "Method"},
		[]string{"ICP-MS 01", "Mass Spectrometer", "Agilent", "ChemSupply", "7900", "A-17", "2024-06-30", "Metals Screen"},
	)
	addSheet(book, "Methods",
		[]string{"title", "description"},
		[]string{"Metals Screen", "ICP-MS metals panel"},
	)
	run, store := newTestRun(book)
	runDrivers(t, run, InstrumentTypes{}, Manufacturers{}, Suppliers{}, Instruments{}, Methods{})

	itype := one(t, store, domain.KindInstrumentType, nil)
	maker := one(t, store, domain.KindManufacturer, nil)
	supplier := one(t, store, domain.KindSupplier, nil)
	method := one(t, store, domain.KindMethod, nil)

	instrument := one(t, store, domain.KindInstrument, domain.Filters{"title": "ICP-MS 01"})
	if fieldRef(t, instrument, "InstrumentType") != itype.UID {
		t.Fatal("instrument type not resolved")
	}
	if fieldRef(t, instrument, "Manufacturer") != maker.UID {
		t.Fatal("manufacturer not resolved from Brand")
	}
	if fieldRef(t, instrument, "Supplier") != supplier.UID {
		t.Fatal("supplier not resolved")
	}
	if got := fieldText(t, instrument, "AssetNumber"); got != "A-17" {
		t.Fatalf("asset number = %q", got)
	}
	installed, ok := instrument.Field("InstallationDate")
	if !ok || installed.Date == nil || installed.Date.Year() != 2024 {
		t.Fatalf("installation date = %+v ok=%v", installed, ok)
	}

	// The Methods sheet loads after Instruments, so the method binding only
	// exists because it went through the deferred queue.
	if fieldRef(t, instrument, "Method") != method.UID {
		t.Fatal("deferred method reference did not land")
	}
	methods, ok := instrument.Field("Methods")
	if !ok || len(methods.Refs) != 1 || methods.Refs[0] != method.UID {
		t.Fatalf("methods list = %+v ok=%v", methods, ok)
	}
}

func TestInstrumentsMissingRequiredHeaderSkipsSheet(t *testing.T) {
	book := workbook.NewMemory()
	addSheet(book, "Instruments",
		[]string{"title", "Type", "Brand"}, // no Supplier column
		[]string{"ICP-MS 01", "Mass Spectrometer", "Agilent"},
	)
	run, store := newTestRun(book)
	runDrivers(t, run, Instruments{})

	if got := mustQuery(t, store, domain.KindInstrument, nil); len(got) != 0 {
		t.Fatalf("rows without the required columns must be dropped, got %d", len(got))
	}
}

func TestInstrumentUserManualBecomesDocument(t *testing.T) {
	book := workbook.NewMemory()
	addSheet(book, "Instruments",
		[]string{"title", "Type", "Brand", "Supplier", "UserManualID", "UserManualFile"},
		[]string{"HPLC-02", "", "", "", "MAN-7", "manual"},
	)
	source := assets.NewMemory()
	source.Add("manual.pdf", []byte("pages"))
	store := memory.NewStore()
	run := importer.NewRun(book, store, source, nil, nil)
	runDrivers(t, run, Instruments{})

	doc := one(t, store, domain.KindInstrumentDocument, domain.Filters{"DocumentID": "MAN-7"})
	instrument := one(t, store, domain.KindInstrument, nil)
	if doc.Parent != instrument.UID {
		t.Fatal("manual must live under its instrument")
	}
	if got := fieldText(t, doc, "DocumentType"); got != "Manual" {
		t.Fatalf("document type = %q", got)
	}
	file, ok := doc.Field("File")
	if !ok || string(file.File) != "pages" {
		t.Fatalf("file = %+v ok=%v", file, ok)
	}
}

func TestInstrumentDocumentsDuplicateID(t *testing.T) {
	store := memory.NewStore()
	seedInstrument(t, store, "HPLC-02")

	book := workbook.NewMemory()
	addSheet(book, "Instrument Documents",
		[]string{"instrument", "DocumentID", "DocumentVersion", "DocumentLocation", "DocumentType", "File"},
		[]string{"HPLC-02", "SOP-1", "2", "Shelf 3", "Procedure", "sop1"},
		[]string{"HPLC-02", "SOP-1", "3", "Shelf 4", "Procedure", "sop1b"},
		[]string{"Ghost", "SOP-2", "", "", "", "sop2"},
	)
	run := importer.NewRun(book, store, nil, nil, nil)
	runDrivers(t, run, InstrumentDocuments{})

	docs := mustQuery(t, store, domain.KindInstrumentDocument, nil)
	if len(docs) != 1 {
		t.Fatalf("duplicate document ID and unknown instrument must be dropped, got %d", len(docs))
	}
	if got := fieldText(t, docs[0], "DocumentVersion"); got != "2" {
		t.Fatalf("the first document wins, version = %q", got)
	}
	// The file was missing from the asset source but the document survives.
	if _, ok := docs[0].Field("File"); ok {
		t.Fatal("missing file must not set the File field")
	}
}

func TestInstrumentCertificationsDefaultValidity(t *testing.T) {
	store := memory.NewStore()
	seedInstrument(t, store, "ICP-MS 01")

	book := workbook.NewMemory()
	addSheet(book, "Instrument Certifications",
		[]string{"instrument", "title", "agency", "Internal", "validfrom", "validto"},
		[]string{"ICP-MS 01", "Annual Service", "SANAS", "True", "", ""},
	)
	run := importer.NewRun(book, store, nil, nil, nil)
	runDrivers(t, run, InstrumentCertifications{})

	cert := one(t, store, domain.KindInstrumentCertification, nil)
	from, _ := cert.Field("ValidFrom")
	to, _ := cert.Field("ValidTo")
	if from.Date == nil || to.Date == nil {
		t.Fatal("validity window must default when the cells are blank")
	}
	window := to.Date.Sub(*from.Date)
	if window < 360*24*time.Hour || window > 370*24*time.Hour {
		t.Fatalf("default validity window should be one year, got %v", window)
	}
	internal, _ := cert.Field("Internal")
	if !internal.Bool {
		t.Fatal("Internal should parse as true")
	}
}

func TestInstrumentValidationsWorkerByFullname(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedInstrument(t, store, "ICP-MS 01")
	worker, err := store.Create(ctx, "", domain.KindLabContact, "Rita Mo",
		domain.Values{"Fullname": domain.TextValue("Rita Mo")})
	if err != nil {
		t.Fatalf("seed contact: %v", err)
	}

	book := workbook.NewMemory()
	addSheet(book, "Instrument Validations",
		[]string{"instrument", "title", "downfrom", "downto", "validator", "Worker", "DateIssued"},
		[]string{"ICP-MS 01", "Q1 Validation", "2025-01-10", "2025-01-12", "Veritas", "Rita Mo", "2025-01-13"},
	)
	run := importer.NewRun(book, store, nil, nil, nil)
	runDrivers(t, run, InstrumentValidations{})

	validation := one(t, store, domain.KindInstrumentValidation, nil)
	if got := fieldText(t, validation, "Validator"); got != "Veritas" {
		t.Fatalf("validator = %q", got)
	}
	if fieldRef(t, validation, "Worker") != worker.UID {
		t.Fatal("worker must resolve by full name")
	}
	issued, ok := validation.Field("DateIssued")
	if !ok || issued.Date == nil {
		t.Fatalf("date issued = %+v ok=%v", issued, ok)
	}
}

func TestInstrumentMaintenanceCostFormatting(t *testing.T) {
	store := memory.NewStore()
	seedInstrument(t, store, "ICP-MS 01")

	book := workbook.NewMemory()
	addSheet(book, "Instrument Maintenance Tasks",
		[]string{"instrument", "title", "type", "cost", "maintaner", "closed"},
		[]string{"ICP-MS 01", "Pump refit", "preventive", "150", "Rita Mo", "True"},
		[]string{"ICP-MS 01", "Lens clean", "preventive", "on request", "", "False"},
	)
	run := importer.NewRun(book, store, nil, nil, nil)
	runDrivers(t, run, InstrumentMaintenanceTasks{})

	refit := one(t, store, domain.KindInstrumentMaintenanceTask, domain.Filters{"title": "Pump refit"})
	if got := fieldText(t, refit, "Cost"); got != "150.00" {
		t.Fatalf("numeric cost should render with two decimals, got %q", got)
	}
	if got := fieldText(t, refit, "Maintainer"); got != "Rita Mo" {
		t.Fatalf("maintainer = %q", got)
	}
	closed, _ := refit.Field("Closed")
	if !closed.Bool {
		t.Fatal("closed flag should be true")
	}

	clean := one(t, store, domain.KindInstrumentMaintenanceTask, domain.Filters{"title": "Lens clean"})
	if got := fieldText(t, clean, "Cost"); got != "on request" {
		t.Fatalf("non-numeric cost stays verbatim, got %q", got)
	}
}

func TestInstrumentScheduleCriteria(t *testing.T) {
	store := memory.NewStore()
	seedInstrument(t, store, "ICP-MS 01")

	book := workbook.NewMemory()
	addSheet(book, "Instrument Schedule",
		[]string{"instrument", "title", "type", "date", "numrepeats", "periodicity", "repeatuntil"},
		[]string{"ICP-MS 01", "Monthly check", "preventive", "2025-02-01", "4", "monthly", ""},
	)
	run := importer.NewRun(book, store, nil, nil, nil)
	runDrivers(t, run, InstrumentSchedule{})

	task := one(t, store, domain.KindInstrumentScheduledTask, nil)
	criteria, ok := task.Field("ScheduleCriteria")
	if !ok || len(criteria.Records) != 1 {
		t.Fatalf("schedule criteria = %+v ok=%v", criteria, ok)
	}
	rec := criteria.Records[0]
	if rec["fromenabled"] != "true" || rec["fromdate"] != "2025-02-01" {
		t.Fatalf("from criteria = %+v", rec)
	}
	if rec["repeatenabled"] != "true" || rec["repeatunit"] != "4" || rec["repeatperiod"] != "monthly" {
		t.Fatalf("repeat criteria = %+v", rec)
	}
	if rec["repeatuntilenabled"] != "false" {
		t.Fatalf("repeat-until should be disabled, got %+v", rec)
	}
}
