package setupdata

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"limscore/internal/importer"
	"limscore/pkg/domain"
)

// InstrumentTypes loads the "Instrument Types" worksheet.
type InstrumentTypes struct{}

func (InstrumentTypes) Sheet() string { return "Instrument Types" }

func (d InstrumentTypes) Import(ctx context.Context, run *importer.Run) error {
	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		title := rec.Text("title")
		if title == "" {
			return nil
		}
		fields := domain.Values{}
		copyText(fields, rec, "description")
		_, err := run.Create(ctx, "", domain.KindInstrumentType, title, fields)
		return err
	})
}

// Instruments loads laboratory instruments. Type, manufacturer and supplier
// are resolved eagerly from the earlier sheets; the method reference is
// deferred because the Methods sheet comes later in the run. The photo and
// installation certificate come from the asset source, and a user manual
// file turns into a document entity under the instrument.
type Instruments struct{}

func (Instruments) Sheet() string { return "Instruments" }

func (d Instruments) Import(ctx context.Context, run *importer.Run) error {
	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		for _, required := range []string{"Type", "Supplier", "Brand"} {
			if _, ok := rec.Cell(required); !ok {
				run.Log.Infow("unable to import instrument, missing supplier, manufacturer or type",
					"sheet", rec.Sheet, "row", rec.Row, "title", rec.Text("title"))
				return nil
			}
		}
		title := rec.Text("title")
		if title == "" {
			return nil
		}
		fields := domain.Values{
			"AssetNumber": domain.TextValue(rec.Text("assetnumber")),
		}
		copyText(fields, rec,
			"description", "Type", "Brand", "Model", "SerialNo",
			"DataInterface", "Location", "UserManualID")
		setDate(fields, rec, "Instalationdate", "InstallationDate")

		refs := []struct {
			field string
			c     importer.Criteria
		}{
			{"InstrumentType", importer.ByTitle(domain.KindInstrumentType, rec.Text("Type"))},
			{"Manufacturer", importer.ByTitle(domain.KindManufacturer, rec.Text("Brand"))},
			{"Supplier", importer.ByTitle(domain.KindSupplier, rec.Text("Supplier"))},
		}
		for _, ref := range refs {
			if err := refIfFound(ctx, run, fields, ref.field, ref.c); err != nil {
				return err
			}
		}

		if photo := rec.Text("Photo"); photo != "" {
			data, _, err := run.Asset(ctx, photo)
			if err != nil {
				run.Log.Warnw("cannot load instrument photo",
					"sheet", rec.Sheet, "row", rec.Row, "file", photo)
			} else {
				fields["Photo"] = domain.FileValue(data)
			}
		}
		if cert := rec.Text("InstalationCertificate"); cert != "" {
			data, _, err := run.Asset(ctx, cert)
			if err != nil {
				run.Log.Warnw("cannot load installation certificate",
					"sheet", rec.Sheet, "row", rec.Row, "file", cert)
			} else {
				fields["InstallationCertificate"] = domain.FileValue(data)
			}
		}

		instrument, err := run.Create(ctx, "", domain.KindInstrument, title, fields)
		if err != nil {
			return err
		}

		if method := rec.Text("Method"); method != "" {
			run.Defer(instrument.UID, "Method", importer.ByTitle(domain.KindMethod, method))
			run.DeferMulti(instrument.UID, "Methods", importer.ByTitle(domain.KindMethod, method))
		}

		if manual := rec.Text("UserManualFile"); manual != "" {
			id := rec.Text("UserManualID")
			if id == "" {
				id = "manual"
			}
			return addInstrumentDocument(ctx, run, rec, instrument.UID, instrumentDocument{
				ID: id, Type: "Manual", File: manual,
			})
		}
		return nil
	})
}

// instrumentDocument carries the metadata of one document attached to an
// instrument.
type instrumentDocument struct {
	ID       string
	Version  string
	Location string
	Type     string
	File     string
}

// addInstrumentDocument stores a document entity under an instrument. The
// document identifier must be unique across all instrument documents; a
// duplicate keeps the existing one and logs a warning. A file that cannot
// be fetched still creates the document, just without content.
func addInstrumentDocument(ctx context.Context, run *importer.Run, rec importer.Record, instrumentUID string, doc instrumentDocument) error {
	if doc.File == "" {
		return nil
	}
	if doc.ID != "" {
		existing, err := run.Repo.Query(ctx, domain.KindInstrumentDocument,
			domain.Filters{"DocumentID": doc.ID})
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			run.Log.Warnw("document ID already in use, file not uploaded",
				"sheet", rec.Sheet, "row", rec.Row, "document_id", doc.ID)
			return nil
		}
	}
	fields := domain.Values{
		"DocumentID":       domain.TextValue(doc.ID),
		"DocumentVersion":  domain.TextValue(doc.Version),
		"DocumentLocation": domain.TextValue(doc.Location),
		"DocumentType":     domain.TextValue(doc.Type),
	}
	data, _, err := run.Asset(ctx, doc.File)
	if err != nil {
		run.Log.Warnw("cannot load instrument document",
			"sheet", rec.Sheet, "row", rec.Row, "file", doc.File)
	} else {
		fields["File"] = domain.FileValue(data)
	}
	title := doc.ID
	if title == "" {
		title = doc.File
	}
	_, err = run.Create(ctx, instrumentUID, domain.KindInstrumentDocument, title, fields)
	return err
}

// resolveInstrument finds the parent instrument named in the lowercase
// "instrument" column, skipping the row when it does not exist.
func resolveInstrument(ctx context.Context, run *importer.Run, rec importer.Record) (domain.Entity, bool, error) {
	instrument, err := run.ResolveTitle(ctx, domain.KindInstrument, rec.Text("instrument"))
	if err != nil {
		if isNotFound(err) {
			run.SkipRow(rec, "instrument not found: "+rec.Text("instrument"))
			return domain.Entity{}, false, nil
		}
		return domain.Entity{}, false, err
	}
	return instrument, true, nil
}

// contactRef resolves a lab contact by full name and stores the reference
// when found. The maintenance sheets name workers by their display name,
// not their username.
func contactRef(ctx context.Context, run *importer.Run, fields domain.Values, field, name string) error {
	if name == "" {
		return nil
	}
	matches, err := run.Repo.Query(ctx, domain.KindLabContact, domain.Filters{"Fullname": name})
	if err != nil {
		return err
	}
	if len(matches) > 0 {
		fields[field] = domain.RefValue(matches[0].UID)
	}
	return nil
}

// InstrumentValidations loads validation records under their instrument.
type InstrumentValidations struct{}

func (InstrumentValidations) Sheet() string { return "Instrument Validations" }

func (d InstrumentValidations) Import(ctx context.Context, run *importer.Run) error {
	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		title := rec.Text("title")
		if rec.Text("instrument") == "" || title == "" {
			return nil
		}
		instrument, ok, err := resolveInstrument(ctx, run, rec)
		if err != nil || !ok {
			return err
		}
		fields := domain.Values{
			"DownFrom":       domain.TextValue(rec.Text("downfrom")),
			"DownTo":         domain.TextValue(rec.Text("downto")),
			"Validator":      domain.TextValue(rec.Text("validator")),
			"Considerations": domain.TextValue(rec.Text("considerations")),
			"WorkPerformed":  domain.TextValue(rec.Text("workperformed")),
			"Remarks":        domain.TextValue(rec.Text("remarks")),
		}
		copyText(fields, rec, "ReportID")
		setDate(fields, rec, "DateIssued", "DateIssued")
		if err := contactRef(ctx, run, fields, "Worker", rec.Text("Worker")); err != nil {
			return err
		}
		_, err = run.Create(ctx, instrument.UID, domain.KindInstrumentValidation, title, fields)
		return err
	})
}

// InstrumentCalibrations loads calibration records under their instrument.
type InstrumentCalibrations struct{}

func (InstrumentCalibrations) Sheet() string { return "Instrument Calibrations" }

func (d InstrumentCalibrations) Import(ctx context.Context, run *importer.Run) error {
	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		title := rec.Text("title")
		if rec.Text("instrument") == "" || title == "" {
			return nil
		}
		instrument, ok, err := resolveInstrument(ctx, run, rec)
		if err != nil || !ok {
			return err
		}
		fields := domain.Values{
			"DownFrom":       domain.TextValue(rec.Text("downfrom")),
			"DownTo":         domain.TextValue(rec.Text("downto")),
			"Calibrator":     domain.TextValue(rec.Text("calibrator")),
			"Considerations": domain.TextValue(rec.Text("considerations")),
			"WorkPerformed":  domain.TextValue(rec.Text("workperformed")),
			"Remarks":        domain.TextValue(rec.Text("remarks")),
		}
		copyText(fields, rec, "ReportID")
		setDate(fields, rec, "DateIssued", "DateIssued")
		if err := contactRef(ctx, run, fields, "Worker", rec.Text("Worker")); err != nil {
			return err
		}
		_, err = run.Create(ctx, instrument.UID, domain.KindInstrumentCalibration, title, fields)
		return err
	})
}

// InstrumentCertifications loads certification records under their
// instrument. Missing validity dates default to a one-year window starting
// today, and the certificate report is attached from the asset source.
type InstrumentCertifications struct{}

func (InstrumentCertifications) Sheet() string { return "Instrument Certifications" }

func (d InstrumentCertifications) Import(ctx context.Context, run *importer.Run) error {
	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		title := rec.Text("title")
		if rec.Text("instrument") == "" || title == "" {
			return nil
		}
		instrument, ok, err := resolveInstrument(ctx, run, rec)
		if err != nil || !ok {
			return err
		}
		validFrom, ok := rec.Date("validfrom")
		if !ok {
			validFrom = time.Now()
		}
		validTo, ok := rec.Date("validto")
		if !ok {
			validTo = time.Now().AddDate(1, 0, 0)
		}
		fields := domain.Values{
			"AssetNumber": domain.TextValue(rec.Text("assetnumber")),
			"Agency":      domain.TextValue(rec.Text("agency")),
			"Remarks":     domain.TextValue(rec.Text("remarks")),
			"Internal":    domain.BoolValue(rec.Bool("Internal")),
			"ValidFrom":   domain.DateValue(validFrom),
			"ValidTo":     domain.DateValue(validTo),
		}
		setDate(fields, rec, "date", "Date")
		if report := rec.Text("report"); report != "" {
			data, _, err := run.Asset(ctx, report)
			if err != nil {
				run.Log.Warnw("cannot load certification report",
					"sheet", rec.Sheet, "row", rec.Row, "file", report)
			} else {
				fields["Document"] = domain.FileValue(data)
			}
		}
		if err := contactRef(ctx, run, fields, "Preparator", rec.Text("preparedby")); err != nil {
			return err
		}
		if err := contactRef(ctx, run, fields, "Validator", rec.Text("approvedby")); err != nil {
			return err
		}
		_, err = run.Create(ctx, instrument.UID, domain.KindInstrumentCertification, title, fields)
		return err
	})
}

// InstrumentDocuments attaches standalone document files to instruments.
type InstrumentDocuments struct{}

func (InstrumentDocuments) Sheet() string { return "Instrument Documents" }

func (d InstrumentDocuments) Import(ctx context.Context, run *importer.Run) error {
	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		if rec.Text("instrument") == "" {
			return nil
		}
		instrument, ok, err := resolveInstrument(ctx, run, rec)
		if err != nil || !ok {
			return err
		}
		return addInstrumentDocument(ctx, run, rec, instrument.UID, instrumentDocument{
			ID:       rec.Text("DocumentID"),
			Version:  rec.Text("DocumentVersion"),
			Location: rec.Text("DocumentLocation"),
			Type:     rec.Text("DocumentType"),
			File:     rec.Text("File"),
		})
	})
}

// InstrumentMaintenanceTasks loads maintenance tasks under their
// instrument. The cost is reformatted to two decimals when numeric and kept
// verbatim otherwise.
type InstrumentMaintenanceTasks struct{}

func (InstrumentMaintenanceTasks) Sheet() string { return "Instrument Maintenance Tasks" }

func (d InstrumentMaintenanceTasks) Import(ctx context.Context, run *importer.Run) error {
	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		title := rec.Text("title")
		if rec.Text("instrument") == "" || title == "" || rec.Text("type") == "" {
			return nil
		}
		instrument, ok, err := resolveInstrument(ctx, run, rec)
		if err != nil || !ok {
			return err
		}
		cost := rec.Text("cost")
		if f := rec.FloatOr("cost", math.NaN()); !math.IsNaN(f) {
			cost = fmt.Sprintf("%.2f", f)
		}
		fields := domain.Values{
			"Type":           domain.TextValue(rec.Text("type")),
			"DownFrom":       domain.TextValue(rec.Text("downfrom")),
			"DownTo":         domain.TextValue(rec.Text("downto")),
			"Maintainer":     domain.TextValue(rec.Text("maintaner")),
			"Considerations": domain.TextValue(rec.Text("considerations")),
			"WorkPerformed":  domain.TextValue(rec.Text("workperformed")),
			"Remarks":        domain.TextValue(rec.Text("remarks")),
			"Cost":           domain.TextValue(cost),
			"Closed":         domain.BoolValue(rec.Bool("closed")),
		}
		copyText(fields, rec, "description")
		_, err = run.Create(ctx, instrument.UID, domain.KindInstrumentMaintenanceTask, title, fields)
		return err
	})
}

// InstrumentSchedule loads scheduled tasks under their instrument. The
// repeat criteria collapse into a single schedule record.
type InstrumentSchedule struct{}

func (InstrumentSchedule) Sheet() string { return "Instrument Schedule" }

func (d InstrumentSchedule) Import(ctx context.Context, run *importer.Run) error {
	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		title := rec.Text("title")
		if rec.Text("instrument") == "" || title == "" || rec.Text("type") == "" {
			return nil
		}
		instrument, ok, err := resolveInstrument(ctx, run, rec)
		if err != nil || !ok {
			return err
		}
		repeats := rec.IntOr("numrepeats", 0)
		repeatUntil := rec.Text("repeatuntil")
		criteria := domain.Record{
			"fromenabled":        strconv.FormatBool(rec.Text("date") != ""),
			"fromdate":           rec.Text("date"),
			"repeatenabled":      strconv.FormatBool(repeats > 1 || repeatUntil != ""),
			"repeatunit":         rec.Text("numrepeats"),
			"repeatperiod":       rec.Text("periodicity"),
			"repeatuntilenabled": strconv.FormatBool(repeatUntil != ""),
			"repeatuntil":        repeatUntil,
		}
		fields := domain.Values{
			"Type":             domain.TextValue(rec.Text("type")),
			"ScheduleCriteria": domain.RecordsValue(criteria),
			"Considerations":   domain.TextValue(rec.Text("considerations")),
		}
		_, err = run.Create(ctx, instrument.UID, domain.KindInstrumentScheduledTask, title, fields)
		return err
	})
}
