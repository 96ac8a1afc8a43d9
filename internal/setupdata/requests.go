package setupdata

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"limscore/internal/importer"
	"limscore/pkg/domain"
)

// ReferenceSamples loads control and blank samples under their supplier,
// with expected results gathered from the "Reference Sample Results" sheet.
type ReferenceSamples struct{}

func (ReferenceSamples) Sheet() string { return "Reference Samples" }

func (d ReferenceSamples) Import(ctx context.Context, run *importer.Run) error {
	results := map[string][]domain.Record{}
	err := run.EachRow(ctx, "Reference Sample Results", func(rec importer.Record) error {
		id := rec.Text("ReferenceSample_id")
		if id == "" {
			return nil
		}
		service, err := run.ResolveTitle(ctx, domain.KindAnalysisService, rec.Text("AnalysisService_title"))
		if err != nil {
			if isNotFound(err) {
				run.Log.Warnw("unable to load reference sample result, service not found",
					"sheet", rec.Sheet, "row", rec.Row, "service", rec.Text("AnalysisService_title"))
				return nil
			}
			return err
		}
		results[id] = append(results[id], domain.Record{
			"uid":    service.UID,
			"result": rec.Text("result"),
			"min":    rec.Text("min"),
			"max":    rec.Text("max"),
		})
		return nil
	})
	if err != nil {
		return err
	}

	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		id := rec.Text("id")
		if id == "" {
			return nil
		}
		supplier, err := run.ResolveTitle(ctx, domain.KindSupplier, rec.Text("Supplier_title"))
		if err != nil {
			if isNotFound(err) {
				run.SkipRow(rec, "supplier not found: "+rec.Text("Supplier_title"))
				return nil
			}
			return err
		}
		fields := domain.Values{
			"Blank":            domain.BoolValue(rec.Bool("Blank")),
			"Hazardous":        domain.BoolValue(rec.Bool("Hazardous")),
			"ReferenceResults": domain.RecordsValue(results[id]...),
		}
		copyText(fields, rec, "description", "CatalogueNumber", "LotNumber", "Remarks")
		for _, column := range []string{
			"ExpiryDate", "DateSampled", "DateReceived",
			"DateOpened", "DateExpired", "DateDisposed",
		} {
			setDate(fields, rec, column, column)
		}
		if def := rec.Text("ReferenceDefinition_title"); def != "" {
			if err := refIfFound(ctx, run, fields, "ReferenceDefinition",
				importer.ByTitle(domain.KindReferenceDefinition, def)); err != nil {
				return err
			}
		}
		if man := rec.Text("Manufacturer_title"); man != "" {
			if err := refIfFound(ctx, run, fields, "Manufacturer",
				importer.ByTitle(domain.KindManufacturer, man)); err != nil {
				return err
			}
		}
		_, err = run.Create(ctx, supplier.UID, domain.KindReferenceSample, id, fields)
		return err
	})
}

// AnalysisRequests loads historical sample requests under their client,
// with the requested analyses gathered from the "Analyses" sheet. Rows
// whose client or contact cannot be resolved are skipped, not fatal.
type AnalysisRequests struct{}

func (AnalysisRequests) Sheet() string { return "Analysis Requests" }

func (d AnalysisRequests) Import(ctx context.Context, run *importer.Run) error {
	analyses := map[string][]domain.Record{}
	err := run.EachRow(ctx, "Analyses", func(rec importer.Record) error {
		id := rec.Text("AnalysisRequest_id")
		if id == "" {
			return nil
		}
		service, err := run.ResolveTitle(ctx, domain.KindAnalysisService, rec.Text("AnalysisService_title"))
		if err != nil {
			if isNotFound(err) {
				run.SkipRow(rec, "service not found: "+rec.Text("AnalysisService_title"))
				return nil
			}
			return err
		}
		analysis := domain.Record{
			"uid":         service.UID,
			"result":      rec.Text("Result"),
			"capturedate": rec.Text("ResultCaptureDate"),
			"analyst":     rec.Text("Analyst"),
			"instrument":  rec.Text("Instrument"),
			"retested":    strconv.FormatBool(rec.Bool("Retested")),
		}
		for k, v := range durationRecord(rec, "MaxTimeAllowed") {
			analysis["maxtime_"+k] = v
		}
		analyses[id] = append(analyses[id], analysis)
		return nil
	})
	if err != nil {
		return err
	}

	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		id := rec.Text("id")
		if id == "" {
			return nil
		}
		client, err := run.ResolveTitle(ctx, domain.KindClient, rec.Text("Client_title"))
		if err != nil {
			if isNotFound(err) {
				run.SkipRow(rec, "client not found: "+rec.Text("Client_title"))
				return nil
			}
			return err
		}
		contact, err := run.Resolve(ctx,
			importer.ByField(domain.KindClientContact, "Fullname", rec.Text("Contact_Fullname")))
		if err != nil {
			if isNotFound(err) {
				run.SkipRow(rec, "contact not found: "+rec.Text("Contact_Fullname"))
				return nil
			}
			return err
		}
		fields := domain.Values{
			"RequestID":      domain.TextValue(id),
			"Contact":        domain.RefValue(contact.UID),
			"InvoiceExclude": domain.BoolValue(rec.Bool("InvoiceExclude")),
			"Analyses":       domain.RecordsValue(analyses[id]...),
		}
		copyText(fields, rec, "CCEmails", "ClientOrderNumber", "Remarks")
		setDate(fields, rec, "DateReceived", "DateReceived")
		setDate(fields, rec, "DatePublished", "DatePublished")
		if cc := rec.Text("CCContact_Fullname"); cc != "" {
			if err := refIfFound(ctx, run, fields, "CCContact",
				importer.ByField(domain.KindClientContact, "Fullname", cc)); err != nil {
				return err
			}
		}
		if profile := rec.Text("AnalysisProfile_title"); profile != "" {
			if err := refIfFound(ctx, run, fields, "Profile",
				importer.ByTitle(domain.KindAnalysisProfile, profile)); err != nil {
				return err
			}
		}
		if tmpl := rec.Text("ARTemplate_title"); tmpl != "" {
			if err := refIfFound(ctx, run, fields, "Template",
				importer.ByTitle(domain.KindSampleTemplate, tmpl)); err != nil {
				return err
			}
		}
		_, err = run.Create(ctx, client.UID, domain.KindAnalysisRequest, id, fields)
		return err
	})
}

// InvoiceBatches loads invoice batches. Unlike most sheets, an incomplete
// row here aborts the import: billing periods must never be partial.
type InvoiceBatches struct{}

func (InvoiceBatches) Sheet() string { return "Invoice Batches" }

func (d InvoiceBatches) Import(ctx context.Context, run *importer.Run) error {
	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		title := rec.Text("title")
		if title == "" {
			return errors.New("invoice batch has no Title")
		}
		if rec.Text("start") == "" {
			return fmt.Errorf("invoice batch %q has no Start Date", title)
		}
		if rec.Text("end") == "" {
			return fmt.Errorf("invoice batch %q has no End Date", title)
		}
		fields := domain.Values{}
		setDate(fields, rec, "start", "BatchStartDate")
		setDate(fields, rec, "end", "BatchEndDate")
		copyText(fields, rec, "Project")
		if clientTitle := rec.Text("Client_title"); clientTitle != "" {
			if err := refIfFound(ctx, run, fields, "Client",
				importer.ByTitle(domain.KindClient, clientTitle)); err != nil {
				return err
			}
		}
		_, err := run.Create(ctx, "", domain.KindInvoiceBatch, title, fields)
		return err
	})
}
