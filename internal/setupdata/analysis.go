package setupdata

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"limscore/internal/importer"
	"limscore/pkg/domain"
)

// AnalysisCategories loads analysis categories; the department reference is
// required and misses skip the row.
type AnalysisCategories struct{}

func (AnalysisCategories) Sheet() string { return "Analysis Categories" }

func (d AnalysisCategories) Import(ctx context.Context, run *importer.Run) error {
	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		title := rec.Text("title")
		if title == "" {
			run.SkipRow(rec, "missing Title field")
			return nil
		}
		deptTitle := rec.Text("Department_title")
		if deptTitle == "" {
			run.SkipRow(rec, "Department field missing")
			return nil
		}
		dept, err := run.ResolveTitle(ctx, domain.KindDepartment, deptTitle)
		if err != nil {
			if isNotFound(err) {
				run.SkipRow(rec, "department not found: "+deptTitle)
				return nil
			}
			return err
		}
		fields := domain.Values{
			"Department": domain.RefValue(dept.UID),
		}
		copyText(fields, rec, "description", "comments")
		_, err = run.Create(ctx, "", domain.KindAnalysisCategory, title, fields)
		return err
	})
}

// Methods loads analysis methods. A MethodID already in use is dropped
// rather than duplicated, and a calculation named before the Calculations
// sheet has run is bound through the deferred queue.
type Methods struct{}

func (Methods) Sheet() string { return "Methods" }

func (d Methods) Import(ctx context.Context, run *importer.Run) error {
	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		title := rec.Text("title")
		if title == "" {
			return nil
		}
		methodID := rec.Text("MethodID")
		if methodID != "" {
			existing, err := run.Repo.Query(ctx, domain.KindMethod,
				domain.Filters{"MethodID": methodID})
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				run.Log.Warnw("MethodID already in use, dropping it",
					"sheet", rec.Sheet, "row", rec.Row, "method_id", methodID)
				methodID = ""
			}
		}
		fields := domain.Values{
			"MethodID":             domain.TextValue(methodID),
			"ManualEntryOfResults": domain.BoolValue(boolOrDefault(rec, "ManualEntryOfResults", true)),
			"Accredited":           domain.BoolValue(boolOrDefault(rec, "Accredited", true)),
		}
		copyText(fields, rec, "description", "Instructions")
		if doc := rec.Text("MethodDocument"); doc != "" {
			data, _, err := run.Asset(ctx, doc)
			if err != nil {
				run.Log.Warnw("cannot load method document",
					"sheet", rec.Sheet, "row", rec.Row, "file", doc)
			} else {
				fields["MethodDocument"] = domain.FileValue(data)
			}
		}

		calcTitle := rec.Text("Calculation_title")
		deferCalc := false
		if calcTitle != "" {
			calc, err := run.Resolve(ctx, importer.ByTitle(domain.KindCalculation, calcTitle))
			switch {
			case err == nil:
				fields["Calculation"] = domain.RefValue(calc.UID)
			case isNotFound(err):
				deferCalc = true
			default:
				return err
			}
		}

		method, err := run.Create(ctx, "", domain.KindMethod, title, fields)
		if err != nil {
			return err
		}
		if deferCalc {
			run.Defer(method.UID, "Calculation", importer.ByTitle(domain.KindCalculation, calcTitle))
		}
		for _, inst := range splitList(rec.Text("Instruments")) {
			run.DeferMulti(method.UID, "Instruments", importer.ByTitle(domain.KindInstrument, inst))
		}
		return nil
	})
}

// boolOrDefault reads a boolean column, falling back to def when the column
// is absent from the sheet or the cell is blank.
func boolOrDefault(rec importer.Record, name string, def bool) bool {
	cell, ok := rec.Cell(name)
	if !ok || cell.IsEmpty() {
		return def
	}
	return rec.Bool(name)
}

// SamplingDeviations loads the "Sampling Deviations" worksheet.
type SamplingDeviations struct{}

func (SamplingDeviations) Sheet() string { return "Sampling Deviations" }

func (d SamplingDeviations) Import(ctx context.Context, run *importer.Run) error {
	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		title := rec.Text("title")
		if title == "" {
			return nil
		}
		fields := domain.Values{}
		copyText(fields, rec, "description")
		_, err := run.Create(ctx, "", domain.KindSamplingDeviation, title, fields)
		return err
	})
}

// formulaKeyword matches the [Keyword] placeholders inside a calculation
// formula. Dotted placeholders address other objects and are not service
// dependencies.
var formulaKeyword = regexp.MustCompile(`\[([^.^\]]+)\]`)

// Calculations loads calculations with their interim fields from the
// "Calculation Interim Fields" sheet. Every non-interim keyword in the
// formula is a dependency on an analysis service, bound through the
// deferred queue because services are loaded later in the run.
type Calculations struct{}

func (Calculations) Sheet() string { return "Calculations" }

func (d Calculations) Import(ctx context.Context, run *importer.Run) error {
	interims := map[string][]domain.Record{}
	err := run.EachRow(ctx, "Calculation Interim Fields", func(rec importer.Record) error {
		calc := rec.Text("Calculation_title")
		if calc == "" {
			return nil
		}
		interims[calc] = append(interims[calc], domain.Record{
			"keyword": rec.Text("keyword"),
			"title":   rec.Text("title"),
			"type":    "int",
			"hidden":  strconv.FormatBool(rec.Bool("hidden")),
			"value":   rec.Text("value"),
			"unit":    rec.Text("unit"),
		})
		return nil
	})
	if err != nil {
		return err
	}

	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		title := rec.Text("title")
		if title == "" {
			return nil
		}
		calcInterims := interims[title]
		interimKeys := map[string]bool{}
		for _, field := range calcInterims {
			interimKeys[field["keyword"]] = true
		}
		formula := rec.Text("Formula")

		fields := domain.Values{
			"Formula":       domain.TextValue(formula),
			"InterimFields": domain.RecordsValue(calcInterims...),
		}
		copyText(fields, rec, "description")
		calc, err := run.Create(ctx, "", domain.KindCalculation, title, fields)
		if err != nil {
			return err
		}
		for _, m := range formulaKeyword.FindAllStringSubmatch(formula, -1) {
			keyword := m[1]
			if interimKeys[keyword] {
				continue
			}
			run.DeferMulti(calc.UID, "DependentServices",
				importer.ByField(domain.KindAnalysisService, "Keyword", keyword))
		}
		return nil
	})
}

// AnalysisServices loads the services catalogue. Default method and
// instrument assignments merge with the per-service relation sheets, result
// options and uncertainties come from their own sheets, and uncertainty
// payloads go through the batch accumulator so large datasets flush in
// chunks.
type AnalysisServices struct{}

func (AnalysisServices) Sheet() string { return "Analysis Services" }

func (d AnalysisServices) Import(ctx context.Context, run *importer.Run) error {
	interims, err := d.loadInterims(ctx, run)
	if err != nil {
		return err
	}
	methodTitles, err := d.loadRelation(ctx, run, "AnalysisService Methods", "Method_title")
	if err != nil {
		return err
	}
	instrumentTitles, err := d.loadRelation(ctx, run, "AnalysisService Instruments", "Instrument_title")
	if err != nil {
		return err
	}

	err = run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		title := rec.Text("title")
		if title == "" {
			return nil
		}
		keyword := rec.Text("Keyword")
		if keyword != "" {
			existing, err := run.Repo.Query(ctx, domain.KindAnalysisService,
				domain.Filters{"Keyword": keyword})
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				run.SkipRow(rec, "duplicate service keyword "+keyword)
				return nil
			}
		}

		fields := domain.Values{
			"Keyword":        domain.TextValue(keyword),
			"PointOfCapture": domain.TextValue(strings.ToLower(rec.Text("PointOfCapture"))),
			"ShortTitle":     domain.TextValue(textOrDefault(rec, "ShortTitle", title)),
			"Precision":      domain.TextValue(textOrDefault(rec, "Precision", "0")),
			"ExponentialFormatPrecision": domain.TextValue(
				strconv.FormatInt(rec.IntOr("ExponentialFormatPrecision", 7), 10)),
			"LowerDetectionLimit": domain.TextValue(
				fmt.Sprintf("%06f", rec.FloatOr("LowerDetectionLimit", 0))),
			"UpperDetectionLimit": domain.TextValue(
				fmt.Sprintf("%06f", rec.FloatOr("UpperDetectionLimit", 1000000000.0))),
			"DetectionLimitSelector": domain.BoolValue(rec.Bool("DetectionLimitSelector")),
			"MaxTimeAllowed":         domain.RecordValue(durationRecord(rec, "MaxTimeAllowed")),
			"Price":                  domain.TextValue(fmt.Sprintf("%02f", rec.FloatOr("Price", 0))),
			"BulkPrice":              domain.TextValue(fmt.Sprintf("%02f", rec.FloatOr("BulkPrice", 0))),
			"VAT":                    domain.TextValue(fmt.Sprintf("%02f", rec.FloatOr("VAT", 0))),
			"DuplicateVariation":     domain.TextValue(fmt.Sprintf("%02f", rec.FloatOr("DuplicateVariation", 0))),
			"Accredited":             domain.BoolValue(rec.Bool("Accredited")),
			"Separate":               domain.BoolValue(rec.Bool("Separate")),
			"InterimFields":          domain.RecordsValue(interims[title]...),
		}
		copyText(fields, rec, "description", "CommercialID", "ProtocolID")
		if unit := rec.Text("Unit"); unit != "" {
			fields["Unit"] = domain.TextValue(unit)
		}

		eager := []struct {
			field  string
			kind   domain.Kind
			column string
		}{
			{"Category", domain.KindAnalysisCategory, "AnalysisCategory_title"},
			{"Department", domain.KindDepartment, "Department_title"},
			{"Container", domain.KindContainer, "Container_title"},
			{"Preservation", domain.KindPreservation, "Preservation_title"},
		}
		for _, ref := range eager {
			if v := rec.Text(ref.column); v != "" {
				if err := refIfFound(ctx, run, fields, ref.field,
					importer.ByTitle(ref.kind, v)); err != nil {
					return err
				}
			}
		}

		defaultMethod, methods, err := d.mergeRelated(ctx, run, domain.KindMethod,
			rec.Text("DefaultMethod_title"), methodTitles[title])
		if err != nil {
			return err
		}
		defaultInstrument, instruments, err := d.mergeRelated(ctx, run, domain.KindInstrument,
			rec.Text("DefaultInstrument_title"), instrumentTitles[title])
		if err != nil {
			return err
		}
		instrumentEntry := len(instruments) > 0
		manualEntry := true
		if instrumentEntry {
			manualEntry = boolOrDefault(rec, "ManualEntryOfResults", true)
		}
		if defaultMethod != "" {
			fields["Method"] = domain.RefValue(defaultMethod)
		}
		if len(methods) > 0 {
			fields["Methods"] = domain.RefsValue(methods...)
		}
		if defaultInstrument != "" {
			fields["Instrument"] = domain.RefValue(defaultInstrument)
		}
		if len(instruments) > 0 {
			fields["Instruments"] = domain.RefsValue(instruments...)
		}
		fields["ManualEntryOfResults"] = domain.BoolValue(manualEntry)
		fields["InstrumentEntryOfResults"] = domain.BoolValue(instrumentEntry)

		// A calculation named on the row wins over the default method's;
		// only when the row names none does the service fall back to
		// whatever the default method calculates with.
		calcUID := ""
		if calcTitle := rec.Text("Calculation_title"); calcTitle != "" {
			calc, err := run.Resolve(ctx, importer.ByTitle(domain.KindCalculation, calcTitle))
			if err != nil && !isNotFound(err) {
				return err
			}
			if err == nil {
				calcUID = calc.UID
			}
		}
		fields["UseDefaultCalculation"] = domain.BoolValue(calcUID == "")
		if calcUID == "" && defaultMethod != "" {
			method, err := run.Repo.Get(ctx, defaultMethod)
			if err != nil {
				return err
			}
			if v, ok := method.Field("Calculation"); ok {
				calcUID = v.Ref
			}
		}
		if calcUID != "" {
			fields["Calculation"] = domain.RefValue(calcUID)
		}

		_, err = run.Create(ctx, "", domain.KindAnalysisService, title, fields)
		return err
	})
	if err != nil {
		return err
	}
	if err := d.loadResultOptions(ctx, run); err != nil {
		return err
	}
	return d.loadUncertainties(ctx, run)
}

func (AnalysisServices) loadInterims(ctx context.Context, run *importer.Run) (map[string][]domain.Record, error) {
	interims := map[string][]domain.Record{}
	err := run.EachRow(ctx, "AnalysisService InterimFields", func(rec importer.Record) error {
		service := rec.Text("Service_title")
		if service == "" {
			return nil
		}
		interims[service] = append(interims[service], domain.Record{
			"keyword": rec.Text("keyword"),
			"title":   rec.Text("title"),
			"type":    "int",
			"value":   rec.Text("value"),
			"unit":    rec.Text("unit"),
		})
		return nil
	})
	return interims, err
}

// loadRelation gathers the per-service target titles from one of the
// service relation sheets.
func (AnalysisServices) loadRelation(ctx context.Context, run *importer.Run, sheet, column string) (map[string][]string, error) {
	titles := map[string][]string{}
	err := run.EachRow(ctx, sheet, func(rec importer.Record) error {
		service := rec.Text("Service_title")
		if service == "" {
			return nil
		}
		if target := rec.Text(column); target != "" {
			titles[service] = append(titles[service], target)
		}
		return nil
	})
	return titles, err
}

// mergeRelated resolves the default plus the relation-sheet titles into one
// UID list, default first, dropping duplicates and misses. When only the
// relation sheet names targets, the first becomes the default.
func (AnalysisServices) mergeRelated(ctx context.Context, run *importer.Run, kind domain.Kind, defaultTitle string, titles []string) (string, []string, error) {
	defaultUID := ""
	var uids []string
	if defaultTitle != "" {
		e, err := run.Resolve(ctx, importer.ByTitle(kind, defaultTitle))
		if err != nil && !isNotFound(err) {
			return "", nil, err
		}
		if err == nil {
			defaultUID = e.UID
			uids = append(uids, e.UID)
		}
	}
	for _, title := range titles {
		e, err := run.Resolve(ctx, importer.ByTitle(kind, title))
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return "", nil, err
		}
		if e.UID == defaultUID {
			continue
		}
		uids = append(uids, e.UID)
	}
	if defaultUID == "" && len(uids) > 0 {
		defaultUID = uids[0]
	}
	return defaultUID, uids, nil
}

// loadResultOptions appends discrete result options onto services. The
// first unresolvable service stops the sheet, matching the strictness of
// the source data.
func (AnalysisServices) loadResultOptions(ctx context.Context, run *importer.Run) error {
	stopped := false
	return run.EachRow(ctx, "AnalysisService ResultOptions", func(rec importer.Record) error {
		if stopped {
			return nil
		}
		service, err := run.ResolveTitle(ctx, domain.KindAnalysisService, rec.Text("Service_title"))
		if err != nil {
			if isNotFound(err) {
				stopped = true
				return nil
			}
			return err
		}
		option := domain.Record{
			"ResultValue": rec.Text("ResultValue"),
			"ResultText":  rec.Text("ResultText"),
		}
		_, err = run.Repo.Update(ctx, service.UID, func(e *domain.Entity) error {
			options := []domain.Record{}
			if v, ok := e.Field("ResultOptions"); ok {
				options = v.Records
			}
			e.SetField("ResultOptions", domain.RecordsValue(append(options, option)...))
			return nil
		})
		return err
	})
}

// loadUncertainties streams uncertainty ranges through the batch
// accumulator so each service is rewritten once per flush instead of once
// per row.
func (AnalysisServices) loadUncertainties(ctx context.Context, run *importer.Run) error {
	acc := importer.NewAccumulator(run.Repo, "Uncertainties", importer.DefaultBatchThreshold)
	err := run.EachRow(ctx, "Analysis Service Uncertainties", func(rec importer.Record) error {
		service, err := run.ResolveTitle(ctx, domain.KindAnalysisService, rec.Text("Service_title"))
		if err != nil {
			if isNotFound(err) {
				run.Log.Warnw("unable to load analysis service uncertainty, service not found",
					"sheet", rec.Sheet, "row", rec.Row, "service", rec.Text("Service_title"))
				return nil
			}
			return err
		}
		return acc.Add(ctx, service.UID, domain.Record{
			"intercept_min": rec.Text("Range Min"),
			"intercept_max": rec.Text("Range Max"),
			"errorvalue":    rec.Text("Uncertainty Value"),
		})
	})
	if err != nil {
		return err
	}
	return acc.Flush(ctx)
}

// textOrDefault reads a text column, falling back to def when blank.
func textOrDefault(rec importer.Record, name, def string) string {
	if s := rec.Text(name); s != "" {
		return s
	}
	return def
}
