package setupdata

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"limscore/internal/importer"
	"limscore/pkg/domain"
)

// AnalysisSpecifications loads result specifications. Rows are grouped by
// (client, title) into one spec entity each, carrying a results range per
// service keyword. A blank Client_title means a lab-wide spec.
type AnalysisSpecifications struct{}

func (AnalysisSpecifications) Sheet() string { return "Analysis Specifications" }

type specKey struct {
	client string
	title  string
}

func (d AnalysisSpecifications) Import(ctx context.Context, run *importer.Run) error {
	type specEntry struct {
		sampleType string
		ranges     []domain.Record
	}
	var order []specKey
	entries := map[specKey]*specEntry{}

	err := run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		title := rec.Text("Title")
		if title == "" {
			title = rec.Text("title")
		}
		if title == "" {
			return nil
		}
		service, err := run.ResolveTitle(ctx, domain.KindAnalysisService, rec.Text("service"))
		if err != nil {
			if isNotFound(err) {
				run.SkipRow(rec, "service not found: "+rec.Text("service"))
				return nil
			}
			return err
		}
		keyword := ""
		if v, ok := service.Field("Keyword"); ok {
			keyword = v.AsText()
		}
		result := domain.Record{
			"keyword": keyword,
			"min":     textOrDefault(rec, "min", "0"),
			"max":     textOrDefault(rec, "max", "0"),
		}
		for _, extra := range []string{"error", "hidemin", "hidemax", "rangecomment"} {
			if v := rec.Text(extra); v != "" {
				result[extra] = v
			}
		}

		key := specKey{client: rec.Text("Client_title"), title: title}
		entry, ok := entries[key]
		if !ok {
			entry = &specEntry{sampleType: rec.Text("SampleType_title")}
			entries[key] = entry
			order = append(order, key)
		}
		entry.ranges = append(entry.ranges, result)
		return nil
	})
	if err != nil {
		return err
	}

	for _, key := range order {
		entry := entries[key]
		parent := ""
		if key.client != "" {
			client, err := run.ResolveTitle(ctx, domain.KindClient, key.client)
			if err != nil {
				if isNotFound(err) {
					run.Log.Errorw("client invalid, analysis specification not uploaded",
						"sheet", d.Sheet(), "title", key.title, "client", key.client)
					continue
				}
				return err
			}
			parent = client.UID
		}
		fields := domain.Values{
			"ResultsRange": domain.RecordsValue(entry.ranges...),
		}
		if entry.sampleType != "" {
			if err := refIfFound(ctx, run, fields, "SampleType",
				importer.ByTitle(domain.KindSampleType, entry.sampleType)); err != nil {
				return err
			}
		}
		if _, err := run.Create(ctx, parent, domain.KindAnalysisSpec, key.title, fields); err != nil {
			return err
		}
	}
	return nil
}

// AnalysisProfiles loads analysis profiles. The service list comes from the
// "Analysis Profile Services" sheet; services it cannot resolve yet are
// bound through the deferred queue.
type AnalysisProfiles struct{}

func (AnalysisProfiles) Sheet() string { return "Analysis Profiles" }

func (d AnalysisProfiles) Import(ctx context.Context, run *importer.Run) error {
	resolved := map[string][]string{}
	pending := map[string][]string{}
	err := run.EachRow(ctx, "Analysis Profile Services", func(rec importer.Record) error {
		profile := rec.Text("Profile")
		name := rec.Text("Service")
		if profile == "" || name == "" {
			return nil
		}
		service, err := run.ResolveTitle(ctx, domain.KindAnalysisService, name)
		if err != nil {
			if isNotFound(err) {
				pending[profile] = append(pending[profile], name)
				return nil
			}
			return err
		}
		resolved[profile] = append(resolved[profile], service.UID)
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
		fields := domain.Values{
			"AnalysisProfilePrice":    domain.FloatValue(rec.FloatOr("AnalysisProfilePrice", 0)),
			"AnalysisProfileVAT":      domain.FloatValue(rec.FloatOr("AnalysisProfileVAT", 0)),
			"UseAnalysisProfilePrice": domain.BoolValue(rec.Bool("UseAnalysisProfilePrice")),
		}
		copyText(fields, rec, "description", "ProfileKey", "CommercialID")
		if uids := resolved[title]; len(uids) > 0 {
			fields["Services"] = domain.RefsValue(uids...)
		}
		profile, err := run.Create(ctx, "", domain.KindAnalysisProfile, title, fields)
		if err != nil {
			return err
		}
		for _, name := range pending[title] {
			run.DeferMulti(profile.UID, "Services",
				importer.ByTitle(domain.KindAnalysisService, name))
		}
		return nil
	})
}

// SampleTemplates loads sampling templates with their partition layout and
// per-partition service assignments from the two companion sheets.
type SampleTemplates struct{}

func (SampleTemplates) Sheet() string { return "Sample Templates" }

func (d SampleTemplates) Import(ctx context.Context, run *importer.Run) error {
	services := map[string][]domain.Record{}
	err := run.EachRow(ctx, "Sample Template Services", func(rec importer.Record) error {
		title := rec.Text("SampleTemplate")
		if title == "" {
			return nil
		}
		service, err := run.ResolveTitle(ctx, domain.KindAnalysisService, rec.Text("keyword"))
		if err != nil {
			if isNotFound(err) {
				run.SkipRow(rec, "service not found: "+rec.Text("keyword"))
				return nil
			}
			return err
		}
		services[title] = append(services[title], domain.Record{
			"uid":     service.UID,
			"part_id": rec.Text("part_id"),
		})
		return nil
	})
	if err != nil {
		return err
	}

	partitions := map[string][]domain.Record{}
	err = run.EachRow(ctx, "Sample Template Partitions", func(rec importer.Record) error {
		title := rec.Text("SampleTemplate")
		if title == "" {
			return nil
		}
		part := domain.Record{
			"part_id":      rec.Text("part_id"),
			"container":    "",
			"preservation": "",
			"sampletype":   "",
		}
		lookups := []struct {
			key    string
			kind   domain.Kind
			column string
		}{
			{"container", domain.KindContainer, "container"},
			{"preservation", domain.KindPreservation, "preservation"},
			{"sampletype", domain.KindSampleType, "sampletype"},
		}
		for _, l := range lookups {
			name := rec.Text(l.column)
			if name == "" {
				continue
			}
			e, err := run.Resolve(ctx, importer.ByTitle(l.kind, name))
			if err != nil {
				if isNotFound(err) {
					continue
				}
				return err
			}
			part[l.key] = e.UID
		}
		partitions[title] = append(partitions[title], part)
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
		parent := ""
		if clientTitle := rec.Text("Client_title"); clientTitle != "" {
			client, err := run.Resolve(ctx, importer.ByTitle(domain.KindClient, clientTitle))
			if err != nil && !isNotFound(err) {
				return err
			}
			if err == nil {
				parent = client.UID
			}
		}
		fields := domain.Values{
			"Partitions": domain.RecordsValue(partitions[title]...),
			"Services":   domain.RecordsValue(services[title]...),
		}
		if st := rec.Text("SampleType_title"); st != "" {
			if err := refIfFound(ctx, run, fields, "SampleType",
				importer.ByTitle(domain.KindSampleType, st)); err != nil {
				return err
			}
		}
		if sp := rec.Text("SamplePoint_title"); sp != "" {
			if err := refIfFound(ctx, run, fields, "SamplePoint",
				importer.ByTitle(domain.KindSamplePoint, sp)); err != nil {
				return err
			}
		}
		_, err := run.Create(ctx, parent, domain.KindSampleTemplate, title, fields)
		return err
	})
}

// ReferenceDefinitions loads reference definitions with expected results
// per service. Older workbooks name the results sheet "Reference Definition
// Values", so that is tried when the current name yields nothing.
type ReferenceDefinitions struct{}

func (ReferenceDefinitions) Sheet() string { return "Reference Definitions" }

func (d ReferenceDefinitions) Import(ctx context.Context, run *importer.Run) error {
	results := map[string][]domain.Record{}
	load := func(sheet string) error {
		return run.EachRow(ctx, sheet, func(rec importer.Record) error {
			title := rec.Text("ReferenceDefinition_title")
			if title == "" {
				return nil
			}
			service, err := run.ResolveTitle(ctx, domain.KindAnalysisService, rec.Text("service"))
			if err != nil {
				if isNotFound(err) {
					run.SkipRow(rec, "service not found: "+rec.Text("service"))
					return nil
				}
				return err
			}
			results[title] = append(results[title], domain.Record{
				"uid":    service.UID,
				"result": textOrDefault(rec, "result", "0"),
				"min":    textOrDefault(rec, "min", "0"),
				"max":    textOrDefault(rec, "max", "0"),
			})
			return nil
		})
	}
	if err := load("Reference Definition Results"); err != nil {
		return err
	}
	if len(results) == 0 {
		if err := load("Reference Definition Values"); err != nil {
			return err
		}
	}

	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		title := rec.Text("title")
		if title == "" {
			return nil
		}
		fields := domain.Values{
			"Blank":            domain.BoolValue(rec.Bool("Blank")),
			"Hazardous":        domain.BoolValue(rec.Bool("Hazardous")),
			"ReferenceResults": domain.RecordsValue(results[title]...),
		}
		copyText(fields, rec, "description")
		_, err := run.Create(ctx, "", domain.KindReferenceDefinition, title, fields)
		return err
	})
}

// WorksheetTemplates loads worksheet templates with their slot layout and
// service list. Blank and control slots may name a reference definition by
// title or by UID.
type WorksheetTemplates struct{}

func (WorksheetTemplates) Sheet() string { return "Worksheet Templates" }

func (d WorksheetTemplates) Import(ctx context.Context, run *importer.Run) error {
	defs, err := run.Repo.Query(ctx, domain.KindReferenceDefinition, nil)
	if err != nil {
		return err
	}
	defByTitle := make(map[string]string, len(defs))
	for _, def := range defs {
		defByTitle[def.Title] = def.UID
	}
	resolveRef := func(value string) string {
		if _, err := uuid.Parse(value); err == nil {
			return value
		}
		return defByTitle[value]
	}

	layouts := map[string][]domain.Record{}
	err = run.EachRow(ctx, "Worksheet Template Layouts", func(rec importer.Record) error {
		title := rec.Text("WorksheetTemplate_title")
		if title == "" {
			return nil
		}
		slotType := textOrDefault(rec, "type", "a")
		slotType = strings.ToLower(slotType[:1])
		slot := domain.Record{
			"pos":  strconv.FormatInt(rec.IntOr("pos", 0), 10),
			"type": slotType,
		}
		switch slotType {
		case "b":
			slot["blank_ref"] = resolveRef(rec.Text("blank_ref"))
		case "c":
			slot["control_ref"] = resolveRef(rec.Text("control_ref"))
		case "d":
			slot["dup"] = rec.Text("dup")
		}
		layouts[title] = append(layouts[title], slot)
		return nil
	})
	if err != nil {
		return err
	}

	services := map[string][]string{}
	err = run.EachRow(ctx, "Worksheet Template Services", func(rec importer.Record) error {
		title := rec.Text("WorksheetTemplate_title")
		if title == "" {
			return nil
		}
		service, err := run.ResolveTitle(ctx, domain.KindAnalysisService, rec.Text("service"))
		if err != nil {
			if isNotFound(err) {
				return nil
			}
			return err
		}
		services[title] = append(services[title], service.UID)
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
		fields := domain.Values{}
		copyText(fields, rec, "description")
		if slots := layouts[title]; len(slots) > 0 {
			fields["TemplateLayout"] = domain.RecordsValue(slots...)
		}
		if uids := services[title]; len(uids) > 0 {
			fields["Services"] = domain.RefsValue(uids...)
		}
		_, err := run.Create(ctx, "", domain.KindWorksheetTemplate, title, fields)
		return err
	})
}
