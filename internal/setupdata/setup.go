package setupdata

import (
	"context"
	"strconv"

	"limscore/internal/importer"
	"limscore/pkg/domain"
)

// setupBoolFields are the laboratory policy toggles on the settings
// singleton. Anything not listed in one of these tables loads as text.
var setupBoolFields = map[string]bool{
	"ShowPrices":                 true,
	"SamplingWorkflowEnabled":    true,
	"ScheduleSamplingEnabled":    true,
	"ShowPartitions":             true,
	"CategoriseAnalysisServices": true,
	"EnableARSpecs":              true,
	"SelfVerificationEnabled":    true,
	"AutoVerifySamples":          true,
	"PrintingWorkflowEnabled":    true,
}

var setupIntFields = map[string]bool{
	"NumberOfRequiredVerifications": true,
	"DefaultNumberOfARsToAdd":       true,
}

var setupFloatFields = map[string]bool{
	"MemberDiscount": true,
	"VAT":            true,
}

// setupDurationFields name settings spread across three columns each
// (<name>_days, <name>_hours, <name>_minutes).
var setupDurationFields = []string{
	"DefaultSampleLifetime",
	"DefaultTurnaroundTime",
}

func isDurationComponent(name string) bool {
	for _, prefix := range setupDurationFields {
		switch name {
		case prefix + "_days", prefix + "_hours", prefix + "_minutes":
			return true
		}
	}
	return false
}

// Setup updates the laboratory settings singleton from the vertical
// Field/Value sheet. Values convert according to the field tables above; a
// value that does not fit its declared type is logged and dropped rather
// than aborting the run.
type Setup struct{}

func (Setup) Sheet() string { return "Setup" }

func (d Setup) Import(ctx context.Context, run *importer.Run) error {
	values := map[string]string{}
	err := run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		if field := rec.Text("Field"); field != "" {
			values[field] = rec.Text("Value")
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}

	fields := domain.Values{}
	for name, raw := range values {
		switch {
		case isDurationComponent(name):
			// folded into the duration records below
		case setupBoolFields[name]:
			fields[name] = domain.BoolValue(importer.ParseBool(raw))
		case setupIntFields[name]:
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				run.Log.Errorw("no valid value for setup field",
					"sheet", d.Sheet(), "field", name, "value", raw)
				continue
			}
			fields[name] = domain.IntValue(n)
		case setupFloatFields[name]:
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				run.Log.Errorw("no valid value for setup field",
					"sheet", d.Sheet(), "field", name, "value", raw)
				continue
			}
			fields[name] = domain.FloatValue(f)
		default:
			fields[name] = domain.TextValue(raw)
		}
	}
	rec := importer.RecordFromPairs(d.Sheet(), values)
	for _, name := range setupDurationFields {
		if _, ok := rec.Cell(name + "_days"); ok {
			fields[name] = domain.RecordValue(durationRecord(rec, name))
		}
	}

	setup, err := singleton(ctx, run, domain.KindLabSetup, "Setup")
	if err != nil {
		return err
	}
	return updateFields(ctx, run, setup.UID, fields)
}

// IDPrefixes merges identifier formatting rules into the settings
// singleton. A row replaces any earlier rule for the same entity type; the
// literal separator "none" means no separator at all.
type IDPrefixes struct{}

func (IDPrefixes) Sheet() string { return "ID Prefixes" }

func (d IDPrefixes) Import(ctx context.Context, run *importer.Run) error {
	var incoming []domain.Record
	err := run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		portalType := rec.Text("portal_type")
		if portalType == "" {
			return nil
		}
		separator := textOrDefault(rec, "separator", "-")
		if separator == "none" {
			separator = ""
		}
		incoming = append(incoming, domain.Record{
			"portal_type": portalType,
			"prefix":      rec.Text("prefix"),
			"padding":     rec.Text("padding"),
			"separator":   separator,
		})
		return nil
	})
	if err != nil {
		return err
	}
	if len(incoming) == 0 {
		return nil
	}

	setup, err := singleton(ctx, run, domain.KindLabSetup, "Setup")
	if err != nil {
		return err
	}
	_, err = run.Repo.Update(ctx, setup.UID, func(e *domain.Entity) error {
		var prefixes []domain.Record
		if v, ok := e.Field("IDFormatting"); ok {
			prefixes = v.Records
		}
		for _, rule := range incoming {
			kept := prefixes[:0]
			for _, p := range prefixes {
				if p["portal_type"] != rule["portal_type"] {
					kept = append(kept, p)
				}
			}
			prefixes = append(kept, rule)
		}
		e.SetField("IDFormatting", domain.RecordsValue(prefixes...))
		return nil
	})
	return err
}

// AttachmentTypes loads the "Attachment Types" worksheet.
type AttachmentTypes struct{}

func (AttachmentTypes) Sheet() string { return "Attachment Types" }

func (d AttachmentTypes) Import(ctx context.Context, run *importer.Run) error {
	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		title := rec.Text("title")
		if title == "" {
			return nil
		}
		fields := domain.Values{}
		copyText(fields, rec, "description")
		_, err := run.Create(ctx, "", domain.KindAttachmentType, title, fields)
		return err
	})
}
