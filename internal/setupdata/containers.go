package setupdata

import (
	"context"

	"limscore/internal/importer"
	"limscore/pkg/domain"
)

// ContainerTypes loads the "Container Types" worksheet.
type ContainerTypes struct{}

func (ContainerTypes) Sheet() string { return "Container Types" }

func (d ContainerTypes) Import(ctx context.Context, run *importer.Run) error {
	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		title := rec.Text("title")
		if title == "" {
			return nil
		}
		fields := domain.Values{}
		copyText(fields, rec, "description")
		_, err := run.Create(ctx, "", domain.KindContainerType, title, fields)
		return err
	})
}

// Preservations loads preservation methods with their retention period.
type Preservations struct{}

func (Preservations) Sheet() string { return "Preservations" }

func (d Preservations) Import(ctx context.Context, run *importer.Run) error {
	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		title := rec.Text("title")
		if title == "" {
			return nil
		}
		fields := domain.Values{
			"RetentionPeriod": domain.RecordValue(durationRecord(rec, "RetentionPeriod")),
		}
		copyText(fields, rec, "description")
		_, err := run.Create(ctx, "", domain.KindPreservation, title, fields)
		return err
	})
}

// Containers loads sample containers with their type and preservation
// references resolved eagerly, both sheets having been imported already.
type Containers struct{}

func (Containers) Sheet() string { return "Containers" }

func (d Containers) Import(ctx context.Context, run *importer.Run) error {
	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		title := rec.Text("title")
		if title == "" {
			return nil
		}
		fields := domain.Values{
			"PrePreserved": domain.BoolValue(rec.Bool("PrePreserved")),
		}
		copyText(fields, rec, "description", "Capacity")
		if ct := rec.Text("ContainerType_title"); ct != "" {
			if err := refIfFound(ctx, run, fields, "ContainerType",
				importer.ByTitle(domain.KindContainerType, ct)); err != nil {
				return err
			}
		}
		if pres := rec.Text("Preservation_title"); pres != "" {
			if err := refIfFound(ctx, run, fields, "Preservation",
				importer.ByTitle(domain.KindPreservation, pres)); err != nil {
				return err
			}
		}
		_, err := run.Create(ctx, "", domain.KindContainer, title, fields)
		return err
	})
}
