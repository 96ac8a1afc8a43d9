package setupdata

import (
	"context"
	"strconv"

	"limscore/internal/importer"
	"limscore/pkg/domain"
)

// SampleMatrices loads the "Sample Matrices" worksheet.
type SampleMatrices struct{}

func (SampleMatrices) Sheet() string { return "Sample Matrices" }

func (d SampleMatrices) Import(ctx context.Context, run *importer.Run) error {
	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		title := rec.Text("title")
		if title == "" {
			return nil
		}
		fields := domain.Values{}
		copyText(fields, rec, "description")
		_, err := run.Create(ctx, "", domain.KindSampleMatrix, title, fields)
		return err
	})
}

// BatchLabels loads the "Batch Labels" worksheet.
type BatchLabels struct{}

func (BatchLabels) Sheet() string { return "Batch Labels" }

func (d BatchLabels) Import(ctx context.Context, run *importer.Run) error {
	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		title := rec.Text("title")
		if title == "" {
			return nil
		}
		_, err := run.Create(ctx, "", domain.KindBatchLabel, title, domain.Values{})
		return err
	})
}

// SampleTypes loads sample types with their matrix and container type
// references plus the retention period.
type SampleTypes struct{}

func (SampleTypes) Sheet() string { return "Sample Types" }

func (d SampleTypes) Import(ctx context.Context, run *importer.Run) error {
	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		title := rec.Text("title")
		if title == "" {
			return nil
		}
		fields := domain.Values{
			"Hazardous": domain.BoolValue(rec.Bool("Hazardous")),
			"RetentionPeriod": domain.RecordValue(domain.Record{
				"days":    strconv.FormatInt(rec.IntOr("RetentionPeriod", 0), 10),
				"hours":   "0",
				"minutes": "0",
			}),
		}
		copyText(fields, rec, "description", "Prefix", "MinimumVolume")
		if matrix := rec.Text("SampleMatrix_title"); matrix != "" {
			if err := refIfFound(ctx, run, fields, "SampleMatrix",
				importer.ByTitle(domain.KindSampleMatrix, matrix)); err != nil {
				return err
			}
		}
		if ct := rec.Text("ContainerType_title"); ct != "" {
			if err := refIfFound(ctx, run, fields, "ContainerType",
				importer.ByTitle(domain.KindContainerType, ct)); err != nil {
				return err
			}
		}
		st, err := run.Create(ctx, "", domain.KindSampleType, title, fields)
		if err != nil {
			return err
		}
		// The reverse association: a sample point naming this type picks it
		// up immediately when the point already exists.
		if point := rec.Text("SamplePoint_title"); point != "" {
			sp, err := run.ResolveTitle(ctx, domain.KindSamplePoint, point)
			if err != nil {
				if isNotFound(err) {
					return nil
				}
				return err
			}
			_, err = run.Repo.Update(ctx, sp.UID, func(e *domain.Entity) error {
				e.AppendRef("SampleTypes", st.UID)
				return nil
			})
			return err
		}
		return nil
	})
}

// SamplePoints loads sampling locations. A point naming a client lives
// under that client; the sample type association is deferred so the type
// may appear anywhere in the workbook.
type SamplePoints struct{}

func (SamplePoints) Sheet() string { return "Sample Points" }

func (d SamplePoints) Import(ctx context.Context, run *importer.Run) error {
	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		title := rec.Text("title")
		if title == "" {
			return nil
		}
		parent := ""
		if clientTitle := rec.Text("Client_title"); clientTitle != "" {
			client, err := run.ResolveTitle(ctx, domain.KindClient, clientTitle)
			if err != nil {
				if isNotFound(err) {
					run.Log.Errorw("client invalid, sample point will not be uploaded",
						"sheet", rec.Sheet, "row", rec.Row, "title", title, "client", clientTitle)
					run.Metrics.RowSkipped(rec.Sheet)
					return nil
				}
				return err
			}
			parent = client.UID
		}
		fields := domain.Values{
			"Composite": domain.BoolValue(rec.Bool("Composite")),
		}
		copyText(fields, rec, "description", "Elevation", "Latitude", "Longitude")
		sp, err := run.Create(ctx, parent, domain.KindSamplePoint, title, fields)
		if err != nil {
			return err
		}
		if st := rec.Text("SampleType_title"); st != "" {
			run.DeferMulti(sp.UID, "SampleTypes", importer.ByTitle(domain.KindSampleType, st))
		}
		return nil
	})
}

// SamplePointSampleTypes appends sample type associations onto existing
// sample points; this sheet carries only the relation.
type SamplePointSampleTypes struct{}

func (SamplePointSampleTypes) Sheet() string { return "Sample Point Sample Types" }

func (d SamplePointSampleTypes) Import(ctx context.Context, run *importer.Run) error {
	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		st, err := run.ResolveTitle(ctx, domain.KindSampleType, rec.Text("SampleType_title"))
		if err != nil {
			if isNotFound(err) {
				run.SkipRow(rec, "sample type not found: "+rec.Text("SampleType_title"))
				return nil
			}
			return err
		}
		sp, err := run.ResolveTitle(ctx, domain.KindSamplePoint, rec.Text("SamplePoint_title"))
		if err != nil {
			if isNotFound(err) {
				run.SkipRow(rec, "sample point not found: "+rec.Text("SamplePoint_title"))
				return nil
			}
			return err
		}
		_, err = run.Repo.Update(ctx, sp.UID, func(e *domain.Entity) error {
			e.AppendRef("SampleTypes", st.UID)
			return nil
		})
		return err
	})
}

// StorageLocations loads storage locations keyed by the Address column,
// with the site, location and shelf hierarchy kept as plain fields.
type StorageLocations struct{}

func (StorageLocations) Sheet() string { return "Storage Locations" }

func (d StorageLocations) Import(ctx context.Context, run *importer.Run) error {
	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		address := rec.Text("Address")
		if address == "" {
			return nil
		}
		fields := domain.Values{}
		copyText(fields, rec,
			"SiteTitle", "SiteCode", "SiteDescription",
			"LocationTitle", "LocationCode", "LocationDescription", "LocationType",
			"ShelfTitle", "ShelfCode", "ShelfDescription")
		_, err := run.Create(ctx, "", domain.KindStorageLocation, address, fields)
		return err
	})
}

// SampleConditions loads the "Sample Conditions" worksheet.
type SampleConditions struct{}

func (SampleConditions) Sheet() string { return "Sample Conditions" }

func (d SampleConditions) Import(ctx context.Context, run *importer.Run) error {
	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		title := rec.Text("title")
		if title == "" {
			return nil
		}
		fields := domain.Values{}
		copyText(fields, rec, "description")
		_, err := run.Create(ctx, "", domain.KindSampleCondition, title, fields)
		return err
	})
}
