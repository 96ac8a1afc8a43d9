package setupdata

import (
	"context"

	"limscore/internal/importer"
	"limscore/pkg/domain"
)

// SubGroups loads the "Sub Groups" worksheet.
type SubGroups struct{}

func (SubGroups) Sheet() string { return "Sub Groups" }

func (d SubGroups) Import(ctx context.Context, run *importer.Run) error {
	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		title := rec.Text("title")
		if title == "" {
			return nil
		}
		fields := domain.Values{}
		copyText(fields, rec, "description", "SortKey")
		_, err := run.Create(ctx, "", domain.KindSubGroup, title, fields)
		return err
	})
}

// LabInformation updates the laboratory singleton from the vertical
// Field/Value sheet. The accreditation body logo is fetched through the
// asset source; a missing file downgrades to a warning.
type LabInformation struct{}

func (LabInformation) Sheet() string { return "Lab Information" }

func (d LabInformation) Import(ctx context.Context, run *importer.Run) error {
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

	rec := importer.RecordFromPairs(d.Sheet(), values)
	fields := domain.Values{
		"LaboratoryAccredited": domain.BoolValue(rec.Bool("LaboratoryAccredited")),
	}
	copyText(fields, rec,
		"Name", "LabURL", "Confidence", "AccreditationBodyLong",
		"AccreditationBody", "AccreditationBodyURL", "Accreditation",
		"AccreditationReference", "TaxNumber")
	if logo := rec.Text("AccreditationBodyLogo"); logo != "" {
		data, _, err := run.Asset(ctx, logo)
		if err != nil {
			run.Log.Warnw("cannot load accreditation body logo",
				"sheet", d.Sheet(), "file", logo, "error", err)
		} else {
			fields["AccreditationBodyLogo"] = domain.FileValue(data)
		}
	}
	importer.FillContactFields(rec, domain.KindLabInformation, fields)
	importer.FillAddressFields(rec, domain.KindLabInformation, fields)

	title := values["Name"]
	if title == "" {
		title = "Laboratory"
	}
	lab, err := singleton(ctx, run, domain.KindLabInformation, title)
	if err != nil {
		return err
	}
	_, err = run.Repo.Update(ctx, lab.UID, func(e *domain.Entity) error {
		e.Title = title
		for name, value := range fields {
			e.SetField(name, value)
		}
		return nil
	})
	return err
}

// LabContacts creates laboratory personnel with access credentials, then
// revisits the "Lab Departments" sheet to assign managers for departments
// created on a previous run.
type LabContacts struct{}

func (LabContacts) Sheet() string { return "Lab Contacts" }

func (d LabContacts) Import(ctx context.Context, run *importer.Run) error {
	err := run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		if rec.Text("Firstname") == "" {
			return nil
		}
		name := fullName(rec)
		fields := domain.Values{"Fullname": domain.TextValue(name)}
		copyText(fields, rec, "Salutation", "Firstname", "Surname", "JobTitle")
		skip, err := applyLogin(ctx, run, rec, domain.KindLabContact, name, fields)
		if err != nil || skip {
			return err
		}
		if signature := rec.Text("Signature"); signature != "" {
			data, _, err := run.Asset(ctx, signature)
			if err != nil {
				run.Log.Warnw("cannot load signature file, contact created without one",
					"sheet", rec.Sheet, "row", rec.Row, "file", signature, "fullname", name)
			} else {
				fields["Signature"] = domain.FileValue(data)
			}
		}
		importer.FillContactFields(rec, domain.KindLabContact, fields)
		importer.FillAddressFields(rec, domain.KindLabContact, fields)
		contact, err := run.Create(ctx, "", domain.KindLabContact, name, fields)
		if err != nil {
			return err
		}
		if dept := rec.Text("Department_title"); dept != "" {
			run.Defer(contact.UID, "Department", importer.ByTitle(domain.KindDepartment, dept))
		}
		return nil
	})
	if err != nil {
		return err
	}
	return d.assignManagers(ctx, run)
}

// assignManagers fills in department managers for rows whose department
// already exists without one. On a first import the departments sheet has
// not been loaded yet, so this only takes effect on re-imports.
func (d LabContacts) assignManagers(ctx context.Context, run *importer.Run) error {
	return run.EachRow(ctx, "Lab Departments", func(rec importer.Record) error {
		title := rec.Text("title")
		username := rec.Text("LabContact_Username")
		if title == "" || username == "" {
			return nil
		}
		dept, err := run.ResolveTitle(ctx, domain.KindDepartment, title)
		if err != nil {
			if isNotFound(err) {
				return nil
			}
			return err
		}
		if _, ok := dept.Field("Manager"); ok {
			return nil
		}
		contacts, err := run.Repo.Query(ctx, domain.KindLabContact, domain.Filters{"Username": username})
		if err != nil {
			return err
		}
		if len(contacts) == 0 {
			return nil
		}
		return updateFields(ctx, run, dept.UID, domain.Values{
			"Manager": domain.RefValue(contacts[0].UID),
		})
	})
}

// LabDepartments loads departments and resolves each manager by the
// lab contact username.
type LabDepartments struct{}

func (LabDepartments) Sheet() string { return "Lab Departments" }

func (d LabDepartments) Import(ctx context.Context, run *importer.Run) error {
	contacts, err := run.Repo.Query(ctx, domain.KindLabContact, nil)
	if err != nil {
		return err
	}
	byUsername := make(map[string]string, len(contacts))
	for _, c := range contacts {
		if u, ok := c.Field("Username"); ok && u.AsText() != "" {
			byUsername[u.AsText()] = c.UID
		}
	}
	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		title := rec.Text("title")
		if title == "" {
			return nil
		}
		fields := domain.Values{}
		copyText(fields, rec, "description")
		username := rec.Text("LabContact_Username")
		if uid, ok := byUsername[username]; ok {
			fields["Manager"] = domain.RefValue(uid)
		} else {
			run.Log.Infow("department manager lookup by username failed",
				"sheet", rec.Sheet, "row", rec.Row, "username", username)
		}
		_, err := run.Create(ctx, "", domain.KindDepartment, title, fields)
		return err
	})
}

// LabProducts loads consumable products with their volume and price.
type LabProducts struct{}

func (LabProducts) Sheet() string { return "Lab Products" }

func (d LabProducts) Import(ctx context.Context, run *importer.Run) error {
	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		title := rec.Text("title")
		if title == "" {
			return nil
		}
		fields := domain.Values{
			"Price": domain.FloatValue(rec.FloatOr("Price", 0)),
		}
		copyText(fields, rec, "description", "Volume", "Unit")
		_, err := run.Create(ctx, "", domain.KindLabProduct, title, fields)
		return err
	})
}
