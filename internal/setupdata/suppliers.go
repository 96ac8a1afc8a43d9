package setupdata

import (
	"context"

	"limscore/internal/importer"
	"limscore/pkg/domain"
)

// Suppliers loads reference material suppliers, keyed by the Name column,
// with their banking details.
type Suppliers struct{}

func (Suppliers) Sheet() string { return "Suppliers" }

func (d Suppliers) Import(ctx context.Context, run *importer.Run) error {
	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		title := rec.Text("Name")
		if title == "" {
			return nil
		}
		fields := domain.Values{"Name": domain.TextValue(title)}
		copyText(fields, rec,
			"description", "TaxNumber", "AccountType", "AccountName",
			"AccountNumber", "LabAccountNumber", "BankName", "BankBranch",
			"SWIFTcode", "IBN", "NIB", "Website")
		importer.FillContactFields(rec, domain.KindSupplier, fields)
		importer.FillAddressFields(rec, domain.KindSupplier, fields)
		_, err := run.Create(ctx, "", domain.KindSupplier, title, fields)
		return err
	})
}

// SupplierContacts creates contacts under their supplier, resolved by the
// Supplier_Name column.
type SupplierContacts struct{}

func (SupplierContacts) Sheet() string { return "Supplier Contacts" }

func (d SupplierContacts) Import(ctx context.Context, run *importer.Run) error {
	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		if rec.Text("Supplier_Name") == "" || rec.Text("Firstname") == "" {
			return nil
		}
		supplier, err := run.ResolveTitle(ctx, domain.KindSupplier, rec.Text("Supplier_Name"))
		if err != nil {
			if isNotFound(err) {
				run.SkipRow(rec, "supplier not found: "+rec.Text("Supplier_Name"))
				return nil
			}
			return err
		}
		name := fullName(rec)
		fields := domain.Values{"Fullname": domain.TextValue(name)}
		copyText(fields, rec, "Firstname", "Surname")
		skip, err := applyLogin(ctx, run, rec, domain.KindSupplierContact, name, fields)
		if err != nil || skip {
			return err
		}
		importer.FillContactFields(rec, domain.KindSupplierContact, fields)
		importer.FillAddressFields(rec, domain.KindSupplierContact, fields)
		_, err = run.Create(ctx, supplier.UID, domain.KindSupplierContact, name, fields)
		return err
	})
}

// Manufacturers loads the "Manufacturers" worksheet.
type Manufacturers struct{}

func (Manufacturers) Sheet() string { return "Manufacturers" }

func (d Manufacturers) Import(ctx context.Context, run *importer.Run) error {
	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		title := rec.Text("title")
		if title == "" {
			return nil
		}
		fields := domain.Values{}
		copyText(fields, rec, "description")
		_, err := run.Create(ctx, "", domain.KindManufacturer, title, fields)
		return err
	})
}
