package setupdata

import (
	"context"
	"errors"
	"fmt"

	"limscore/internal/importer"
	"limscore/pkg/domain"
)

// Clients loads client organisations. A row without a Name or ClientID
// aborts the import; a duplicate ClientID skips the row.
type Clients struct{}

func (Clients) Sheet() string { return "Clients" }

func (d Clients) Import(ctx context.Context, run *importer.Run) error {
	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		name := rec.Text("Name")
		if name == "" {
			return errors.New("client has no Name")
		}
		id := rec.Text("ClientID")
		if id == "" {
			return fmt.Errorf("client %q has no ClientID", name)
		}
		existing, err := run.Repo.Query(ctx, domain.KindClient, domain.Filters{"ClientID": id})
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			run.SkipRow(rec, "duplicate ClientID "+id)
			return nil
		}
		fields := domain.Values{
			"Name":                  domain.TextValue(name),
			"ClientID":              domain.TextValue(id),
			"MemberDiscountApplies": domain.BoolValue(rec.Bool("MemberDiscountApplies")),
			"BulkDiscount":          domain.BoolValue(rec.Bool("BulkDiscount")),
		}
		copyText(fields, rec, "TaxNumber", "AccountNumber")
		importer.FillContactFields(rec, domain.KindClient, fields)
		importer.FillAddressFields(rec, domain.KindClient, fields)
		_, err = run.Create(ctx, "", domain.KindClient, name, fields)
		return err
	})
}

// ClientContacts creates contacts under their client. CC contacts are bound
// through the deferred queue because they may appear further down the same
// sheet.
type ClientContacts struct{}

func (ClientContacts) Sheet() string { return "Client Contacts" }

func (d ClientContacts) Import(ctx context.Context, run *importer.Run) error {
	return run.EachRow(ctx, d.Sheet(), func(rec importer.Record) error {
		if rec.Text("Firstname") == "" {
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
		name := fullName(rec)
		fields := domain.Values{"Fullname": domain.TextValue(name)}
		copyText(fields, rec, "Salutation", "Firstname", "Surname", "JobTitle", "Department")
		if prefs := splitList(rec.Text("PublicationPreference")); len(prefs) > 0 {
			fields["PublicationPreference"] = domain.ListValue(prefs...)
		}
		skip, err := applyLogin(ctx, run, rec, domain.KindClientContact, name, fields)
		if err != nil || skip {
			return err
		}
		importer.FillContactFields(rec, domain.KindClientContact, fields)
		importer.FillAddressFields(rec, domain.KindClientContact, fields)
		contact, err := run.Create(ctx, client.UID, domain.KindClientContact, name, fields)
		if err != nil {
			return err
		}
		for _, cc := range splitList(rec.Text("CCContacts")) {
			run.DeferMulti(contact.UID, "CCContact",
				importer.ByField(domain.KindClientContact, "Fullname", cc))
		}
		return nil
	})
}
