package importer

import (
	"strings"

	"limscore/pkg/domain"
)

// contactFieldNames are the standard contact columns copied verbatim onto
// entities that carry contact info.
var contactFieldNames = []string{
	"EmailAddress",
	"Phone",
	"Fax",
	"BusinessPhone",
	"BusinessFax",
	"HomePhone",
	"MobilePhone",
}

// FillContactFields copies the seven contact columns into fields when the
// kind supports contact info. Blank values are set too, so a re-import
// clears stale data.
func FillContactFields(rec Record, kind domain.Kind, fields domain.Values) {
	if !kind.Supports(domain.CanContactInfo) {
		return
	}
	for _, name := range contactFieldNames {
		fields[name] = domain.TextValue(rec.Text(name))
	}
}

// FillAddressFields assembles the four address blocks (Physical, Postal,
// Billing, CountryState) from the row's flat "<Category>_<Key>" columns
// when the kind supports addresses. A blank CountryState inherits the
// physical country and state.
func FillAddressFields(rec Record, kind domain.Kind, fields domain.Values) {
	if !kind.Supports(domain.CanAddress) {
		return
	}
	blocks := map[string]domain.Record{}
	for _, category := range []string{"Physical", "Postal", "Billing", "CountryState"} {
		sub := domain.Record{}
		for _, key := range addressKeys {
			sub[strings.ToLower(key)] = rec.Text(category + "_" + key)
		}
		blocks[category] = sub
	}
	countryState := blocks["CountryState"]
	if countryState["country"] == "" && countryState["state"] == "" {
		countryState["country"] = blocks["Physical"]["country"]
		countryState["state"] = blocks["Physical"]["state"]
	}
	fields["PhysicalAddress"] = domain.RecordValue(blocks["Physical"])
	fields["PostalAddress"] = domain.RecordValue(blocks["Postal"])
	fields["CountryState"] = domain.RecordValue(countryState)
	fields["BillingAddress"] = domain.RecordValue(blocks["Billing"])
}
