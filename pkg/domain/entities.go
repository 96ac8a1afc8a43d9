// Package domain defines the entity model and the collaborator contracts
// used by the limscore setup-data import engine.
package domain

import "time"

// Kind identifies the type of record stored in the setup repository.
type Kind string

// Supported entity kinds used in persistence buckets and reference criteria.
const (
	// KindSubGroup identifies a sub-group label record.
	KindSubGroup Kind = "sub_group"
	// KindLabInformation identifies the singleton laboratory profile record.
	KindLabInformation Kind = "lab_information"
	// KindLabContact identifies a laboratory staff contact record.
	KindLabContact Kind = "lab_contact"
	// KindDepartment identifies a laboratory department record.
	KindDepartment Kind = "department"
	// KindLabProduct identifies a consumable product record.
	KindLabProduct Kind = "lab_product"
	// KindClient identifies a client organisation record.
	KindClient Kind = "client"
	// KindClientContact identifies a contact person attached to a client.
	KindClientContact Kind = "client_contact"
	// KindContainerType identifies a sample container type record.
	KindContainerType Kind = "container_type"
	// KindPreservation identifies a sample preservation method record.
	KindPreservation Kind = "preservation"
	// KindContainer identifies a sample container record.
	KindContainer Kind = "container"
	// KindSupplier identifies a supplier organisation record.
	KindSupplier Kind = "supplier"
	// KindSupplierContact identifies a contact person attached to a supplier.
	KindSupplierContact Kind = "supplier_contact"
	// KindManufacturer identifies an instrument manufacturer record.
	KindManufacturer Kind = "manufacturer"
	// KindInstrumentType identifies an instrument classification record.
	KindInstrumentType Kind = "instrument_type"
	// KindInstrument identifies a laboratory instrument record.
	KindInstrument Kind = "instrument"
	// KindInstrumentValidation identifies an instrument validation event.
	KindInstrumentValidation Kind = "instrument_validation"
	// KindInstrumentCalibration identifies an instrument calibration event.
	KindInstrumentCalibration Kind = "instrument_calibration"
	// KindInstrumentCertification identifies an instrument certificate.
	KindInstrumentCertification Kind = "instrument_certification"
	// KindInstrumentDocument identifies a document attached to an instrument.
	KindInstrumentDocument Kind = "instrument_document"
	// KindInstrumentMaintenanceTask identifies a maintenance task record.
	KindInstrumentMaintenanceTask Kind = "instrument_maintenance_task"
	// KindInstrumentScheduledTask identifies a scheduled instrument task.
	KindInstrumentScheduledTask Kind = "instrument_scheduled_task"
	// KindSampleMatrix identifies a sample matrix record.
	KindSampleMatrix Kind = "sample_matrix"
	// KindBatchLabel identifies a batch label record.
	KindBatchLabel Kind = "batch_label"
	// KindSampleType identifies a sample type record.
	KindSampleType Kind = "sample_type"
	// KindSamplePoint identifies a sampling location record.
	KindSamplePoint Kind = "sample_point"
	// KindStorageLocation identifies a storage location record.
	KindStorageLocation Kind = "storage_location"
	// KindSampleCondition identifies a sample condition record.
	KindSampleCondition Kind = "sample_condition"
	// KindAnalysisCategory identifies an analysis category record.
	KindAnalysisCategory Kind = "analysis_category"
	// KindMethod identifies an analytical method record.
	KindMethod Kind = "method"
	// KindSamplingDeviation identifies a sampling deviation record.
	KindSamplingDeviation Kind = "sampling_deviation"
	// KindCalculation identifies a result calculation record.
	KindCalculation Kind = "calculation"
	// KindAnalysisService identifies an analysis service record.
	KindAnalysisService Kind = "analysis_service"
	// KindAnalysisSpec identifies an analysis specification record.
	KindAnalysisSpec Kind = "analysis_spec"
	// KindAnalysisProfile identifies an analysis profile record.
	KindAnalysisProfile Kind = "analysis_profile"
	// KindSampleTemplate identifies a sample template record.
	KindSampleTemplate Kind = "sample_template"
	// KindReferenceDefinition identifies a reference definition record.
	KindReferenceDefinition Kind = "reference_definition"
	// KindWorksheetTemplate identifies a worksheet template record.
	KindWorksheetTemplate Kind = "worksheet_template"
	// KindLabSetup identifies the singleton laboratory settings record.
	KindLabSetup Kind = "lab_setup"
	// KindAttachmentType identifies an attachment type record.
	KindAttachmentType Kind = "attachment_type"
	// KindReferenceSample identifies a reference sample record.
	KindReferenceSample Kind = "reference_sample"
	// KindAnalysisRequest identifies an analysis request record.
	KindAnalysisRequest Kind = "analysis_request"
	// KindInvoiceBatch identifies an invoice batch record.
	KindInvoiceBatch Kind = "invoice_batch"
)

// Capability flags an optional field family an entity kind opts into.
type Capability uint8

// Capabilities checked once per driver run before filling optional fields.
const (
	// CanAddress marks kinds carrying physical/postal/billing addresses.
	CanAddress Capability = 1 << iota
	// CanContactInfo marks kinds carrying email and phone fields.
	CanContactInfo
)

var kindCapabilities = map[Kind]Capability{
	KindLabInformation:  CanAddress,
	KindClient:          CanAddress | CanContactInfo,
	KindClientContact:   CanAddress | CanContactInfo,
	KindLabContact:      CanAddress | CanContactInfo,
	KindSupplier:        CanAddress | CanContactInfo,
	KindSupplierContact: CanAddress | CanContactInfo,
	KindManufacturer:    CanAddress,
}

// Supports reports whether the kind opted into the given capability.
func (k Kind) Supports(c Capability) bool {
	return kindCapabilities[k]&c == c
}

// Base contains common fields for all stored entities.
type Base struct {
	UID       string    `json:"uid"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Entity is one stored record. The import engine treats entities as opaque
// handles: a stable UID usable as a relation target, a kind, a parent UID
// forming the containment hierarchy, a title used for display and lookup,
// and a bag of typed fields.
type Entity struct {
	Base
	Kind   Kind   `json:"kind"`
	Parent string `json:"parent,omitempty"`
	Title  string `json:"title"`
	Fields Values `json:"fields,omitempty"`
}

// Clone returns a deep copy safe to mutate without affecting stored state.
func (e Entity) Clone() Entity {
	clone := e
	clone.Fields = e.Fields.Clone()
	return clone
}

// Field returns the named field value and whether it is set.
func (e Entity) Field(name string) (Value, bool) {
	v, ok := e.Fields[name]
	return v, ok
}

// SetField assigns the named field, allocating the field map when needed.
func (e *Entity) SetField(name string, v Value) {
	if e.Fields == nil {
		e.Fields = Values{}
	}
	e.Fields[name] = v
}

// AppendRef appends a UID to a multi-reference field without duplicating an
// existing entry. Existing order is preserved.
func (e *Entity) AppendRef(name, uid string) {
	current := e.Fields[name]
	for _, ref := range current.Refs {
		if ref == uid {
			return
		}
	}
	refs := append(append([]string(nil), current.Refs...), uid)
	e.SetField(name, RefsValue(refs...))
}
