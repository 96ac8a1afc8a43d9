// Package setupdata holds the per-worksheet drivers that load a laboratory
// reference dataset. Each driver owns one primary worksheet, reading rows
// through the importer run and writing entities into the repository; a few
// also consume auxiliary sheets (interim fields, service relations, result
// ranges) tied to their primary one.
//
// Worksheet order is fixed: later sheets lean on entities created by
// earlier ones, and anything pointing the other way goes through the
// deferred reference queue.
package setupdata

import "limscore/internal/importer"

// Drivers returns the full driver set in processing order. The engine runs
// them exactly in this sequence.
func Drivers() []importer.Driver {
	return []importer.Driver{
		SubGroups{},
		LabInformation{},
		LabContacts{},
		LabDepartments{},
		LabProducts{},
		Clients{},
		ClientContacts{},
		ContainerTypes{},
		Preservations{},
		Containers{},
		Suppliers{},
		SupplierContacts{},
		Manufacturers{},
		InstrumentTypes{},
		Instruments{},
		InstrumentValidations{},
		InstrumentCalibrations{},
		InstrumentCertifications{},
		InstrumentDocuments{},
		InstrumentMaintenanceTasks{},
		InstrumentSchedule{},
		SampleMatrices{},
		BatchLabels{},
		SampleTypes{},
		SamplePoints{},
		SamplePointSampleTypes{},
		StorageLocations{},
		SampleConditions{},
		AnalysisCategories{},
		Methods{},
		SamplingDeviations{},
		Calculations{},
		AnalysisServices{},
		AnalysisSpecifications{},
		AnalysisProfiles{},
		SampleTemplates{},
		ReferenceDefinitions{},
		WorksheetTemplates{},
		Setup{},
		IDPrefixes{},
		AttachmentTypes{},
		ReferenceSamples{},
		AnalysisRequests{},
		InvoiceBatches{},
	}
}
