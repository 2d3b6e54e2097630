package model

// Sheet names understood by the spreadsheet backend.
const (
	SheetHospitals    = "Hospitales"
	SheetAssociations = "Asociaciones"
	SheetAll          = "all"
)

// Default Type values applied when flattening a combined upstream payload.
const (
	DefaultHospitalType     = "Hospital"
	DefaultAssociationType  = "Association"
	DefaultOrganizationType = "Organization"
)
