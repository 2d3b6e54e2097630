// Package directory filters and searches an in-memory organization list.
package directory

import "github.com/sells-group/healthmap/internal/model"

// Counts holds the number of organizations per map category.
type Counts struct {
	Hospitals    int `json:"hospitals"`
	Associations int `json:"associations"`
}

// FilterByCategory keeps organizations whose type is enabled. With both
// flags false the result is empty. Non-canonical types never match.
func FilterByCategory(orgs []model.Organization, showHospitals, showAssociations bool) []model.Organization {
	out := make([]model.Organization, 0, len(orgs))
	if !showHospitals && !showAssociations {
		return out
	}
	for _, o := range orgs {
		switch {
		case o.Type == model.TypeHospital && showHospitals:
			out = append(out, o)
		case o.Type == model.TypeAssociation && showAssociations:
			out = append(out, o)
		}
	}
	return out
}

// VisibleOnly keeps organizations with the status flag set.
func VisibleOnly(orgs []model.Organization) []model.Organization {
	out := make([]model.Organization, 0, len(orgs))
	for _, o := range orgs {
		if o.Active() {
			out = append(out, o)
		}
	}
	return out
}

// VisibleCounts tallies organizations per canonical category.
func VisibleCounts(orgs []model.Organization) Counts {
	var c Counts
	for _, o := range orgs {
		switch o.Type {
		case model.TypeHospital:
			c.Hospitals++
		case model.TypeAssociation:
			c.Associations++
		}
	}
	return c
}
