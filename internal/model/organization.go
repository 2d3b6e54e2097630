package model

import "math"

// OrgType is the canonical category of an organization. Values outside the
// two canonical constants are preserved verbatim from the source row.
type OrgType string

const (
	TypeHospital    OrgType = "hospital"
	TypeAssociation OrgType = "association"
)

// Canonical reports whether t is one of the two map categories.
func (t OrgType) Canonical() bool {
	return t == TypeHospital || t == TypeAssociation
}

// Coordinates is a [lat, lng] pair.
type Coordinates [2]float64

// Lat returns the latitude.
func (c Coordinates) Lat() float64 { return c[0] }

// Lng returns the longitude.
func (c Coordinates) Lng() float64 { return c[1] }

// Valid reports whether both components are finite and inside WGS84 bounds.
func (c Coordinates) Valid() bool {
	return ValidLatLng(c[0], c[1])
}

// ValidLatLng reports whether lat is in [-90, 90] and lng is in [-180, 180].
func ValidLatLng(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// Organization is a normalized directory entry.
type Organization struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Type        OrgType     `json:"type"`
	Address     string      `json:"address"`
	Phone       string      `json:"phone"`
	Website     string      `json:"website"`
	Email       string      `json:"email"`
	Country     string      `json:"country"`
	City        string      `json:"city"`
	Specialty   string      `json:"specialty"`
	Coordinates Coordinates `json:"coordinates"`
	Status      int         `json:"status"`
}

// Active reports whether the status flag is set.
func (o Organization) Active() bool {
	return o.Status == 1
}
