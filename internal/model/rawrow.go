package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// RawRow is one untyped spreadsheet row. Every field is optional; an absent
// or null cell is the empty string.
type RawRow struct {
	ID        string `json:"ID"`
	Name      string `json:"Name"`
	Type      string `json:"Type"`
	Address   string `json:"Address"`
	Phone     string `json:"Phone"`
	Website   string `json:"Website"`
	Email     string `json:"Email"`
	Latitude  string `json:"Latitude"`
	Longitude string `json:"Longitude"`
	Country   string `json:"Country"`
	City      string `json:"City"`
	Specialty string `json:"Specialty"`
	Status    string `json:"Status,omitempty"`
}

// rowKeys maps lower-cased header names, English and Spanish, to a field setter.
var rowKeys = map[string]func(*RawRow, string){
	"id":           func(r *RawRow, v string) { r.ID = v },
	"name":         func(r *RawRow, v string) { r.Name = v },
	"nombre":       func(r *RawRow, v string) { r.Name = v },
	"type":         func(r *RawRow, v string) { r.Type = v },
	"tipo":         func(r *RawRow, v string) { r.Type = v },
	"address":      func(r *RawRow, v string) { r.Address = v },
	"dirección":    func(r *RawRow, v string) { r.Address = v },
	"direccion":    func(r *RawRow, v string) { r.Address = v },
	"phone":        func(r *RawRow, v string) { r.Phone = v },
	"teléfono":     func(r *RawRow, v string) { r.Phone = v },
	"telefono":     func(r *RawRow, v string) { r.Phone = v },
	"website":      func(r *RawRow, v string) { r.Website = v },
	"sitio web":    func(r *RawRow, v string) { r.Website = v },
	"web":          func(r *RawRow, v string) { r.Website = v },
	"email":        func(r *RawRow, v string) { r.Email = v },
	"correo":       func(r *RawRow, v string) { r.Email = v },
	"latitude":     func(r *RawRow, v string) { r.Latitude = v },
	"latitud":      func(r *RawRow, v string) { r.Latitude = v },
	"longitude":    func(r *RawRow, v string) { r.Longitude = v },
	"longitud":     func(r *RawRow, v string) { r.Longitude = v },
	"country":      func(r *RawRow, v string) { r.Country = v },
	"país":         func(r *RawRow, v string) { r.Country = v },
	"pais":         func(r *RawRow, v string) { r.Country = v },
	"city":         func(r *RawRow, v string) { r.City = v },
	"ciudad":       func(r *RawRow, v string) { r.City = v },
	"specialty":    func(r *RawRow, v string) { r.Specialty = v },
	"especialidad": func(r *RawRow, v string) { r.Specialty = v },
	"status":       func(r *RawRow, v string) { r.Status = v },
	"estado":       func(r *RawRow, v string) { r.Status = v },
}

// RowFromFields builds a RawRow from header/value pairs. Unknown headers are
// ignored. Header matching is case-insensitive.
func RowFromFields(fields map[string]string) RawRow {
	var r RawRow
	for k, v := range fields {
		if set, ok := rowKeys[strings.ToLower(strings.TrimSpace(k))]; ok {
			set(&r, v)
		}
	}
	return r
}

// UnmarshalJSON accepts a JSON object with English or Spanish keys in any
// casing. Numbers and booleans are kept in their literal text form.
func (r *RawRow) UnmarshalJSON(data []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return eris.Wrap(err, "model: decode raw row")
	}
	fields := make(map[string]string, len(obj))
	for k, raw := range obj {
		v, ok, err := cellString(raw)
		if err != nil {
			return eris.Wrapf(err, "model: decode raw row field %q", k)
		}
		if ok {
			fields[k] = v
		}
	}
	*r = RowFromFields(fields)
	return nil
}

func cellString(raw json.RawMessage) (string, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false, nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false, err
		}
		return s, true, nil
	case '{', '[':
		// Nested values have no cell meaning.
		return "", false, nil
	default:
		return string(raw), true, nil
	}
}

// RawRowFromOrganization converts an organization back to the row shape the
// spreadsheet backend appends. Status is left to the backend.
func RawRowFromOrganization(o Organization) RawRow {
	return RawRow{
		ID:        o.ID,
		Name:      o.Name,
		Type:      SheetTypeLabel(o.Type),
		Address:   o.Address,
		Phone:     o.Phone,
		Website:   o.Website,
		Email:     o.Email,
		Latitude:  strconv.FormatFloat(o.Coordinates.Lat(), 'f', -1, 64),
		Longitude: strconv.FormatFloat(o.Coordinates.Lng(), 'f', -1, 64),
		Country:   o.Country,
		City:      o.City,
		Specialty: o.Specialty,
	}
}

// SheetTypeLabel returns the capitalized Type cell value the sheets use.
func SheetTypeLabel(t OrgType) string {
	switch t {
	case TypeHospital:
		return DefaultHospitalType
	case TypeAssociation:
		return DefaultAssociationType
	default:
		return string(t)
	}
}
