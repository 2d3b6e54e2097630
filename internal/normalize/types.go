package normalize

import "github.com/sells-group/healthmap/internal/model"

// synonyms is keyed by folded type strings.
var synonyms = map[string]model.OrgType{
	"hospital":      model.TypeHospital,
	"hospitales":    model.TypeHospital,
	"hospitals":     model.TypeHospital,
	"clinica":       model.TypeHospital,
	"clinicas":      model.TypeHospital,
	"clinic":        model.TypeHospital,
	"centro medico": model.TypeHospital,

	"socio":        model.TypeAssociation,
	"miembro":      model.TypeAssociation,
	"association":  model.TypeAssociation,
	"associations": model.TypeAssociation,
	"asociacion":   model.TypeAssociation,
	"asociaciones": model.TypeAssociation,
}

// CanonicalType maps a raw Type cell to an OrgType. An empty value maps to
// hospital. The second result is false when a non-empty value matched no
// synonym; the value is then returned verbatim (trimmed).
func CanonicalType(raw string) (model.OrgType, bool) {
	folded := Fold(raw)
	if folded == "" {
		return model.TypeHospital, true
	}
	if t, ok := synonyms[folded]; ok {
		return t, true
	}
	return model.OrgType(trimSpace(raw)), false
}
