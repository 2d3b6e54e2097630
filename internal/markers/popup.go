package markers

import (
	"bytes"
	"html/template"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rotisserie/eris"

	"github.com/sells-group/healthmap/internal/model"
)

// Translator resolves UI strings. Implementations return the key itself
// when no translation exists.
type Translator interface {
	Translate(key string, placeholders map[string]string) string
}

var fallbackLabels = map[string]string{
	"hospital":     "Hospital",
	"association":  "Association",
	"type":         "Type",
	"address":      "Address",
	"phone":        "Phone",
	"website":      "Website",
	"email":        "Email",
	"specialty":    "Specialty",
	"notAvailable": "Not available",
}

func label(tr Translator, key string) string {
	if tr != nil {
		if s := tr.Translate(key, nil); s != "" && s != key {
			return s
		}
	}
	if s, ok := fallbackLabels[key]; ok {
		return s
	}
	return key
}

type popupLabels struct {
	Type, Address, Phone, Website, Email, Specialty, NotAvailable string
}

type popupData struct {
	Class     string
	Name      string
	TypeName  string
	Address   string
	MapsURL   string
	Lat, Lng  string
	Phone     string
	Website   string
	Email     string
	Specialty string
	Labels    popupLabels
}

var popupTmpl = template.Must(template.New("popup").Parse(`<div class="organization-popup">
<h3 class="popup-title {{.Class}}">{{.Name}}</h3>
<p><strong>{{.Labels.Type}}:</strong> {{.TypeName}}</p>
<p><strong>{{.Labels.Address}}:</strong> <a class="address-link" href="{{.MapsURL}}" data-lat="{{.Lat}}" data-lng="{{.Lng}}">{{.Address}}</a></p>
<p><strong>{{.Labels.Phone}}:</strong> {{if .Phone}}<a href="tel:{{.Phone}}">{{.Phone}}</a>{{else}}{{.Labels.NotAvailable}}{{end}}</p>
<p><strong>{{.Labels.Website}}:</strong> {{if .Website}}<a href="{{.Website}}">{{.Website}}</a>{{else}}{{.Labels.NotAvailable}}{{end}}</p>
<p><strong>{{.Labels.Email}}:</strong> {{if .Email}}<a href="mailto:{{.Email}}">{{.Email}}</a>{{else}}{{.Labels.NotAvailable}}{{end}}</p>
{{- if .Specialty}}
<p><strong>{{.Labels.Specialty}}:</strong> {{.Specialty}}</p>
{{- end}}
</div>`))

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func popupPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowAttrs("class").Globally()
		p.AllowAttrs("data-lat", "data-lng").OnElements("a")
		p.AllowURLSchemes("http", "https", "mailto", "tel")
		p.AddTargetBlankToFullyQualifiedLinks(true)
		policy = p
	})
	return policy
}

// Popup renders the escaped, sanitized popup HTML for an organization.
func Popup(o model.Organization, tr Translator) (string, error) {
	style := associationStyle
	typeName := string(o.Type)
	switch o.Type {
	case model.TypeHospital:
		style = hospitalStyle
		typeName = label(tr, "hospital")
	case model.TypeAssociation:
		typeName = label(tr, "association")
	}

	data := popupData{
		Class:     style.class,
		Name:      o.Name,
		TypeName:  typeName,
		Address:   o.Address,
		MapsURL:   WebMapsURL(o.Coordinates.Lat(), o.Coordinates.Lng()),
		Lat:       formatCoord(o.Coordinates.Lat()),
		Lng:       formatCoord(o.Coordinates.Lng()),
		Phone:     o.Phone,
		Website:   o.Website,
		Email:     o.Email,
		Specialty: o.Specialty,
		Labels: popupLabels{
			Type:         label(tr, "type"),
			Address:      label(tr, "address"),
			Phone:        label(tr, "phone"),
			Website:      label(tr, "website"),
			Email:        label(tr, "email"),
			Specialty:    label(tr, "specialty"),
			NotAvailable: label(tr, "notAvailable"),
		},
	}

	var buf bytes.Buffer
	if err := popupTmpl.Execute(&buf, data); err != nil {
		return "", eris.Wrap(err, "markers: render popup")
	}
	return popupPolicy().Sanitize(buf.String()), nil
}
