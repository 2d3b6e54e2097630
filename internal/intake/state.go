package intake

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/healthmap/internal/model"
)

// Form is the stateful add-organization form. It is not safe for
// concurrent use.
type Form struct {
	data    FormData
	errors  FieldErrors
	visible bool
}

// NewForm returns a hidden, empty form.
func NewForm() *Form {
	return &Form{data: NewFormData(), errors: FieldErrors{}}
}

// Open shows the form.
func (f *Form) Open() { f.visible = true }

// Close hides the form and resets it.
func (f *Form) Close() {
	f.visible = false
	f.Reset()
}

// Hide hides the form without touching its data.
func (f *Form) Hide() { f.visible = false }

// Show shows the form with data replaced by d.
func (f *Form) Show(d FormData) {
	f.data = d
	f.visible = true
	if d.Coordinates != nil {
		delete(f.errors, "coordinates")
	}
}

// Visible reports whether the form is shown.
func (f *Form) Visible() bool { return f.visible }

// Data returns a copy of the form data.
func (f *Form) Data() FormData {
	d := f.data
	if d.Coordinates != nil {
		c := *d.Coordinates
		d.Coordinates = &c
	}
	return d
}

// Errors returns the field errors from the last submit attempt.
func (f *Form) Errors() FieldErrors {
	out := make(FieldErrors, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// Reset clears data and errors.
func (f *Form) Reset() {
	f.data = NewFormData()
	f.errors = FieldErrors{}
}

// ErrUnknownField is returned by Set for names that are not form fields.
var ErrUnknownField = eris.New("intake: unknown field")

// Set updates one text field by its json name and clears its error.
func (f *Form) Set(field, value string) error {
	switch field {
	case "name":
		f.data.Name = value
	case "type":
		f.data.Type = model.OrgType(value)
	case "address":
		f.data.Address = value
	case "phone":
		f.data.Phone = value
	case "website":
		f.data.Website = value
	case "email":
		f.data.Email = value
	case "country":
		f.data.Country = value
	case "city":
		f.data.City = value
	case "specialty":
		f.data.Specialty = value
	default:
		return eris.Wrapf(ErrUnknownField, "%q", field)
	}
	delete(f.errors, field)
	return nil
}

// ClearCoordinates drops the selected point ("change location").
func (f *Form) ClearCoordinates() {
	f.data.Coordinates = nil
}

// Submit validates the form and builds the organization. On failure the
// field errors are kept on the form and returned.
func (f *Form) Submit(id string) (model.Organization, FieldErrors, error) {
	errs := f.data.Validate()
	f.errors = errs
	if len(errs) > 0 {
		return model.Organization{}, f.Errors(), eris.Wrapf(ErrInvalid, "%d field(s)", len(errs))
	}
	org, err := f.data.Organization(id)
	if err != nil {
		return model.Organization{}, nil, err
	}
	return org, nil, nil
}
