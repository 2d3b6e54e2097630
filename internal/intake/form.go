// Package intake holds the add-organization form: its data, validation and
// conversion to an Organization.
package intake

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"

	"github.com/sells-group/healthmap/internal/model"
)

// ErrInvalid is returned by Build when the form fails validation.
var ErrInvalid = eris.New("intake: form is invalid")

// FormData is the editable state of the add-organization form.
type FormData struct {
	Name        string             `json:"name" validate:"required"`
	Type        model.OrgType      `json:"type" validate:"oneof=hospital association"`
	Address     string             `json:"address" validate:"required"`
	Phone       string             `json:"phone"`
	Website     string             `json:"website" validate:"omitempty,url"`
	Email       string             `json:"email" validate:"omitempty,email"`
	Country     string             `json:"country" validate:"required"`
	City        string             `json:"city" validate:"required"`
	Specialty   string             `json:"specialty"`
	Coordinates *model.Coordinates `json:"coordinates" validate:"required,latlng"`
}

// NewFormData returns an empty form defaulting to a hospital.
func NewFormData() FormData {
	return FormData{Type: model.TypeHospital}
}

// WithCoordinates returns a copy of f with the point set.
func (f FormData) WithCoordinates(p model.Coordinates) FormData {
	f.Coordinates = &p
	return f
}

// Trimmed returns a copy with surrounding whitespace removed from text fields.
func (f FormData) Trimmed() FormData {
	f.Name = strings.TrimSpace(f.Name)
	f.Address = strings.TrimSpace(f.Address)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Website = strings.TrimSpace(f.Website)
	f.Email = strings.TrimSpace(f.Email)
	f.Country = strings.TrimSpace(f.Country)
	f.City = strings.TrimSpace(f.City)
	f.Specialty = strings.TrimSpace(f.Specialty)
	return f
}

// FieldErrors maps a form field (json name) to a message key.
type FieldErrors map[string]string

// messageKeys maps field and failed rule to a message key.
var messageKeys = map[string]string{
	"name.required":        "nameRequired",
	"address.required":     "addressRequired",
	"country.required":     "countryRequired",
	"city.required":        "cityRequired",
	"coordinates.required": "coordinatesRequired",
	"coordinates.latlng":   "coordinatesRequired",
	"type.oneof":           "typeInvalid",
	"website.url":          "websiteInvalid",
	"email.email":          "emailInvalid",
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func formValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("latlng", validLatLng)
		validate = v
	})
	return validate
}

func validLatLng(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return false
		}
		field = field.Elem()
	}
	c, ok := field.Interface().(model.Coordinates)
	return ok && c.Valid()
}

// Validate checks f after trimming. An empty result means the form is valid.
func (f FormData) Validate() FieldErrors {
	errs := FieldErrors{}
	err := formValidator().Struct(f.Trimmed())
	if err == nil {
		return errs
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs["form"] = "invalid"
		return errs
	}
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := errs[field]; seen {
			continue
		}
		key, ok := messageKeys[field+"."+fe.Tag()]
		if !ok {
			key = field + "Invalid"
		}
		errs[field] = key
	}
	return errs
}

// Organization converts a valid form into an Organization with id.
func (f FormData) Organization(id string) (model.Organization, error) {
	if errs := f.Validate(); len(errs) > 0 {
		return model.Organization{}, eris.Wrapf(ErrInvalid, "%d field(s)", len(errs))
	}
	t := f.Trimmed()
	return model.Organization{
		ID:          id,
		Name:        t.Name,
		Type:        t.Type,
		Address:     t.Address,
		Phone:       t.Phone,
		Website:     t.Website,
		Email:       t.Email,
		Country:     t.Country,
		City:        t.City,
		Specialty:   t.Specialty,
		Coordinates: *t.Coordinates,
	}, nil
}
