package orgform

import (
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kingrea/orgdesk/internal/orgapi"
)

// Field names as they appear in the form and on the wire.
const (
	FieldName         = "name"
	FieldContactName  = "contact_name"
	FieldContactEmail = "contact_email"
)

// Fields holds the three form inputs.
type Fields struct {
	Name         string `json:"name" validate:"required"`
	ContactName  string `json:"contact_name" validate:"required"`
	ContactEmail string `json:"contact_email" validate:"required,email"`
}

// Request converts the inputs into the service payload. Values are sent as
// entered.
func (f Fields) Request() orgapi.CreateOrganizationRequest {
	return orgapi.CreateOrganizationRequest{
		Name:         f.Name,
		ContactName:  f.ContactName,
		ContactEmail: f.ContactEmail,
	}
}

// ValidationErrors maps a field name to a human-readable problem.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v[k])
	}
	return "orgform: " + strings.Join(parts, "; ")
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func fieldValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate applies the input-layer constraints: every field is required
// (whitespace-only counts as empty) and the contact email must be
// email-shaped.
func Validate(f Fields) error {
	trimmed := Fields{
		Name:         strings.TrimSpace(f.Name),
		ContactName:  strings.TrimSpace(f.ContactName),
		ContactEmail: strings.TrimSpace(f.ContactEmail),
	}
	err := fieldValidator().Struct(trimmed)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := ValidationErrors{}
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = messageFor(fe)
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Please fill out this field."
	case "email":
		return "Please enter an email address."
	default:
		return "Value is invalid."
	}
}
