package checkout

import (
	"sort"
	"strings"
)

// Form is the buyer's shipping and contact details.
type Form struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Apartment string `json:"apartment,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zipCode"`
	Country   string `json:"country"`
}

// ValidationErrors maps a form field to its problem.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "missing fields: " + strings.Join(fields, ", ")
}

type requiredField struct {
	name  string
	label string
	value func(Form) string
}

var requiredFields = []requiredField{
	{"firstName", "First name", func(f Form) string { return f.FirstName }},
	{"lastName", "Last name", func(f Form) string { return f.LastName }},
	{"email", "Email", func(f Form) string { return f.Email }},
	{"phone", "Phone", func(f Form) string { return f.Phone }},
	{"address", "Address", func(f Form) string { return f.Address }},
	{"city", "City", func(f Form) string { return f.City }},
	{"state", "State", func(f Form) string { return f.State }},
	{"zipCode", "ZIP code", func(f Form) string { return f.Zip }},
	{"country", "Country", func(f Form) string { return f.Country }},
}

// Validate returns nil when every required field is non-blank.
func (f Form) Validate() ValidationErrors {
	var errs ValidationErrors
	for _, rf := range requiredFields {
		if strings.TrimSpace(rf.value(f)) != "" {
			continue
		}
		if errs == nil {
			errs = ValidationErrors{}
		}
		errs[rf.name] = rf.label + " is required"
	}
	return errs
}

// FullName joins first and last name.
func (f Form) FullName() string {
	return strings.TrimSpace(f.FirstName + " " + f.LastName)
}
