package session

import "strings"

// ValidationError is a registration form problem tied to one field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ValidateRegistration checks the registration form before it is sent.
func ValidateRegistration(name, email, password, confirm string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return &ValidationError{Field: "name", Message: "Name is required"}
	case strings.TrimSpace(email) == "":
		return &ValidationError{Field: "email", Message: "Email is required"}
	case password == "":
		return &ValidationError{Field: "password", Message: "Password is required"}
	case password != confirm:
		return &ValidationError{Field: "confirmPassword", Message: "Passwords do not match"}
	}
	return nil
}
