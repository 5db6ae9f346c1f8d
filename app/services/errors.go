package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"personalblog/app/repositories"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrNotFound is returned when a key does not resolve to a record.
	ErrNotFound = repositories.ErrNotFound
	// ErrPermission is returned when the requester does not own the post.
	ErrPermission = errors.New("permission denied")
	// ErrAuthentication is returned when an anonymous requester calls an
	// operation that needs a registered user.
	ErrAuthentication = errors.New("authentication required")
	// ErrUsernameTaken is returned by Register for a duplicate username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidLogin is returned by Login for an unknown user or bad password.
	ErrInvalidLogin = errors.New("invalid username or password")
)

// ValidationError carries field level messages keyed by form field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// newValidationError converts validator output into a ValidationError.
// Errors of any other kind are returned unchanged.
func newValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "username":
		return "Enter a valid username. Letters, digits and @/./+/-/_ only."
	}
	return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
}

// IsValidation reports whether err is a ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var verr *ValidationError
	ok := errors.As(err, &verr)
	return verr, ok
}
