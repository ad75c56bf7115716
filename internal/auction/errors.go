package auction

import (
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrValidation matches any ValidationErrors value via errors.Is.
	ErrValidation = errors.New("auction: validation failed")
	// ErrInvalidInput reports a programming error such as a missing precondition.
	ErrInvalidInput = errors.New("auction: invalid input")
)

// Error locations used in validation reports.
const (
	LocationBody = "body"
	NameData     = "data"
)

// ValidationError is a single user-facing problem attached to a field path.
type ValidationError struct {
	Location    string `json:"location"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      int    `json:"-"`
}

func (e ValidationError) Error() string {
	if e.Name == "" {
		return e.Description
	}
	return e.Name + ": " + e.Description
}

// ValidationErrors accumulates problems so they can be reported together.
type ValidationErrors []ValidationError

// Add appends a problem reported against location/name.
func (v *ValidationErrors) Add(location, name, description string) {
	*v = append(*v, ValidationError{
		Location:    location,
		Name:        name,
		Description: description,
		Status:      http.StatusUnprocessableEntity,
	})
}

// AddField appends a body problem for a field path.
func (v *ValidationErrors) AddField(name, description string) {
	v.Add(LocationBody, name, description)
}

// Merge appends all problems from other.
func (v *ValidationErrors) Merge(other ValidationErrors) {
	*v = append(*v, other...)
}

// Status returns the HTTP-equivalent status of the report.
func (v ValidationErrors) Status() int {
	for _, e := range v {
		if e.Status != 0 {
			return e.Status
		}
	}
	return http.StatusUnprocessableEntity
}

// Err returns v as an error, or nil when empty.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return "auction: " + strings.Join(msgs, "; ")
}

// Is lets errors.Is(err, ErrValidation) match.
func (v ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}
