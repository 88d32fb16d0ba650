package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrConflict           = errors.New("conflict")
	ErrValidation         = errors.New("validation failed")
	ErrNothingToUpdate    = errors.New("nothing to update")
	ErrNoChange           = errors.New("value is unchanged")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
	ErrUnavailable        = errors.New("data store unavailable")
)

// ValidationError carries a message fit for showing to the user.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// DuplicateError is a unique-key violation on one column.
type DuplicateError struct {
	Entity string
	Field  string
}

func (e *DuplicateError) Error() string {
	article := "A"
	if e.Entity == "airport" {
		article = "An"
	}
	return fmt.Sprintf("%s %s with this %s already exists", article, e.Entity, fieldLabel(e.Field))
}

func (e *DuplicateError) Is(target error) bool { return target == ErrAlreadyExists }

func fieldLabel(field string) string {
	switch field {
	case "iatacode":
		return "IATA code"
	case "userid":
		return "user id"
	}
	return field
}

// UpcomingFlightsError rejects removing an airport that still has flights
// which have not landed.
type UpcomingFlightsError struct {
	Code  string
	Count int64
}

func (e *UpcomingFlightsError) Error() string {
	return fmt.Sprintf("cannot delete airport %s: there are %d upcoming flights associated with it", e.Code, e.Count)
}

func (e *UpcomingFlightsError) Is(target error) bool { return target == ErrConflict }

// Outcome tags what kind of result an operation produced.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeNotFound
	OutcomeAlreadyExists
	OutcomeConflict
	OutcomeValidation
	OutcomeNoChange
	OutcomeUnauthenticated
	OutcomeForbidden
	OutcomeUnavailable
	OutcomeInternal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeAlreadyExists:
		return "already_exists"
	case OutcomeConflict:
		return "conflict"
	case OutcomeValidation:
		return "validation"
	case OutcomeNoChange:
		return "no_change"
	case OutcomeUnauthenticated:
		return "unauthenticated"
	case OutcomeForbidden:
		return "forbidden"
	case OutcomeUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// OutcomeOf classifies err. A nil error is OutcomeOK.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, ErrAlreadyExists):
		return OutcomeAlreadyExists
	case errors.Is(err, ErrConflict):
		return OutcomeConflict
	case errors.Is(err, ErrValidation):
		return OutcomeValidation
	case errors.Is(err, ErrNothingToUpdate), errors.Is(err, ErrNoChange):
		return OutcomeNoChange
	case errors.Is(err, ErrInvalidCredentials):
		return OutcomeUnauthenticated
	case errors.Is(err, ErrForbidden):
		return OutcomeForbidden
	case errors.Is(err, ErrUnavailable):
		return OutcomeUnavailable
	default:
		return OutcomeInternal
	}
}
