package lifecycle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yourusername/vat-einvoice/models"
)

var (
	ErrValidation   = errors.New("invoice validation failed")
	ErrStateGuard   = errors.New("transition not allowed")
	ErrUnknownEvent = errors.New("unknown lifecycle event")
)

// FieldError is one failing field, named by its JSON key.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects every field that blocks a transition. It matches
// ErrValidation with errors.Is.
type ValidationErrors struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationErrors) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationErrors) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func (e *ValidationErrors) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationErrors) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// GuardError is a refused transition whose precondition does not hold. It matches
// ErrStateGuard with errors.Is.
type GuardError struct {
	Event  Event                `json:"event"`
	From   models.InvoiceStatus `json:"from"`
	Reason string               `json:"reason"`
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("cannot %s invoice in status %d (%s): %s", e.Event, e.From, e.From.Label(), e.Reason)
}

func (e *GuardError) Is(target error) bool {
	return target == ErrStateGuard
}
