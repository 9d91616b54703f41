package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific form field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is a user-facing rejection of submitted data. Nothing has been persisted when one is returned.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if len(err.Fields) > 0 {
		return err.Fields[0].Error
	}
	if err.Err != nil {
		return err.Err.Error()
	}
	return ""
}

// Messages returns every message carried by the error, field errors first.
func (err ValidationError) Messages() []string {
	msgs := make([]string, 0, len(err.Fields)+1)
	for _, fe := range err.Fields {
		msgs = append(msgs, fe.Error)
	}
	if len(msgs) == 0 && err.Err != nil {
		msgs = append(msgs, err.Err.Error())
	}
	return msgs
}

// IsValidationError reports whether the cause of err is a *ValidationError.
func IsValidationError(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
