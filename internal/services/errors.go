package services

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindStorage      ErrorKind = "storage"
	KindUpload       ErrorKind = "upload"
	KindUnauthorized ErrorKind = "unauthorized"
	KindConflict     ErrorKind = "conflict"
	KindBadRequest   ErrorKind = "bad_request"
)

// ServiceError carries an HTTP status and a user-facing message. Cause is
// never shown to callers.
type ServiceError struct {
	Status  int
	Kind    ErrorKind
	Message string
	Fields  []FieldError
	Cause   error
}

func (e ServiceError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e ServiceError) Unwrap() error {
	return e.Cause
}

var ErrAlreadySubscribed = errors.New("already subscribed")

func ErrValidation(fields []FieldError) error {
	return ServiceError{Status: http.StatusBadRequest, Kind: KindValidation, Message: "Validation failed", Fields: fields}
}

func ErrNotFound(msg string) error {
	return ServiceError{Status: http.StatusNotFound, Kind: KindNotFound, Message: msg}
}

func ErrBadRequest(msg string) error {
	return ServiceError{Status: http.StatusBadRequest, Kind: KindBadRequest, Message: msg}
}

func ErrUnauthorized(msg string) error {
	return ServiceError{Status: http.StatusUnauthorized, Kind: KindUnauthorized, Message: msg}
}

func ErrConflict(msg string, cause error) error {
	return ServiceError{Status: http.StatusConflict, Kind: KindConflict, Message: msg, Cause: cause}
}

func ErrStorage(err error) error {
	return ServiceError{Status: http.StatusInternalServerError, Kind: KindStorage, Message: "Storage failure", Cause: err}
}

func ErrUpload(err error) error {
	return ServiceError{Status: http.StatusBadGateway, Kind: KindUpload, Message: "Image upload failed", Cause: err}
}

// IsKind reports whether err is a ServiceError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var serr ServiceError
	return errors.As(err, &serr) && serr.Kind == kind
}

// WrapError adds context to err, keeping nil as nil.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
