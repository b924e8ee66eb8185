package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
)

type Kind string

const (
	KindInvalidDate        Kind = "invalid_date"
	KindInvalidEnum        Kind = "invalid_enum"
	KindInvalidBool        Kind = "invalid_bool"
	KindInvalidNumber      Kind = "invalid_number"
	KindInvalidParameter   Kind = "invalid_parameter"
	KindMissingParameter   Kind = "missing_parameter"
	KindUnknownFormat      Kind = "unknown_format"
	KindMissingCredential  Kind = "missing_credential"
	KindRejectedCredential Kind = "rejected_credential"
	KindIncompleteDataset  Kind = "incomplete_dataset"
	KindMaintenanceMode    Kind = "maintenance_mode"
	KindSanityCheck        Kind = "sanity_check"
)

var statusCodes = map[Kind]int{
	KindInvalidDate:        http.StatusBadRequest,
	KindInvalidEnum:        http.StatusBadRequest,
	KindInvalidBool:        http.StatusBadRequest,
	KindInvalidNumber:      http.StatusBadRequest,
	KindInvalidParameter:   http.StatusBadRequest,
	KindMissingParameter:   http.StatusBadRequest,
	KindUnknownFormat:      http.StatusBadRequest,
	KindMissingCredential:  http.StatusBadRequest,
	KindRejectedCredential: http.StatusForbidden,
	KindIncompleteDataset:  http.StatusNotFound,
	KindMaintenanceMode:    http.StatusServiceUnavailable,
	KindSanityCheck:        http.StatusInternalServerError,
}

// PipelineError is a request failure with a known HTTP meaning.
type PipelineError struct {
	Kind    Kind
	Param   string
	Value   string
	Message string
	cause   error
}

func (e *PipelineError) Error() string {
	return e.Message
}

func (e *PipelineError) Unwrap() error {
	return e.cause
}

func (e *PipelineError) StatusCode() int {
	if code, ok := statusCodes[e.Kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}

func (e *PipelineError) ToHTTPError() *httperror.HTTPError {
	herr := httperror.NewHTTPError(e.StatusCode(), e.Message).AddMetaValue("kind", string(e.Kind))
	if e.Param != "" {
		herr = herr.AddMetaValue("param", e.Param)
	}
	if e.Value != "" {
		herr = herr.AddMetaValue("value", e.Value)
	}
	return herr
}

func newError(kind Kind, param, value, format string, args ...any) *PipelineError {
	return &PipelineError{
		Kind:    kind,
		Param:   param,
		Value:   value,
		Message: fmt.Sprintf(format, args...),
	}
}

func InvalidDate(param, value string) *PipelineError {
	return newError(KindInvalidDate, param, value,
		"invalid date '%s' for parameter '%s': use YYYY-MM-DD, YYYY-MM-DDTHH:MM:SS, YYYY-MM-DD HH:MM or a day offset", value, param)
}

func InvalidEnum(param, value string, choices []string) *PipelineError {
	return newError(KindInvalidEnum, param, value,
		"invalid value '%s' for parameter '%s': must be one of %s", value, param, strings.Join(choices, ", "))
}

func InvalidBool(param, value string) *PipelineError {
	return newError(KindInvalidBool, param, value, "invalid boolean '%s' for parameter '%s'", value, param)
}

func InvalidNumber(param, value string) *PipelineError {
	return newError(KindInvalidNumber, param, value, "invalid number '%s' for parameter '%s'", value, param)
}

func InvalidParameter(param, value, reason string) *PipelineError {
	return newError(KindInvalidParameter, param, value, "invalid value '%s' for parameter '%s': %s", value, param, reason)
}

func MissingParameter(param string) *PipelineError {
	return newError(KindMissingParameter, param, "", "missing required parameter '%s'", param)
}

func UnknownFormat(format string, supported []string) *PipelineError {
	return newError(KindUnknownFormat, "format", format,
		"unknown format '%s': supported formats are %s", format, strings.Join(supported, ", "))
}

func MissingCredential() *PipelineError {
	return newError(KindMissingCredential, "api_key", "", "Please provide an API key")
}

func RejectedCredential(endpoint string) *PipelineError {
	return newError(KindRejectedCredential, "api_key", "", "API key is not allowed to access %s", endpoint)
}

func IncompleteDataset(reason string) *PipelineError {
	return newError(KindIncompleteDataset, "check_complete", "",
		"%s. Set check_complete=false to return the available data anyway", reason)
}

func MaintenanceMode() *PipelineError {
	return newError(KindMaintenanceMode, "", "", "The API is under maintenance. Please try again later")
}

// SanityCheck reports an internal consistency failure. The message is logged, not shown.
func SanityCheck(format string, args ...any) *PipelineError {
	e := newError(KindSanityCheck, "", "", "Internal Server Error")
	e.cause = fmt.Errorf(format, args...)
	return e
}

// As returns the PipelineError in err's chain.
func As(err error) (*PipelineError, bool) {
	var perr *PipelineError
	if errors.As(err, &perr) {
		return perr, true
	}
	return nil, false
}

func IsKind(err error, kind Kind) bool {
	perr, ok := As(err)
	return ok && perr.Kind == kind
}

// ToHTTPError converts pipeline errors to httperror values and leaves other errors untouched.
func ToHTTPError(err error) error {
	if perr, ok := As(err); ok {
		return perr.ToHTTPError()
	}
	return err
}
