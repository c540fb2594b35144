package billogram

import (
	"errors"
	"fmt"
)

// Kind identifies one category of the Billogram API error taxonomy.
type Kind int

const (
	// KindMalfunction indicates a server-side fault: 5xx responses,
	// unexpected content types, or envelopes missing required fields.
	KindMalfunction Kind = iota + 1

	// KindRequestForm indicates a malformed request: bad HTTP method,
	// missing authentication data, or missing/invalid query parameters.
	KindRequestForm

	// KindPermissionDenied and its variants cover the 403 family.
	KindPermissionDenied
	KindInvalidAuthentication
	KindNotAuthorized

	// KindRequestData and its variants cover remote-reported validation
	// errors in the request payload.
	KindRequestData
	KindUnknownField
	KindMissingField
	KindInvalidFieldCombination
	KindInvalidFieldValue
	KindReadOnlyField
	KindInvalidObjectState
	KindNotFound
	KindNotAvailableYet
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindMalfunction:
		return "service malfunctioning"
	case KindRequestForm:
		return "request form error"
	case KindPermissionDenied:
		return "permission denied"
	case KindInvalidAuthentication:
		return "invalid authentication"
	case KindNotAuthorized:
		return "not authorized"
	case KindRequestData:
		return "request data error"
	case KindUnknownField:
		return "unknown field"
	case KindMissingField:
		return "missing field"
	case KindInvalidFieldCombination:
		return "invalid field combination"
	case KindInvalidFieldValue:
		return "invalid field value"
	case KindReadOnlyField:
		return "read-only field"
	case KindInvalidObjectState:
		return "invalid object state"
	case KindNotFound:
		return "object not found"
	case KindNotAvailableYet:
		return "object not available yet"
	default:
		return "unknown error"
	}
}

// APIError represents an error reported by the Billogram API, classified into
// the taxonomy above. Immutable once constructed.
type APIError struct {
	Kind      Kind
	Message   string
	Field     string
	FieldPath string
	Extra     map[string]interface{}

	cause error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field: %s)", e.Kind, e.Message, e.Field)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying transport error, if any.
func (e *APIError) Unwrap() error {
	return e.cause
}

// IsPermissionDenied reports whether the error belongs to the 403 family.
func (e *APIError) IsPermissionDenied() bool {
	switch e.Kind {
	case KindPermissionDenied, KindInvalidAuthentication, KindNotAuthorized:
		return true
	default:
		return false
	}
}

// IsRequestData reports whether the error belongs to the request-data family
// of remote-reported validation errors.
func (e *APIError) IsRequestData() bool {
	switch e.Kind {
	case KindRequestData, KindUnknownField, KindMissingField,
		KindInvalidFieldCombination, KindInvalidFieldValue,
		KindReadOnlyField, KindInvalidObjectState,
		KindNotFound, KindNotAvailableYet:
		return true
	default:
		return false
	}
}

// IsNotFound reports whether the error is a not-found variant.
func (e *APIError) IsNotFound() bool {
	return e.Kind == KindNotFound || e.Kind == KindNotAvailableYet
}

func isKind(err error, match func(*APIError) bool) bool {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return match(apiErr)
	}

	return false
}

// IsMalfunction checks if the error reports a server-side malfunction.
func IsMalfunction(err error) bool {
	return isKind(err, func(e *APIError) bool { return e.Kind == KindMalfunction })
}

// IsRequestForm checks if the error reports a malformed request.
func IsRequestForm(err error) bool {
	return isKind(err, func(e *APIError) bool { return e.Kind == KindRequestForm })
}

// IsPermissionDenied checks if the error belongs to the 403 family.
func IsPermissionDenied(err error) bool {
	return isKind(err, (*APIError).IsPermissionDenied)
}

// IsInvalidAuthentication checks if the error reports bad credentials.
func IsInvalidAuthentication(err error) bool {
	return isKind(err, func(e *APIError) bool { return e.Kind == KindInvalidAuthentication })
}

// IsNotAuthorized checks if the error reports a disallowed operation.
func IsNotAuthorized(err error) bool {
	return isKind(err, func(e *APIError) bool { return e.Kind == KindNotAuthorized })
}

// IsRequestData checks if the error belongs to the request-data family.
func IsRequestData(err error) bool {
	return isKind(err, (*APIError).IsRequestData)
}

// IsNotFound checks if the error is a not-found variant.
func IsNotFound(err error) bool {
	return isKind(err, (*APIError).IsNotFound)
}

// IsNotAvailableYet checks if the error reports an object that is reserved
// but not created yet.
func IsNotAvailableYet(err error) bool {
	return isKind(err, func(e *APIError) bool { return e.Kind == KindNotAvailableYet })
}

// IsInvalidObjectState checks if the error reports a workflow command that is
// not legal in the object's current state.
func IsInvalidObjectState(err error) bool {
	return isKind(err, func(e *APIError) bool { return e.Kind == KindInvalidObjectState })
}

// newAPIError builds an APIError with just a kind and message.
func newAPIError(kind Kind, message string) *APIError {
	return &APIError{Kind: kind, Message: message}
}

// apiErrorFromData builds an APIError from the data object of an error
// envelope, splitting out the well-known field/field_path keys.
func apiErrorFromData(kind Kind, remoteStatus string, data map[string]interface{}) *APIError {
	apiErr := &APIError{Kind: kind}

	extra := make(map[string]interface{})

	for key, value := range data {
		switch key {
		case "message":
			apiErr.Message, _ = value.(string)
		case "field":
			apiErr.Field, _ = value.(string)
		case "field_path":
			apiErr.FieldPath, _ = value.(string)
		default:
			extra[key] = value
		}
	}

	if len(extra) > 0 {
		apiErr.Extra = extra
	}

	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("request failed with status %s", remoteStatus)
	}

	return apiErr
}

// Static errors for err113 compliance.
var (
	ErrConfigRequired        = errors.New("config is required")
	ErrCredentialsRequired   = errors.New("API username and key are required")
	ErrObjectDeleted         = errors.New("object has been deleted")
	ErrIdentifierMissing     = errors.New("object data has no identifier field")
	ErrFieldNotLoaded        = errors.New("field not present in local snapshot")
	ErrAmountNotPositive     = errors.New("amount must be greater than zero")
	ErrInvalidSendMethod     = errors.New(`send method must be "Email", "Letter" or "Email+Letter"`)
	ErrInvalidRemindMethod   = errors.New(`reminder method must be "Email" or "Letter"`)
	ErrInvalidFilterType     = errors.New("filter type must be field, field-prefix, field-search or special")
	ErrIncompleteFilter      = errors.New("filter requires type, field and value")
	ErrInvalidOrderDirection = errors.New(`order direction must be "asc" or "desc"`)
	ErrOrderFieldRequired    = errors.New("order field is required")
	ErrInvalidPageSize       = errors.New("page size must be a positive integer")
	ErrInvalidPageNumber     = errors.New("page numbers start at 1")
	ErrNoStatesGiven         = errors.New("at least one state is required")
	ErrNoMoreItems           = errors.New("no more items")
)
