package billogram

import (
	"encoding/json"
	"fmt"
	"net/http"

	internalhttp "github.com/billogram/billogram-go/internal/http"
)

// statusKinds dispatches the remote status string of a non-OK envelope to an
// error kind. Anything not listed is a generic request-data error.
var statusKinds = map[string]Kind{
	"MISSING_QUERY_PARAMETER":       KindRequestForm,
	"INVALID_QUERY_PARAMETER":       KindRequestForm,
	"INVALID_PARAMETER":             KindInvalidFieldValue,
	"INVALID_PARAMETER_COMBINATION": KindInvalidFieldCombination,
	"READ_ONLY_PARAMETER":           KindReadOnlyField,
	"UNKNOWN_PARAMETER":             KindUnknownField,
	"INVALID_OBJECT_STATE":          KindInvalidObjectState,
}

// classify maps an HTTP response onto either a successful envelope or an
// APIError from the taxonomy. expect is the content type the caller expects;
// it defaults to JSON, and failed requests always carry a JSON error body.
func classify(resp *internalhttp.Response, expect string) (*Envelope, error) {
	if expect == "" || resp.StatusCode >= http.StatusBadRequest {
		expect = contentTypeJSON
	}

	if resp.StatusCode >= http.StatusInternalServerError && resp.StatusCode < 600 {
		return nil, classifyServerError(resp, expect)
	}

	if resp.ContentType != expect {
		return nil, classifyContentTypeMismatch(resp)
	}

	if expect != contentTypeJSON {
		// Non-JSON responses with the expected content type are always
		// successful; return the raw body.
		return &Envelope{Text: string(resp.Body)}, nil
	}

	var envelope Envelope

	err := json.Unmarshal(resp.Body, &envelope)
	if err != nil {
		return nil, newAPIError(KindMalfunction, "response body is not valid JSON")
	}

	if envelope.Status == "" {
		return nil, newAPIError(KindMalfunction, "response data missing status field")
	}

	if envelope.Data == nil {
		return nil, newAPIError(KindMalfunction, "response data missing data field")
	}

	// Status-code-specific overrides come before the generic dispatch on the
	// remote status string.
	switch resp.StatusCode {
	case http.StatusForbidden:
		return nil, classifyForbidden(envelope.Status)
	case http.StatusNotFound:
		if envelope.Status == "NOT_AVAILABLE_YET" {
			return nil, newAPIError(KindNotAvailableYet, "object not available yet")
		}

		return nil, newAPIError(KindNotFound, "object not found")
	case http.StatusMethodNotAllowed:
		return nil, newAPIError(KindRequestForm, "invalid HTTP method")
	}

	if envelope.Status == "OK" {
		return &envelope, nil
	}

	kind, ok := statusKinds[envelope.Status]
	if !ok {
		kind = KindRequestData
	}

	// Error envelopes carry the detail payload in the data object.
	errorData, err := envelope.DataObject()
	if err != nil {
		errorData = nil
	}

	return nil, apiErrorFromData(kind, envelope.Status, errorData)
}

// classifyServerError handles the 5xx range. The remote error detail is only
// trusted when the body actually is the JSON the caller expected.
func classifyServerError(resp *internalhttp.Response, expect string) *APIError {
	if resp.ContentType == expect && expect == contentTypeJSON {
		var envelope Envelope

		err := json.Unmarshal(resp.Body, &envelope)
		if err == nil {
			message := ""

			if data, dataErr := envelope.DataObject(); dataErr == nil {
				message, _ = data["message"].(string)
			}

			return newAPIError(KindMalfunction,
				fmt.Sprintf("service reported a server error: %s - %s", envelope.Status, message))
		}
	}

	return newAPIError(KindMalfunction, "service reported a server error")
}

// classifyContentTypeMismatch handles responses whose content type differs
// from the expected one, which usually means a remote malfunction.
func classifyContentTypeMismatch(resp *internalhttp.Response) *APIError {
	if resp.ContentType == contentTypeJSON {
		var envelope Envelope

		err := json.Unmarshal(resp.Body, &envelope)
		if err == nil && envelope.Status == "NOT_AVAILABLE_YET" {
			return newAPIError(KindNotAvailableYet, "object not available yet")
		}
	}

	return newAPIError(KindMalfunction, "service returned unexpected content type")
}

// classifyForbidden maps the remote status of a 403 response.
func classifyForbidden(remoteStatus string) *APIError {
	switch remoteStatus {
	case "PERMISSION_DENIED":
		return newAPIError(KindNotAuthorized, "not allowed to perform the requested operation")
	case "INVALID_AUTH":
		return newAPIError(KindInvalidAuthentication,
			"the user/key combination is wrong, check the credentials used and possibly generate a new set")
	case "MISSING_AUTH":
		return newAPIError(KindRequestForm, "no authentication data was given")
	default:
		return newAPIError(KindPermissionDenied,
			fmt.Sprintf("permission denied, status=%s", remoteStatus))
	}
}
