package billogram

import (
	"testing"

	internalhttp "github.com/billogram/billogram-go/internal/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonResponse(statusCode int, body string) *internalhttp.Response {
	return &internalhttp.Response{
		StatusCode:  statusCode,
		ContentType: "application/json",
		Body:        []byte(body),
	}
}

func requireAPIError(t *testing.T, err error) *APIError {
	t.Helper()

	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok, "expected *APIError, got %T", err)

	return apiErr
}

func TestClassify_ServerErrors(t *testing.T) {
	t.Run("all 5xx codes are malfunctions regardless of body", func(t *testing.T) {
		bodies := []string{
			`{"status": "INTERNAL_ERROR", "data": {"message": "database on fire"}}`,
			`{"status": "OK", "data": {}}`,
			`not json at all`,
			``,
		}

		for _, code := range []int{500, 501, 502, 503, 550, 599} {
			for _, body := range bodies {
				_, err := classify(jsonResponse(code, body), "")
				apiErr := requireAPIError(t, err)
				assert.Equal(t, KindMalfunction, apiErr.Kind, "code %d body %q", code, body)
			}
		}
	})

	t.Run("remote detail is carried when the body parses", func(t *testing.T) {
		resp := jsonResponse(500, `{"status": "INTERNAL_ERROR", "data": {"message": "database on fire"}}`)

		_, err := classify(resp, "")
		apiErr := requireAPIError(t, err)
		assert.Contains(t, apiErr.Message, "INTERNAL_ERROR")
		assert.Contains(t, apiErr.Message, "database on fire")
	})

	t.Run("non-JSON 5xx body yields the generic malfunction", func(t *testing.T) {
		resp := &internalhttp.Response{
			StatusCode:  502,
			ContentType: "text/html",
			Body:        []byte("<html>bad gateway</html>"),
		}

		_, err := classify(resp, "")
		apiErr := requireAPIError(t, err)
		assert.Equal(t, KindMalfunction, apiErr.Kind)
		assert.Equal(t, "service reported a server error", apiErr.Message)
	})
}

func TestClassify_ContentTypeMismatch(t *testing.T) {
	t.Run("unexpected content type is a malfunction", func(t *testing.T) {
		resp := &internalhttp.Response{
			StatusCode:  200,
			ContentType: "text/html",
			Body:        []byte("<html></html>"),
		}

		_, err := classify(resp, "")
		apiErr := requireAPIError(t, err)
		assert.Equal(t, KindMalfunction, apiErr.Kind)
	})

	t.Run("JSON body with NOT_AVAILABLE_YET wins over the mismatch", func(t *testing.T) {
		resp := jsonResponse(200, `{"status": "NOT_AVAILABLE_YET", "data": {}}`)

		_, err := classify(resp, "application/pdf")
		apiErr := requireAPIError(t, err)
		assert.Equal(t, KindNotAvailableYet, apiErr.Kind)
	})

	t.Run("JSON body with another status stays a malfunction", func(t *testing.T) {
		resp := jsonResponse(200, `{"status": "OK", "data": {}}`)

		_, err := classify(resp, "application/pdf")
		apiErr := requireAPIError(t, err)
		assert.Equal(t, KindMalfunction, apiErr.Kind)
	})
}

func TestClassify_NonJSONSuccess(t *testing.T) {
	resp := &internalhttp.Response{
		StatusCode:  200,
		ContentType: "text/csv",
		Body:        []byte("id;amount\n1;100\n"),
	}

	envelope, err := classify(resp, "text/csv")
	require.NoError(t, err)
	assert.Equal(t, "id;amount\n1;100\n", envelope.Text)
}

func TestClassify_MalformedEnvelope(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid JSON", `{"status": `},
		{"missing status", `{"data": {}}`},
		{"missing data", `{"status": "OK"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := classify(jsonResponse(200, tt.body), "")
			apiErr := requireAPIError(t, err)
			assert.Equal(t, KindMalfunction, apiErr.Kind)
		})
	}
}

func TestClassify_Forbidden(t *testing.T) {
	tests := []struct {
		remoteStatus string
		wantKind     Kind
	}{
		{"PERMISSION_DENIED", KindNotAuthorized},
		{"INVALID_AUTH", KindInvalidAuthentication},
		{"MISSING_AUTH", KindRequestForm},
		{"SOMETHING_ELSE", KindPermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.remoteStatus, func(t *testing.T) {
			body := `{"status": "` + tt.remoteStatus + `", "data": {}}`

			_, err := classify(jsonResponse(403, body), "")
			apiErr := requireAPIError(t, err)
			assert.Equal(t, tt.wantKind, apiErr.Kind)
			assert.True(t, IsPermissionDenied(err) || tt.wantKind == KindRequestForm)
		})
	}
}

func TestClassify_NotFound(t *testing.T) {
	t.Run("plain 404", func(t *testing.T) {
		_, err := classify(jsonResponse(404, `{"status": "NOT_FOUND", "data": {}}`), "")
		apiErr := requireAPIError(t, err)
		assert.Equal(t, KindNotFound, apiErr.Kind)
	})

	t.Run("404 with NOT_AVAILABLE_YET is not a plain not-found", func(t *testing.T) {
		_, err := classify(jsonResponse(404, `{"status": "NOT_AVAILABLE_YET", "data": {}}`), "")
		apiErr := requireAPIError(t, err)
		assert.Equal(t, KindNotAvailableYet, apiErr.Kind)
		assert.True(t, IsNotFound(err), "NotAvailableYet is a not-found variant")
	})
}

func TestClassify_MethodNotAllowed(t *testing.T) {
	_, err := classify(jsonResponse(405, `{"status": "NOT_ALLOWED", "data": {}}`), "")
	apiErr := requireAPIError(t, err)
	assert.Equal(t, KindRequestForm, apiErr.Kind)
}

func TestClassify_Success(t *testing.T) {
	resp := jsonResponse(200, `{"status": "OK", "data": {"id": "abc"}, "meta": {"total_count": 7}}`)

	envelope, err := classify(resp, "")
	require.NoError(t, err)
	assert.Equal(t, "OK", envelope.Status)
	require.NotNil(t, envelope.Meta)
	assert.Equal(t, 7, envelope.Meta.TotalCount)

	data, err := envelope.DataObject()
	require.NoError(t, err)
	assert.Equal(t, "abc", data["id"])
}

func TestClassify_StatusDispatch(t *testing.T) {
	tests := []struct {
		remoteStatus string
		wantKind     Kind
	}{
		{"MISSING_QUERY_PARAMETER", KindRequestForm},
		{"INVALID_QUERY_PARAMETER", KindRequestForm},
		{"INVALID_PARAMETER", KindInvalidFieldValue},
		{"INVALID_PARAMETER_COMBINATION", KindInvalidFieldCombination},
		{"READ_ONLY_PARAMETER", KindReadOnlyField},
		{"UNKNOWN_PARAMETER", KindUnknownField},
		{"INVALID_OBJECT_STATE", KindInvalidObjectState},
		{"SOME_FUTURE_STATUS", KindRequestData},
	}

	for _, tt := range tests {
		t.Run(tt.remoteStatus, func(t *testing.T) {
			body := `{"status": "` + tt.remoteStatus + `", "data": {"message": "nope", "field": "amount"}}`

			_, err := classify(jsonResponse(400, body), "")
			apiErr := requireAPIError(t, err)
			assert.Equal(t, tt.wantKind, apiErr.Kind)
			assert.True(t, IsRequestData(err) || IsRequestForm(err))
		})
	}
}

func TestClassify_ErrorPayload(t *testing.T) {
	body := `{"status": "INVALID_PARAMETER", "data": {
		"message": "value out of range",
		"field": "amount",
		"field_path": "items.0.amount",
		"allowed_max": 1000
	}}`

	_, err := classify(jsonResponse(400, body), "")
	apiErr := requireAPIError(t, err)
	assert.Equal(t, "value out of range", apiErr.Message)
	assert.Equal(t, "amount", apiErr.Field)
	assert.Equal(t, "items.0.amount", apiErr.FieldPath)
	require.NotNil(t, apiErr.Extra)
	assert.Equal(t, float64(1000), apiErr.Extra["allowed_max"])
	assert.NotContains(t, apiErr.Extra, "field")
	assert.NotContains(t, apiErr.Extra, "field_path")
	assert.NotContains(t, apiErr.Extra, "message")
}
