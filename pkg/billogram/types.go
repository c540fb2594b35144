package billogram

import (
	"encoding/json"
	"fmt"
)

// Default connection parameters for the production Billogram v2 API.
const (
	DefaultBaseURL   = "https://billogram.com/api/v2"
	DefaultUserAgent = "billogram-go/1.0"

	contentTypeJSON = "application/json"
)

// Envelope is the JSON wrapper every successful Billogram API response uses.
type Envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Meta   *Meta           `json:"meta,omitempty"`

	// Text holds the raw body for non-JSON responses; Data is empty then.
	Text string `json:"-"`
}

// Meta carries list metadata reported by the service.
type Meta struct {
	TotalCount int `json:"total_count"`
}

// DataObject decodes the envelope data as a single JSON object.
func (e *Envelope) DataObject() (map[string]interface{}, error) {
	var obj map[string]interface{}

	err := json.Unmarshal(e.Data, &obj)
	if err != nil {
		return nil, fmt.Errorf("parsing envelope data object: %w", err)
	}

	return obj, nil
}

// DataList decodes the envelope data as a JSON array of objects.
func (e *Envelope) DataList() ([]map[string]interface{}, error) {
	var list []map[string]interface{}

	err := json.Unmarshal(e.Data, &list)
	if err != nil {
		return nil, fmt.Errorf("parsing envelope data list: %w", err)
	}

	return list, nil
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}
