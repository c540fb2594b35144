package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/billogram/billogram-go/pkg/billogram"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	OutputFormatJSON = "json"
	OutputFormatYAML = "yaml"
)

// Common static errors used throughout the commands package.
var (
	ErrNotLoggedIn       = errors.New("not logged in, run 'billo login' or set BILLO_USERNAME and BILLO_KEY")
	ErrDataFileRequired  = errors.New("a data file is required (use --from-file)")
	ErrUnknownDataFormat = errors.New("data file must contain a JSON or YAML object")
)

// CreateClient builds an API client from the effective configuration.
func CreateClient() (*billogram.Client, error) {
	username := viper.GetString("username")
	apiKey := viper.GetString("key")

	if username == "" || apiKey == "" {
		return nil, ErrNotLoggedIn
	}

	config := &billogram.Config{
		BaseURL:  viper.GetString("api"),
		Username: username,
		APIKey:   apiKey,
	}

	if viper.GetBool("verbose") {
		config.Logger = newCLILogger()
		config.Debug = true
	}

	client, err := billogram.New(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}

// cliLogger adapts zerolog to the client's logger interface.
type cliLogger struct {
	log zerolog.Logger
}

func newCLILogger() *cliLogger {
	writer := zerolog.ConsoleWriter{Out: os.Stderr}

	return &cliLogger{log: zerolog.New(writer).With().Timestamp().Logger()}
}

func (l *cliLogger) Debug(msg string, fields map[string]interface{}) {
	l.log.Debug().Fields(fields).Msg(msg)
}

func (l *cliLogger) Info(msg string, fields map[string]interface{}) {
	l.log.Info().Fields(fields).Msg(msg)
}

func (l *cliLogger) Warn(msg string, fields map[string]interface{}) {
	l.log.Warn().Fields(fields).Msg(msg)
}

func (l *cliLogger) Error(msg string, fields map[string]interface{}) {
	l.log.Error().Fields(fields).Msg(msg)
}

// renderObject prints a single object snapshot in the configured output
// format. The table format shows one field per row, sorted by name.
func renderObject(data map[string]interface{}) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")

		err := encoder.Encode(data)
		if err != nil {
			return fmt.Errorf("encoding to JSON: %w", err)
		}

		return nil
	case OutputFormatYAML:
		encoder := yaml.NewEncoder(os.Stdout)

		err := encoder.Encode(data)
		if err != nil {
			return fmt.Errorf("encoding to YAML: %w", err)
		}

		return nil
	default:
		keys := make([]string, 0, len(data))
		for key := range data {
			keys = append(keys, key)
		}

		sort.Strings(keys)

		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Field", "Value")

		for _, key := range keys {
			_ = table.Append(key, formatValue(data[key]))
		}

		if err := table.Render(); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	}
}

// renderObjectList prints a set of object snapshots. The table format shows
// the named columns; JSON and YAML dump the full snapshots.
func renderObjectList(objects []map[string]interface{}, columns []string) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")

		err := encoder.Encode(objects)
		if err != nil {
			return fmt.Errorf("encoding to JSON: %w", err)
		}

		return nil
	case OutputFormatYAML:
		encoder := yaml.NewEncoder(os.Stdout)

		err := encoder.Encode(objects)
		if err != nil {
			return fmt.Errorf("encoding to YAML: %w", err)
		}

		return nil
	default:
		table := tablewriter.NewWriter(os.Stdout)

		header := make([]interface{}, 0, len(columns))
		for _, column := range columns {
			header = append(header, column)
		}

		table.Header(header...)

		for _, object := range objects {
			row := make([]string, 0, len(columns))
			for _, column := range columns {
				row = append(row, formatValue(object[column]))
			}

			_ = table.Append(row)
		}

		if err := table.Render(); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	}
}

// formatValue renders a snapshot value for table output. Nested structures
// are flattened to compact JSON.
func formatValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
	case bool:
		if v {
			return "true"
		}

		return "false"
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}

		return string(encoded)
	}
}

// loadDataFile reads an object structure from a JSON or YAML file; "-" reads
// standard input.
func loadDataFile(path string) (map[string]interface{}, error) {
	if path == "" {
		return nil, ErrDataFileRequired
	}

	var (
		content []byte
		err     error
	)

	if path == "-" {
		content, err = os.ReadFile("/dev/stdin")
	} else {
		content, err = os.ReadFile(path)
	}

	if err != nil {
		return nil, fmt.Errorf("reading data file: %w", err)
	}

	var data map[string]interface{}

	if jsonErr := json.Unmarshal(content, &data); jsonErr == nil {
		return data, nil
	}

	if yamlErr := yaml.Unmarshal(content, &data); yamlErr == nil {
		return normalizeYAML(data), nil
	}

	return nil, ErrUnknownDataFormat
}

// normalizeYAML rewrites nested YAML maps into the string-keyed form the API
// client works with.
func normalizeYAML(data map[string]interface{}) map[string]interface{} {
	normalized := make(map[string]interface{}, len(data))
	for key, value := range data {
		normalized[key] = normalizeYAMLValue(value)
	}

	return normalized
}

func normalizeYAMLValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		return normalizeYAML(v)
	case map[interface{}]interface{}:
		normalized := make(map[string]interface{}, len(v))
		for key, inner := range v {
			normalized[fmt.Sprint(key)] = normalizeYAMLValue(inner)
		}

		return normalized
	case []interface{}:
		normalized := make([]interface{}, len(v))
		for i, inner := range v {
			normalized[i] = normalizeYAMLValue(inner)
		}

		return normalized
	default:
		return value
	}
}

// collectSnapshots gathers the snapshots of listed proxies for rendering.
// Objects coming out of a query already carry their data, so this does not
// fetch.
func collectSnapshots[T interface {
	Data(ctx context.Context) (map[string]interface{}, error)
}](ctx context.Context, objects []T) ([]map[string]interface{}, error) {
	rows := make([]map[string]interface{}, 0, len(objects))

	for _, object := range objects {
		data, err := object.Data(ctx)
		if err != nil {
			return nil, err
		}

		rows = append(rows, data)
	}

	return rows, nil
}
