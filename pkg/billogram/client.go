package billogram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	internalhttp "github.com/billogram/billogram-go/internal/http"
)

// Config represents client configuration for building a Client.
//
// Username and APIKey are the credential pair of a Billogram API account;
// accounts can only be created from the Billogram web interface. All other
// fields are optional and default to production values.
type Config struct {
	// BaseURL: base URL for the Billogram API. Defaults to DefaultBaseURL.
	// A testing environment may hand out a sandbox URL instead.
	BaseURL string

	// Username: API user, e.g. "1234-a1b2c3d4".
	Username string

	// APIKey: API authentication key paired with Username.
	APIKey string

	// UserAgent overrides the default User-Agent header.
	UserAgent string

	// HTTPTimeout bounds each request; context deadlines also apply.
	HTTPTimeout time.Duration

	// Debug enables verbose HTTP logging when a Logger is provided.
	Debug bool

	// Logger: optional structured logger used by the transport.
	Logger Logger
}

// Client is a session against the Billogram v2 API. It owns one underlying
// transport pool for its lifetime and is shared by every proxy and query it
// creates; call Close to release held connections.
type Client struct {
	httpClient *internalhttp.Client
	baseURL    string
	logger     Logger

	items     *Collection[*SimpleObject]
	customers *Collection[*SimpleObject]
	reports   *Collection[*SimpleObject]
	billogram *BillogramCollection
	settings  *SingletonObject
	logotype  *SingletonObject
}

// New creates a new Billogram API client.
func New(config *Config) (*Client, error) {
	if config == nil {
		return nil, ErrConfigRequired
	}

	if config.Username == "" || config.APIKey == "" {
		return nil, ErrCredentialsRequired
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	baseURL = strings.TrimSuffix(baseURL, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	httpOpts := []internalhttp.Option{internalhttp.WithUserAgent(userAgent)}

	if config.Logger != nil {
		httpOpts = append(httpOpts, internalhttp.WithLogger(&loggerAdapter{logger: config.Logger}))
	}

	if config.Debug {
		httpOpts = append(httpOpts, internalhttp.WithDebug(true))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, internalhttp.WithTimeout(config.HTTPTimeout))
	}

	client := &Client{
		httpClient: internalhttp.NewClient(baseURL, config.Username, config.APIKey, httpOpts...),
		baseURL:    baseURL,
		logger:     config.Logger,
	}

	client.initializeCollections()

	return client, nil
}

// Close releases the connections held by the transport pool. The client must
// not be used afterwards.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()

	return nil
}

// Items provides access to the item database.
func (c *Client) Items() *Collection[*SimpleObject] {
	return c.items
}

// Customers provides access to the customer database.
func (c *Client) Customers() *Collection[*SimpleObject] {
	return c.customers
}

// Reports provides access to the reports database.
func (c *Client) Reports() *Collection[*SimpleObject] {
	return c.reports
}

// Billogram provides access to billogram objects and attached invoices.
func (c *Client) Billogram() *BillogramCollection {
	return c.billogram
}

// Settings provides access to the settings of the Billogram account.
func (c *Client) Settings() *SingletonObject {
	return c.settings
}

// Logotype provides access to the logotype of the Billogram account.
func (c *Client) Logotype() *SingletonObject {
	return c.logotype
}

// Fetch performs an HTTP request against the API and classifies the response.
// expectContentType defaults to JSON; transport failures surface as
// malfunction-class errors wrapping the original cause.
func (c *Client) Fetch(ctx context.Context, method, path string, query url.Values, body interface{}, expectContentType string) (*Envelope, error) {
	var payload []byte

	if body != nil {
		var err error

		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
	}

	resp, err := c.httpClient.Do(ctx, &internalhttp.Request{
		Method: method,
		Path:   path,
		Query:  query,
		Body:   payload,
	})
	if err != nil {
		return nil, &APIError{
			Kind:    KindMalfunction,
			Message: fmt.Sprintf("transport request failed: %v", err),
			cause:   err,
		}
	}

	return classify(resp, expectContentType)
}

// Get performs an HTTP GET request against the API.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Envelope, error) {
	return c.Fetch(ctx, "GET", path, query, nil, "")
}

// Post performs an HTTP POST request against the API.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Envelope, error) {
	return c.Fetch(ctx, "POST", path, nil, body, "")
}

// Put performs an HTTP PUT request against the API.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Envelope, error) {
	return c.Fetch(ctx, "PUT", path, nil, body, "")
}

// Delete performs an HTTP DELETE request against the API.
func (c *Client) Delete(ctx context.Context, path string) (*Envelope, error) {
	return c.Fetch(ctx, "DELETE", path, nil, nil, "")
}

// initializeCollections wires the static resource descriptors to their proxy
// constructors.
func (c *Client) initializeCollections() {
	c.items = newSimpleCollection(c, "item", "item_no")
	c.customers = newSimpleCollection(c, "customer", "customer_no")
	c.reports = newSimpleCollection(c, "report", "filename")
	c.billogram = newBillogramCollection(c)
	c.settings = newSingletonObject(c, "settings")
	c.logotype = newSingletonObject(c, "logotype")
}

// loggerAdapter adapts Logger to the transport logger.
type loggerAdapter struct {
	logger Logger
}

func (l *loggerAdapter) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug(msg, fields)
}

func (l *loggerAdapter) Info(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, fields)
}

func (l *loggerAdapter) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn(msg, fields)
}

func (l *loggerAdapter) Error(msg string, fields map[string]interface{}) {
	l.logger.Error(msg, fields)
}
