package billogram

import (
	"context"
	"fmt"
	"strconv"
)

// SingletonObject represents a remote singleton resource such as the account
// settings or logotype. It is lazy: the first Data or Get call fetches the
// remote object, later calls are served from the local snapshot until Refresh
// or Update replaces it wholesale. The snapshot and all sub-objects should be
// treated as read-only; the only way to change the remote object is Update.
type SingletonObject struct {
	api  *Client
	url  string
	data map[string]interface{}
}

func newSingletonObject(api *Client, url string) *SingletonObject {
	return &SingletonObject{api: api, url: url}
}

// URL returns the resource URL relative to the API base.
func (o *SingletonObject) URL() string {
	return o.url
}

// Data returns the snapshot of the remote object, fetching it on first
// access.
func (o *SingletonObject) Data(ctx context.Context) (map[string]interface{}, error) {
	if o.data == nil {
		err := o.Refresh(ctx)
		if err != nil {
			return nil, err
		}
	}

	return o.data, nil
}

// Get returns a single field of the remote object, fetching the snapshot on
// first access.
func (o *SingletonObject) Get(ctx context.Context, key string) (interface{}, error) {
	data, err := o.Data(ctx)
	if err != nil {
		return nil, err
	}

	return data[key], nil
}

// Refresh unconditionally re-fetches the remote object and replaces the local
// snapshot.
func (o *SingletonObject) Refresh(ctx context.Context) error {
	envelope, err := o.api.Get(ctx, o.url, nil)
	if err != nil {
		return fmt.Errorf("refreshing %s: %w", o.url, err)
	}

	data, err := envelope.DataObject()
	if err != nil {
		return fmt.Errorf("refreshing %s: %w", o.url, err)
	}

	o.data = data

	return nil
}

// Update modifies the remote object with a partial or complete structure and
// replaces the local snapshot with the state the service reports back.
func (o *SingletonObject) Update(ctx context.Context, data map[string]interface{}) error {
	envelope, err := o.api.Put(ctx, o.url, data)
	if err != nil {
		return fmt.Errorf("updating %s: %w", o.url, err)
	}

	updated, err := envelope.DataObject()
	if err != nil {
		return fmt.Errorf("updating %s: %w", o.url, err)
	}

	o.data = updated

	return nil
}

// SimpleObject represents one member of a remote collection, identified by
// the collection's identifier field. Like SingletonObject it holds a lazy
// snapshot replaced wholesale on Refresh and Update; in addition it can be
// deleted, after which it becomes inert and performs no further network
// calls.
type SimpleObject struct {
	api     *Client
	urlName string
	idField string

	// id is set when the object is a bare reference constructed without a
	// fetch; otherwise the identifier is read from the snapshot.
	id      string
	data    map[string]interface{}
	deleted bool
}

// URL computes the resource URL from the collection segment and the object's
// identifier.
func (o *SimpleObject) URL() (string, error) {
	if o.id != "" {
		return o.urlName + "/" + o.id, nil
	}

	value, ok := o.data[o.idField]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrIdentifierMissing, o.idField)
	}

	return o.urlName + "/" + formatID(value), nil
}

// Data returns the snapshot of the remote object, fetching it on first
// access.
func (o *SimpleObject) Data(ctx context.Context) (map[string]interface{}, error) {
	if o.deleted {
		return nil, ErrObjectDeleted
	}

	if o.data == nil {
		err := o.Refresh(ctx)
		if err != nil {
			return nil, err
		}
	}

	return o.data, nil
}

// Get returns a single field of the remote object, fetching the snapshot on
// first access.
func (o *SimpleObject) Get(ctx context.Context, key string) (interface{}, error) {
	data, err := o.Data(ctx)
	if err != nil {
		return nil, err
	}

	return data[key], nil
}

// Attr reads a field directly from the local snapshot. Unlike Get it never
// fetches; it fails if the field is absent from the snapshot.
func (o *SimpleObject) Attr(key string) (interface{}, error) {
	value, ok := o.data[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrFieldNotLoaded, key)
	}

	return value, nil
}

// Refresh re-fetches the remote object and replaces the local snapshot.
func (o *SimpleObject) Refresh(ctx context.Context) error {
	if o.deleted {
		return ErrObjectDeleted
	}

	objectURL, err := o.URL()
	if err != nil {
		return err
	}

	envelope, err := o.api.Get(ctx, objectURL, nil)
	if err != nil {
		return fmt.Errorf("refreshing %s: %w", objectURL, err)
	}

	data, err := envelope.DataObject()
	if err != nil {
		return fmt.Errorf("refreshing %s: %w", objectURL, err)
	}

	o.data = data

	return nil
}

// Update modifies the remote object with a partial or complete structure and
// replaces the local snapshot with the state the service reports back, never
// a client-side merge.
func (o *SimpleObject) Update(ctx context.Context, data map[string]interface{}) error {
	if o.deleted {
		return ErrObjectDeleted
	}

	objectURL, err := o.URL()
	if err != nil {
		return err
	}

	envelope, err := o.api.Put(ctx, objectURL, data)
	if err != nil {
		return fmt.Errorf("updating %s: %w", objectURL, err)
	}

	updated, err := envelope.DataObject()
	if err != nil {
		return fmt.Errorf("updating %s: %w", objectURL, err)
	}

	o.data = updated

	return nil
}

// Delete removes the remote object. The proxy becomes inert afterwards.
func (o *SimpleObject) Delete(ctx context.Context) error {
	if o.deleted {
		return ErrObjectDeleted
	}

	objectURL, err := o.URL()
	if err != nil {
		return err
	}

	_, err = o.api.Delete(ctx, objectURL)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", objectURL, err)
	}

	o.deleted = true

	return nil
}

// formatID renders a snapshot identifier value as a URL segment. JSON numbers
// decode as float64 and must not pick up an exponent or decimal point.
func formatID(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprint(v)
	}
}
