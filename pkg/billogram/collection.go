package billogram

import (
	"context"
	"fmt"
)

// Collection represents a remote collection of objects of one resource type.
// It provides methods to fetch, create and query members, wrapping each as
// the proxy type of the collection's descriptor.
type Collection[T any] struct {
	api     *Client
	urlName string
	idField string

	wrap func(data map[string]interface{}) T
	ref  func(id string) T
}

func newSimpleCollection(api *Client, urlName, idField string) *Collection[*SimpleObject] {
	return &Collection[*SimpleObject]{
		api:     api,
		urlName: urlName,
		idField: idField,
		wrap: func(data map[string]interface{}) *SimpleObject {
			return &SimpleObject{api: api, urlName: urlName, idField: idField, data: data}
		},
		ref: func(id string) *SimpleObject {
			return &SimpleObject{api: api, urlName: urlName, idField: idField, id: id}
		},
	}
}

// URLName returns the URL segment of the collection.
func (c *Collection[T]) URLName() string {
	return c.urlName
}

// IDField returns the field name used as external identifier for members.
func (c *Collection[T]) IDField() string {
	return c.idField
}

// URLOf returns the member URL for the given identifier.
func (c *Collection[T]) URLOf(id string) string {
	return c.urlName + "/" + id
}

// Get fetches a single object by its identifier.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T

	envelope, err := c.api.Get(ctx, c.URLOf(id), nil)
	if err != nil {
		return zero, fmt.Errorf("getting %s %s: %w", c.urlName, id, err)
	}

	data, err := envelope.DataObject()
	if err != nil {
		return zero, fmt.Errorf("getting %s %s: %w", c.urlName, id, err)
	}

	return c.wrap(data), nil
}

// Create creates a new object with the given data and wraps the created
// member.
func (c *Collection[T]) Create(ctx context.Context, data map[string]interface{}) (T, error) {
	var zero T

	envelope, err := c.api.Post(ctx, c.urlName, data)
	if err != nil {
		return zero, fmt.Errorf("creating %s: %w", c.urlName, err)
	}

	created, err := envelope.DataObject()
	if err != nil {
		return zero, fmt.Errorf("creating %s: %w", c.urlName, err)
	}

	return c.wrap(created), nil
}

// Reference constructs a lazy proxy for the given identifier without a fetch.
func (c *Collection[T]) Reference(id string) T {
	return c.ref(id)
}

// Query creates a query for objects of this collection.
func (c *Collection[T]) Query() *Query[T] {
	return newQuery(c)
}

// BillogramCollection is the collection of billogram objects. On top of the
// generic collection methods it provides creation shortcuts that state
// transition the new billogram immediately.
type BillogramCollection struct {
	*Collection[*BillogramObject]
}

func newBillogramCollection(api *Client) *BillogramCollection {
	coll := &Collection[*BillogramObject]{
		api:     api,
		urlName: "billogram",
		idField: "id",
		wrap: func(data map[string]interface{}) *BillogramObject {
			return &BillogramObject{SimpleObject{api: api, urlName: "billogram", idField: "id", data: data}}
		},
		ref: func(id string) *BillogramObject {
			return &BillogramObject{SimpleObject{api: api, urlName: "billogram", idField: "id", id: id}}
		},
	}

	return &BillogramCollection{Collection: coll}
}

// Query creates a query for billogram objects.
func (c *BillogramCollection) Query() *BillogramQuery {
	return &BillogramQuery{Query: newQuery(c.Collection)}
}

// CreateAndSend creates the billogram and sends it to the recipient in one
// operation. There is no server-side transaction spanning the two calls: if
// the send fails for any reason, the just-created billogram is deleted again
// and the original send error is returned.
//
// The new billogram will be in state "Unpaid", or "Ended" if the total sum
// would be zero.
func (c *BillogramCollection) CreateAndSend(ctx context.Context, data map[string]interface{}, method string) (*BillogramObject, error) {
	if !validSendMethod(method) {
		return nil, ErrInvalidSendMethod
	}

	billogram, err := c.Create(ctx, data)
	if err != nil {
		return nil, err
	}

	err = billogram.Send(ctx, method)
	if err != nil {
		// Compensating action; the send error is what the caller needs.
		_ = billogram.Delete(ctx)

		return nil, err
	}

	return billogram, nil
}

// CreateAndSell creates the billogram and sends it to factoring in one
// operation. The new billogram will be in state "Factoring".
func (c *BillogramCollection) CreateAndSell(ctx context.Context, data map[string]interface{}) (*BillogramObject, error) {
	withEvent := make(map[string]interface{}, len(data)+1)

	for key, value := range data {
		withEvent[key] = value
	}

	withEvent["_event"] = "sell"

	return c.Create(ctx, withEvent)
}
