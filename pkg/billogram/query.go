package billogram

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// FilterType selects how a query filter matches against a field.
type FilterType string

const (
	// FilterTypeField matches a basic field exactly.
	FilterTypeField FilterType = "field"
	// FilterTypePrefix matches a basic field by prefix.
	FilterTypePrefix FilterType = "field-prefix"
	// FilterTypeSearch matches a basic field by substring.
	FilterTypeSearch FilterType = "field-search"
	// FilterTypeSpecial selects a special query defined by the service.
	FilterTypeSpecial FilterType = "special"
)

// DefaultPageSize is the page size a new query starts with.
const DefaultPageSize = 100

// Filter is the single filter a query can carry. The service currently only
// supports filtering on one field or special query at a time.
type Filter struct {
	Type  FilterType
	Field string
	Value string
}

// Order is the sort order of a query.
type Order struct {
	Field     string
	Direction string
}

// Query builds queries and fetches pages of remote objects from one
// collection. The exact fields and special queries available per object type
// are documented by the service.
//
// The total count reported by the service is cached on the query and
// invalidated whenever the filter changes; order and page size changes keep
// it.
type Query[T any] struct {
	coll     *Collection[T]
	filter   *Filter
	order    *Order
	pageSize int

	count    int
	hasCount bool
}

func newQuery[T any](coll *Collection[T]) *Query[T] {
	return &Query[T]{coll: coll, pageSize: DefaultPageSize}
}

// PageSize returns the number of objects returned per page.
func (q *Query[T]) PageSize() int {
	return q.pageSize
}

// SetPageSize sets the number of objects returned per page.
func (q *Query[T]) SetPageSize(pageSize int) error {
	if pageSize < 1 {
		return ErrInvalidPageSize
	}

	q.pageSize = pageSize

	return nil
}

// Filter returns the current filter, or nil when none is set.
func (q *Query[T]) Filter() *Filter {
	return q.filter
}

// Order returns the current order, or nil when none is set.
func (q *Query[T]) Order() *Order {
	return q.order
}

// MakeFilter sets the query filter. Either all three of type, field and value
// are given, or all three are empty to clear the filter. Setting a filter
// invalidates the cached total count.
func (q *Query[T]) MakeFilter(filterType FilterType, field, value string) error {
	if filterType == "" && field == "" && value == "" {
		q.RemoveFilter()

		return nil
	}

	if filterType == "" || field == "" || value == "" {
		return ErrIncompleteFilter
	}

	switch filterType {
	case FilterTypeField, FilterTypePrefix, FilterTypeSearch, FilterTypeSpecial:
	default:
		return ErrInvalidFilterType
	}

	q.filter = &Filter{Type: filterType, Field: field, Value: value}
	q.hasCount = false

	return nil
}

// RemoveFilter removes any filter currently set.
func (q *Query[T]) RemoveFilter() {
	q.filter = nil
	q.hasCount = false
}

// FilterField filters on a basic field, looking for exact matches.
func (q *Query[T]) FilterField(field, value string) error {
	return q.MakeFilter(FilterTypeField, field, value)
}

// FilterPrefix filters on a basic field, looking for prefix matches.
func (q *Query[T]) FilterPrefix(field, value string) error {
	return q.MakeFilter(FilterTypePrefix, field, value)
}

// FilterSearch filters on a basic field, looking for substring matches.
func (q *Query[T]) FilterSearch(field, value string) error {
	return q.MakeFilter(FilterTypeSearch, field, value)
}

// FilterSpecial filters on a special query.
func (q *Query[T]) FilterSpecial(field, value string) error {
	return q.MakeFilter(FilterTypeSpecial, field, value)
}

// Search filters by a full data search; the exact meaning depends on the
// object type.
func (q *Query[T]) Search(terms string) error {
	return q.MakeFilter(FilterTypeSpecial, "search", terms)
}

// SetOrder sets the sort order. Direction must be "asc" or "desc". Changing
// the order keeps the cached total count.
func (q *Query[T]) SetOrder(field, direction string) error {
	if field == "" {
		return ErrOrderFieldRequired
	}

	if direction != "asc" && direction != "desc" {
		return ErrInvalidOrderDirection
	}

	q.order = &Order{Field: field, Direction: direction}

	return nil
}

// RemoveOrder removes any order currently set.
func (q *Query[T]) RemoveOrder() {
	q.order = nil
}

// Count returns the total number of objects matched by the current query.
// The first call issues one minimal request to obtain the server-reported
// total; later calls are served from the cache until the filter changes.
func (q *Query[T]) Count(ctx context.Context) (int, error) {
	if !q.hasCount {
		_, err := q.makeQuery(ctx, 1, 1)
		if err != nil {
			return 0, err
		}
	}

	return q.count, nil
}

// TotalPages returns the number of pages required for all matched objects at
// the current page size; this may cause a remote request.
func (q *Query[T]) TotalPages(ctx context.Context) (int, error) {
	count, err := q.Count(ctx)
	if err != nil {
		return 0, err
	}

	return (count + q.pageSize - 1) / q.pageSize, nil
}

// GetPage fetches the objects of the one-based page number, in the order the
// server returned them.
func (q *Query[T]) GetPage(ctx context.Context, pageNumber int) ([]T, error) {
	if pageNumber < 1 {
		return nil, ErrInvalidPageNumber
	}

	envelope, err := q.makeQuery(ctx, pageNumber, q.pageSize)
	if err != nil {
		return nil, err
	}

	list, err := envelope.DataList()
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", q.coll.urlName, err)
	}

	objects := make([]T, 0, len(list))
	for _, data := range list {
		objects = append(objects, q.coll.wrap(data))
	}

	return objects, nil
}

// Iterate returns an iterator over all matched objects, fetching pages
// sequentially on demand. The iterator snapshots the current filter, order
// and page size; mutating the query afterwards does not affect an in-flight
// traversal. If the remote collection is concurrently modified, a traversal
// may skip or duplicate items across page boundaries.
func (q *Query[T]) Iterate(ctx context.Context) *Iterator[T] {
	return &Iterator[T]{ctx: ctx, query: q.clone()}
}

// All fetches every matched object across all pages.
func (q *Query[T]) All(ctx context.Context) ([]T, error) {
	var objects []T

	iter := q.Iterate(ctx)
	for iter.HasNext() {
		object, err := iter.Next()
		if err != nil {
			if errors.Is(err, ErrNoMoreItems) {
				break
			}

			return nil, err
		}

		objects = append(objects, object)
	}

	return objects, nil
}

// clone deep-copies the query state so a traversal holds its own copy, never
// a reference back to the mutable builder.
func (q *Query[T]) clone() *Query[T] {
	copied := *q

	if q.filter != nil {
		filter := *q.filter
		copied.filter = &filter
	}

	if q.order != nil {
		order := *q.order
		copied.order = &order
	}

	return &copied
}

func (q *Query[T]) queryArgs(pageNumber, pageSize int) url.Values {
	args := url.Values{}
	args.Set("page", strconv.Itoa(pageNumber))
	args.Set("page_size", strconv.Itoa(pageSize))

	if q.filter != nil {
		args.Set("filter_type", string(q.filter.Type))
		args.Set("filter_field", q.filter.Field)
		args.Set("filter_value", q.filter.Value)
	}

	if q.order != nil {
		args.Set("order_field", q.order.Field)
		args.Set("order_direction", q.order.Direction)
	}

	return args
}

// makeQuery issues one page request and refreshes the cached total count from
// the response metadata.
func (q *Query[T]) makeQuery(ctx context.Context, pageNumber, pageSize int) (*Envelope, error) {
	envelope, err := q.coll.api.Get(ctx, q.coll.urlName, q.queryArgs(pageNumber, pageSize))
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", q.coll.urlName, err)
	}

	if envelope.Meta != nil {
		q.count = envelope.Meta.TotalCount
		q.hasCount = true
	}

	return envelope, nil
}

// Iterator traverses all objects matched by a query, page by page in server
// order. It operates on its own copy of the query state.
type Iterator[T any] struct {
	ctx   context.Context
	query *Query[T]

	buffer     []T
	page       int
	totalPages int
	started    bool
}

// HasNext reports whether another object may be available. Before the first
// fetch it is always true; Next then reports ErrNoMoreItems on an empty
// result.
func (it *Iterator[T]) HasNext() bool {
	if !it.started {
		return true
	}

	return len(it.buffer) > 0 || it.page < it.totalPages
}

// Next returns the next object, fetching the next page when the current one
// is exhausted. It returns ErrNoMoreItems after the last object.
func (it *Iterator[T]) Next() (T, error) {
	var zero T

	if !it.started {
		totalPages, err := it.query.TotalPages(it.ctx)
		if err != nil {
			return zero, err
		}

		it.totalPages = totalPages
		it.started = true
	}

	for len(it.buffer) == 0 {
		if it.page >= it.totalPages {
			return zero, ErrNoMoreItems
		}

		it.page++

		objects, err := it.query.GetPage(it.ctx, it.page)
		if err != nil {
			return zero, err
		}

		it.buffer = objects
	}

	object := it.buffer[0]
	it.buffer = it.buffer[1:]

	return object, nil
}

// BillogramQuery represents a query for billogram objects.
type BillogramQuery struct {
	*Query[*BillogramObject]
}

// FilterStateAny finds billogram objects in any of the listed states.
func (q *BillogramQuery) FilterStateAny(states ...string) error {
	if len(states) == 0 {
		return ErrNoStatesGiven
	}

	return q.FilterField("state", strings.Join(states, ","))
}
