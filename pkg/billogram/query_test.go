package billogram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newListServer serves pages out of a fixed set of customer objects, honoring
// the page and page_size query arguments and recording every request's query.
func newListServer(t *testing.T, totalCount int) (*httptest.Server, *[]map[string]string) {
	t.Helper()

	var queries []map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/customer", r.URL.Path)

		args := map[string]string{}
		for key := range r.URL.Query() {
			args[key] = r.URL.Query().Get(key)
		}
		queries = append(queries, args)

		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		require.NoError(t, err)
		pageSize, err := strconv.Atoi(r.URL.Query().Get("page_size"))
		require.NoError(t, err)

		first := (page - 1) * pageSize

		items := []map[string]interface{}{}
		for i := first; i < first+pageSize && i < totalCount; i++ {
			items = append(items, map[string]interface{}{
				"customer_no": float64(i + 1),
				"name":        fmt.Sprintf("Customer %d", i+1),
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "OK",
			"data":   items,
			"meta":   map[string]interface{}{"total_count": totalCount},
		})
	}))
	t.Cleanup(server.Close)

	return server, &queries
}

func TestQuery_FilterSetters(t *testing.T) {
	tests := []struct {
		name     string
		set      func(q *Query[*SimpleObject]) error
		expected Filter
	}{
		{
			name:     "field",
			set:      func(q *Query[*SimpleObject]) error { return q.FilterField("name", "Test AB") },
			expected: Filter{Type: FilterTypeField, Field: "name", Value: "Test AB"},
		},
		{
			name:     "prefix",
			set:      func(q *Query[*SimpleObject]) error { return q.FilterPrefix("name", "Test") },
			expected: Filter{Type: FilterTypePrefix, Field: "name", Value: "Test"},
		},
		{
			name:     "search",
			set:      func(q *Query[*SimpleObject]) error { return q.FilterSearch("name", "est A") },
			expected: Filter{Type: FilterTypeSearch, Field: "name", Value: "est A"},
		},
		{
			name:     "special",
			set:      func(q *Query[*SimpleObject]) error { return q.FilterSpecial("following", "1") },
			expected: Filter{Type: FilterTypeSpecial, Field: "following", Value: "1"},
		},
		{
			name:     "full search",
			set:      func(q *Query[*SimpleObject]) error { return q.Search("invoice road 1") },
			expected: Filter{Type: FilterTypeSpecial, Field: "search", Value: "invoice road 1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newListServer(t, 0)
			client := newTestClient(t, server.URL)

			query := client.Customers().Query()
			require.NoError(t, tt.set(query))
			require.NotNil(t, query.Filter())
			assert.Equal(t, tt.expected, *query.Filter())
		})
	}
}

func TestQuery_MakeFilterValidation(t *testing.T) {
	server, _ := newListServer(t, 0)
	client := newTestClient(t, server.URL)

	query := client.Customers().Query()

	assert.ErrorIs(t, query.MakeFilter("bogus", "name", "x"), ErrInvalidFilterType)
	assert.ErrorIs(t, query.MakeFilter(FilterTypeField, "", "x"), ErrIncompleteFilter)
	assert.ErrorIs(t, query.MakeFilter(FilterTypeField, "name", ""), ErrIncompleteFilter)
	assert.ErrorIs(t, query.MakeFilter("", "name", "x"), ErrIncompleteFilter)

	// All empty clears the filter.
	require.NoError(t, query.FilterField("name", "Test"))
	require.NoError(t, query.MakeFilter("", "", ""))
	assert.Nil(t, query.Filter())
}

func TestQuery_OrderValidation(t *testing.T) {
	server, _ := newListServer(t, 0)
	client := newTestClient(t, server.URL)

	query := client.Customers().Query()

	assert.ErrorIs(t, query.SetOrder("", "asc"), ErrOrderFieldRequired)
	assert.ErrorIs(t, query.SetOrder("name", "up"), ErrInvalidOrderDirection)

	require.NoError(t, query.SetOrder("name", "desc"))
	assert.Equal(t, Order{Field: "name", Direction: "desc"}, *query.Order())

	query.RemoveOrder()
	assert.Nil(t, query.Order())
}

func TestQuery_PageSizeValidation(t *testing.T) {
	server, _ := newListServer(t, 0)
	client := newTestClient(t, server.URL)

	query := client.Customers().Query()
	assert.Equal(t, DefaultPageSize, query.PageSize())

	assert.ErrorIs(t, query.SetPageSize(0), ErrInvalidPageSize)
	assert.ErrorIs(t, query.SetPageSize(-5), ErrInvalidPageSize)

	require.NoError(t, query.SetPageSize(25))
	assert.Equal(t, 25, query.PageSize())
}

func TestQuery_CountCaching(t *testing.T) {
	server, queries := newListServer(t, 42)
	client := newTestClient(t, server.URL)

	query := client.Customers().Query()

	count, err := query.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, count)

	// The count probe asks for the smallest possible page.
	require.Len(t, *queries, 1)
	assert.Equal(t, "1", (*queries)[0]["page"])
	assert.Equal(t, "1", (*queries)[0]["page_size"])

	// Repeated counts are served from the cache.
	count, err = query.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, count)
	assert.Len(t, *queries, 1)

	// Order and page size changes keep the cache.
	require.NoError(t, query.SetOrder("name", "asc"))
	require.NoError(t, query.SetPageSize(10))

	_, err = query.Count(context.Background())
	require.NoError(t, err)
	assert.Len(t, *queries, 1)

	// Filter changes invalidate it.
	require.NoError(t, query.FilterField("name", "Test"))

	_, err = query.Count(context.Background())
	require.NoError(t, err)
	assert.Len(t, *queries, 2)
}

func TestQuery_TotalPages(t *testing.T) {
	server, _ := newListServer(t, 42)
	client := newTestClient(t, server.URL)

	query := client.Customers().Query()
	require.NoError(t, query.SetPageSize(10))

	pages, err := query.TotalPages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, pages)
}

func TestQuery_GetPage(t *testing.T) {
	server, queries := newListServer(t, 42)
	client := newTestClient(t, server.URL)

	query := client.Customers().Query()
	require.NoError(t, query.SetPageSize(10))
	require.NoError(t, query.FilterPrefix("name", "Cust"))
	require.NoError(t, query.SetOrder("customer_no", "asc"))

	objects, err := query.GetPage(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, objects, 10)

	no, err := objects[0].Attr("customer_no")
	require.NoError(t, err)
	assert.Equal(t, float64(11), no)

	require.Len(t, *queries, 1)
	assert.Equal(t, map[string]string{
		"page":            "2",
		"page_size":       "10",
		"filter_type":     "field-prefix",
		"filter_field":    "name",
		"filter_value":    "Cust",
		"order_field":     "customer_no",
		"order_direction": "asc",
	}, (*queries)[0])

	_, err = query.GetPage(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidPageNumber)
}

func TestQuery_IterateAllPages(t *testing.T) {
	server, queries := newListServer(t, 25)
	client := newTestClient(t, server.URL)

	query := client.Customers().Query()
	require.NoError(t, query.SetPageSize(10))

	objects, err := query.All(context.Background())
	require.NoError(t, err)
	require.Len(t, objects, 25)

	for i, object := range objects {
		no, attrErr := object.Attr("customer_no")
		require.NoError(t, attrErr)
		assert.Equal(t, float64(i+1), no)
	}

	// One count probe plus three page fetches in order.
	require.Len(t, *queries, 4)
	assert.Equal(t, "1", (*queries)[1]["page"])
	assert.Equal(t, "2", (*queries)[2]["page"])
	assert.Equal(t, "3", (*queries)[3]["page"])
}

func TestQuery_IterateEmptyResult(t *testing.T) {
	server, _ := newListServer(t, 0)
	client := newTestClient(t, server.URL)

	iter := client.Customers().Query().Iterate(context.Background())

	// Before the first fetch the iterator cannot know the result is empty.
	assert.True(t, iter.HasNext())

	_, err := iter.Next()
	assert.ErrorIs(t, err, ErrNoMoreItems)
	assert.False(t, iter.HasNext())
}

func TestQuery_IteratorSnapshotsQueryState(t *testing.T) {
	server, queries := newListServer(t, 15)
	client := newTestClient(t, server.URL)

	query := client.Customers().Query()
	require.NoError(t, query.SetPageSize(10))
	require.NoError(t, query.FilterPrefix("name", "Cust"))

	iter := query.Iterate(context.Background())

	// Mutating the builder after Iterate must not leak into the traversal.
	require.NoError(t, query.SetPageSize(3))
	require.NoError(t, query.FilterField("name", "Other"))
	query.Filter().Value = "mutated"

	var seen int
	for iter.HasNext() {
		_, err := iter.Next()
		if assert.NoError(t, err) {
			seen++
		}
	}
	assert.Equal(t, 15, seen)

	for _, args := range (*queries)[1:] {
		assert.Equal(t, "10", args["page_size"])
		assert.Equal(t, "Cust", args["filter_value"])
	}
}

func TestBillogramQuery_FilterStateAny(t *testing.T) {
	server, _ := newListServer(t, 0)
	client := newTestClient(t, server.URL)

	query := client.Billogram().Query()

	assert.ErrorIs(t, query.FilterStateAny(), ErrNoStatesGiven)

	require.NoError(t, query.FilterStateAny("Unpaid", "Overdue"))
	require.NotNil(t, query.Filter())
	assert.Equal(t, Filter{Type: FilterTypeField, Field: "state", Value: "Unpaid,Overdue"}, *query.Filter())
}
