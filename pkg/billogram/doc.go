// Package billogram provides structured access to the Billogram v2 HTTP API.
//
// # Overview
//
// A Client is a session against the API, constructed with the credential pair
// of an API account. It exposes the remote collections (billogram documents,
// customers, items, reports) and the singleton resources (account settings,
// logotype) as local proxy objects that fetch their data lazily and refresh
// it wholesale from the service.
//
// Getting a client
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/billogram/billogram-go/pkg/billogram"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  cli, err := billogram.New(&billogram.Config{
//	    Username: "1234-a1b2c3d4",
//	    APIKey:   "secret-api-key",
//	  })
//	  if err != nil { log.Fatal(err) }
//	  defer cli.Close()
//
//	  customer, err := cli.Customers().Get(ctx, "1")
//	  if err != nil { log.Fatal(err) }
//	  _ = customer
//	}
//
// # Queries and pagination
//
// Each collection hands out a query builder with a single filter, an order
// and a page size. Pages can be fetched directly, or all matches traversed
// through an iterator that snapshots the query state first:
//
//	qry := cli.Billogram().Query()
//	_ = qry.FilterField("state", "Unpaid")
//
//	it := qry.Iterate(ctx)
//	for it.HasNext() {
//	  bg, err := it.Next()
//	  if err != nil { break }
//	  _ = bg
//	}
//
// # Errors
//
// Failures are represented by APIError, classified into a taxonomy of error
// kinds. Helpers such as IsNotFound, IsPermissionDenied and IsRequestData
// make it easy to branch on whole families or single kinds.
//
// # Workflow commands
//
// Billogram objects support the workflow commands of the invoice state
// machine (Send, CreatePayment, CreditFull, SendReminder, Writeoff, ...).
// The client validates trivial argument preconditions; the service decides
// which commands the document's current state permits and reports violations
// as invalid-object-state errors.
package billogram
