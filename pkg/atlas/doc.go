// Package atlas provides types, interfaces, and helpers for working with the
// Atlas imagery APIs.
//
// # Overview
//
// The atlas package defines the domain types (e.g., Item, Asset, Order,
// SavedSearch) and the interfaces for the API clients (SearchesClient,
// OrdersClient, AssetsClient). A concrete implementation of these clients is
// provided by the atlasclient package, which wires configuration, transport,
// authentication, rate limiting, and downloads. Most consumers should import
// atlasclient to construct a client and then interact with the client
// interfaces exposed here.
//
// Getting a client
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/meridian-eo/atlas/pkg/atlas"
//	  "github.com/meridian-eo/atlas/pkg/atlasclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := atlasclient.New(&atlas.Config{BaseURL: "https://api.example.com"})
//	  if err != nil { log.Fatal(err) }
//
//	  filter, _ := atlas.RangeFilter("cloud_cover", &atlas.RangeConfig{LT: 0.2})
//	  it, err := cli.Searches().Quick(ctx, &atlas.SearchRequest{
//	    ItemTypes: []string{"PSScene"},
//	    Filter:    filter,
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  for it.HasNext() {
//	    item, err := it.Next()
//	    if err != nil { break }
//	    _ = item
//	  }
//	}
//
// # Filters
//
// Search criteria are expressed as composable Filter values built with the
// constructors in filters.go (AndFilter, DateRangeFilter, RangeFilter,
// StringInFilter, GeometryFilter, PermissionFilter, and friends).
//
// # Pagination
//
// List operations return a PageIterator that walks cursor-paginated results
// lazily, holding one page in memory at a time. FetchAllPages collects
// bounded result sets and StreamPages delivers pages on a channel for
// concurrent consumers.
//
// # Orders and downloads
//
// Orders move through queued and running to a terminal state (success,
// failed, partial, or cancelled). OrdersClient.PollUntilComplete waits for a
// terminal state with a growing poll interval; failed and partial orders are
// returned as values so callers can inspect them. Client.DownloadAssets
// fetches a completed order's assets concurrently with resume and checksum
// verification.
//
// # Errors
//
// API errors are represented by APIError and ResponseError. Helpers such as
// IsNotFound, IsUnauthorized, and IsRateLimited make it easy to branch on
// common cases, and typed errors (RetryExhaustedError, PaginationLoopError,
// JobTimeoutError, ChecksumMismatchError) describe orchestration failures.
//
// # Caching
//
// A pluggable Cache abstraction with memory and NATS JetStream KV backends
// can cache idempotent metadata responses. The atlasclient package composes
// these pieces for a sensible default client.
package atlas
