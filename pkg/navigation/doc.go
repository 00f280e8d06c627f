// Package navigation defines the routing collaborators of the
// query-parameter layer and batches query-string writes.
//
// Route and Router are the two sides of a router: Route streams the
// current query parameters, Router applies a Request. MemoryRouter
// implements both over a *url.URL and is used by tests and the demo CLI.
//
// Batcher coalesces writes made during one loop turn:
//
//	b := navigation.NewBatcher(l)
//	b.Enqueue("search", &search, router)
//	b.Enqueue("page", nil, router) // delete
//	// next turn: one router.Navigate with both parameters, merged into
//	// the current query, fragment preserved
package navigation
