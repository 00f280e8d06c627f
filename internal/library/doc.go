// Package library implements the library catalog views on top of the
// query-parameter binder.
//
// ListController keeps the search box text in the URL's "search"
// parameter, waits for typing to settle, and fetches the matching rows
// through a Fetcher. A newer search cancels the fetch of an older one.
// ItemController loads one library by id.
//
// MemoryFetcher serves rows from memory; SampleRows and LoadFixture
// provide datasets for it.
package library
