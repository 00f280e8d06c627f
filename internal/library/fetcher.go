package library

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vango-dev/querysync/internal/errors"
)

// Fetcher loads library rows. Implementations must honour ctx
// cancellation; the list controller cancels superseded searches.
type Fetcher interface {
	// Libraries returns the rows whose full name matches filter. An empty
	// or blank filter returns every row.
	Libraries(ctx context.Context, filter string) ([]ListItem, error)

	// Library returns the row with the given global id.
	Library(ctx context.Context, id string) (ListItem, error)

	// Count returns the number of rows in the dataset.
	Count(ctx context.Context) (int, error)
}

// MemoryFetcher serves rows held in memory.
type MemoryFetcher struct {
	mu      sync.RWMutex
	rows    []ListItem
	cells   []string
	latency time.Duration
}

// FetcherOption configures a MemoryFetcher.
type FetcherOption func(*MemoryFetcher)

// WithCells limits the cells returned by Libraries.
// Default: all cells.
func WithCells(cells ...string) FetcherOption {
	return func(f *MemoryFetcher) {
		f.cells = cells
	}
}

// WithLatency delays every call by d, or until ctx is done.
func WithLatency(d time.Duration) FetcherOption {
	return func(f *MemoryFetcher) {
		f.latency = d
	}
}

// NewMemoryFetcher creates a fetcher serving rows.
func NewMemoryFetcher(rows []ListItem, opts ...FetcherOption) *MemoryFetcher {
	f := &MemoryFetcher{rows: rows}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SetRows replaces the dataset.
func (f *MemoryFetcher) SetRows(rows []ListItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = rows
}

func (f *MemoryFetcher) wait(ctx context.Context) error {
	if f.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(f.latency)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Libraries returns rows whose full name contains filter, ignoring case.
func (f *MemoryFetcher) Libraries(ctx context.Context, filter string) ([]ListItem, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	filter = strings.ToLower(strings.TrimSpace(filter))

	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]ListItem, 0, len(f.rows))
	for _, row := range f.rows {
		if filter != "" && !strings.Contains(strings.ToLower(row.Cells.FullName), filter) {
			continue
		}
		out = append(out, row.project(f.cells))
	}
	return out, nil
}

// Library returns the row with the given global id.
func (f *MemoryFetcher) Library(ctx context.Context, id string) (ListItem, error) {
	if id == "" {
		return ListItem{}, errors.New("Q030")
	}
	if err := f.wait(ctx); err != nil {
		return ListItem{}, err
	}
	gid, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return ListItem{}, errors.New("Q031").
			WithDetailf("library id %q is not a number", id)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, row := range f.rows {
		if row.GlobalID == gid {
			return row, nil
		}
	}
	return ListItem{}, errors.New("Q031").
		WithDetailf("no library with id %s", id)
}

// Count returns the number of rows.
func (f *MemoryFetcher) Count(ctx context.Context) (int, error) {
	if err := f.wait(ctx); err != nil {
		return 0, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.rows), nil
}
