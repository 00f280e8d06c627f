package navigation

import (
	"context"
	"net/url"
	"sync"

	"github.com/vango-dev/querysync/internal/errors"
	"github.com/vango-dev/querysync/pkg/reactive"
)

// MemoryRouter is an in-memory Route and Router. It stands in for a
// browser history: navigations update the held URL and are recorded.
type MemoryRouter struct {
	mu      sync.Mutex
	current *url.URL
	history []Request

	query *reactive.Cell[url.Values]
}

var (
	_ Route  = (*MemoryRouter)(nil)
	_ Router = (*MemoryRouter)(nil)
)

// NewMemoryRouter creates a router positioned at rawURL.
func NewMemoryRouter(rawURL string) (*MemoryRouter, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.New("Q008").
			WithDetailf("invalid start URL %q", rawURL).
			Wrap(err)
	}
	r := &MemoryRouter{current: u}
	r.query = reactive.NewCell(u.Query()).WithEquals(func(a, b url.Values) bool {
		return a.Encode() == b.Encode()
	})
	return r, nil
}

// URL returns a copy of the current URL.
func (r *MemoryRouter) URL() *url.URL {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := *r.current
	return &u
}

// QueryParams implements Route.
func (r *MemoryRouter) QueryParams() reactive.Stream[url.Values] {
	return r.query.Stream()
}

// Navigate implements Router.
func (r *MemoryRouter) Navigate(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		return errors.New("Q008").Wrap(err)
	}

	r.mu.Lock()
	r.current = Apply(r.current, req)
	r.history = append(r.history, Request{
		Query:            req.Query.Clone(),
		Handling:         req.Handling,
		PreserveFragment: req.PreserveFragment,
	})
	q := r.current.Query()
	r.mu.Unlock()

	r.query.Set(q)
	return nil
}

// Push simulates a user navigation to rawURL, which may be relative to
// the current URL. It is not recorded in History.
func (r *MemoryRouter) Push(rawURL string) error {
	ref, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("Q008").
			WithDetailf("invalid URL %q", rawURL).
			Wrap(err)
	}

	r.mu.Lock()
	r.current = r.current.ResolveReference(ref)
	q := r.current.Query()
	r.mu.Unlock()

	r.query.Set(q)
	return nil
}

// History returns the navigations performed through Navigate.
func (r *MemoryRouter) History() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Request, len(r.history))
	copy(out, r.history)
	return out
}
