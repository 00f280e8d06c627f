package navigation

import (
	"context"
	"net/url"
	"sort"

	"github.com/vango-dev/querysync/pkg/reactive"
)

// QueryHandling selects how a navigation combines its parameters with the
// current query string.
type QueryHandling int

const (
	// QueryMerge keeps existing parameters and overwrites or deletes the
	// given ones.
	QueryMerge QueryHandling = iota

	// QueryReplace drops all existing parameters.
	QueryReplace
)

// String returns the handling name.
func (h QueryHandling) String() string {
	switch h {
	case QueryMerge:
		return "merge"
	case QueryReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// Params maps query-parameter names to values. A nil value removes the
// parameter.
type Params map[string]*string

// Set records value for name.
func (p Params) Set(name, value string) {
	p[name] = &value
}

// Delete records the removal of name.
func (p Params) Delete(name string) {
	p[name] = nil
}

// Names returns the parameter names in sorted order.
func (p Params) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a copy of p.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Request is a query-string navigation. Path segments are never changed.
type Request struct {
	Query            Params
	Handling         QueryHandling
	PreserveFragment bool
}

// Route exposes the current query-parameter state. The stream replays
// the current state to new subscribers and emits after every navigation.
type Route interface {
	QueryParams() reactive.Stream[url.Values]
}

// Router performs navigations.
type Router interface {
	Navigate(ctx context.Context, req Request) error
}

// Apply returns the URL that results from performing req on u. u is not
// modified.
func Apply(u *url.URL, req Request) *url.URL {
	out := *u

	q := url.Values{}
	if req.Handling == QueryMerge {
		q = u.Query()
	}
	for name, value := range req.Query {
		if value == nil {
			q.Del(name)
			continue
		}
		q.Set(name, *value)
	}
	out.RawQuery = q.Encode()
	out.ForceQuery = false

	if !req.PreserveFragment {
		out.Fragment = ""
		out.RawFragment = ""
	}
	return &out
}
