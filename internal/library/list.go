package library

import (
	"context"
	"log/slog"
	"time"

	"github.com/vango-dev/querysync/pkg/loop"
	"github.com/vango-dev/querysync/pkg/navigation"
	"github.com/vango-dev/querysync/pkg/queryparam"
	"github.com/vango-dev/querysync/pkg/reactive"
)

// DefaultSearchDebounce is the quiet period before a search is sent.
const DefaultSearchDebounce = 500 * time.Millisecond

// ListController drives the library list view. Its search term is kept
// in the URL; each settled term is fetched, and a newer term cancels
// the fetch of an older one.
//
// All fields are read and written on the controller's loop.
type ListController struct {
	// Search is the search box text.
	Search *reactive.Cell[string]

	// Term is the search term the current Libraries were fetched for.
	Term *reactive.Cell[string]

	// Libraries are the rows of the last completed fetch.
	Libraries *reactive.Cell[[]ListItem]

	// Loading is true while a fetch is in flight.
	Loading *reactive.Cell[bool]

	// Err is the last fetch or binding error; nil after a success.
	Err *reactive.Cell[error]

	loop     *loop.Loop
	fetcher  Fetcher
	scope    *reactive.Scope
	props    *reactive.Properties
	logger   *slog.Logger
	debounce time.Duration
	param    string
}

// ListOption configures a ListController.
type ListOption func(*ListController)

// WithSearchDebounce sets the quiet period before a search is sent.
// Default: 500ms.
func WithSearchDebounce(d time.Duration) ListOption {
	return func(c *ListController) {
		c.debounce = d
	}
}

// WithSearchParam sets the query parameter the search term is kept in.
// Default: "search".
func WithSearchParam(param string) ListOption {
	return func(c *ListController) {
		c.param = param
	}
}

// WithListLogger sets the logger. Default: slog.Default().
func WithListLogger(logger *slog.Logger) ListOption {
	return func(c *ListController) {
		c.logger = logger.With("component", "library.list")
	}
}

type fetchResult struct {
	term  string
	items []ListItem
	err   error
}

// NewListController creates the controller in a child scope of parent and
// starts syncing its search term with route and router. Disposing parent
// (or calling Close) stops it.
func NewListController(b *queryparam.Binder, fetcher Fetcher, route navigation.Route, router navigation.Router, parent *reactive.Scope, opts ...ListOption) (*ListController, error) {
	scope := reactive.NewScope(parent)
	c := &ListController{
		Term:      reactive.NewCell(""),
		Libraries: reactive.NewCell[[]ListItem](nil),
		Loading:   reactive.NewCell(false),
		Err:       reactive.NewCell[error](nil),
		loop:      b.Loop(),
		fetcher:   fetcher,
		scope:     scope,
		props:     reactive.NewProperties(scope),
		logger:    slog.Default().With("component", "library.list"),
		debounce:  DefaultSearchDebounce,
		param:     "search",
	}
	for _, opt := range opts {
		opt(c)
	}

	search, err := reactive.Define(c.props, "search", "")
	if err != nil {
		scope.Dispose()
		return nil, err
	}
	c.Search = search
	c.props.Freeze()

	values, err := b.BindAll(c.props, []string{"search"}, route, router, scope,
		queryparam.WithParamName("search", c.param))
	if err != nil {
		scope.Dispose()
		return nil, err
	}

	terms := reactive.Map(values, func(v []any) string {
		s, _ := v[0].(string)
		return s
	})
	settled := reactive.Tap(
		reactive.Debounce(reactive.Distinct(terms), c.loop, c.debounce),
		func(term string) {
			c.Loading.Set(true)
			c.logger.Debug("searching libraries", "term", term)
		})
	results := reactive.SwitchMap(settled, c.fetch)

	reactive.TakeUntil(results, scope).Subscribe(reactive.Observer[fetchResult]{
		Next: c.apply,
		Err:  c.fail,
	})
	return c, nil
}

func (c *ListController) fetch(term string) reactive.Stream[fetchResult] {
	return reactive.FromAsync(c.loop, func(ctx context.Context) (fetchResult, error) {
		items, err := c.fetcher.Libraries(ctx, term)
		return fetchResult{term: term, items: items, err: err}, nil
	})
}

func (c *ListController) apply(r fetchResult) {
	c.Loading.Set(false)
	if r.err != nil {
		c.logger.Error("library search failed", "term", r.term, "error", r.err)
		c.Err.Set(r.err)
		return
	}
	c.Err.Set(nil)
	c.Term.Set(r.term)
	c.Libraries.Set(r.items)
}

// fail handles an error ending the binding, such as an undecodable
// search parameter. The list keeps its last rows.
func (c *ListController) fail(err error) {
	c.logger.Error("search binding ended", "error", err)
	c.Loading.Set(false)
	c.Err.Set(err)
}

// SetSearch updates the search text, as typing into the search box does.
func (c *ListController) SetSearch(text string) {
	c.Search.Set(text)
}

// Highlight splits a library name around the current term.
func (c *ListController) Highlight(name string) []Fragment {
	return Highlight(name, c.Term.Get())
}

// Scope returns the controller's scope.
func (c *ListController) Scope() *reactive.Scope {
	return c.scope
}

// Close stops the controller.
func (c *ListController) Close() {
	c.scope.Dispose()
}
