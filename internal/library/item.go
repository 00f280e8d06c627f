package library

import (
	"context"
	"log/slog"
	"path"
	"strings"

	"github.com/vango-dev/querysync/internal/errors"
	"github.com/vango-dev/querysync/pkg/loop"
	"github.com/vango-dev/querysync/pkg/reactive"
)

// ItemController drives the detail view of one library.
type ItemController struct {
	// ID is the id of the library being shown.
	ID *reactive.Cell[string]

	// Library is the loaded row, nil until a load succeeds.
	Library *reactive.Cell[*ListItem]

	// Loading is true while a load is in flight.
	Loading *reactive.Cell[bool]

	// Err is the last load error.
	Err *reactive.Cell[error]

	loop    *loop.Loop
	fetcher Fetcher
	scope   *reactive.Scope
	logger  *slog.Logger
	pending reactive.Subscription
}

// NewItemController creates an item controller in a child scope of
// parent.
func NewItemController(l *loop.Loop, fetcher Fetcher, parent *reactive.Scope) *ItemController {
	return &ItemController{
		ID:      reactive.NewCell(""),
		Library: reactive.NewCell[*ListItem](nil),
		Loading: reactive.NewCell(false),
		Err:     reactive.NewCell[error](nil),
		loop:    l,
		fetcher: fetcher,
		scope:   reactive.NewScope(parent),
		logger:  slog.Default().With("component", "library.item"),
	}
}

// Open loads the library named by the last segment of an item path such
// as "/libraries/1620001".
func (c *ItemController) Open(p string) error {
	return c.Load(IDFromPath(p))
}

// Load starts loading the library with the given id, replacing any load
// in flight. An empty id fails immediately with Q030.
func (c *ItemController) Load(id string) error {
	if id == "" {
		err := errors.New("Q030").
			WithSuggestion("open the item view with a path like /libraries/{id}")
		c.logger.Warn("library id missing")
		c.Err.Set(err)
		return err
	}
	if c.scope.IsDisposed() {
		return errors.New("Q003").
			WithDetail("The item view has been closed.")
	}

	if c.pending != nil {
		c.pending.Unsubscribe()
	}
	c.ID.Set(id)
	c.Loading.Set(true)

	load := reactive.FromAsync(c.loop, func(ctx context.Context) (ListItem, error) {
		return c.fetcher.Library(ctx, id)
	})
	c.pending = reactive.TakeUntil(load, c.scope).Subscribe(reactive.Observer[ListItem]{
		Next: func(item ListItem) {
			c.Loading.Set(false)
			c.Err.Set(nil)
			c.Library.Set(&item)
		},
		Err: func(err error) {
			c.logger.Error("library load failed", "id", id, "error", err)
			c.Loading.Set(false)
			c.Err.Set(err)
		},
	})
	return nil
}

// Close stops the controller and drops any load in flight.
func (c *ItemController) Close() {
	c.scope.Dispose()
}

// IDFromPath returns the id segment of an item path "/{collection}/{id}",
// or "" when p has no id segment.
func IDFromPath(p string) string {
	segments := strings.Split(strings.Trim(path.Clean("/"+p), "/"), "/")
	if len(segments) < 2 {
		return ""
	}
	return segments[len(segments)-1]
}
