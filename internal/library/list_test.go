package library

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/vango-dev/querysync/pkg/loop"
	"github.com/vango-dev/querysync/pkg/navigation"
	"github.com/vango-dev/querysync/pkg/queryparam"
	"github.com/vango-dev/querysync/pkg/reactive"
)

// settle runs l until cond holds, waiting for results posted by fetcher
// goroutines.
func settle(t *testing.T, l *loop.Loop, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		l.RunUntilIdle()
		if cond() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("condition not reached before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

// recordingFetcher records the filters it is asked for.
type recordingFetcher struct {
	Fetcher
	mu    sync.Mutex
	terms []string
}

func (f *recordingFetcher) Libraries(ctx context.Context, filter string) ([]ListItem, error) {
	f.mu.Lock()
	f.terms = append(f.terms, filter)
	f.mu.Unlock()
	return f.Fetcher.Libraries(ctx, filter)
}

func (f *recordingFetcher) Terms() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.terms...)
}

type listFixture struct {
	loop    *loop.Loop
	clock   *loop.ManualClock
	router  *navigation.MemoryRouter
	scope   *reactive.Scope
	fetcher *recordingFetcher
	list    *ListController
}

func newListFixture(t *testing.T, rawURL string, fetcher Fetcher) *listFixture {
	t.Helper()
	clock := loop.NewManualClock(time.Unix(0, 0))
	l := loop.New(loop.WithClock(clock))
	router, err := navigation.NewMemoryRouter(rawURL)
	if err != nil {
		t.Fatal(err)
	}
	scope := reactive.NewScope(nil)
	t.Cleanup(scope.Dispose)

	rf := &recordingFetcher{Fetcher: fetcher}
	list, err := NewListController(queryparam.NewBinder(l), rf, router, router, scope)
	if err != nil {
		t.Fatalf("NewListController() error = %v", err)
	}
	return &listFixture{loop: l, clock: clock, router: router, scope: scope, fetcher: rf, list: list}
}

// settleSearch lets the debounce window pass and waits for the fetch.
func (f *listFixture) settleSearch(t *testing.T, term string) {
	t.Helper()
	f.loop.RunUntilIdle()
	f.clock.Advance(DefaultSearchDebounce)
	settle(t, f.loop, func() bool {
		return !f.list.Loading.Get() && f.list.Term.Get() == term && f.list.Libraries.Get() != nil
	})
}

func names(items []ListItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Cells.FullName
	}
	return out
}

func TestListSearchFromURL(t *testing.T) {
	f := newListFixture(t, "/libraries?search=north", NewMemoryFetcher(SampleRows()))
	f.settleSearch(t, "north")

	if got := f.list.Search.Get(); got != "north" {
		t.Errorf("Search = %q, want north", got)
	}
	got := names(f.list.Libraries.Get())
	if len(got) != 1 || got[0] != "North District Library" {
		t.Errorf("Libraries = %v, want [North District Library]", got)
	}
	if len(f.router.History()) != 0 {
		t.Errorf("URL-driven search navigated %d times, want 0", len(f.router.History()))
	}
}

func TestListSearchWritesURL(t *testing.T) {
	f := newListFixture(t, "/libraries", NewMemoryFetcher(SampleRows()))
	f.loop.RunUntilIdle()

	f.list.SetSearch("cent")
	f.list.SetSearch("central")
	f.settleSearch(t, "central")

	if got := f.router.URL().RawQuery; got != "search=central" {
		t.Errorf("RawQuery = %q, want search=central", got)
	}
	if len(f.router.History()) != 1 {
		t.Errorf("navigations = %d, want 1", len(f.router.History()))
	}
	if got := f.fetcher.Terms(); len(got) != 1 || got[0] != "central" {
		t.Errorf("fetched terms = %q, want only the settled term", got)
	}
	if got := len(f.list.Libraries.Get()); got != 2 {
		t.Errorf("Libraries = %v, want 2 rows", names(f.list.Libraries.Get()))
	}
}

func TestListEmptySearchListsAll(t *testing.T) {
	f := newListFixture(t, "/libraries", NewMemoryFetcher(SampleRows()))
	f.settleSearch(t, "")

	if got := len(f.list.Libraries.Get()); got != len(SampleRows()) {
		t.Errorf("Libraries = %d rows, want %d", got, len(SampleRows()))
	}
	if f.router.URL().RawQuery != "" {
		t.Errorf("empty search wrote %q to the URL", f.router.URL().RawQuery)
	}
}

func TestListBackNavigationSearches(t *testing.T) {
	f := newListFixture(t, "/libraries?search=north", NewMemoryFetcher(SampleRows()))
	f.settleSearch(t, "north")

	if err := f.router.Push("/libraries?search=south"); err != nil {
		t.Fatal(err)
	}
	f.settleSearch(t, "south")

	if got := f.list.Search.Get(); got != "south" {
		t.Errorf("Search = %q, want south", got)
	}
	if got := names(f.list.Libraries.Get()); len(got) != 1 || got[0] != "South District Library No. 22" {
		t.Errorf("Libraries = %v", got)
	}
}

// blockingFetcher blocks searches for "slow" until cancelled.
type blockingFetcher struct {
	*MemoryFetcher
	cancelled chan struct{}
}

func (f *blockingFetcher) Libraries(ctx context.Context, filter string) ([]ListItem, error) {
	if filter == "slow" {
		<-ctx.Done()
		close(f.cancelled)
		return nil, ctx.Err()
	}
	return f.MemoryFetcher.Libraries(ctx, filter)
}

func TestListSwitchesToLatestSearch(t *testing.T) {
	bf := &blockingFetcher{
		MemoryFetcher: NewMemoryFetcher(SampleRows()),
		cancelled:     make(chan struct{}),
	}
	f := newListFixture(t, "/libraries?search=slow", bf)
	f.loop.RunUntilIdle()
	f.clock.Advance(DefaultSearchDebounce)
	f.loop.RunUntilIdle()

	if !f.list.Loading.Get() {
		t.Fatal("Loading = false while the slow search is in flight")
	}

	f.list.SetSearch("library")
	f.settleSearch(t, "library")

	select {
	case <-bf.cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("superseded search was not cancelled")
	}
	if got := len(f.list.Libraries.Get()); got != len(SampleRows()) {
		t.Errorf("Libraries = %d rows, want %d", got, len(SampleRows()))
	}
}

type failingFetcher struct {
	*MemoryFetcher
}

func (failingFetcher) Libraries(context.Context, string) ([]ListItem, error) {
	return nil, stderrors.New("dataset offline")
}

func TestListFetchError(t *testing.T) {
	f := newListFixture(t, "/libraries", failingFetcher{NewMemoryFetcher(nil)})
	f.loop.RunUntilIdle()
	f.clock.Advance(DefaultSearchDebounce)
	settle(t, f.loop, func() bool { return f.list.Err.Get() != nil })

	if f.list.Loading.Get() {
		t.Error("Loading = true after a failed search")
	}
	if f.list.Libraries.Get() != nil {
		t.Error("failed search replaced the rows")
	}

	// The controller keeps listening after a failed fetch.
	f.list.SetSearch("again")
	f.loop.RunUntilIdle()
	if got := f.router.URL().RawQuery; got != "search=again" {
		t.Errorf("RawQuery = %q, want search=again", got)
	}
}

func TestListCloseStopsSync(t *testing.T) {
	f := newListFixture(t, "/libraries", NewMemoryFetcher(SampleRows()))
	f.loop.RunUntilIdle()

	f.list.Close()
	f.list.SetSearch("central")
	f.loop.RunUntilIdle()
	f.clock.Advance(DefaultSearchDebounce)
	f.loop.RunUntilIdle()

	if len(f.router.History()) != 0 {
		t.Error("closed controller navigated")
	}
	if f.clock.PendingTimers() != 0 {
		t.Errorf("pending timers = %d after Close", f.clock.PendingTimers())
	}
	if got := f.fetcher.Terms(); len(got) != 0 {
		t.Errorf("closed controller fetched %q", got)
	}
}

func TestListHighlight(t *testing.T) {
	f := newListFixture(t, "/libraries?search=north", NewMemoryFetcher(SampleRows()))
	f.settleSearch(t, "north")

	got := Mark(f.list.Highlight("North District Library"), "[", "]")
	if got != "[North] District Library" {
		t.Errorf("Highlight = %q", got)
	}
}
