package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vango-dev/querysync/internal/config"
	"github.com/vango-dev/querysync/internal/library"
	"github.com/vango-dev/querysync/pkg/loop"
	"github.com/vango-dev/querysync/pkg/navigation"
	"github.com/vango-dev/querysync/pkg/queryparam"
	"github.com/vango-dev/querysync/pkg/reactive"
)

type demoOptions struct {
	startURL string
	searches []string
	back     bool
	item     string
	metrics  bool
	timeout  time.Duration
}

func demoCmd(flags *globalFlags) *cobra.Command {
	opts := &demoOptions{}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the library catalog against an in-memory router",
		Long: `Run the library list view against an in-memory router.

Each --search value is typed into the search box; the demo prints the
URL the binder navigated to and the rows fetched for the settled term.
--back returns to the start URL afterwards, as the browser's back
button would. --item opens the detail view of one library.

Examples:
  querysync demo --search central
  querysync demo --url '/libraries?search=north'
  querysync demo --search cent --search central --back
  querysync demo --item 1620003`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if flags.logLevel == "" {
				if err := setupLogging(cmd.ErrOrStderr(), cfg.Log.Level); err != nil {
					return err
				}
			}
			if opts.startURL == "" {
				opts.startURL = cfg.Router.StartURL
			}
			return runDemo(cmd.OutOrStdout(), cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.startURL, "url", "u", "", "Start URL (default from querysync.json)")
	cmd.Flags().StringArrayVarP(&opts.searches, "search", "s", nil, "Search text to type; repeatable")
	cmd.Flags().BoolVar(&opts.back, "back", false, "Navigate back to the start URL at the end")
	cmd.Flags().StringVar(&opts.item, "item", "", "Open the library with this id")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "Print collected metrics at the end")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Second, "Maximum time to wait for a fetch")

	return cmd
}

// demo drives the controllers on a loop whose timers only fire when the
// demo advances the manual clock.
type demo struct {
	w       io.Writer
	loop    *loop.Loop
	clock   *loop.ManualClock
	router  *navigation.MemoryRouter
	fetcher *library.MemoryFetcher
	scope   *reactive.Scope
	timeout time.Duration
}

func runDemo(w io.Writer, cfg *config.Config, opts *demoOptions) error {
	rows, err := demoRows(cfg, opts.timeout)
	if err != nil {
		return err
	}

	clock := loop.NewManualClock(time.Now())
	d := &demo{
		w:       w,
		loop:    loop.New(loop.WithClock(clock)),
		clock:   clock,
		fetcher: library.NewMemoryFetcher(rows, library.WithCells(cfg.Dataset.Cells...)),
		scope:   reactive.NewScope(nil),
		timeout: opts.timeout,
	}
	defer d.scope.Dispose()

	d.router, err = navigation.NewMemoryRouter(opts.startURL)
	if err != nil {
		return err
	}

	var (
		registry *prometheus.Registry
		metrics  *navigation.Metrics
	)
	if opts.metrics || cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		metrics = navigation.NewMetrics(
			navigation.WithRegistry(registry),
			navigation.WithNamespace(cfg.Metrics.Namespace))
	}
	binder := queryparam.NewBinder(d.loop, queryparam.WithMetrics(metrics))

	if opts.item != "" {
		if err := d.showItem(opts.item); err != nil {
			return err
		}
	} else if err := d.runList(binder, cfg, opts); err != nil {
		return err
	}

	if registry != nil {
		return printMetrics(w, registry)
	}
	return nil
}

func demoRows(cfg *config.Config, timeout time.Duration) ([]library.ListItem, error) {
	path := cfg.FixturePath()
	switch {
	case path == "":
		return library.SampleRows(), nil
	case library.IsS3URI(path):
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		client := library.NewS3Client(library.S3Options{
			Region:   cfg.Dataset.Region,
			Endpoint: cfg.Dataset.Endpoint,
		})
		return library.LoadS3Fixture(ctx, client, path)
	default:
		return library.LoadFixture(path)
	}
}

func (d *demo) runList(binder *queryparam.Binder, cfg *config.Config, opts *demoOptions) error {
	debounce := cfg.SearchDebounce()
	list, err := library.NewListController(binder, d.fetcher, d.router, d.router, d.scope,
		library.WithSearchDebounce(debounce),
		library.WithSearchParam(cfg.Search.Param))
	if err != nil {
		return err
	}

	success(d.w, "start %s", d.router.URL())
	if err := d.settle(list, debounce); err != nil {
		return err
	}
	d.printList(list)

	for _, text := range opts.searches {
		list.SetSearch(text)
		d.loop.RunUntilIdle()
		success(d.w, "typed %q -> %s", text, d.router.URL())
		if err := d.settle(list, debounce); err != nil {
			return err
		}
		d.printList(list)
	}

	if opts.back {
		if err := d.router.Push(opts.startURL); err != nil {
			return err
		}
		d.loop.RunUntilIdle()
		success(d.w, "back -> %s (search box: %q)", d.router.URL(), list.Search.Get())
		if err := d.settle(list, debounce); err != nil {
			return err
		}
		d.printList(list)
	}

	info(d.w, "navigations: %d", len(d.router.History()))
	return nil
}

// settle lets the search debounce elapse and waits for the fetch.
func (d *demo) settle(list *library.ListController, debounce time.Duration) error {
	d.loop.RunUntilIdle()
	d.clock.Advance(debounce)
	return d.until(func() bool { return !list.Loading.Get() })
}

// until runs the loop until cond holds or the timeout passes.
func (d *demo) until(cond func() bool) error {
	deadline := time.Now().Add(d.timeout)
	for {
		d.loop.RunUntilIdle()
		if cond() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("no result within %s", d.timeout)
		}
		time.Sleep(time.Millisecond)
	}
}

func (d *demo) printList(list *library.ListController) {
	if err := list.Err.Get(); err != nil {
		info(d.w, "error: %v", err)
		return
	}
	rows := list.Libraries.Get()
	info(d.w, "%d libraries for %q", len(rows), list.Term.Get())
	for _, row := range rows {
		name := library.Mark(list.Highlight(row.Cells.FullName), "[", "]")
		if addr := row.Address(); addr != "" {
			info(d.w, "  %3d  %s  (%s)", row.Number, name, addr)
			continue
		}
		info(d.w, "  %3d  %s", row.Number, name)
	}
}

func (d *demo) showItem(id string) error {
	item := library.NewItemController(d.loop, d.fetcher, d.scope)
	if err := item.Load(id); err != nil {
		return err
	}
	if err := d.until(func() bool { return !item.Loading.Get() }); err != nil {
		return err
	}
	if err := item.Err.Get(); err != nil {
		return err
	}
	lib := item.Library.Get()
	success(d.w, "library %s", item.ID.Get())
	info(d.w, "Number:    %d", lib.Number)
	info(d.w, "Full name: %s", lib.Cells.FullName)
	for _, a := range lib.Cells.ObjectAddress {
		info(d.w, "Address:   %s", a.Address)
	}
	return nil
}

// printMetrics prints every sample gathered by registry.
func printMetrics(w io.Writer, registry *prometheus.Registry) error {
	families, err := registry.Gather()
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			sort.Strings(labels)

			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			switch {
			case m.GetCounter() != nil:
				info(w, "%s %g", name, m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				info(w, "%s count=%d sum=%g", name, h.GetSampleCount(), h.GetSampleSum())
			}
		}
	}
	return nil
}
