package reactive

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/vango-dev/querysync/pkg/loop"
)

func collect[T any](s Stream[T]) (*[]T, *bool, *error, Subscription) {
	var (
		got  []T
		done bool
		err  error
	)
	sub := s.Subscribe(Observer[T]{
		Next: func(v T) { got = append(got, v) },
		Err:  func(e error) { err = e },
		Done: func() { done = true },
	})
	return &got, &done, &err, sub
}

func TestOfMapFilter(t *testing.T) {
	s := Map(Filter(Of(1, 2, 3, 4), func(n int) bool { return n%2 == 0 }),
		func(n int) string { return string(rune('a' + n)) })

	got, done, _, _ := collect(s)
	if !reflect.DeepEqual(*got, []string{"c", "e"}) {
		t.Errorf("got %v, want [c e]", *got)
	}
	if !*done {
		t.Error("expected completion")
	}
}

func TestTryMapError(t *testing.T) {
	boom := errors.New("boom")
	s := TryMap(Of(1, 2, 3), func(n int) (int, error) {
		if n == 2 {
			return 0, boom
		}
		return n * 10, nil
	})

	got, done, err, _ := collect(s)
	if !reflect.DeepEqual(*got, []int{10}) {
		t.Errorf("got %v, want [10]", *got)
	}
	if *err != boom {
		t.Errorf("err = %v, want boom", *err)
	}
	if *done {
		t.Error("errored stream should not complete")
	}
}

func TestFail(t *testing.T) {
	boom := errors.New("boom")
	_, _, err, _ := collect(Fail[int](boom))
	if *err != boom {
		t.Errorf("err = %v, want boom", *err)
	}
}

func TestDistinct(t *testing.T) {
	got, _, _, _ := collect(Distinct(Of("a", "a", "b", "a", "a")))
	if !reflect.DeepEqual(*got, []string{"a", "b", "a"}) {
		t.Errorf("got %v, want [a b a]", *got)
	}
}

func TestTap(t *testing.T) {
	var seen []int
	got, _, _, _ := collect(Tap(Of(1, 2), func(n int) { seen = append(seen, n) }))
	if !reflect.DeepEqual(seen, *got) {
		t.Errorf("tap saw %v, stream emitted %v", seen, *got)
	}
}

func TestDebounceZeroCollapsesTurn(t *testing.T) {
	l := loop.New()
	c := NewCell("")

	got, _, _, _ := collect(Debounce(c.Stream(), l, 0))

	c.Set("a")
	c.Set("ab")
	c.Set("abc")

	if len(*got) != 0 {
		t.Fatalf("debounced stream emitted synchronously: %v", *got)
	}

	l.RunUntilIdle()

	if !reflect.DeepEqual(*got, []string{"abc"}) {
		t.Errorf("got %v, want [abc]", *got)
	}
}

func TestDebounceWithDuration(t *testing.T) {
	clock := loop.NewManualClock(time.Unix(0, 0))
	l := loop.New(loop.WithClock(clock))
	c := NewCell(0)

	got, _, _, _ := collect(Debounce(c.Stream(), l, 500*time.Millisecond))

	clock.Advance(300 * time.Millisecond)
	c.Set(1)
	clock.Advance(300 * time.Millisecond)
	l.RunUntilIdle()
	if len(*got) != 0 {
		t.Fatalf("emitted before quiet period: %v", *got)
	}

	clock.Advance(200 * time.Millisecond)
	l.RunUntilIdle()
	if !reflect.DeepEqual(*got, []int{1}) {
		t.Errorf("got %v, want [1]", *got)
	}
	if clock.PendingTimers() != 0 {
		t.Errorf("pending timers = %d, want 0", clock.PendingTimers())
	}
}

func TestDebounceFlushesOnComplete(t *testing.T) {
	l := loop.New()
	got, done, _, _ := collect(Debounce(Of(1, 2, 3), l, time.Hour))
	if !reflect.DeepEqual(*got, []int{3}) || !*done {
		t.Errorf("got %v done=%v, want [3] done=true", *got, *done)
	}
}

func TestDebounceUnsubscribeCancels(t *testing.T) {
	l := loop.New()
	c := NewCell(0)
	got, _, _, sub := collect(Debounce(c.Stream(), l, 0))
	c.Set(1)
	sub.Unsubscribe()
	l.RunUntilIdle()
	if len(*got) != 0 {
		t.Errorf("got %v after unsubscribe, want nothing", *got)
	}
}

func TestMerge(t *testing.T) {
	a := NewCell("a0")
	b := NewCell("b0")

	got, _, _, _ := collect(Merge(a.Stream(), b.Stream()))
	b.Set("b1")
	a.Set("a1")

	want := []string{"a0", "b0", "b1", "a1"}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("got %v, want %v", *got, want)
	}

	_, done, _, _ := collect(Merge(Of(1), Of(2)))
	if !*done {
		t.Error("merge of finite streams should complete")
	}
}

func TestCombineLatest(t *testing.T) {
	a := NewCell(1)
	b := NewCell(10)

	got, _, _, _ := collect(CombineLatest(a.Stream(), b.Stream()))
	a.Set(2)
	b.Set(20)

	want := [][]int{{1, 10}, {2, 10}, {2, 20}}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("got %v, want %v", *got, want)
	}
}

func TestCombineLatestWaitsForAll(t *testing.T) {
	c := NewCell(1)
	never := NewStream(func(Emitter[int]) func() { return nil })

	got, _, _, _ := collect(CombineLatest(c.Stream(), never))
	c.Set(2)
	if len(*got) != 0 {
		t.Errorf("got %v, want nothing until every source emitted", *got)
	}

	_, done, _, _ := collect(CombineLatest(c.Stream(), Of[int]()))
	if !*done {
		t.Error("a source completing without a value should complete the combination")
	}
}

func TestTakeUntilDisposedScope(t *testing.T) {
	scope := NewScope(nil)
	scope.Dispose()

	c := NewCell(1)
	got, done, _, _ := collect(TakeUntil(c.Stream(), scope))
	if len(*got) != 0 || !*done {
		t.Errorf("got %v done=%v, want immediate completion", *got, *done)
	}
}

func TestTakeUntilUnsubscribeRemovesCleanup(t *testing.T) {
	scope := NewScope(nil)
	c := NewCell(1)

	_, done, _, sub := collect(TakeUntil(c.Stream(), scope))
	sub.Unsubscribe()
	for i := 0; i < 100; i++ {
		TakeUntil(c.Stream(), scope).Each(func(int) {}).Unsubscribe()
	}
	if n := len(scope.cleanups); n != 0 {
		t.Errorf("scope holds %d cleanups after unsubscribe, want 0", n)
	}
	scope.Dispose()
	if *done {
		t.Error("unsubscribed stream should not be completed by dispose")
	}
}

func TestSwitchMap(t *testing.T) {
	outer := NewCell("a")
	inners := map[string]*Cell[string]{
		"a": NewCell("a:0"),
		"b": NewCell("b:0"),
	}

	got, _, _, _ := collect(SwitchMap(outer.Stream(), func(k string) Stream[string] {
		return inners[k].Stream()
	}))

	outer.Set("b")
	inners["a"].Set("a:1") // stale, dropped
	inners["b"].Set("b:1")

	want := []string{"a:0", "b:0", "b:1"}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("got %v, want %v", *got, want)
	}
}

func TestSwitchMapCompletesAfterInner(t *testing.T) {
	_, done, _, _ := collect(SwitchMap(Of(1, 2), func(n int) Stream[int] { return Of(n) }))
	if !*done {
		t.Error("expected completion once outer and last inner completed")
	}
}

func TestFromAsync(t *testing.T) {
	l := loop.New()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	results := make(chan string, 1)
	FromAsync(l, func(context.Context) (string, error) {
		return "fetched", nil
	}).Subscribe(Observer[string]{
		Next: func(v string) { results <- v },
		Done: l.Stop,
	})

	if err := l.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if v := <-results; v != "fetched" {
		t.Errorf("got %q, want fetched", v)
	}
}

func TestFromAsyncCancelledOnUnsubscribe(t *testing.T) {
	l := loop.New()
	started := make(chan struct{})
	cancelled := make(chan struct{})

	sub := FromAsync(l, func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return 0, ctx.Err()
	}).Each(func(int) { t.Error("unexpected value") })

	<-started
	sub.Unsubscribe()

	select {
	case <-cancelled:
	case <-time.After(5 * time.Second):
		t.Fatal("context was not cancelled")
	}
}

func TestShareRefCount(t *testing.T) {
	subscribed := 0
	released := 0
	var emit Emitter[int]
	src := NewStream(func(e Emitter[int]) func() {
		subscribed++
		emit = e
		return func() { released++ }
	})
	shared := Share(src)

	first, _, _, sub1 := collect(shared)
	second, _, _, sub2 := collect(shared)
	if subscribed != 1 {
		t.Fatalf("upstream subscribed %d times, want 1", subscribed)
	}

	emit.Next(7)
	if !reflect.DeepEqual(*first, []int{7}) || !reflect.DeepEqual(*second, []int{7}) {
		t.Errorf("first=%v second=%v, want both [7]", *first, *second)
	}

	sub1.Unsubscribe()
	if released != 0 {
		t.Error("upstream released while a subscriber remains")
	}
	sub2.Unsubscribe()
	if released != 1 {
		t.Errorf("released = %d, want 1", released)
	}

	// A new subscriber reconnects.
	collect(shared)
	if subscribed != 2 {
		t.Errorf("subscribed = %d after reconnect, want 2", subscribed)
	}
}

func TestShareCompletion(t *testing.T) {
	shared := Share(Of(1, 2))
	got, done, _, _ := collect(shared)
	if !reflect.DeepEqual(*got, []int{1, 2}) || !*done {
		t.Errorf("got %v done=%v", *got, *done)
	}
}
