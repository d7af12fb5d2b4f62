package pipeline

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"testing"
)

func TestFromSliceCollect(t *testing.T) {
	got, err := Collect(context.Background(), FromSlice([]int{1, 2, 3}))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("got %v", got)
	}
}

func TestCollectEmptySlice(t *testing.T) {
	got, err := Collect(context.Background(), FromSlice([]int(nil)))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}

func TestParallelProcessesAll(t *testing.T) {
	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}
	var calls int64
	p := Parallel(FromSlice(items), 4, func(_ context.Context, v int) (int, error) {
		atomic.AddInt64(&calls, 1)
		return v, nil
	})
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 50 || len(got) != 50 {
		t.Fatalf("calls=%d len=%d", calls, len(got))
	}
	sort.Ints(got)
	for i, v := range got {
		if v != i {
			t.Fatalf("missing or duplicated value at %d: %d", i, v)
		}
	}
}

func TestParallelStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	p := Parallel(FromSlice([]int{1, 2, 3, 4, 5}), 2, func(_ context.Context, v int) (int, error) {
		if v == 3 {
			return 0, boom
		}
		return v, nil
	})
	_, err := Collect(context.Background(), p)
	if !errors.Is(err, boom) {
		t.Errorf("got %v, want boom", err)
	}
}
