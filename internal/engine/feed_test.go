package engine

import "testing"

func TestFeedSliceCycles(t *testing.T) {
	f := NewSliceFeed([]any{1, 2, 3})
	var seen []any
	for i := 0; i < 7; i++ {
		v, ok := f.Pull()
		if !ok {
			t.Fatalf("want Pull to always succeed on a non-empty feed, call %d", i)
		}
		seen = append(seen, v)
	}
	want := []any{1, 2, 3, 1, 2, 3, 1}
	for i, v := range want {
		if seen[i] != v {
			t.Fatalf("at index %d want %v, got %v", i, v, seen[i])
		}
	}
}

func TestFeedSliceEmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("want NewSliceFeed to panic on an empty slice")
		}
	}()
	NewSliceFeed(nil)
}

func TestFeedCustomNext(t *testing.T) {
	n := 0
	f := NewFeed(func() (any, bool) {
		n++
		if n > 2 {
			return nil, false
		}
		return n, true
	})
	if v, ok := f.Pull(); !ok || v != 1 {
		t.Fatalf("want (1, true), got (%v, %v)", v, ok)
	}
	if v, ok := f.Pull(); !ok || v != 2 {
		t.Fatalf("want (2, true), got (%v, %v)", v, ok)
	}
	if _, ok := f.Pull(); ok {
		t.Fatal("want exhausted feed to report ok=false")
	}
}
