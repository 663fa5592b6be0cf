package engine

import "sync"

// Feed is a lazy, thread-safe item source bound to a step. Virtual users
// pull from it independently. A Feed built by NewSliceFeed cycles forever;
// one built by NewFeed ends when its generator reports exhaustion, after
// which a step sees a nil FeedItem.
type Feed struct {
	mu   sync.Mutex
	next func() (any, bool)
}

// NewFeed wraps a generator function. next returns (item, true) while
// items remain, or (nil, false) once exhausted; subsequent pulls after
// exhaustion keep returning (nil, false).
func NewFeed(next func() (any, bool)) *Feed {
	return &Feed{next: next}
}

// NewSliceFeed builds a Feed that cycles through items forever, wrapping
// around once the end is reached. Panics if items is empty.
func NewSliceFeed(items []any) *Feed {
	if len(items) == 0 {
		panic("engine: NewSliceFeed requires at least one item")
	}
	i := 0
	return NewFeed(func() (any, bool) {
		item := items[i%len(items)]
		i++
		return item, true
	})
}

// Pull returns the next item, or (nil, false) if the feed is exhausted.
func (f *Feed) Pull() (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.next()
}
