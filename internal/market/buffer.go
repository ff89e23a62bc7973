package market

// DefaultHistoryDepth is how many priced observations are retained per
// instrument. Five updates is enough temporal context for a velocity
// estimate without letting stale prices leak into it.
const DefaultHistoryDepth = 5

// HistoryBuffer keeps a bounded FIFO window of recent values per
// instrument key. It is owned by a single feature engine instance and is
// not safe for concurrent use; read-then-push is not atomic.
type HistoryBuffer[T any] struct {
	depth   int
	windows map[InstrumentKey][]T
}

// NewHistoryBuffer creates a buffer retaining up to depth entries per
// instrument. Non-positive depths fall back to DefaultHistoryDepth.
func NewHistoryBuffer[T any](depth int) *HistoryBuffer[T] {
	if depth <= 0 {
		depth = DefaultHistoryDepth
	}
	return &HistoryBuffer[T]{
		depth:   depth,
		windows: make(map[InstrumentKey][]T),
	}
}

// Window returns the retained entries for key, oldest first. The slice
// must be treated as read-only; it aliases internal storage.
func (b *HistoryBuffer[T]) Window(key InstrumentKey) []T {
	return b.windows[key]
}

// Push appends a value for key, evicting the oldest entry once the
// window exceeds its depth.
func (b *HistoryBuffer[T]) Push(key InstrumentKey, value T) {
	window := append(b.windows[key], value)
	if len(window) > b.depth {
		window = window[1:]
	}
	b.windows[key] = window
}

// Len returns the number of retained entries for key.
func (b *HistoryBuffer[T]) Len(key InstrumentKey) int {
	return len(b.windows[key])
}

// Instruments returns the number of distinct instruments tracked.
func (b *HistoryBuffer[T]) Instruments() int {
	return len(b.windows)
}
