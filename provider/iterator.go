package provider

import "context"

// Iterator provides pull-based sequential access to a stream of
// values. The host calls Next until it reports exhaustion, then Close.
// This is the single suspension point of an input run loop: Next may
// block on a timer or external I/O and must honor ctx cancellation.
type Iterator[T any] interface {
	// Next returns the next value. It returns (zero, false, nil) when
	// the stream is exhausted and (zero, false, ctx.Err()) when the
	// context is canceled mid-wait.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// SliceIterator yields the elements of a fixed slice in order.
type SliceIterator[T any] struct {
	items []T
	pos   int
}

// NewSliceIterator creates an iterator over the given items.
func NewSliceIterator[T any](items []T) *SliceIterator[T] {
	return &SliceIterator[T]{items: items}
}

func (s *SliceIterator[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	if s.pos >= len(s.items) {
		return zero, false, nil
	}
	item := s.items[s.pos]
	s.pos++
	return item, true, nil
}

func (s *SliceIterator[T]) Close() error { return nil }

// FuncIterator adapts a pull function into an Iterator. Close is
// optional.
type FuncIterator[T any] struct {
	NextFunc  func(ctx context.Context) (T, bool, error)
	CloseFunc func() error
}

func (f *FuncIterator[T]) Next(ctx context.Context) (T, bool, error) {
	return f.NextFunc(ctx)
}

func (f *FuncIterator[T]) Close() error {
	if f.CloseFunc != nil {
		return f.CloseFunc()
	}
	return nil
}
