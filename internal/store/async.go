package store

import (
	"context"
	"sync"
)

// Future is the pending result of an asynchronous store operation.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) resolve(v T, err error) {
	f.val, f.err = v, err
	close(f.done)
}

// Done is closed once the operation has completed.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Wait blocks until the operation completes or ctx ends.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Async runs store operations in the background. Operations on the same
// session id complete in submission order; operations on different ids
// run concurrently. All has no ordering with respect to writes.
type Async struct {
	store Store

	mu    sync.Mutex
	tails map[string]chan struct{}
	wg    sync.WaitGroup
}

// NewAsync wraps s.
func NewAsync(s Store) *Async {
	return &Async{store: s, tails: make(map[string]chan struct{})}
}

// Store returns the wrapped store.
func (a *Async) Store() Store { return a.store }

// enqueue chains fn behind the last pending operation on key.
func enqueue[T any](a *Async, key string, fn func(context.Context) (T, error)) *Future[T] {
	f := newFuture[T]()
	done := make(chan struct{})

	a.mu.Lock()
	prev := a.tails[key]
	a.tails[key] = done
	a.mu.Unlock()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if prev != nil {
			<-prev
		}
		v, err := fn(context.Background())

		a.mu.Lock()
		if a.tails[key] == done {
			delete(a.tails, key)
		}
		a.mu.Unlock()
		close(done)
		f.resolve(v, err)
	}()
	return f
}

// Put upserts s.
func (a *Async) Put(s Session) *Future[struct{}] {
	return enqueue(a, s.ID, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, a.store.Put(ctx, s)
	})
}

// Get reads one session.
func (a *Async) Get(id string) *Future[*Session] {
	return enqueue(a, id, func(ctx context.Context) (*Session, error) {
		return a.store.Get(ctx, id)
	})
}

// Delete removes one session.
func (a *Async) Delete(id string) *Future[struct{}] {
	return enqueue(a, id, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, a.store.Delete(ctx, id)
	})
}

// SetNote replaces the reviewer note of an existing session.
func (a *Async) SetNote(id, note string) *Future[struct{}] {
	return enqueue(a, id, func(ctx context.Context) (struct{}, error) {
		s, err := a.store.Get(ctx, id)
		if err != nil {
			return struct{}{}, err
		}
		s.Note = note
		return struct{}{}, a.store.Put(ctx, *s)
	})
}

// All reads a snapshot of every session, newest first.
func (a *Async) All() *Future[[]Session] {
	f := newFuture[[]Session]()
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		f.resolve(a.store.All(context.Background()))
	}()
	return f
}

// Flush waits for every submitted operation to finish.
func (a *Async) Flush() {
	a.wg.Wait()
}
