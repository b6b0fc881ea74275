package container

import (
	"context"
	"sync"
)

// Await issues a callback-style native call and blocks until it settles.
//
// start receives a success and a failure callback. Only the first callback
// to fire counts. If ctx is done first, Await returns ctx.Err(); the native
// call is not retracted and its late result is dropped.
func Await[T any](ctx context.Context, op string, start func(done func(T), fail func(reason string))) (T, error) {
	type result struct {
		val T
		err error
	}
	ch := make(chan result, 1)
	var once sync.Once
	done := func(v T) {
		once.Do(func() { ch <- result{val: v} })
	}
	fail := func(reason string) {
		once.Do(func() { ch <- result{err: NewNativeError(op, reason)} })
	}

	start(done, fail)

	select {
	case r := <-ch:
		return r.val, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Await0 is Await for native calls whose success callback carries no value.
func Await0(ctx context.Context, op string, start func(done func(), fail func(reason string))) error {
	_, err := Await(ctx, op, func(done func(struct{}), fail func(string)) {
		start(func() { done(struct{}{}) }, fail)
	})
	return err
}

// Call runs a synchronous native call under the same contract as Await: an
// error from fn is reported as a NativeError carrying fn's message.
func Call[T any](ctx context.Context, op string, fn func() (T, error)) (T, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}
	v, err := fn()
	if err != nil {
		return v, NewNativeError(op, err.Error())
	}
	return v, nil
}

// Call0 is Call for native calls that return only an error.
func Call0(ctx context.Context, op string, fn func() error) error {
	_, err := Call(ctx, op, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
