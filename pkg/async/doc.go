// Package async provides small generic helpers for running work in the
// background and sharing its outcome.
//
// Future holds the eventual result of a computation started with Async.
// Any number of goroutines may wait on it with Await, AwaitContext or
// AwaitWithTimeout, and all of them observe the same result.
//
// Flight builds on Future to collapse concurrent requests for the same work
// into one computation. The session manager uses it to guarantee that at most
// one token renewal is on the wire at a time:
//
//	var renewals async.Flight[string]
//
//	f, _ := renewals.Do(context.WithoutCancel(ctx), func(ctx context.Context) (string, error) {
//		return refresh(ctx)
//	})
//	token, err := f.AwaitContext(ctx)
//
// Waiting with AwaitContext only bounds the caller's own wait; the shared
// computation keeps running for everyone else.
package async
