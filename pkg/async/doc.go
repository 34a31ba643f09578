// Package async provides generic helpers for running computations
// asynchronously, plus a single-goroutine Dispatcher for bridging work
// across concurrency domains.
//
// The package is centred around the generic type Future that represents the
// eventual result of an asynchronous operation. A Future can be obtained in
// two ways: Async starts the supplied function in its own goroutine, while
// Dispatcher.Submit enqueues the function onto one specific goroutine that
// drains a job queue via Run.
//
// The Dispatcher exists because the bot's Discord session is effectively a
// single concurrency domain: role mutations and API calls are serialized on
// the goroutine running Run. HTTP handlers serving the identity provider's
// redirect submit jobs into that domain and use AwaitWithTimeout with a
// sub-second bound purely to surface scheduling failures - never to wait for
// the job's real completion, which may take multiple network round trips.
//
//	d := async.NewDispatcher(64)
//	go d.Run(ctx)
//
//	fut, err := d.Submit(ctx, func(ctx context.Context) error {
//	    return verifier.HandleCallback(ctx, state, code)
//	})
//	if err != nil {
//	    // queue full or stopped: reject the request
//	}
//	if _, err := fut.AwaitWithTimeout(500 * time.Millisecond); err == async.ErrTimeout {
//	    // scheduled fine, still running; respond to the browser anyway
//	}
//
// # Error Handling
//
// Await returns the error produced by the user callback; AwaitWithTimeout
// returns ErrTimeout when the bound elapses first. Submit returns
// ErrQueueFull or ErrDispatcherStopped without blocking.
package async
