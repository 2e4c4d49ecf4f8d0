// Package dispatch runs event handlers in isolation for the event bus.
//
// A misbehaving handler must never take down the publisher. The Executor runs one
// handler, recovering panics and capturing returned errors into a Result. The Join
// waits for a set of concurrently running handlers to settle, collecting every
// failure without letting one of them abort the wait for the others.
//
// # Usage
//
// Isolated execution:
//
//	exec := dispatch.NewExecutor()
//	result := exec.Execute(ctx, payload, handler)
//	if result.Failed() {
//	    // report result.Error()
//	}
//
// Fault-tolerant join:
//
//	join := dispatch.NewJoin(0)
//	for _, h := range handlers {
//	    join.Go(func() error {
//	        return exec.Execute(ctx, payload, h).Error()
//	    })
//	}
//	err := join.Wait() // every failure, joined
package dispatch
