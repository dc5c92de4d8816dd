// Package broadcast delivers in-process notifications to any number of
// subscribers without ever blocking the publisher.
//
// The session manager publishes its lifecycle events (signed in, refreshed,
// signed out, authentication required) through a MemoryBroadcaster so that
// UI shells and background workers can react to them:
//
//	sub := events.Subscribe(ctx)
//	for msg := range sub.Receive(ctx) {
//		handle(msg.Data)
//	}
//
// Slow subscribers whose buffer is full are dropped rather than slowing down
// everyone else; size the buffer for the burstiness of your events.
package broadcast
