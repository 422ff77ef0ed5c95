// Package broadcast is a small generic pub/sub used to fan session changes
// out to every open tab.
//
//	b := broadcast.NewMemoryBroadcaster[session.Change](64)
//	defer b.Close()
//
//	sub := b.Subscribe(ctx)
//	defer sub.Close()
//
//	go func() {
//		for msg := range sub.Receive(ctx) {
//			handle(msg.Data)
//		}
//	}()
//
//	_ = b.Broadcast(ctx, broadcast.Message[session.Change]{Data: change})
//
// Delivery never blocks the publisher: when a subscriber's buffer is full the
// message is dropped for that subscriber only. Subscriptions end when their
// context is cancelled or Close is called.
//
// RedisBroadcaster carries the same messages across portal instances over a
// Redis pub/sub channel and fans them out locally through a
// MemoryBroadcaster.
package broadcast
