// Package broadcast is a small generic pub/sub used to fan registry changes
// out to streaming clients.
//
//	b := broadcast.NewMemoryBroadcaster[registry.Change](64)
//	defer b.Close()
//
//	sub := b.Subscribe(ctx)
//	defer sub.Close()
//	go func() {
//		for msg := range sub.Receive(ctx) {
//			fmt.Println(msg.Data.DatasetID, msg.Data.Kind)
//		}
//	}()
//
//	_ = b.Broadcast(ctx, broadcast.Message[registry.Change]{Data: change})
//
// Delivery is non-blocking. A subscriber whose buffer is full misses the
// message; Dropped counts those misses. Subscriptions end when their context
// is canceled, when Close is called, or when the broadcaster closes.
package broadcast
