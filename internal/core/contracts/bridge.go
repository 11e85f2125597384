package contracts

import "context"

// EventBridge relays broadcast frames between nodes so clients of the same
// channel connected to different instances still see each other's events.
// Optional: a nil bridge means single-node operation.
type EventBridge interface {
	Publish(ctx context.Context, channelKey string, data []byte) error
	// Subscribe starts the background receive loop and invokes handler for
	// every frame published by other nodes.
	Subscribe(ctx context.Context, handler func(channelKey string, data []byte)) error
}
