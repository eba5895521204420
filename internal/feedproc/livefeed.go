package feedproc

import (
	"context"

	"github.com/whalefeed/whalefeed/internal/feed"
)

// LiveFeed is the port to the push-based live transaction feed.
//
// The connection handle is explicitly owned: it is constructed once at
// application start and passed to the service, which ties subscribe and
// unsubscribe to its own lifecycle. Nothing may keep delivering events after
// Close.
type LiveFeed interface {
	// Subscribe starts delivery of live transactions. The returned channel
	// is closed when the feed shuts down or ctx is canceled.
	Subscribe(ctx context.Context) (<-chan feed.Transaction, error)

	// Close tears the feed connection down and stops delivery.
	Close()
}
