package service

import (
	"context"
	"time"
)

// storeTimeout bounds every remote store operation. The underlying client
// has its own network timeouts; this is the user-perceived ceiling.
const storeTimeout = 10 * time.Second

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, storeTimeout)
}
