package pocket

import (
	"context"
)

// ClientInterface defines the interface for the Pocket API client.
type ClientInterface interface {
	Add(ctx context.Context, input AddInput) (*Item, error)
}
