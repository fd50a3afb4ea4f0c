package game

import (
	"context"

	"github.com/mcoot/bingopot/internal/model"
)

// Notifier receives events after the state change they describe has committed
type Notifier interface {
	Publish(ctx context.Context, event model.Event)
}

// NopNotifier discards all events
type NopNotifier struct{}

func (NopNotifier) Publish(ctx context.Context, event model.Event) {}
