// Package node runs the sender and gateway tick loops.
package node

import (
	"context"
	"time"

	"github.com/itohio/envlink/pkg/lcd"
)

// Screen sizes of the boards the nodes were built for.
const (
	SenderWidth   = 240
	SenderHeight  = 135
	GatewayWidth  = 320
	GatewayHeight = 240
)

// Ticker is a node driven by a periodic tick.
type Ticker interface {
	Tick()
}

// Run calls n.Tick every interval until ctx is done. The first tick happens
// immediately.
func Run(ctx context.Context, n Ticker, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	n.Tick()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n.Tick()
		}
	}
}

// renderHook is called after every frame with the surface that was drawn.
type renderHook func(lcd.Surface)
