//go:build !linux

package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/canlink/slcan-gateway/internal/can"
	"github.com/canlink/slcan-gateway/internal/hub"
	"github.com/canlink/slcan-gateway/internal/server"
)

// Placeholder so non-linux builds compile; socketcan not supported.
func initSocketCANBackend(ctx context.Context, cfg *appConfig, h *hub.Hub, l *slog.Logger, wg *sync.WaitGroup) (func(can.Frame) error, server.BusControl, func(), error) {
	return nil, nil, func() {}, fmt.Errorf("socketcan backend unsupported on this platform")
}
