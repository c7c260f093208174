package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/canlink/slcan-gateway/internal/can"
	"github.com/canlink/slcan-gateway/internal/hub"
	"github.com/canlink/slcan-gateway/internal/metrics"
	"github.com/canlink/slcan-gateway/internal/server"
	"github.com/canlink/slcan-gateway/internal/translate"
)

// initBackend selects the backend, starts its RX loop and returns a frame
// sender, an optional bus controller and a cleanup func. It returns an
// error instead of exiting the process to allow graceful handling by the
// caller.
func initBackend(ctx context.Context, cfg *appConfig, h *hub.Hub, l *slog.Logger, wg *sync.WaitGroup) (func(can.Frame) error, server.BusControl, func(), error) {
	switch cfg.backend {
	case "serial":
		return initSerialBackend(ctx, cfg, h, l, wg)
	case "socketcan":
		return initSocketCANBackend(ctx, cfg, h, l, wg)
	default:
		return nil, nil, func() {}, fmt.Errorf("unknown backend %q (use serial|socketcan)", cfg.backend)
	}
}

// broadcastFrame crosses the representation boundary: a driver frame that
// fails to convert is dropped and counted, never forwarded.
func broadcastFrame(h *hub.Hub, l *slog.Logger, fr can.Frame) {
	pf, err := translate.ToProtocol(fr)
	if err != nil {
		metrics.IncTranslateDrop()
		l.Debug("translate_drop", "direction", "to_protocol", "error", err)
		return
	}
	h.Broadcast(pf)
}
