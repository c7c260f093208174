//go:build linux

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
	"github.com/canlink/slcan-gateway/internal/socketcan"
)

// openSocketCANDevice is a hook for tests (overridden in unit tests).
var openSocketCANDevice = func(iface string) (socketcan.Dev, error) { return socketcan.Open(iface) }

// canLink adapts socketcan.Link to the server's bus controller.
type canLink struct{ link *socketcan.Link }

func (c canLink) BusUp() error   { return c.link.SetUp() }
func (c canLink) BusDown() error { return c.link.SetDown() }

// initSocketCANBackend sets up the SocketCAN backend, launching the RX loop.
func initSocketCANBackend(ctx context.Context, cfg *appConfig, h *hub.Hub, l *slog.Logger, wg *sync.WaitGroup) (func(can.Frame) error, server.BusControl, func(), error) {
	dev, err := openSocketCANDevice(cfg.canIf)
	if err != nil {
		return nil, nil, func() {}, fmt.Errorf("socketcan open %s: %w", cfg.canIf, err)
	}
	l.Info("socketcan_open", "if", cfg.canIf)
	var bus server.BusControl
	if cfg.linkControl {
		link, err := socketcan.LinkByName(cfg.canIf)
		if err != nil {
			_ = dev.Close()
			return nil, nil, func() {}, fmt.Errorf("socketcan link %s: %w", cfg.canIf, err)
		}
		bus = canLink{link: link}
	}
	tw := socketcan.NewTXWriter(ctx, dev, txQueueSize)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer l.Info("socketcan_rx_end")
		backoff := rxBackoffMin
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			fr, err := dev.ReadFrame()
			if err != nil {
				if ctx.Err() != nil { // shutting down
					return
				}
				metrics.IncError(metrics.ErrSocketCANRead)
				l.Warn("socketcan_read_error", "error", err, "backoff", backoff)
				sleepFn(backoff)
				backoff *= 2
				if backoff > rxBackoffMax {
					backoff = rxBackoffMax
				}
				continue
			}
			metrics.IncCANRx()
			broadcastFrame(h, l, fr)
			backoff = rxBackoffMin
		}
	}()
	return tw.SendFrame, bus, func() { _ = dev.Close(); tw.Close() }, nil
}
