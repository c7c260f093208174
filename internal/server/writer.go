package server

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/canlink/slcan-gateway/internal/hub"
	"github.com/canlink/slcan-gateway/internal/metrics"
	"github.com/canlink/slcan-gateway/internal/slcan"
)

// startWriter launches the goroutine rendering hub frames as ASCII lines
// for a single client connection. Frames are batched and flushed on a
// ticker so bursty buses do not turn into per-frame syscalls.
func (s *Server) startWriter(ctxDone <-chan struct{}, sess *session, cl *hub.Client, logger *slog.Logger) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			_ = sess.conn.Close()
			if s.Hub != nil {
				s.Hub.Remove(cl)
			}
			s.totalDisconnected.Add(1)
			logger.Info("client_disconnected")
		}()
		t := time.NewTicker(s.flushInterval)
		defer t.Stop()
		out := make([]byte, 0, s.batchSize*slcan.MaxLineLen)
		pending := 0
		flush := func() error {
			if pending == 0 {
				return nil
			}
			n := pending
			err := sess.write(out)
			out = out[:0]
			pending = 0
			if err != nil {
				wrap := fmt.Errorf("%w: %v", ErrConnWrite, err)
				metrics.IncError(mapErrToMetric(wrap))
				s.setError(wrap)
				return wrap
			}
			metrics.AddSlcanTx(n)
			return nil
		}
		for {
			select {
			case fr := <-cl.Out:
				if !sess.open.Load() {
					continue // channel closed; client sees no bus traffic
				}
				out = slcan.AppendLine(out, fr)
				pending++
				if pending >= s.batchSize {
					if err := flush(); err != nil {
						return
					}
				}
			case <-t.C:
				if err := flush(); err != nil {
					return
				}
			case <-cl.Closed:
				_ = flush()
				return
			case <-ctxDone:
				_ = flush()
				return
			}
		}
	}()
}
