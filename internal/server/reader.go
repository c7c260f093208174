package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/canlink/slcan-gateway/internal/hub"
	"github.com/canlink/slcan-gateway/internal/metrics"
	"github.com/canlink/slcan-gateway/internal/serial"
	"github.com/canlink/slcan-gateway/internal/slcan"
	"github.com/canlink/slcan-gateway/internal/socketcan"
	"github.com/canlink/slcan-gateway/internal/translate"
)

var (
	ackByte = []byte{slcan.ACK}
	nakByte = []byte{slcan.NAK}
)

func (s *Server) startReader(ctxDone <-chan struct{}, sess *session, cl *hub.Client, logger *slog.Logger) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() { _ = sess.conn.Close() }()
		buf := make([]byte, 1024)
		acc := bytes.NewBuffer(nil)
		for {
			_ = sess.conn.SetReadDeadline(time.Now().Add(s.readDeadline))
			n, err := sess.conn.Read(buf)
			if n > 0 {
				acc.Write(buf[:n])
				s.drainLines(sess, acc, logger)
			}
			if err != nil {
				if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
					return
				}
				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					continue
				}
				wrap := fmt.Errorf("%w: %v", ErrConnRead, err)
				metrics.IncError(mapErrToMetric(wrap))
				s.setError(wrap)
				return
			}
			select {
			case <-ctxDone:
				return
			default:
			}
		}
	}()
}

// drainLines peels complete CR-terminated lines off acc and handles each.
// A partial line stays buffered for the next read.
func (s *Server) drainLines(sess *session, acc *bytes.Buffer, logger *slog.Logger) {
	for {
		data := acc.Bytes()
		i := bytes.IndexByte(data, slcan.CR)
		if i < 0 {
			return
		}
		line := data[:i+1]
		if len(line) > 1 { // ignore bare CR
			s.handleLine(sess, line, logger)
		}
		acc.Next(i + 1)
	}
}

func (s *Server) handleLine(sess *session, line []byte, logger *slog.Logger) {
	if slcan.IsFrameLine(line) {
		s.handleFrameLine(sess, line, logger)
		return
	}
	s.handleCommand(sess, line, logger)
}

func (s *Server) handleFrameLine(sess *session, line []byte, logger *slog.Logger) {
	metrics.IncSlcanRx()
	pf, err := slcan.ParseLine(line)
	if err != nil {
		metrics.IncParseError()
		logger.Debug("slcan_parse_error", "error", err)
		_ = sess.write(nakByte)
		return
	}
	if !sess.open.Load() {
		_ = sess.write(nakByte)
		return
	}
	df, err := translate.ToDriver(pf)
	if err != nil {
		metrics.IncTranslateDrop()
		logger.Debug("translate_drop", "direction", "to_driver", "error", err)
		_ = sess.write(nakByte)
		return
	}
	if err := s.Send(df); err != nil {
		if errors.Is(err, serial.ErrTxOverflow) || errors.Is(err, socketcan.ErrTxOverflow) {
			s.totalOverflow.Add(1)
			logger.Debug("backend_overflow_drop", "can_id", fmt.Sprintf("0x%X", df.ID().Raw()), "dlc", df.DLC())
		} else {
			wrap := fmt.Errorf("%w: %v", ErrBackendTx, err)
			s.setError(wrap)
			s.totalBackendErrs.Add(1)
			logger.Error("backend_tx_error", "error", wrap, "can_id", fmt.Sprintf("0x%X", df.ID().Raw()))
		}
		_ = sess.write(nakByte)
		return
	}
	// Positive transmit response: z for standard markers, Z for extended.
	if line[0] == 'T' || line[0] == 'R' {
		_ = sess.write([]byte{'Z', slcan.CR})
	} else {
		_ = sess.write([]byte{'z', slcan.CR})
	}
}

func (s *Server) handleCommand(sess *session, line []byte, logger *slog.Logger) {
	metrics.IncCommand()
	cmd := slcan.ParseCommand(line)
	switch cmd.Kind {
	case slcan.CmdOpen:
		if s.Bus != nil && !sess.open.Load() {
			if err := s.Bus.BusUp(); err != nil {
				metrics.IncError(metrics.ErrLinkControl)
				logger.Warn("bus_up_failed", "error", err)
				_ = sess.write(nakByte)
				return
			}
		}
		sess.open.Store(true)
		logger.Info("channel_open")
		_ = sess.write(ackByte)
	case slcan.CmdClose:
		sess.open.Store(false)
		if s.Bus != nil {
			if err := s.Bus.BusDown(); err != nil {
				metrics.IncError(metrics.ErrLinkControl)
				logger.Warn("bus_down_failed", "error", err)
			}
		}
		logger.Info("channel_close")
		_ = sess.write(ackByte)
	case slcan.CmdBitrate:
		// Bitrate presets must arrive while the channel is closed. The
		// backend's bus bitrate is configured out of band; the preset is
		// accepted and logged for compatibility with slcand-style hosts.
		if sess.open.Load() {
			_ = sess.write(nakByte)
			return
		}
		logger.Info("bitrate_request", "bitrate", cmd.Bitrate)
		_ = sess.write(ackByte)
	case slcan.CmdVersion:
		_ = sess.write(append([]byte(s.versionReply), slcan.CR))
	case slcan.CmdSerialNo:
		_ = sess.write(append([]byte(s.serialReply), slcan.CR))
	case slcan.CmdStatus:
		_ = sess.write([]byte{'F', '0', '0', slcan.CR})
	default:
		_ = sess.write(nakByte)
	}
}
