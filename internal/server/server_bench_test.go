package server

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/canlink/slcan-gateway/internal/can"
	"github.com/canlink/slcan-gateway/internal/hub"
	"github.com/canlink/slcan-gateway/internal/slcan"
)

// mockSend is a no-op backend send function.
func mockSend(can.Frame) error { return nil }

// startInMemoryServer launches the server on :0 for benchmarks.
func startInMemoryServer(b *testing.B, h *hub.Hub) (*Server, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer(WithHub(h), WithSend(mockSend))
	srv.SetListenAddr("127.0.0.1:0")
	go func() { _ = srv.Serve(ctx) }()
	select {
	case <-srv.Ready():
	case <-time.After(time.Second):
		b.Fatalf("server not ready")
	}
	return srv, cancel
}

func BenchmarkServerWriterFlush(b *testing.B) {
	h := hub.New()
	srv, cancel := startInMemoryServer(b, h)
	defer cancel()
	conn, err := net.Dial("tcp", srv.Addr())
	if err != nil {
		b.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	// Open the channel so broadcast lines reach the socket.
	_ = conn.SetDeadline(time.Now().Add(time.Second))
	if _, err := conn.Write([]byte("O\r")); err != nil {
		b.Fatalf("open write: %v", err)
	}
	ack := make([]byte, 1)
	if _, err := conn.Read(ack); err != nil {
		b.Fatalf("open ack: %v", err)
	}
	// Drain whatever the writer flushes so TCP buffers never fill.
	go func() { _, _ = io.Copy(io.Discard, conn) }()

	id, err := slcan.NewStandardID(0x123)
	if err != nil {
		b.Fatal(err)
	}
	fr, err := slcan.NewDataFrame(id, []byte{1, 2, 3, 4})
	if err != nil {
		b.Fatal(err)
	}
	// Feed frames through the hub; the server writer loop renders and flushes.
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h.Broadcast(fr)
	}
	b.StopTimer()
}
