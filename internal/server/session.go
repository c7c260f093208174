package server

import (
	"net"
	"sync"
	"sync/atomic"
)

// session is the per-connection SLCAN state shared by the reader and writer
// goroutines. Command responses (reader) and broadcast lines (writer) both
// go to the same socket, so writes are serialized here.
type session struct {
	conn net.Conn
	wmu  sync.Mutex
	// open mirrors the SLCAN channel state: no bus traffic flows to the
	// client until it sends 'O', and none after 'C'.
	open atomic.Bool
}

func (s *session) write(p []byte) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	_, err := s.conn.Write(p)
	return err
}
