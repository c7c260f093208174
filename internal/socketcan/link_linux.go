//go:build linux

package socketcan

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"
)

// Link drives the CAN network interface state via rtnetlink. The SLCAN
// open/close channel commands map onto bringing the link up and down.
type Link struct {
	ifi *net.Interface
}

func LinkByName(name string) (*Link, error) {
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return nil, fmt.Errorf("if %q: %w", name, err)
	}
	return &Link{ifi: ifi}, nil
}

// SetUp brings the interface up.
func (l *Link) SetUp() error { return l.setFlags(unix.IFF_UP, unix.IFF_UP) }

// SetDown takes the interface down.
func (l *Link) SetDown() error { return l.setFlags(0, unix.IFF_UP) }

func (l *Link) setFlags(flags, change uint32) error {
	c, err := netlink.Dial(unix.NETLINK_ROUTE, &netlink.Config{})
	if err != nil {
		return fmt.Errorf("dial netlink: %w", err)
	}
	defer c.Close()

	ifi := ifInfoMsg{
		Index:  int32(l.ifi.Index),
		Flags:  flags,
		Change: change,
	}
	req := netlink.Message{
		Header: netlink.Header{
			Flags: netlink.Request | netlink.Acknowledge,
			Type:  unix.RTM_NEWLINK,
		},
		Data: ifi.marshalBinary(),
	}
	res, err := c.Execute(req)
	if err != nil {
		return fmt.Errorf("link change: %w", err)
	}
	if len(res) > 1 {
		return fmt.Errorf("expected 1 netlink message, got %d", len(res))
	}
	return nil
}

// ifInfoMsg mirrors struct ifinfomsg from <linux/rtnetlink.h>.
type ifInfoMsg unix.IfInfomsg

func (ifi ifInfoMsg) marshalBinary() []byte {
	buf := make([]byte, 2)
	buf[0] = ifi.Family
	buf[1] = 0 // reserved
	buf = binary.LittleEndian.AppendUint16(buf, ifi.Type)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(ifi.Index))
	buf = binary.LittleEndian.AppendUint32(buf, ifi.Flags)
	buf = binary.LittleEndian.AppendUint32(buf, ifi.Change)
	return buf
}
