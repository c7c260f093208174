package slcan

// Channel commands understood on a client connection. Anything that is not
// a frame line is run through ParseCommand; unknown commands are nak'd.

// Response bytes per the slcand convention.
const (
	ACK = CR   // command accepted
	NAK = 0x07 // BELL, command rejected
)

type CommandKind int

const (
	CmdUnknown CommandKind = iota
	CmdOpen                // O: open channel, frames flow
	CmdClose               // C: close channel
	CmdBitrate             // S0..S8: select bus bitrate
	CmdVersion             // V: report version
	CmdSerialNo            // N: report serial number
	CmdStatus              // F: report status flags
)

type Command struct {
	Kind CommandKind
	// Bitrate in bit/s for CmdBitrate, 0 otherwise.
	Bitrate int
}

// bitrates maps the S0..S8 preset index to bit/s.
var bitrates = [...]int{
	10_000, 20_000, 50_000, 100_000, 125_000, 250_000, 500_000, 800_000, 1_000_000,
}

// ParseCommand classifies a non-frame line. A trailing CR is tolerated.
func ParseCommand(line []byte) Command {
	if n := len(line); n > 0 && line[n-1] == CR {
		line = line[:n-1]
	}
	if len(line) == 0 {
		return Command{Kind: CmdUnknown}
	}
	switch line[0] {
	case 'O':
		if len(line) == 1 {
			return Command{Kind: CmdOpen}
		}
	case 'C':
		if len(line) == 1 {
			return Command{Kind: CmdClose}
		}
	case 'S':
		if len(line) == 2 && line[1] >= '0' && line[1] <= '8' {
			return Command{Kind: CmdBitrate, Bitrate: bitrates[line[1]-'0']}
		}
	case 'V', 'v':
		if len(line) == 1 {
			return Command{Kind: CmdVersion}
		}
	case 'N':
		if len(line) == 1 {
			return Command{Kind: CmdSerialNo}
		}
	case 'F':
		if len(line) == 1 {
			return Command{Kind: CmdStatus}
		}
	}
	return Command{Kind: CmdUnknown}
}

// IsFrameLine reports whether line starts with one of the four frame
// markers and should go through ParseLine rather than ParseCommand.
func IsFrameLine(line []byte) bool {
	if len(line) == 0 {
		return false
	}
	switch line[0] {
	case 't', 'T', 'r', 'R':
		return true
	}
	return false
}
