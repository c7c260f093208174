package slcan

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line    string
		kind    CommandKind
		bitrate int
	}{
		{"O\r", CmdOpen, 0},
		{"O", CmdOpen, 0},
		{"C\r", CmdClose, 0},
		{"S0\r", CmdBitrate, 10_000},
		{"S4\r", CmdBitrate, 125_000},
		{"S6\r", CmdBitrate, 500_000},
		{"S8\r", CmdBitrate, 1_000_000},
		{"V\r", CmdVersion, 0},
		{"v\r", CmdVersion, 0},
		{"N\r", CmdSerialNo, 0},
		{"F\r", CmdStatus, 0},
		{"S9\r", CmdUnknown, 0},
		{"S\r", CmdUnknown, 0},
		{"OO\r", CmdUnknown, 0},
		{"X\r", CmdUnknown, 0},
		{"\r", CmdUnknown, 0},
		{"", CmdUnknown, 0},
	}
	for _, tc := range tests {
		cmd := ParseCommand([]byte(tc.line))
		if cmd.Kind != tc.kind || cmd.Bitrate != tc.bitrate {
			t.Errorf("ParseCommand(%q) = {%v %d}, want {%v %d}",
				tc.line, cmd.Kind, cmd.Bitrate, tc.kind, tc.bitrate)
		}
	}
}

func TestIsFrameLine(t *testing.T) {
	for _, line := range []string{"t1230\r", "T001ABCDE0\r", "r1230\r", "R001ABCDE0\r"} {
		if !IsFrameLine([]byte(line)) {
			t.Errorf("IsFrameLine(%q) = false, want true", line)
		}
	}
	for _, line := range []string{"O\r", "S4\r", "V\r", "", "x1230\r"} {
		if IsFrameLine([]byte(line)) {
			t.Errorf("IsFrameLine(%q) = true, want false", line)
		}
	}
}
