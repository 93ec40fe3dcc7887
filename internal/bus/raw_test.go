package bus

import (
	"encoding/binary"
	"testing"
)

func TestSockaddrMCTP_Layout(t *testing.T) {
	sa := sockaddrMCTP(1, 9, 0x7e, true)

	if len(sa) != 9 {
		t.Fatalf("sockaddr length = %d, want 9", len(sa))
	}
	if family := binary.NativeEndian.Uint16(sa[0:2]); family != afMCTP {
		t.Errorf("family = %d, want %d", family, afMCTP)
	}
	if network := binary.NativeEndian.Uint16(sa[2:4]); network != 1 {
		t.Errorf("network = %d, want 1", network)
	}
	if sa[4] != 0 {
		t.Errorf("addr type = %d, want 0", sa[4])
	}
	if sa[5] != 0 {
		t.Errorf("reserved = %d, want 0", sa[5])
	}
	if sa[6] != 9 {
		t.Errorf("dest EID = %d, want 9", sa[6])
	}
	if sa[7] != 1 {
		t.Errorf("tag owner = %d, want 1", sa[7])
	}
	if sa[8] != 0x7e {
		t.Errorf("message type = %#x, want 0x7e", sa[8])
	}
}

func TestSockaddrMCTP_TagOwnerClear(t *testing.T) {
	sa := sockaddrMCTP(2, 200, 0, false)

	if sa[7] != 0 {
		t.Errorf("tag owner = %d, want 0", sa[7])
	}
	if sa[6] != 200 {
		t.Errorf("dest EID = %d, want 200", sa[6])
	}
}

func TestSend_RejectsOutOfRangeAddresses(t *testing.T) {
	c := &Controller{logger: noopLogger{}}

	if c.Send(-1, 9, 0, true, nil) {
		t.Error("negative network ID accepted")
	}
	if c.Send(1, 300, 0, true, nil) {
		t.Error("EID above 255 accepted")
	}
}
