package bus

import (
	"encoding/binary"
	"unsafe"

	"golang.org/x/sys/unix"
)

// afMCTP is the Linux address family for MCTP sockets.
const afMCTP = 45

// sockaddrMCTP encodes a struct sockaddr_mctp in the kernel's native byte
// order: family and network ID as u16, then address type (0 = EID),
// a reserved byte, the destination EID, the tag-owner flag, and the
// message type as single bytes.
func sockaddrMCTP(networkID uint16, destEID, messageType byte, tagOwner bool) []byte {
	sa := make([]byte, 9)
	binary.NativeEndian.PutUint16(sa[0:2], afMCTP)
	binary.NativeEndian.PutUint16(sa[2:4], networkID)
	sa[4] = 0
	sa[5] = 0
	sa[6] = destEID
	if tagOwner {
		sa[7] = 1
	}
	sa[8] = messageType
	return sa
}

// Send transmits one raw MCTP datagram to destEID on networkID and reports
// only whether the transmission was handed to the kernel. Callers that
// need the cause can enable debug logging; the common caller only branches
// on success.
func (c *Controller) Send(networkID, destEID int, messageType byte, tagOwner bool, payload []byte) bool {
	if networkID < 0 || networkID > 0xffff || destEID < 0 || destEID > 0xff {
		c.logger.Debug("raw send rejected",
			"network_id", networkID, "dest_eid", destEID)
		return false
	}

	fd, err := unix.Socket(afMCTP, unix.SOCK_DGRAM, 0)
	if err != nil {
		c.logger.Debug("raw send failed", "stage", "socket", "error", err)
		return false
	}
	defer unix.Close(fd)

	sa := sockaddrMCTP(uint16(networkID), byte(destEID), messageType, tagOwner)

	var buf unsafe.Pointer
	if len(payload) > 0 {
		buf = unsafe.Pointer(&payload[0])
	}
	_, _, errno := unix.Syscall6(unix.SYS_SENDTO,
		uintptr(fd),
		uintptr(buf),
		uintptr(len(payload)),
		0,
		uintptr(unsafe.Pointer(&sa[0])),
		uintptr(len(sa)))
	if errno != 0 {
		c.logger.Debug("raw send failed", "stage", "sendto",
			"dest_eid", destEID, "error", errno)
		return false
	}

	c.logger.Debug("raw datagram sent",
		"network_id", networkID, "dest_eid", destEID,
		"message_type", messageType, "bytes", len(payload))
	return true
}
