package seriallink

import "errors"

// Domain errors for the seriallink package.
var (
	// ErrDeviceNotFound is returned when the serial device path does not
	// exist at open time.
	ErrDeviceNotFound = errors.New("seriallink: serial device not found")

	// ErrInterfaceTimeout is returned when no new network interface appears
	// within the configured wait after the binder starts.
	ErrInterfaceTimeout = errors.New("seriallink: timed out waiting for bound network interface")

	// ErrLinkConfig is returned when an mctp tool invocation used to
	// configure the interface exits non-zero.
	ErrLinkConfig = errors.New("seriallink: link configuration command failed")
)
