package bus

import "errors"

var (
	// ErrControllerActive indicates another controller already holds the
	// construction guard.
	ErrControllerActive = errors.New("bus controller already active")

	// ErrNoDevices indicates that no device pattern matched any path.
	ErrNoDevices = errors.New("no matching devices")

	// ErrInsufficientEids indicates more devices matched than the dynamic
	// EID range can hold.
	ErrInsufficientEids = errors.New("insufficient EIDs for matched devices")

	// ErrStabilizationTimeout indicates the endpoint count never settled
	// within the discovery window.
	ErrStabilizationTimeout = errors.New("endpoint enumeration did not stabilize")

	// ErrBusUnavailable indicates the D-Bus connection or a call on it
	// failed.
	ErrBusUnavailable = errors.New("management bus unavailable")

	// ErrNotReady indicates an operation that requires a ready controller
	// was invoked in another state.
	ErrNotReady = errors.New("controller not ready")
)
