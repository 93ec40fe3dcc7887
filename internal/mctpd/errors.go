package mctpd

import "errors"

// Domain errors for the mctpd package.
var (
	// ErrRangeNotFound is returned when the configuration file contains no
	// dynamic_eid_range declaration.
	ErrRangeNotFound = errors.New("mctpd: dynamic_eid_range not found in configuration")

	// ErrRangeInvalid is returned when a dynamic_eid_range declaration is
	// present but malformed or contains a non-positive bound.
	ErrRangeInvalid = errors.New("mctpd: invalid dynamic_eid_range declaration")
)
