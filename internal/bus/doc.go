// Package bus orchestrates MCTP bus provisioning and endpoint discovery.
//
// The Controller is the top of the stack: it reads the dynamic EID range
// from the mctpd configuration, provisions a serial link for every matched
// device path, restarts the mctpd daemon so enumeration starts clean, and
// then polls the daemon's D-Bus object tree until the endpoint count is
// stable across two consecutive polls. Once ready, DiscoverEndpoints
// performs a fresh walk on every call and correlates each endpoint with a
// locally owned serial link by EID.
//
// At most one operational controller exists per construction Guard; the
// default guard is process-wide, matching the daemon's own expectation of
// a single bus owner. Tests supply their own guards to stay hermetic.
//
// The package also carries raw AF_MCTP datagram transmission as a thin
// convenience; it deliberately reports only success or failure.
package bus
