// Package mctpd integrates with the external mctpd transport daemon.
//
// mctpd (from the CodeConstruct mctp project) performs MCTP bus transport
// and exposes its enumeration state over D-Bus. IoTorch never speaks the
// bus wire protocol itself; it only:
//
//   - reads the dynamic_eid_range declaration from mctpd's configuration
//     file, which bounds the EIDs IoTorch may assign to serial links
//   - controls the daemon's lifecycle through systemctl, restarting it
//     after links are provisioned so no stale enumeration state survives
//
// The D-Bus identity of the daemon (service name, root object path and
// endpoint property interface) is published here as constants for the bus
// package to consume.
package mctpd
