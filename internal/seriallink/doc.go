// Package seriallink promotes serial devices to MCTP network interfaces.
//
// Opening a link spawns the mctp CLI tool's long-running serial binder
// (`mctp link serial <device>`), waits for the kernel to surface the new
// network interface, brings the interface up and assigns it an EID drawn
// from the shared pool. The binder process is owned for the life of the
// link; closing the link terminates it, releases the EID and removes the
// link from the active registry.
//
// Interface discovery works by diffing the OS interface list against a
// snapshot taken before the binder started. That technique is racy if two
// links are opened concurrently, so callers must serialize Open calls; the
// bus controller provisions links strictly one at a time.
package seriallink
