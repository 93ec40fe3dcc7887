// Package process provides ownership of long-running child processes.
//
// It exists for the mctp link binder: `mctp link serial <device>` stays
// alive for as long as the serial link should exist, and the Handle is the
// link's exclusive claim on that process. Stopping the handle sends SIGTERM
// to the process group and escalates to SIGKILL after a graceful timeout,
// so a closed link never leaks its binder.
//
// There is deliberately no restart policy: if the binder dies, the network
// interface it created is gone and the link must be opened again from
// scratch.
//
// Example usage:
//
//	h := process.New(process.Config{
//	    Name:   "mctp-link",
//	    Binary: "mctp",
//	    Args:   []string{"link", "serial", "/dev/ttyUSB0"},
//	})
//
//	if err := h.Start(ctx); err != nil {
//	    return err
//	}
//	defer h.Stop()
package process
