// Package eidpool tracks allocation of MCTP endpoint IDs.
//
// A single Pool is shared by every serial link owned by a bus controller,
// guaranteeing that no two live links are ever assigned the same EID. The
// pool itself only tracks the allocated set; the candidate EIDs offered to
// Allocate come from the dynamic_eid_range declared in the mctpd
// configuration, so the allocated set can never leave the configured range.
package eidpool
