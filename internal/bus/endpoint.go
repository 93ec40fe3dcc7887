package bus

// Endpoint is one MCTP endpoint enumerated by mctpd, optionally correlated
// with a locally provisioned serial link. Interface and DevicePath are
// empty for endpoints reached through hardware this process does not own.
type Endpoint struct {
	EID        int    `json:"eid"`
	NetworkID  int    `json:"network_id"`
	Path       string `json:"path"`
	Interface  string `json:"interface,omitempty"`
	DevicePath string `json:"device_path,omitempty"`
}

// LinkInfo is a read-only snapshot of one provisioned serial link.
type LinkInfo struct {
	DevicePath string `json:"device_path"`
	Interface  string `json:"interface"`
	EID        int    `json:"eid"`
}
