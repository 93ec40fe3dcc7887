package bus

import (
	"context"
	"encoding/xml"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/PICMG/IoTorch/internal/mctpd"
)

// Introspector abstracts the daemon's D-Bus object tree so discovery can
// be exercised without a running system bus.
type Introspector interface {
	// ChildNames returns the names of the immediate child nodes of path.
	ChildNames(ctx context.Context, path string) ([]string, error)

	// EndpointProperties reads the EID and network ID of the endpoint
	// object at path.
	EndpointProperties(ctx context.Context, path string) (eid, networkID int, err error)
}

// SystemBus is the godbus-backed Introspector talking to the real mctpd
// service on the system bus.
type SystemBus struct {
	conn *dbus.Conn
}

// ConnectSystemBus dials the system bus. Failures are reported as
// ErrBusUnavailable.
func ConnectSystemBus() (*SystemBus, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBusUnavailable, err)
	}
	return &SystemBus{conn: conn}, nil
}

// Close releases the underlying bus connection.
func (b *SystemBus) Close() error {
	return b.conn.Close()
}

// introspectNode is the subset of the standard D-Bus introspection XML
// that tree walking needs.
type introspectNode struct {
	XMLName xml.Name `xml:"node"`
	Nodes   []struct {
		Name string `xml:"name,attr"`
	} `xml:"node"`
}

func (b *SystemBus) ChildNames(ctx context.Context, path string) ([]string, error) {
	obj := b.conn.Object(mctpd.BusService, dbus.ObjectPath(path))

	var raw string
	call := obj.CallWithContext(ctx, "org.freedesktop.DBus.Introspectable.Introspect", 0)
	if err := call.Store(&raw); err != nil {
		return nil, fmt.Errorf("%w: introspecting %s: %v", ErrBusUnavailable, path, err)
	}

	var node introspectNode
	if err := xml.Unmarshal([]byte(raw), &node); err != nil {
		return nil, fmt.Errorf("parsing introspection of %s: %w", path, err)
	}

	names := make([]string, 0, len(node.Nodes))
	for _, child := range node.Nodes {
		names = append(names, child.Name)
	}
	return names, nil
}

func (b *SystemBus) EndpointProperties(ctx context.Context, path string) (int, int, error) {
	obj := b.conn.Object(mctpd.BusService, dbus.ObjectPath(path))

	eid, err := b.intProperty(ctx, obj, mctpd.EndpointPropEID)
	if err != nil {
		return 0, 0, err
	}
	networkID, err := b.intProperty(ctx, obj, mctpd.EndpointPropNetworkID)
	if err != nil {
		return 0, 0, err
	}
	return eid, networkID, nil
}

func (b *SystemBus) intProperty(ctx context.Context, obj dbus.BusObject, prop string) (int, error) {
	var v dbus.Variant
	call := obj.CallWithContext(ctx, "org.freedesktop.DBus.Properties.Get", 0,
		mctpd.EndpointInterface, prop)
	if err := call.Store(&v); err != nil {
		return 0, fmt.Errorf("reading %s of %s: %w", prop, obj.Path(), err)
	}
	n, ok := variantInt(v)
	if !ok {
		return 0, fmt.Errorf("property %s of %s has non-integer type %T", prop, obj.Path(), v.Value())
	}
	return n, nil
}

// variantInt converts the integer encodings mctpd uses for its endpoint
// properties (byte for EID, u32 for network ID) to a plain int.
func variantInt(v dbus.Variant) (int, bool) {
	switch n := v.Value().(type) {
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}
