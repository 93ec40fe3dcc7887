package bus

import (
	"context"
	"strings"
)

// endpointMarker identifies endpoint objects in the daemon's tree: mctpd
// publishes every endpoint under an .../endpoints/ branch of its network
// nodes.
const endpointMarker = "/endpoints/"

// walkLogger is the subset of logging the walker needs.
type walkLogger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Walk performs a depth-first traversal of the daemon's object tree below
// root and returns every endpoint found. Endpoints whose properties cannot
// be read are logged and skipped; a failed introspection aborts the walk,
// since a partial tree would misreport the endpoint count.
func Walk(ctx context.Context, tree Introspector, root string, logger walkLogger) ([]Endpoint, error) {
	children, err := tree.ChildNames(ctx, root)
	if err != nil {
		return nil, err
	}

	var endpoints []Endpoint
	for _, child := range children {
		childPath := joinObjectPath(root, child)
		if strings.Contains(childPath, endpointMarker) {
			eid, networkID, err := tree.EndpointProperties(ctx, childPath)
			if err != nil {
				logger.Warn("skipping endpoint with unreadable properties",
					"path", childPath, "error", err)
				continue
			}
			endpoints = append(endpoints, Endpoint{
				EID:       eid,
				NetworkID: networkID,
				Path:      childPath,
			})
			continue
		}

		sub, err := Walk(ctx, tree, childPath, logger)
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, sub...)
	}
	return endpoints, nil
}

func joinObjectPath(parent, child string) string {
	if strings.HasSuffix(parent, "/") {
		return parent + child
	}
	return parent + "/" + child
}
