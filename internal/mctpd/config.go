package mctpd

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// D-Bus identity exposed by mctpd.
const (
	// BusService is the well-known D-Bus name the daemon claims.
	BusService = "au.com.codeconstruct.MCTP1"

	// BusRoot is the root object path of the daemon's object tree.
	BusRoot = "/au/com/codeconstruct/mctp1"

	// EndpointInterface is the D-Bus interface carrying endpoint properties.
	EndpointInterface = "xyz.openbmc_project.MCTP.Endpoint"

	// EndpointPropEID and EndpointPropNetworkID are the property names read
	// from EndpointInterface.
	EndpointPropEID       = "EID"
	EndpointPropNetworkID = "NetworkId"
)

// EidRange is the inclusive interval of EIDs the daemon hands out
// dynamically. IoTorch draws link addresses from the same interval so that
// locally assigned EIDs and daemon-assigned EIDs share one address plan.
type EidRange struct {
	Start int
	End   int
}

// rangePattern matches the bracketed pair in a dynamic_eid_range line,
// e.g. "dynamic_eid_range = [8, 254]".
var rangePattern = regexp.MustCompile(`\[\s*(\d+)\s*,\s*(\d+)\s*\]`)

// ParseEidRange extracts the dynamic EID range from an mctpd configuration
// file. The first line starting with "dynamic_eid_range" wins. Bounds are
// normalized so Start <= End; either bound being zero (EID 0 is the null
// address) or a malformed bracket pair is ErrRangeInvalid, a missing
// declaration is ErrRangeNotFound.
func ParseEidRange(confPath string) (EidRange, error) {
	f, err := os.Open(confPath)
	if err != nil {
		return EidRange{}, fmt.Errorf("opening mctpd configuration: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "dynamic_eid_range") {
			continue
		}

		match := rangePattern.FindStringSubmatch(line)
		if match == nil {
			return EidRange{}, fmt.Errorf("%w: %q in %s", ErrRangeInvalid, strings.TrimSpace(line), confPath)
		}

		// The pattern only admits digits, so Atoi cannot fail here.
		a, _ := strconv.Atoi(match[1])
		b, _ := strconv.Atoi(match[2])
		if a > b {
			a, b = b, a
		}
		if a <= 0 {
			return EidRange{}, fmt.Errorf("%w: bounds must be positive in %s", ErrRangeInvalid, confPath)
		}

		return EidRange{Start: a, End: b}, nil
	}
	if err := scanner.Err(); err != nil {
		return EidRange{}, fmt.Errorf("reading mctpd configuration: %w", err)
	}

	return EidRange{}, fmt.Errorf("%w: %s", ErrRangeNotFound, confPath)
}

// Size returns the number of EIDs in the range.
func (r EidRange) Size() int {
	return r.End - r.Start + 1
}

// Contains reports whether eid falls inside the range.
func (r EidRange) Contains(eid int) bool {
	return eid >= r.Start && eid <= r.End
}

// Candidates returns every EID in the range in ascending order.
func (r EidRange) Candidates() []int {
	eids := make([]int, 0, r.Size())
	for eid := r.Start; eid <= r.End; eid++ {
		eids = append(eids, eid)
	}
	return eids
}

// String renders the range in the configuration file's notation.
func (r EidRange) String() string {
	return fmt.Sprintf("[%d, %d]", r.Start, r.End)
}
