// internal/engine/diff.go
package engine

import (
	"sort"
)

// diffPorts computes exact set differences between the previously known
// port set and a freshly enumerated one. Both slices come back sorted so
// dispatch order is deterministic.
func diffPorts(known, current map[string]struct{}) (appeared, disappeared []string) {
	for port := range current {
		if _, ok := known[port]; !ok {
			appeared = append(appeared, port)
		}
	}
	for port := range known {
		if _, ok := current[port]; !ok {
			disappeared = append(disappeared, port)
		}
	}

	sort.Strings(appeared)
	sort.Strings(disappeared)
	return appeared, disappeared
}

// portSet builds a set from a port name slice, dropping duplicates.
func portSet(ports []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ports))
	for _, port := range ports {
		set[port] = struct{}{}
	}
	return set
}

// sortedPorts returns a set's members in ascending order.
func sortedPorts(set map[string]struct{}) []string {
	ports := make([]string, 0, len(set))
	for port := range set {
		ports = append(ports, port)
	}
	sort.Strings(ports)
	return ports
}
