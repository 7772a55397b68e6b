package bgp

import "errors"

var (
	// Some record of the device tables can't be converted.
	// Aborts the run of the current device.
	ErrMalformedInput = errors.New("malformed input")
	// No free id for a new AS-path access-list.
	// Aborts the run of the current device.
	ErrAllocationExhausted = errors.New("no free as-path access-list id")
	// Outbound route-map of peer has no permit entry.
	// Only the current peer is skipped.
	ErrRouteMapNotFound = errors.New("route-map not found")
)
