package bgp

import (
	"fmt"
)

// Valid ids of numbered as-path access-lists on IOS.
const (
	minASPathID = 1
	maxASPathID = 499
)

// AllocateASPathACL returns the id of an as-path access-list that permits
// pattern. The list of the first permit entry with this pattern is
// reused. Otherwise the lowest free id is taken and the command to
// declare it is returned as well.
func AllocateASPathACL(acls []ASPathACL, pattern string) (int, []string, error) {
	used := make(map[int]bool)
	for _, a := range acls {
		if a.Action == Permit && a.Pattern == pattern {
			return a.ID, nil, nil
		}
		used[a.ID] = true
	}
	for id := minASPathID; id <= maxASPathID; id++ {
		if !used[id] {
			return id, []string{declareASPathACL(id, pattern)}, nil
		}
	}
	return 0, nil, fmt.Errorf("%w in range %d-%d",
		ErrAllocationExhausted, minASPathID, maxASPathID)
}

func declareASPathACL(id int, pattern string) string {
	return fmt.Sprintf("ip as-path access-list %d permit %s", id, pattern)
}
