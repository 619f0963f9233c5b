// Package vlanrange expands the trunk "allowed VLANs" list syntax
// ("10,20,30-40", "1-4094") into a sorted, deduplicated set of VLAN
// ids, silently dropping fragments that do not parse or fall outside
// 1..4094.
package vlanrange

import (
	"sort"
	"strconv"
	"strings"
)

const (
	minVLAN = 1
	maxVLAN = 4094
)

// Expand parses a comma-separated list of VLAN ids and ranges and
// returns the sorted, deduplicated, in-bounds result. Invalid
// fragments (non-numeric, out of range, malformed range) are dropped
// rather than raising an error.
func Expand(spec string) []int {
	if spec == "" {
		return nil
	}

	seen := make(map[int]struct{})
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if idx := strings.Index(part, "-"); idx > 0 {
			lo, err1 := strconv.Atoi(strings.TrimSpace(part[:idx]))
			hi, err2 := strconv.Atoi(strings.TrimSpace(part[idx+1:]))
			if err1 != nil || err2 != nil || lo > hi {
				continue
			}
			for v := lo; v <= hi; v++ {
				if inBounds(v) {
					seen[v] = struct{}{}
				}
			}
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		if inBounds(v) {
			seen[v] = struct{}{}
		}
	}

	if len(seen) == 0 {
		return nil
	}
	out := make([]int, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

func inBounds(v int) bool {
	return v >= minVLAN && v <= maxVLAN
}
