package parser

import (
	"bufio"
	"strings"

	"github.com/netdiscover/netdiscover/pkg/vlanrange"
)

// ParseInterfacesTrunk parses "show interfaces trunk" and returns a
// mapping from interface name to its sorted, deduplicated list of
// allowed VLAN ids.
//
// Only the first "Vlans allowed on trunk" block is read; a device
// whose trunk output wraps into a continuation block is not merged
// across blocks. This is a deliberate single-pass simplification, not
// an oversight.
func ParseInterfacesTrunk(output string) map[string][]int {
	sc := bufio.NewScanner(strings.NewReader(output))

	result := make(map[string][]int)
	inBlock := false

	for sc.Scan() {
		line := sc.Text()
		trim := strings.TrimSpace(line)

		if !inBlock {
			if strings.Contains(trim, "allowed on trunk") {
				inBlock = true
			}
			continue
		}

		if trim == "" {
			break
		}
		// Next section's header ("Vlans allowed and active...", etc)
		// ends the first block.
		if strings.HasPrefix(trim, "Port") {
			break
		}

		fields := strings.Fields(trim)
		if len(fields) < 2 {
			continue
		}
		iface := fields[0]
		vlanSpec := strings.Join(fields[1:], "")
		vlans := vlanrange.Expand(vlanSpec)
		if vlans == nil {
			continue
		}
		result[iface] = vlans
	}

	return result
}
