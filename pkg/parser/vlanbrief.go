package parser

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/netdiscover/netdiscover/pkg/model"
)

// VLANBriefEntry is one row of "show vlan brief".
type VLANBriefEntry struct {
	VLANID int
	Name   string
	Status model.VLANStatus
}

// ParseVLANBrief parses "show vlan brief". Status is normalized to
// active if the raw status field contains "active", else suspended.
func ParseVLANBrief(output string) []VLANBriefEntry {
	sc := bufio.NewScanner(strings.NewReader(output))

	var results []VLANBriefEntry
	headerSeen := false

	for sc.Scan() {
		line := sc.Text()
		trim := strings.TrimSpace(line)
		if trim == "" {
			continue
		}

		if !headerSeen {
			if strings.Contains(line, "VLAN") && strings.Contains(line, "Name") && strings.Contains(line, "Status") {
				headerSeen = true
			}
			continue
		}
		if strings.HasPrefix(trim, "----") {
			continue
		}

		fields := strings.Fields(trim)
		if len(fields) < 3 {
			continue
		}

		id, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}

		results = append(results, VLANBriefEntry{
			VLANID: id,
			Name:   fields[1],
			Status: normalizeVLANStatus(fields[2]),
		})
	}
	return results
}

func normalizeVLANStatus(raw string) model.VLANStatus {
	if strings.Contains(strings.ToLower(raw), "active") {
		return model.VLANActive
	}
	return model.VLANSuspended
}
