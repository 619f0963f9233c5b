package parser

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/netdiscover/netdiscover/pkg/logging"
	"github.com/netdiscover/netdiscover/pkg/macaddr"
	"github.com/netdiscover/netdiscover/pkg/model"
)

// MACTableEntry is one row of "show mac address-table", before the
// device/interface ids are resolved by the store.
type MACTableEntry struct {
	VLAN      int
	MAC       string
	Type      model.MACType
	Interface string
}

// ParseMACAddressTable parses "show mac address-table". Lines whose
// MAC field does not normalize cleanly are skipped and logged rather
// than aborting the whole table.
func ParseMACAddressTable(output string) []MACTableEntry {
	sc := bufio.NewScanner(strings.NewReader(output))

	var results []MACTableEntry
	for sc.Scan() {
		line := sc.Text()
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}

		vlan, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}

		mac, err := macaddr.Normalize(fields[1])
		if err != nil {
			logging.WithOperation("parse-mac-table").
				WithField("raw", fields[1]).
				Warn("skipping malformed mac address-table line")
			continue
		}

		entry := MACTableEntry{
			VLAN:      vlan,
			MAC:       mac,
			Type:      normalizeMACType(fields[2]),
			Interface: fields[len(fields)-1],
		}
		results = append(results, entry)
	}
	return results
}

func normalizeMACType(raw string) model.MACType {
	if strings.EqualFold(raw, "static") {
		return model.MACStatic
	}
	return model.MACDynamic
}
