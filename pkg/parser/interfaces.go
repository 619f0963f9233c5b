package parser

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/netdiscover/netdiscover/pkg/model"
)

// InterfaceStatusInfo is one row of "show interfaces status", before
// trunk-membership enrichment.
type InterfaceStatusInfo struct {
	Name       string
	Status     model.InterfaceStatus
	VLANRaw    string // numeric id, "trunk", or "routed"
	AccessVLAN *int
	IsTrunk    bool
	Duplex     string
	Speed      string
	Type       string
}

// ParseInterfacesStatus parses "show interfaces status" into a list of
// interface records, column-located from the header line the way the
// pack's table-column CDP parser does (locate header tokens, slice
// data rows at those offsets) so the parser tolerates the variable-
// width "Name" column.
func ParseInterfacesStatus(output string) []InterfaceStatusInfo {
	sc := bufio.NewScanner(strings.NewReader(output))

	var (
		portIdx, statusIdx, vlanIdx, duplexIdx, speedIdx, typeIdx int
		haveHeader                                                bool
		results                                                   []InterfaceStatusInfo
	)

	for sc.Scan() {
		line := sc.Text()
		trim := strings.TrimSpace(line)
		if trim == "" {
			continue
		}

		if !haveHeader {
			if strings.Contains(line, "Port") && strings.Contains(line, "Status") && strings.Contains(line, "Vlan") {
				portIdx = 0
				statusIdx = strings.Index(line, "Status")
				vlanIdx = strings.Index(line, "Vlan")
				duplexIdx = strings.Index(line, "Duplex")
				speedIdx = strings.Index(line, "Speed")
				typeIdx = strings.Index(line, "Type")
				if statusIdx == -1 || vlanIdx == -1 {
					continue
				}
				haveHeader = true
			}
			continue
		}

		if len(line) <= portIdx {
			continue
		}

		rec := InterfaceStatusInfo{
			Name: strings.TrimSpace(field(line, portIdx, statusIdx)),
		}
		if rec.Name == "" {
			continue
		}

		statusRaw := strings.TrimSpace(field(line, statusIdx, vlanIdx))
		rec.Status = normalizeStatus(statusRaw)

		rec.VLANRaw = strings.TrimSpace(field(line, vlanIdx, minPositive(duplexIdx, speedIdx, typeIdx, len(line))))
		switch strings.ToLower(rec.VLANRaw) {
		case "trunk":
			rec.IsTrunk = true
		case "routed", "":
			// access VLAN left nil
		default:
			if n, err := strconv.Atoi(rec.VLANRaw); err == nil {
				rec.AccessVLAN = &n
			}
		}

		if duplexIdx > 0 {
			rec.Duplex = normalizeAutoField(strings.TrimSpace(field(line, duplexIdx, minPositive(speedIdx, typeIdx, len(line)))))
		}
		if speedIdx > 0 {
			rec.Speed = normalizeAutoField(strings.TrimSpace(field(line, speedIdx, minPositive(typeIdx, len(line)))))
		}
		if typeIdx > 0 && typeIdx < len(line) {
			rec.Type = strings.TrimSpace(line[typeIdx:])
		}

		results = append(results, rec)
	}

	return results
}

// field slices s[start:end], clamping to s's length and tolerating
// end <= start (returns "").
func field(s string, start, end int) string {
	if start < 0 || start >= len(s) {
		return ""
	}
	if end <= start || end > len(s) {
		end = len(s)
	}
	return s[start:end]
}

// minPositive returns the smallest strictly-positive candidate, or
// fallback if none are positive.
func minPositive(fallback int, candidates ...int) int {
	best := fallback
	first := true
	all := append([]int{fallback}, candidates...)
	for _, c := range all {
		if c <= 0 {
			continue
		}
		if first || c < best {
			best = c
			first = false
		}
	}
	return best
}

func normalizeStatus(raw string) model.InterfaceStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "connected":
		return model.IfStatusUp
	case "disabled":
		return model.IfStatusAdminDown
	case "":
		return model.IfStatusUnknown
	default:
		return model.IfStatusDown
	}
}

// normalizeAutoField maps Cisco's "auto"/"a-..." speed/duplex shorthand
// to null (empty string).
func normalizeAutoField(raw string) string {
	lower := strings.ToLower(raw)
	if lower == "auto" || strings.HasPrefix(lower, "a-") {
		return ""
	}
	return raw
}
