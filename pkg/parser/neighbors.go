package parser

import (
	"bufio"
	"regexp"
	"strings"

	"github.com/netdiscover/netdiscover/pkg/model"
)

// Detail-block separators: a run of 3+ dashes/equals on its own line.
var reSeparator = regexp.MustCompile(`^[-=]{3,}\s*$`)

var (
	reCDPDeviceID   = regexp.MustCompile(`(?i)^Device ID:\s*(.+?)\s*$`)
	reCDPIPAddr     = regexp.MustCompile(`(?i)^\s*IP address:\s*(\S+)`)
	reCDPPlatform   = regexp.MustCompile(`(?i)^Platform:\s*(.+?),\s*Capabilities:\s*(.*)$`)
	reCDPInterface  = regexp.MustCompile(`(?i)^Interface:\s*(\S+),\s*Port ID \(outgoing port\):\s*(\S+)`)

	reLLDPLocalIntf = regexp.MustCompile(`(?i)^Local Intf:\s*(\S+)`)
	reLLDPPortID    = regexp.MustCompile(`(?i)^Port id:\s*(\S+)`)
	reLLDPSysName   = regexp.MustCompile(`(?i)^System Name:\s*(.+?)\s*$`)
	reLLDPSysCaps   = regexp.MustCompile(`(?i)^System Capabilities:\s*(.+?)\s*$`)
	reLLDPMgmtIP    = regexp.MustCompile(`(?i)^\s*IP:\s*(\S+)`)
)

// ParseCDPNeighborsDetail parses "show cdp neighbors detail". Records
// are split on horizontal-rule separators; a record lacking a Device
// ID is discarded. Every returned record has protocol=cdp.
func ParseCDPNeighborsDetail(localHostname, output string) []model.NeighborInfo {
	var out []model.NeighborInfo

	for _, block := range splitBlocks(output) {
		n := model.NeighborInfo{Protocol: model.LinkCDP}
		for _, line := range block {
			if m := reCDPDeviceID.FindStringSubmatch(line); m != nil {
				n.RemoteDevice = m[1]
				continue
			}
			if n.RemoteIP == "" {
				if m := reCDPIPAddr.FindStringSubmatch(line); m != nil {
					n.RemoteIP = m[1]
					continue
				}
			}
			if m := reCDPPlatform.FindStringSubmatch(line); m != nil {
				n.Capabilities = splitCaps(m[2], " ")
				continue
			}
			if m := reCDPInterface.FindStringSubmatch(line); m != nil {
				n.LocalInterface = m[1]
				n.RemoteInterface = m[2]
				continue
			}
		}
		if n.RemoteDevice == "" {
			continue
		}
		out = append(out, n)
	}
	return out
}

// ParseLLDPNeighborsDetail parses "show lldp neighbors detail". Same
// shape as ParseCDPNeighborsDetail; protocol=lldp, and capabilities
// are comma-separated rather than whitespace-separated.
func ParseLLDPNeighborsDetail(localHostname, output string) []model.NeighborInfo {
	var out []model.NeighborInfo

	for _, block := range splitBlocks(output) {
		n := model.NeighborInfo{Protocol: model.LinkLLDP}
		inMgmt := false
		for _, line := range block {
			trim := strings.TrimSpace(line)
			if m := reLLDPLocalIntf.FindStringSubmatch(line); m != nil {
				n.LocalInterface = m[1]
				inMgmt = false
				continue
			}
			if m := reLLDPPortID.FindStringSubmatch(line); m != nil {
				n.RemoteInterface = m[1]
				continue
			}
			if m := reLLDPSysName.FindStringSubmatch(line); m != nil {
				n.RemoteDevice = m[1]
				continue
			}
			if m := reLLDPSysCaps.FindStringSubmatch(line); m != nil {
				n.Capabilities = splitCaps(m[1], ",")
				continue
			}
			if strings.EqualFold(trim, "Management Addresses:") {
				inMgmt = true
				continue
			}
			if inMgmt {
				if m := reLLDPMgmtIP.FindStringSubmatch(line); m != nil {
					if n.RemoteIP == "" {
						n.RemoteIP = m[1]
					}
					continue
				}
				if trim == "" || !strings.HasPrefix(line, " ") {
					inMgmt = false
				}
			}
		}
		if n.RemoteDevice == "" {
			continue
		}
		out = append(out, n)
	}
	return out
}

// splitBlocks splits raw show-neighbors-detail output on separator
// lines, returning each block as its constituent lines.
func splitBlocks(output string) [][]string {
	var blocks [][]string
	var cur []string

	sc := bufio.NewScanner(strings.NewReader(output))
	for sc.Scan() {
		line := sc.Text()
		if reSeparator.MatchString(strings.TrimSpace(line)) {
			if len(cur) > 0 {
				blocks = append(blocks, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		blocks = append(blocks, cur)
	}
	return blocks
}

func splitCaps(raw, sep string) []string {
	var out []string
	for _, tok := range strings.Split(raw, sep) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		out = append(out, normalizeCapability(tok))
	}
	return out
}

// normalizeCapability maps single-letter CDP/LLDP capability codes to
// stable names, case-insensitively.
func normalizeCapability(tok string) string {
	switch strings.ToUpper(tok) {
	case "R":
		return "router"
	case "S", "B":
		return "switch"
	case "T":
		return "telephone"
	case "W":
		return "wlan-ap"
	case "P":
		return "repeater"
	case "H":
		return "host"
	case "I":
		return "igmp"
	case "O":
		return "other"
	default:
		return strings.ToLower(tok)
	}
}
