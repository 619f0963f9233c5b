package parser

import (
	"bufio"
	"regexp"
	"strings"
)

// VersionInfo is the typed result of parsing "show version".
type VersionInfo struct {
	Hostname  string
	Model     string
	OSVersion string
	Serial    string
	Uptime    string
}

var (
	reUptimeLine = regexp.MustCompile(`(?i)^\s*(\S+)\s+uptime\s+is\s+(.+?)\s*$`)

	// Model is matched against these in order; first match wins.
	reModelPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^cisco\s+(\S+)\s*\(revision`),
		regexp.MustCompile(`(?i)Model\s+[Nn]umber\s*:\s*(\S+)`),
		regexp.MustCompile(`(?i)^cisco\s+(\S+)\s+\(.*processor`),
	}

	reVersionToken     = regexp.MustCompile(`(?i)Version\s+(\S+)`)
	reProcessorBoardID = regexp.MustCompile(`(?i)Processor board ID\s+(\S+)`)
	reSystemSerial     = regexp.MustCompile(`(?i)System serial number\s*:?\s*(\S+)`)
)

// ParseVersion parses "show version" output into a VersionInfo. Fields
// that cannot be extracted are left as the empty string; malformed
// input never raises an error.
func ParseVersion(output string) VersionInfo {
	var v VersionInfo

	sc := bufio.NewScanner(strings.NewReader(output))
	for sc.Scan() {
		line := sc.Text()

		if v.Hostname == "" {
			if m := reUptimeLine.FindStringSubmatch(line); m != nil {
				v.Hostname = m[1]
				v.Uptime = m[2]
			}
		}
		if v.Model == "" {
			for _, re := range reModelPatterns {
				if m := re.FindStringSubmatch(line); m != nil {
					v.Model = m[1]
					break
				}
			}
		}
		if v.OSVersion == "" {
			if m := reVersionToken.FindStringSubmatch(line); m != nil {
				v.OSVersion = strings.TrimSuffix(m[1], ",")
			}
		}
		if v.Serial == "" {
			if m := reProcessorBoardID.FindStringSubmatch(line); m != nil {
				v.Serial = m[1]
			} else if m := reSystemSerial.FindStringSubmatch(line); m != nil {
				v.Serial = m[1]
			}
		}
	}
	return v
}
