package parser

import (
	"testing"

	"github.com/netdiscover/netdiscover/pkg/model"
)

const showVLANBriefSample = `
VLAN Name                             Status    Ports
---- -------------------------------- --------- -------------------------------
1    default                          active    Gi1/0/5, Gi1/0/6
10   engineering                      active    Gi1/0/1
20   guest                            suspended
99   native                           act/unsup
`

func TestParseVLANBrief(t *testing.T) {
	entries := ParseVLANBrief(showVLANBriefSample)
	if len(entries) != 4 {
		t.Fatalf("got %d entries, want 4", len(entries))
	}

	byID := map[int]VLANBriefEntry{}
	for _, e := range entries {
		byID[e.VLANID] = e
	}

	if byID[1].Name != "default" || byID[1].Status != model.VLANActive {
		t.Errorf("vlan 1 = %+v", byID[1])
	}
	if byID[20].Status != model.VLANSuspended {
		t.Errorf("vlan 20 status = %v, want suspended", byID[20].Status)
	}
	if byID[99].Status != model.VLANSuspended {
		t.Errorf("vlan 99 (act/unsup) status = %v, want suspended (no literal 'active' substring)", byID[99].Status)
	}
}
