package parser

import (
	"testing"

	"github.com/netdiscover/netdiscover/pkg/model"
)

const showInterfacesStatusSample = `
Port      Name               Status       Vlan       Duplex  Speed Type
Gi1/0/1                      connected    10         a-full  a-100 10/100/1000BaseTX
Gi1/0/2                      notconnect   1          auto    auto  10/100/1000BaseTX
Gi1/0/3                      connected    trunk      full    1000  10/100/1000BaseTX
Gi1/0/4                      disabled     1          auto    auto  10/100/1000BaseTX
Gi1/0/5                      connected    routed     full    1000  10/100/1000BaseTX
`

func TestParseInterfacesStatus(t *testing.T) {
	recs := ParseInterfacesStatus(showInterfacesStatusSample)
	if len(recs) != 5 {
		t.Fatalf("got %d records, want 5", len(recs))
	}

	byName := map[string]InterfaceStatusInfo{}
	for _, r := range recs {
		byName[r.Name] = r
	}

	g1 := byName["Gi1/0/1"]
	if g1.Status != model.IfStatusUp {
		t.Errorf("Gi1/0/1 status = %v, want up", g1.Status)
	}
	if g1.AccessVLAN == nil || *g1.AccessVLAN != 10 {
		t.Errorf("Gi1/0/1 access vlan = %v, want 10", g1.AccessVLAN)
	}
	if g1.Duplex != "" {
		t.Errorf("Gi1/0/1 duplex = %q, want empty (a-full normalizes to null)", g1.Duplex)
	}

	g2 := byName["Gi1/0/2"]
	if g2.Status != model.IfStatusDown {
		t.Errorf("Gi1/0/2 status = %v, want down", g2.Status)
	}

	g3 := byName["Gi1/0/3"]
	if !g3.IsTrunk {
		t.Errorf("Gi1/0/3 expected IsTrunk=true")
	}

	g4 := byName["Gi1/0/4"]
	if g4.Status != model.IfStatusAdminDown {
		t.Errorf("Gi1/0/4 status = %v, want admin-down", g4.Status)
	}

	g5 := byName["Gi1/0/5"]
	if g5.AccessVLAN != nil || g5.IsTrunk {
		t.Errorf("Gi1/0/5 routed port should have nil access vlan and IsTrunk=false")
	}
}

func TestParseInterfacesStatusEmpty(t *testing.T) {
	if recs := ParseInterfacesStatus(""); recs != nil {
		t.Errorf("expected nil for empty input, got %v", recs)
	}
}
