package parser

import (
	"testing"

	"github.com/netdiscover/netdiscover/pkg/model"
)

const showMacAddressTableSample = `
          Mac Address Table
-------------------------------------------

Vlan    Mac Address       Type        Ports
----    -----------       --------    -----
  10    aabb.ccdd.0001    DYNAMIC     Gi1/0/1
  10    aabb.ccdd.0002    STATIC      Gi1/0/2
  20    zzzz.invalid.mac  DYNAMIC     Gi1/0/3
`

func TestParseMACAddressTable(t *testing.T) {
	entries := ParseMACAddressTable(showMacAddressTableSample)

	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2 (malformed mac line should be skipped)", len(entries))
	}

	e0 := entries[0]
	if e0.VLAN != 10 {
		t.Errorf("VLAN = %d, want 10", e0.VLAN)
	}
	if e0.MAC != "aa:bb:cc:dd:00:01" {
		t.Errorf("MAC = %q, want aa:bb:cc:dd:00:01", e0.MAC)
	}
	if e0.Type != model.MACDynamic {
		t.Errorf("Type = %q, want dynamic", e0.Type)
	}
	if e0.Interface != "Gi1/0/1" {
		t.Errorf("Interface = %q, want Gi1/0/1", e0.Interface)
	}

	e1 := entries[1]
	if e1.Type != model.MACStatic {
		t.Errorf("Type = %q, want static", e1.Type)
	}
}
