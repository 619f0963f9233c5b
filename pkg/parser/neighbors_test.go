package parser

import (
	"testing"

	"github.com/netdiscover/netdiscover/pkg/model"
)

const showCDPNeighborsDetailSample = `-------------------------
Device ID: core-sw1.example.com
Entry address(es):
  IP address: 10.0.0.1
Platform: cisco WS-C3850-48P,  Capabilities: Switch IGMP
Interface: GigabitEthernet1/0/1,  Port ID (outgoing port): GigabitEthernet1/0/24
Holdtime : 123 sec

-------------------------
Device ID: edge-rtr1
Entry address(es):
  IP address: 10.0.0.2
Platform: cisco ISR4331,  Capabilities: Router
Interface: GigabitEthernet1/0/2,  Port ID (outgoing port): GigabitEthernet0/0/0
`

func TestParseCDPNeighborsDetail(t *testing.T) {
	out := ParseCDPNeighborsDetail("sw1", showCDPNeighborsDetailSample)
	if len(out) != 2 {
		t.Fatalf("got %d neighbors, want 2", len(out))
	}

	n0 := out[0]
	if n0.RemoteDevice != "core-sw1.example.com" {
		t.Errorf("RemoteDevice = %q", n0.RemoteDevice)
	}
	if n0.RemoteIP != "10.0.0.1" {
		t.Errorf("RemoteIP = %q", n0.RemoteIP)
	}
	if n0.LocalInterface != "GigabitEthernet1/0/1" {
		t.Errorf("LocalInterface = %q", n0.LocalInterface)
	}
	if n0.RemoteInterface != "GigabitEthernet1/0/24" {
		t.Errorf("RemoteInterface = %q", n0.RemoteInterface)
	}
	if n0.Protocol != model.LinkCDP {
		t.Errorf("Protocol = %q, want cdp", n0.Protocol)
	}
	found := false
	for _, c := range n0.Capabilities {
		if c == "switch" {
			found = true
		}
	}
	if !found {
		t.Errorf("Capabilities = %v, want to include switch", n0.Capabilities)
	}
}

func TestParseCDPNeighborsDetailDiscardsMissingDeviceID(t *testing.T) {
	const sample = `-------------------------
Entry address(es):
  IP address: 10.0.0.9
`
	out := ParseCDPNeighborsDetail("sw1", sample)
	if len(out) != 0 {
		t.Errorf("expected record without Device ID to be discarded, got %v", out)
	}
}

const showLLDPNeighborsDetailSample = `------------------------------------------------
Local Intf: Gi1/0/1
Chassis id: aabb.ccdd.eeff
Port id: Gi1/0/24
System Name: core-sw2.example.com

Management Addresses:
    IP: 10.0.0.5
System Capabilities: B, R
Enabled Capabilities: B, R

------------------------------------------------
Local Intf: Gi1/0/2
Port id: Gi0/0/1
System Name: edge-rtr2
System Capabilities: R
`

func TestParseLLDPNeighborsDetail(t *testing.T) {
	out := ParseLLDPNeighborsDetail("sw1", showLLDPNeighborsDetailSample)
	if len(out) != 2 {
		t.Fatalf("got %d neighbors, want 2", len(out))
	}

	n0 := out[0]
	if n0.RemoteDevice != "core-sw2.example.com" {
		t.Errorf("RemoteDevice = %q", n0.RemoteDevice)
	}
	if n0.LocalInterface != "Gi1/0/1" {
		t.Errorf("LocalInterface = %q", n0.LocalInterface)
	}
	if n0.RemoteInterface != "Gi1/0/24" {
		t.Errorf("RemoteInterface = %q", n0.RemoteInterface)
	}
	if n0.RemoteIP != "10.0.0.5" {
		t.Errorf("RemoteIP = %q", n0.RemoteIP)
	}
	if n0.Protocol != model.LinkLLDP {
		t.Errorf("Protocol = %q, want lldp", n0.Protocol)
	}
	if len(n0.Capabilities) != 2 {
		t.Errorf("Capabilities = %v, want 2 entries", n0.Capabilities)
	}
}
