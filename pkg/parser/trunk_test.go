package parser

import "testing"

const showInterfacesTrunkSample = `
Port        Mode             Encapsulation  Status        Native vlan
Gi1/0/3     desirable        n-802.1q       trunk         1

Port        Vlans allowed on trunk
Gi1/0/3     1-4,10,20-22

Port        Vlans allowed and active in management domain
Gi1/0/3     1-4,10,20-22

Port        Vlans in spanning tree forwarding state and not pruned
Gi1/0/3     1-4,10,20-22
`

func TestParseInterfacesTrunk(t *testing.T) {
	result := ParseInterfacesTrunk(showInterfacesTrunkSample)

	vlans, ok := result["Gi1/0/3"]
	if !ok {
		t.Fatalf("expected Gi1/0/3 entry, got %v", result)
	}
	want := []int{1, 2, 3, 4, 10, 20, 21, 22}
	if len(vlans) != len(want) {
		t.Fatalf("got %v, want %v", vlans, want)
	}
	for i := range want {
		if vlans[i] != want[i] {
			t.Errorf("vlans[%d] = %d, want %d", i, vlans[i], want[i])
		}
	}
}

func TestParseInterfacesTrunkNoTrunkBlock(t *testing.T) {
	result := ParseInterfacesTrunk("Port Mode Encapsulation Status Native vlan\n")
	if len(result) != 0 {
		t.Errorf("expected no entries, got %v", result)
	}
}
