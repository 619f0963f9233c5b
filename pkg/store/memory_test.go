package store

import (
	"context"
	"testing"
	"time"

	"github.com/netdiscover/netdiscover/pkg/model"
)

func TestUpsertDeviceIsIdempotentByHostname(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	id1, err := m.UpsertDevice(ctx, &model.Device{Hostname: "sw1", IP: "10.0.0.1"})
	if err != nil {
		t.Fatalf("UpsertDevice: %v", err)
	}
	id2, err := m.UpsertDevice(ctx, &model.Device{Hostname: "sw1", IP: "10.0.0.2"})
	if err != nil {
		t.Fatalf("UpsertDevice: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("expected same id on re-discovery, got %d and %d", id1, id2)
	}

	dev, err := m.DeviceByHostname(ctx, "sw1")
	if err != nil {
		t.Fatalf("DeviceByHostname: %v", err)
	}
	if dev.IP != "10.0.0.2" {
		t.Errorf("IP = %q, want updated value 10.0.0.2", dev.IP)
	}
}

func TestUpsertInterfaceKeyedByDeviceAndName(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	devID, _ := m.UpsertDevice(ctx, &model.Device{Hostname: "sw1"})
	id1, err := m.UpsertInterface(ctx, devID, &model.Interface{Name: "Gi1/0/1", Status: model.IfStatusUp})
	if err != nil {
		t.Fatalf("UpsertInterface: %v", err)
	}
	id2, err := m.UpsertInterface(ctx, devID, &model.Interface{Name: "Gi1/0/1", Status: model.IfStatusDown})
	if err != nil {
		t.Fatalf("UpsertInterface: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("expected same interface id, got %d and %d", id1, id2)
	}

	ifaces, err := m.InterfacesByDevice(ctx, devID)
	if err != nil {
		t.Fatalf("InterfacesByDevice: %v", err)
	}
	if len(ifaces) != 1 || ifaces[0].Status != model.IfStatusDown {
		t.Errorf("expected one updated interface, got %+v", ifaces)
	}
}

func TestUpsertConnectionRefreshesLastSeen(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	devA, _ := m.UpsertDevice(ctx, &model.Device{Hostname: "a"})
	devB, _ := m.UpsertDevice(ctx, &model.Device{Hostname: "b"})
	ifaceA, _ := m.UpsertInterface(ctx, devA, &model.Interface{Name: "Gi1"})

	id1, err := m.UpsertConnection(ctx, &model.Connection{
		SourceDeviceID: devA, SourceIfaceID: ifaceA, DestDeviceID: devB, LinkType: model.LinkCDP,
	})
	if err != nil {
		t.Fatalf("UpsertConnection: %v", err)
	}
	id2, err := m.UpsertConnection(ctx, &model.Connection{
		SourceDeviceID: devA, SourceIfaceID: ifaceA, DestDeviceID: devB, LinkType: model.LinkLLDP,
	})
	if err != nil {
		t.Fatalf("UpsertConnection: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("expected same connection id, got %d and %d", id1, id2)
	}

	conns, err := m.Connections(ctx, devA)
	if err != nil {
		t.Fatalf("Connections: %v", err)
	}
	if len(conns) != 1 || conns[0].LinkType != model.LinkLLDP {
		t.Errorf("expected one connection updated to lldp, got %+v", conns)
	}
}

func TestAddOrTouchMACKeyedByDeviceVlanMac(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	devID, _ := m.UpsertDevice(ctx, &model.Device{Hostname: "sw1"})

	id1, _ := m.AddOrTouchMAC(ctx, &model.MACEntry{DeviceID: devID, VLANID: 10, MAC: "aa:bb:cc:dd:ee:ff", Type: model.MACDynamic})
	id2, _ := m.AddOrTouchMAC(ctx, &model.MACEntry{DeviceID: devID, VLANID: 10, MAC: "aa:bb:cc:dd:ee:ff", Type: model.MACStatic})
	if id1 != id2 {
		t.Fatalf("expected same mac entry id, got %d and %d", id1, id2)
	}

	entries, err := m.MACSearch(ctx, "aa:bb:cc:dd:ee:ff")
	if err != nil {
		t.Fatalf("MACSearch: %v", err)
	}
	if len(entries) != 1 || entries[0].Type != model.MACStatic {
		t.Errorf("expected updated type static, got %+v", entries)
	}
}

func TestSweepMacsOlderThan(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	devID, _ := m.UpsertDevice(ctx, &model.Device{Hostname: "sw1"})

	id, _ := m.AddOrTouchMAC(ctx, &model.MACEntry{DeviceID: devID, VLANID: 1, MAC: "aa:bb:cc:dd:ee:01"})
	m.macEntries[id].LastSeen = time.Now().AddDate(0, 0, -60)

	m.AddOrTouchMAC(ctx, &model.MACEntry{DeviceID: devID, VLANID: 1, MAC: "aa:bb:cc:dd:ee:02"})

	deleted, err := m.SweepMACsOlderThan(ctx, 30)
	if err != nil {
		t.Fatalf("SweepMACsOlderThan: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	id, err := m.CreateSession(ctx, "snapshot-1")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	err = m.UpdateSession(ctx, &model.Session{ID: id, Status: model.SessionCompleted, DevicesFound: 5})
	if err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}

	latest, err := m.LatestSession(ctx)
	if err != nil {
		t.Fatalf("LatestSession: %v", err)
	}
	if latest.Status != model.SessionCompleted || latest.DevicesFound != 5 {
		t.Errorf("latest session = %+v", latest)
	}
}

func TestDeviceByIDRoundTrips(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	id, _ := m.UpsertDevice(ctx, &model.Device{Hostname: "sw1", IP: "10.0.0.1"})

	dev, err := m.DeviceByID(ctx, id)
	if err != nil {
		t.Fatalf("DeviceByID: %v", err)
	}
	if dev.Hostname != "sw1" {
		t.Errorf("Hostname = %q, want sw1", dev.Hostname)
	}

	if _, err := m.DeviceByID(ctx, id+1); err == nil {
		t.Error("expected ErrNotFound for unknown id")
	}
}

func TestSearchDeviceIsCaseInsensitiveSubstring(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.UpsertDevice(ctx, &model.Device{Hostname: "CORE-SW1", IP: "10.0.0.1"})
	m.UpsertDevice(ctx, &model.Device{Hostname: "edge-rtr1", IP: "10.0.0.2"})

	results, err := m.SearchDevice(ctx, "core")
	if err != nil {
		t.Fatalf("SearchDevice: %v", err)
	}
	if len(results) != 1 || results[0].Hostname != "CORE-SW1" {
		t.Errorf("results = %+v", results)
	}
}
