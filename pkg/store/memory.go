package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/netdiscover/netdiscover/pkg/model"
)

// Memory is an in-process Store used by engine and CLI tests in place
// of a live Postgres instance. It honors the same natural-key upsert
// semantics as Postgres.
type Memory struct {
	mu sync.Mutex

	nextDeviceID     int64
	nextInterfaceID  int64
	nextVLANID       int64
	nextConnectionID int64
	nextMACID        int64
	nextSessionID    int64

	devicesByHostname map[string]*model.Device
	devicesByID       map[int64]*model.Device
	interfaces        map[int64]*model.Interface
	vlans             map[int64]*model.VLAN
	connections       map[int64]*model.Connection
	macEntries        map[int64]*model.MACEntry
	sessions          map[int64]*model.Session
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		devicesByHostname: map[string]*model.Device{},
		devicesByID:       map[int64]*model.Device{},
		interfaces:        map[int64]*model.Interface{},
		vlans:             map[int64]*model.VLAN{},
		connections:       map[int64]*model.Connection{},
		macEntries:        map[int64]*model.MACEntry{},
		sessions:          map[int64]*model.Session{},
	}
}

func (m *Memory) Close() {}

func (m *Memory) UpsertDevice(_ context.Context, dev *model.Device) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if existing, ok := m.devicesByHostname[dev.Hostname]; ok {
		existing.IP = dev.IP
		existing.ManagementIP = dev.ManagementIP
		existing.Type = dev.Type
		existing.Model = dev.Model
		existing.Platform = dev.Platform
		existing.OSVersion = dev.OSVersion
		existing.Serial = dev.Serial
		existing.Uptime = dev.Uptime
		existing.LastDiscovered = now
		existing.UpdatedAt = now
		return existing.ID, nil
	}

	m.nextDeviceID++
	id := m.nextDeviceID
	copyDev := *dev
	copyDev.ID = id
	copyDev.LastDiscovered = now
	copyDev.CreatedAt = now
	copyDev.UpdatedAt = now
	m.devicesByHostname[dev.Hostname] = &copyDev
	m.devicesByID[id] = &copyDev
	return id, nil
}

func (m *Memory) UpsertInterface(_ context.Context, deviceID int64, iface *model.Interface) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, existing := range m.interfaces {
		if existing.DeviceID == deviceID && existing.Name == iface.Name {
			applyInterfaceFields(existing, iface)
			return id, nil
		}
	}

	m.nextInterfaceID++
	id := m.nextInterfaceID
	copyIface := *iface
	copyIface.ID = id
	copyIface.DeviceID = deviceID
	m.interfaces[id] = &copyIface
	return id, nil
}

func applyInterfaceFields(dst, src *model.Interface) {
	dst.Status = src.Status
	dst.ProtoStatus = src.ProtoStatus
	dst.Speed = src.Speed
	dst.Duplex = src.Duplex
	dst.AccessVLAN = src.AccessVLAN
	dst.IsTrunk = src.IsTrunk
	dst.TrunkVLANs = src.TrunkVLANs
	dst.Description = src.Description
	dst.MAC = src.MAC
	dst.MTU = src.MTU
	dst.RateInBps = src.RateInBps
	dst.RateOutBps = src.RateOutBps
}

func (m *Memory) UpsertVLAN(_ context.Context, deviceID int64, vlan *model.VLAN) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, existing := range m.vlans {
		if existing.DeviceID == deviceID && existing.VLANID == vlan.VLANID {
			existing.Name = vlan.Name
			existing.Status = vlan.Status
			return id, nil
		}
	}

	m.nextVLANID++
	id := m.nextVLANID
	copyVLAN := *vlan
	copyVLAN.ID = id
	copyVLAN.DeviceID = deviceID
	m.vlans[id] = &copyVLAN
	return id, nil
}

func (m *Memory) UpsertConnection(_ context.Context, conn *model.Connection) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for id, existing := range m.connections {
		if existing.SourceDeviceID == conn.SourceDeviceID && existing.SourceIfaceID == conn.SourceIfaceID && existing.DestDeviceID == conn.DestDeviceID {
			if conn.DestIfaceID != nil {
				existing.DestIfaceID = conn.DestIfaceID
			}
			existing.DestIfaceName = conn.DestIfaceName
			existing.LinkType = conn.LinkType
			existing.LastSeen = now
			return id, nil
		}
	}

	m.nextConnectionID++
	id := m.nextConnectionID
	copyConn := *conn
	copyConn.ID = id
	copyConn.DiscoveredAt = now
	copyConn.LastSeen = now
	m.connections[id] = &copyConn
	return id, nil
}

func (m *Memory) AddOrTouchMAC(_ context.Context, entry *model.MACEntry) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for id, existing := range m.macEntries {
		if existing.DeviceID == entry.DeviceID && existing.VLANID == entry.VLANID && existing.MAC == entry.MAC {
			existing.InterfaceID = entry.InterfaceID
			existing.InterfaceName = entry.InterfaceName
			existing.Type = entry.Type
			existing.LastSeen = now
			return id, nil
		}
	}

	m.nextMACID++
	id := m.nextMACID
	copyEntry := *entry
	copyEntry.ID = id
	copyEntry.LastSeen = now
	m.macEntries[id] = &copyEntry
	return id, nil
}

func (m *Memory) AllDevices(_ context.Context) ([]model.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Device, 0, len(m.devicesByID))
	for _, d := range m.devicesByID {
		out = append(out, *d)
	}
	return out, nil
}

func (m *Memory) VLANsByDevice(_ context.Context, deviceID int64) ([]model.VLAN, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.VLAN
	for _, v := range m.vlans {
		if v.DeviceID == deviceID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (m *Memory) DeviceByID(_ context.Context, id int64) (*model.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.devicesByID[id]
	if !ok {
		return nil, &ErrNotFound{Kind: "device", Key: fmt.Sprintf("%d", id)}
	}
	copyDev := *d
	return &copyDev, nil
}

func (m *Memory) DeviceByHostname(_ context.Context, hostname string) (*model.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.devicesByHostname[hostname]
	if !ok {
		return nil, &ErrNotFound{Kind: "device", Key: hostname}
	}
	copyDev := *d
	return &copyDev, nil
}

func (m *Memory) DeviceByIP(_ context.Context, ip string) (*model.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, d := range m.devicesByID {
		if d.IP == ip {
			copyDev := *d
			return &copyDev, nil
		}
	}
	return nil, &ErrNotFound{Kind: "device", Key: ip}
}

func (m *Memory) SearchDevice(_ context.Context, substr string) ([]model.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lower := strings.ToLower(substr)
	var out []model.Device
	for _, d := range m.devicesByID {
		if strings.Contains(strings.ToLower(d.Hostname), lower) || strings.Contains(strings.ToLower(d.IP), lower) {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *Memory) InterfacesByDevice(_ context.Context, deviceID int64) ([]model.Interface, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.Interface
	for _, i := range m.interfaces {
		if i.DeviceID == deviceID {
			out = append(out, *i)
		}
	}
	return out, nil
}

func (m *Memory) Connections(_ context.Context, deviceID int64) ([]model.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.Connection
	for _, c := range m.connections {
		if c.SourceDeviceID == deviceID || c.DestDeviceID == deviceID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *Memory) Neighbors(ctx context.Context, deviceID int64) ([]model.Connection, error) {
	return m.Connections(ctx, deviceID)
}

func (m *Memory) MACSearch(_ context.Context, mac string) ([]model.MACEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.MACEntry
	for _, e := range m.macEntries {
		if e.MAC == mac {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *Memory) InterfaceSearch(_ context.Context, substr string, deviceID *int64) ([]model.Interface, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lower := strings.ToLower(substr)
	var out []model.Interface
	for _, i := range m.interfaces {
		if deviceID != nil && i.DeviceID != *deviceID {
			continue
		}
		if strings.Contains(strings.ToLower(i.Name), lower) {
			out = append(out, *i)
		}
	}
	return out, nil
}

func (m *Memory) CreateSession(_ context.Context, configSnapshot string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextSessionID++
	id := m.nextSessionID
	m.sessions[id] = &model.Session{
		ID:             id,
		StartedAt:      time.Now(),
		Status:         model.SessionRunning,
		ConfigSnapshot: configSnapshot,
	}
	return id, nil
}

func (m *Memory) UpdateSession(_ context.Context, sess *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.sessions[sess.ID]
	if !ok {
		return &ErrNotFound{Kind: "session", Key: "id"}
	}
	existing.CompletedAt = sess.CompletedAt
	existing.Status = sess.Status
	existing.DevicesFound = sess.DevicesFound
	existing.ConnectionsMade = sess.ConnectionsMade
	existing.SeedCount = sess.SeedCount
	existing.CDPCount = sess.CDPCount
	existing.LLDPCount = sess.LLDPCount
	existing.Errors = sess.Errors
	return nil
}

func (m *Memory) LatestSession(_ context.Context) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var latest *model.Session
	for _, s := range m.sessions {
		if latest == nil || s.StartedAt.After(latest.StartedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, &ErrNotFound{Kind: "session", Key: "latest"}
	}
	copySess := *latest
	return &copySess, nil
}

func (m *Memory) SweepMACsOlderThan(_ context.Context, days int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int
	for id, e := range m.macEntries {
		if olderThan(e.LastSeen, days) {
			delete(m.macEntries, id)
			deleted++
		}
	}
	return deleted, nil
}

var _ Store = (*Memory)(nil)
var _ Store = (*Postgres)(nil)
