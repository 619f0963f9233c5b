// Package model defines the domain records shared by the parser,
// collector, store, engine, and topology layers.
package model

import "time"

// DeviceType classifies a Device's role for neighbor-expansion filtering.
type DeviceType string

const (
	DeviceTypeSwitch   DeviceType = "switch"
	DeviceTypeRouter   DeviceType = "router"
	DeviceTypeEndpoint DeviceType = "endpoint"
)

// InterfaceStatus mirrors the normalized status column of
// "show interfaces status".
type InterfaceStatus string

const (
	IfStatusUp        InterfaceStatus = "up"
	IfStatusDown      InterfaceStatus = "down"
	IfStatusAdminDown InterfaceStatus = "admin-down"
	IfStatusUnknown   InterfaceStatus = "unknown"
)

// VLANStatus mirrors "show vlan brief" status normalization.
type VLANStatus string

const (
	VLANActive    VLANStatus = "active"
	VLANSuspended VLANStatus = "suspended"
)

// MACType distinguishes dynamically-learned from statically-configured
// MAC table entries.
type MACType string

const (
	MACDynamic MACType = "dynamic"
	MACStatic  MACType = "static"
)

// LinkType identifies how a Connection was observed.
type LinkType string

const (
	LinkCDP      LinkType = "cdp"
	LinkLLDP     LinkType = "lldp"
	LinkInferred LinkType = "inferred"
)

// SessionStatus is the lifecycle state of a discovery Session.
type SessionStatus string

const (
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
)

// Device is one discovered network element, keyed by hostname.
type Device struct {
	ID           int64
	Hostname     string
	IP           string
	ManagementIP []string
	Type         DeviceType
	Model        string
	Platform     string
	OSVersion    string
	Serial       string
	Uptime       string

	LastDiscovered time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Interfaces []Interface
	VLANs      []VLAN
	MACEntries []MACEntry

	// Neighbors holds the raw neighbor records observed on this device
	// during the collection pass that produced this record. It is
	// transient (engine-only); the store never persists it directly,
	// only the Connection rows the commit pass derives from it.
	Neighbors []NeighborInfo
}

// Interface is a (device, name)-keyed port record.
type Interface struct {
	ID          int64
	DeviceID    int64
	Name        string
	Status      InterfaceStatus
	ProtoStatus string
	Speed       string
	Duplex      string
	AccessVLAN  *int
	IsTrunk     bool
	TrunkVLANs  []int
	Description string
	MAC         string
	MTU         int
	RateInBps   *float64
	RateOutBps  *float64
}

// VLAN is a per-device VLAN record.
type VLAN struct {
	ID       int64
	DeviceID int64
	VLANID   int
	Name     string
	Status   VLANStatus
}

// MACEntry is a (device, vlan, mac)-keyed forwarding-table record.
type MACEntry struct {
	ID            int64
	DeviceID      int64
	VLANID        int
	MAC           string
	InterfaceID   *int64
	InterfaceName string
	Type          MACType
	LastSeen      time.Time
}

// Connection is a directed record of one observed neighbor relation.
// The topology layer unions mirrored records into an undirected edge.
type Connection struct {
	ID               int64
	SourceDeviceID   int64
	SourceIfaceID    int64
	DestDeviceID     int64
	DestIfaceID      *int64
	SourceIfaceName  string
	DestIfaceName    string
	LinkType         LinkType
	DiscoveredAt     time.Time
	LastSeen         time.Time
}

// NeighborInfo is the loosely-typed neighbor record the parser produces
// and the commit pass reads by field name.
type NeighborInfo struct {
	RemoteDevice     string   `json:"remote_device"`
	RemoteIP         string   `json:"remote_ip"`
	LocalInterface   string   `json:"local_interface"`
	RemoteInterface  string   `json:"remote_interface"`
	Capabilities     []string `json:"capabilities"`
	Protocol         LinkType `json:"protocol"`
}

// HasRole reports whether the neighbor advertises the switch or router
// capability, case-insensitively. Used by the engine to decide whether
// a neighbor is worth enqueuing.
func (n NeighborInfo) HasRole() bool {
	for _, c := range n.Capabilities {
		switch normalizeCap(c) {
		case "switch", "router":
			return true
		}
	}
	return false
}

func normalizeCap(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			r = r + ('a' - 'A')
		}
		out = append(out, r)
	}
	return string(out)
}

// DeviceError pairs a device hostname with the error observed while
// collecting or committing it, plus that error's classification.
type DeviceError struct {
	Device  string `json:"device"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

// Session tracks one crawl invocation end to end.
type Session struct {
	ID              int64
	StartedAt       time.Time
	CompletedAt     *time.Time
	Status          SessionStatus
	DevicesFound    int
	ConnectionsMade int
	SeedCount       int
	CDPCount        int
	LLDPCount       int
	Errors          []DeviceError
	ConfigSnapshot  string
}
