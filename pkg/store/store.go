// Package store provides upsert-semantics persistence for discovered
// network inventory. Store is implemented by a Postgres-backed
// Postgres type and an in-memory Memory type used in engine/unit
// tests.
package store

import (
	"context"
	"time"

	"github.com/netdiscover/netdiscover/pkg/model"
)

// Store is the only component allowed to mutate persistent state.
type Store interface {
	UpsertDevice(ctx context.Context, dev *model.Device) (int64, error)
	UpsertInterface(ctx context.Context, deviceID int64, iface *model.Interface) (int64, error)
	UpsertVLAN(ctx context.Context, deviceID int64, vlan *model.VLAN) (int64, error)
	UpsertConnection(ctx context.Context, conn *model.Connection) (int64, error)
	AddOrTouchMAC(ctx context.Context, entry *model.MACEntry) (int64, error)

	AllDevices(ctx context.Context) ([]model.Device, error)
	DeviceByID(ctx context.Context, id int64) (*model.Device, error)
	DeviceByHostname(ctx context.Context, hostname string) (*model.Device, error)
	DeviceByIP(ctx context.Context, ip string) (*model.Device, error)
	SearchDevice(ctx context.Context, substr string) ([]model.Device, error)
	InterfacesByDevice(ctx context.Context, deviceID int64) ([]model.Interface, error)
	VLANsByDevice(ctx context.Context, deviceID int64) ([]model.VLAN, error)
	Connections(ctx context.Context, deviceID int64) ([]model.Connection, error)
	Neighbors(ctx context.Context, deviceID int64) ([]model.Connection, error)
	MACSearch(ctx context.Context, mac string) ([]model.MACEntry, error)
	InterfaceSearch(ctx context.Context, substr string, deviceID *int64) ([]model.Interface, error)

	CreateSession(ctx context.Context, configSnapshot string) (int64, error)
	UpdateSession(ctx context.Context, sess *model.Session) error
	LatestSession(ctx context.Context) (*model.Session, error)

	SweepMACsOlderThan(ctx context.Context, days int) (int, error)

	Close()
}

// ErrNotFound is returned by single-record lookups that find nothing.
type ErrNotFound struct {
	Kind string
	Key  string
}

func (e *ErrNotFound) Error() string {
	return e.Kind + " not found: " + e.Key
}

func olderThan(t time.Time, days int) bool {
	return t.Before(time.Now().AddDate(0, 0, -days))
}
