package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/netdiscover/netdiscover/pkg/model"
)

// schema is applied by Bootstrap on startup. Column names mirror the
// natural keys and essential attributes of the discovered inventory
// model.
const schema = `
CREATE TABLE IF NOT EXISTS devices (
	id               BIGSERIAL PRIMARY KEY,
	hostname         TEXT NOT NULL UNIQUE,
	ip               TEXT NOT NULL,
	management_ip    TEXT[] NOT NULL DEFAULT '{}',
	type             TEXT NOT NULL DEFAULT 'endpoint',
	model            TEXT NOT NULL DEFAULT '',
	platform         TEXT NOT NULL DEFAULT '',
	os_version       TEXT NOT NULL DEFAULT '',
	serial           TEXT NOT NULL DEFAULT '',
	uptime           TEXT NOT NULL DEFAULT '',
	last_discovered  TIMESTAMPTZ NOT NULL DEFAULT now(),
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS devices_serial_uidx ON devices (serial) WHERE serial <> '';

CREATE TABLE IF NOT EXISTS interfaces (
	id             BIGSERIAL PRIMARY KEY,
	device_id      BIGINT NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
	name           TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'unknown',
	proto_status   TEXT NOT NULL DEFAULT '',
	speed          TEXT NOT NULL DEFAULT '',
	duplex         TEXT NOT NULL DEFAULT '',
	access_vlan    INT,
	is_trunk       BOOLEAN NOT NULL DEFAULT false,
	trunk_vlans    INT[] NOT NULL DEFAULT '{}',
	description    TEXT NOT NULL DEFAULT '',
	mac            TEXT NOT NULL DEFAULT '',
	mtu            INT NOT NULL DEFAULT 0,
	rate_in_bps    DOUBLE PRECISION,
	rate_out_bps   DOUBLE PRECISION,
	UNIQUE (device_id, name)
);

CREATE TABLE IF NOT EXISTS vlans (
	id         BIGSERIAL PRIMARY KEY,
	device_id  BIGINT NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
	vlan_id    INT NOT NULL,
	name       TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'active',
	UNIQUE (device_id, vlan_id)
);

CREATE TABLE IF NOT EXISTS mac_entries (
	id             BIGSERIAL PRIMARY KEY,
	device_id      BIGINT NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
	vlan_id        INT NOT NULL,
	mac            TEXT NOT NULL,
	interface_id   BIGINT REFERENCES interfaces(id) ON DELETE SET NULL,
	interface_name TEXT NOT NULL DEFAULT '',
	type           TEXT NOT NULL DEFAULT 'dynamic',
	last_seen      TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (device_id, vlan_id, mac)
);

CREATE TABLE IF NOT EXISTS connections (
	id                BIGSERIAL PRIMARY KEY,
	source_device_id  BIGINT NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
	source_iface_id   BIGINT NOT NULL REFERENCES interfaces(id) ON DELETE CASCADE,
	dest_device_id    BIGINT NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
	dest_iface_id     BIGINT REFERENCES interfaces(id) ON DELETE SET NULL,
	source_iface_name TEXT NOT NULL DEFAULT '',
	dest_iface_name   TEXT NOT NULL DEFAULT '',
	link_type         TEXT NOT NULL DEFAULT 'inferred',
	discovered_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_seen         TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (source_device_id, source_iface_id, dest_device_id)
);

CREATE TABLE IF NOT EXISTS sessions (
	id                BIGSERIAL PRIMARY KEY,
	started_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at      TIMESTAMPTZ,
	status            TEXT NOT NULL DEFAULT 'running',
	devices_found     INT NOT NULL DEFAULT 0,
	connections_made  INT NOT NULL DEFAULT 0,
	seed_count        INT NOT NULL DEFAULT 0,
	cdp_count         INT NOT NULL DEFAULT 0,
	lldp_count        INT NOT NULL DEFAULT 0,
	errors            JSONB NOT NULL DEFAULT '[]',
	config_snapshot   TEXT NOT NULL DEFAULT ''
);
`

// Postgres is the pgx/v5-backed Store implementation.
type Postgres struct {
	pool *pgxpool.Pool
}

// Open connects to Postgres and runs Bootstrap.
func Open(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	p := &Postgres{pool: pool}
	if err := p.Bootstrap(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// Bootstrap creates the schema if it does not already exist.
func (p *Postgres) Bootstrap(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("bootstrap schema: %w", err)
	}
	return nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) UpsertDevice(ctx context.Context, dev *model.Device) (int64, error) {
	var id int64
	err := p.pool.QueryRow(ctx, `
		INSERT INTO devices (hostname, ip, management_ip, type, model, platform, os_version, serial, uptime, last_discovered, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		ON CONFLICT (hostname) DO UPDATE SET
			ip = EXCLUDED.ip,
			management_ip = EXCLUDED.management_ip,
			type = EXCLUDED.type,
			model = EXCLUDED.model,
			platform = EXCLUDED.platform,
			os_version = EXCLUDED.os_version,
			serial = EXCLUDED.serial,
			uptime = EXCLUDED.uptime,
			last_discovered = now(),
			updated_at = now()
		RETURNING id
	`, dev.Hostname, dev.IP, dev.ManagementIP, string(dev.Type), dev.Model, dev.Platform, dev.OSVersion, dev.Serial, dev.Uptime).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert device %s: %w", dev.Hostname, err)
	}
	return id, nil
}

func (p *Postgres) UpsertInterface(ctx context.Context, deviceID int64, iface *model.Interface) (int64, error) {
	var id int64
	err := p.pool.QueryRow(ctx, `
		INSERT INTO interfaces (device_id, name, status, proto_status, speed, duplex, access_vlan, is_trunk, trunk_vlans, description, mac, mtu, rate_in_bps, rate_out_bps)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (device_id, name) DO UPDATE SET
			status = EXCLUDED.status,
			proto_status = EXCLUDED.proto_status,
			speed = EXCLUDED.speed,
			duplex = EXCLUDED.duplex,
			access_vlan = EXCLUDED.access_vlan,
			is_trunk = EXCLUDED.is_trunk,
			trunk_vlans = EXCLUDED.trunk_vlans,
			description = EXCLUDED.description,
			mac = EXCLUDED.mac,
			mtu = EXCLUDED.mtu,
			rate_in_bps = EXCLUDED.rate_in_bps,
			rate_out_bps = EXCLUDED.rate_out_bps
		RETURNING id
	`, deviceID, iface.Name, string(iface.Status), iface.ProtoStatus, iface.Speed, iface.Duplex, iface.AccessVLAN,
		iface.IsTrunk, iface.TrunkVLANs, iface.Description, iface.MAC, iface.MTU, iface.RateInBps, iface.RateOutBps).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert interface %d/%s: %w", deviceID, iface.Name, err)
	}
	return id, nil
}

func (p *Postgres) UpsertVLAN(ctx context.Context, deviceID int64, vlan *model.VLAN) (int64, error) {
	var id int64
	err := p.pool.QueryRow(ctx, `
		INSERT INTO vlans (device_id, vlan_id, name, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (device_id, vlan_id) DO UPDATE SET
			name = EXCLUDED.name,
			status = EXCLUDED.status
		RETURNING id
	`, deviceID, vlan.VLANID, vlan.Name, string(vlan.Status)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert vlan %d/%d: %w", deviceID, vlan.VLANID, err)
	}
	return id, nil
}

func (p *Postgres) UpsertConnection(ctx context.Context, conn *model.Connection) (int64, error) {
	var id int64
	err := p.pool.QueryRow(ctx, `
		INSERT INTO connections (source_device_id, source_iface_id, dest_device_id, dest_iface_id, source_iface_name, dest_iface_name, link_type, last_seen)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (source_device_id, source_iface_id, dest_device_id) DO UPDATE SET
			dest_iface_id = COALESCE(EXCLUDED.dest_iface_id, connections.dest_iface_id),
			dest_iface_name = EXCLUDED.dest_iface_name,
			link_type = EXCLUDED.link_type,
			last_seen = now()
		RETURNING id
	`, conn.SourceDeviceID, conn.SourceIfaceID, conn.DestDeviceID, conn.DestIfaceID, conn.SourceIfaceName, conn.DestIfaceName, string(conn.LinkType)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert connection: %w", err)
	}
	return id, nil
}

func (p *Postgres) AddOrTouchMAC(ctx context.Context, entry *model.MACEntry) (int64, error) {
	var id int64
	err := p.pool.QueryRow(ctx, `
		INSERT INTO mac_entries (device_id, vlan_id, mac, interface_id, interface_name, type, last_seen)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (device_id, vlan_id, mac) DO UPDATE SET
			interface_id = EXCLUDED.interface_id,
			interface_name = EXCLUDED.interface_name,
			type = EXCLUDED.type,
			last_seen = now()
		RETURNING id
	`, entry.DeviceID, entry.VLANID, entry.MAC, entry.InterfaceID, entry.InterfaceName, string(entry.Type)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert mac entry: %w", err)
	}
	return id, nil
}

func (p *Postgres) VLANsByDevice(ctx context.Context, deviceID int64) ([]model.VLAN, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, device_id, vlan_id, name, status FROM vlans WHERE device_id = $1 ORDER BY vlan_id`, deviceID)
	if err != nil {
		return nil, fmt.Errorf("vlans by device: %w", err)
	}
	defer rows.Close()

	var out []model.VLAN
	for rows.Next() {
		var v model.VLAN
		var status string
		if err := rows.Scan(&v.ID, &v.DeviceID, &v.VLANID, &v.Name, &status); err != nil {
			return nil, fmt.Errorf("scan vlan: %w", err)
		}
		v.Status = model.VLANStatus(status)
		out = append(out, v)
	}
	return out, rows.Err()
}

func (p *Postgres) AllDevices(ctx context.Context) ([]model.Device, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, hostname, ip, management_ip, type, model, platform, os_version, serial, uptime, last_discovered, created_at, updated_at FROM devices ORDER BY hostname`)
	if err != nil {
		return nil, fmt.Errorf("all devices: %w", err)
	}
	defer rows.Close()
	return scanDevices(rows)
}

func (p *Postgres) DeviceByID(ctx context.Context, id int64) (*model.Device, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, hostname, ip, management_ip, type, model, platform, os_version, serial, uptime, last_discovered, created_at, updated_at FROM devices WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("device by id: %w", err)
	}
	defer rows.Close()
	devs, err := scanDevices(rows)
	if err != nil {
		return nil, err
	}
	if len(devs) == 0 {
		return nil, &ErrNotFound{Kind: "device", Key: fmt.Sprintf("%d", id)}
	}
	return &devs[0], nil
}

func (p *Postgres) DeviceByHostname(ctx context.Context, hostname string) (*model.Device, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, hostname, ip, management_ip, type, model, platform, os_version, serial, uptime, last_discovered, created_at, updated_at FROM devices WHERE hostname = $1`, hostname)
	if err != nil {
		return nil, fmt.Errorf("device by hostname: %w", err)
	}
	defer rows.Close()
	devs, err := scanDevices(rows)
	if err != nil {
		return nil, err
	}
	if len(devs) == 0 {
		return nil, &ErrNotFound{Kind: "device", Key: hostname}
	}
	return &devs[0], nil
}

func (p *Postgres) DeviceByIP(ctx context.Context, ip string) (*model.Device, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, hostname, ip, management_ip, type, model, platform, os_version, serial, uptime, last_discovered, created_at, updated_at FROM devices WHERE ip = $1`, ip)
	if err != nil {
		return nil, fmt.Errorf("device by ip: %w", err)
	}
	defer rows.Close()
	devs, err := scanDevices(rows)
	if err != nil {
		return nil, err
	}
	if len(devs) == 0 {
		return nil, &ErrNotFound{Kind: "device", Key: ip}
	}
	return &devs[0], nil
}

func (p *Postgres) SearchDevice(ctx context.Context, substr string) ([]model.Device, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, hostname, ip, management_ip, type, model, platform, os_version, serial, uptime, last_discovered, created_at, updated_at
		FROM devices WHERE hostname ILIKE '%' || $1 || '%' OR ip ILIKE '%' || $1 || '%'
		ORDER BY hostname
	`, substr)
	if err != nil {
		return nil, fmt.Errorf("search device: %w", err)
	}
	defer rows.Close()
	return scanDevices(rows)
}

func scanDevices(rows pgx.Rows) ([]model.Device, error) {
	var out []model.Device
	for rows.Next() {
		var d model.Device
		var typ string
		if err := rows.Scan(&d.ID, &d.Hostname, &d.IP, &d.ManagementIP, &typ, &d.Model, &d.Platform, &d.OSVersion, &d.Serial, &d.Uptime, &d.LastDiscovered, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		d.Type = model.DeviceType(typ)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (p *Postgres) InterfacesByDevice(ctx context.Context, deviceID int64) ([]model.Interface, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, device_id, name, status, proto_status, speed, duplex, access_vlan, is_trunk, trunk_vlans, description, mac, mtu, rate_in_bps, rate_out_bps
		FROM interfaces WHERE device_id = $1 ORDER BY name
	`, deviceID)
	if err != nil {
		return nil, fmt.Errorf("interfaces by device: %w", err)
	}
	defer rows.Close()

	var out []model.Interface
	for rows.Next() {
		var i model.Interface
		var status string
		if err := rows.Scan(&i.ID, &i.DeviceID, &i.Name, &status, &i.ProtoStatus, &i.Speed, &i.Duplex, &i.AccessVLAN, &i.IsTrunk, &i.TrunkVLANs, &i.Description, &i.MAC, &i.MTU, &i.RateInBps, &i.RateOutBps); err != nil {
			return nil, fmt.Errorf("scan interface: %w", err)
		}
		i.Status = model.InterfaceStatus(status)
		out = append(out, i)
	}
	return out, rows.Err()
}

func (p *Postgres) Connections(ctx context.Context, deviceID int64) ([]model.Connection, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, source_device_id, source_iface_id, dest_device_id, dest_iface_id, source_iface_name, dest_iface_name, link_type, discovered_at, last_seen
		FROM connections WHERE source_device_id = $1 OR dest_device_id = $1
	`, deviceID)
	if err != nil {
		return nil, fmt.Errorf("connections: %w", err)
	}
	defer rows.Close()
	return scanConnections(rows)
}

func (p *Postgres) Neighbors(ctx context.Context, deviceID int64) ([]model.Connection, error) {
	return p.Connections(ctx, deviceID)
}

func scanConnections(rows pgx.Rows) ([]model.Connection, error) {
	var out []model.Connection
	for rows.Next() {
		var c model.Connection
		var linkType string
		if err := rows.Scan(&c.ID, &c.SourceDeviceID, &c.SourceIfaceID, &c.DestDeviceID, &c.DestIfaceID, &c.SourceIfaceName, &c.DestIfaceName, &linkType, &c.DiscoveredAt, &c.LastSeen); err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		c.LinkType = model.LinkType(linkType)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *Postgres) MACSearch(ctx context.Context, mac string) ([]model.MACEntry, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, device_id, vlan_id, mac, interface_id, interface_name, type, last_seen
		FROM mac_entries WHERE mac = $1
	`, mac)
	if err != nil {
		return nil, fmt.Errorf("mac search: %w", err)
	}
	defer rows.Close()
	return scanMACEntries(rows)
}

func scanMACEntries(rows pgx.Rows) ([]model.MACEntry, error) {
	var out []model.MACEntry
	for rows.Next() {
		var m model.MACEntry
		var typ string
		if err := rows.Scan(&m.ID, &m.DeviceID, &m.VLANID, &m.MAC, &m.InterfaceID, &m.InterfaceName, &typ, &m.LastSeen); err != nil {
			return nil, fmt.Errorf("scan mac entry: %w", err)
		}
		m.Type = model.MACType(typ)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (p *Postgres) InterfaceSearch(ctx context.Context, substr string, deviceID *int64) ([]model.Interface, error) {
	var rows pgx.Rows
	var err error
	if deviceID != nil {
		rows, err = p.pool.Query(ctx, `
			SELECT id, device_id, name, status, proto_status, speed, duplex, access_vlan, is_trunk, trunk_vlans, description, mac, mtu, rate_in_bps, rate_out_bps
			FROM interfaces WHERE name ILIKE '%' || $1 || '%' AND device_id = $2 ORDER BY name
		`, substr, *deviceID)
	} else {
		rows, err = p.pool.Query(ctx, `
			SELECT id, device_id, name, status, proto_status, speed, duplex, access_vlan, is_trunk, trunk_vlans, description, mac, mtu, rate_in_bps, rate_out_bps
			FROM interfaces WHERE name ILIKE '%' || $1 || '%' ORDER BY name
		`, substr)
	}
	if err != nil {
		return nil, fmt.Errorf("interface search: %w", err)
	}
	defer rows.Close()

	var out []model.Interface
	for rows.Next() {
		var i model.Interface
		var status string
		if err := rows.Scan(&i.ID, &i.DeviceID, &i.Name, &status, &i.ProtoStatus, &i.Speed, &i.Duplex, &i.AccessVLAN, &i.IsTrunk, &i.TrunkVLANs, &i.Description, &i.MAC, &i.MTU, &i.RateInBps, &i.RateOutBps); err != nil {
			return nil, fmt.Errorf("scan interface: %w", err)
		}
		i.Status = model.InterfaceStatus(status)
		out = append(out, i)
	}
	return out, rows.Err()
}

func (p *Postgres) CreateSession(ctx context.Context, configSnapshot string) (int64, error) {
	var id int64
	err := p.pool.QueryRow(ctx, `
		INSERT INTO sessions (status, config_snapshot) VALUES ('running', $1) RETURNING id
	`, configSnapshot).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

func (p *Postgres) UpdateSession(ctx context.Context, sess *model.Session) error {
	errsJSON, err := json.Marshal(sess.Errors)
	if err != nil {
		return fmt.Errorf("marshal session errors: %w", err)
	}

	_, err = p.pool.Exec(ctx, `
		UPDATE sessions SET
			completed_at = $2,
			status = $3,
			devices_found = $4,
			connections_made = $5,
			seed_count = $6,
			cdp_count = $7,
			lldp_count = $8,
			errors = $9
		WHERE id = $1
	`, sess.ID, sess.CompletedAt, string(sess.Status), sess.DevicesFound, sess.ConnectionsMade, sess.SeedCount, sess.CDPCount, sess.LLDPCount, errsJSON)
	if err != nil {
		return fmt.Errorf("update session %d: %w", sess.ID, err)
	}
	return nil
}

func (p *Postgres) LatestSession(ctx context.Context) (*model.Session, error) {
	var s model.Session
	var status string
	var errsJSON []byte
	err := p.pool.QueryRow(ctx, `
		SELECT id, started_at, completed_at, status, devices_found, connections_made, seed_count, cdp_count, lldp_count, errors, config_snapshot
		FROM sessions ORDER BY started_at DESC LIMIT 1
	`).Scan(&s.ID, &s.StartedAt, &s.CompletedAt, &status, &s.DevicesFound, &s.ConnectionsMade, &s.SeedCount, &s.CDPCount, &s.LLDPCount, &errsJSON, &s.ConfigSnapshot)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ErrNotFound{Kind: "session", Key: "latest"}
		}
		return nil, fmt.Errorf("latest session: %w", err)
	}
	s.Status = model.SessionStatus(status)
	if len(errsJSON) > 0 {
		if err := json.Unmarshal(errsJSON, &s.Errors); err != nil {
			return nil, fmt.Errorf("unmarshal session errors: %w", err)
		}
	}
	return &s, nil
}

func (p *Postgres) SweepMACsOlderThan(ctx context.Context, days int) (int, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM mac_entries WHERE last_seen < now() - ($1 || ' days')::interval`, days)
	if err != nil {
		return 0, fmt.Errorf("sweep macs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
