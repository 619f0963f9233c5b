// Package collector binds one shell session to the parser layer and
// executes the fixed per-device command catalogue: version, interface
// status and trunk state, CDP/LLDP neighbors, the MAC address table,
// and VLAN brief.
package collector

import (
	"context"
	"fmt"

	"github.com/netdiscover/netdiscover/pkg/config"
	"github.com/netdiscover/netdiscover/pkg/logging"
	"github.com/netdiscover/netdiscover/pkg/model"
	"github.com/netdiscover/netdiscover/pkg/parser"
)

// Runner is the subset of *sshsession.Session the collector needs.
// Defined as an interface so tests can substitute a fake transcript
// player instead of a live SSH session.
type Runner interface {
	Run(ctx context.Context, command string) (string, error)
}

// Collect runs the full command sequence against one device and
// returns a partially- or fully-populated Device record. It returns a
// nil Device and a non-nil error only when version, interfaces, and
// neighbors all fail: a completely unusable device is dropped rather
// than stored empty.
// A cancelled ctx aborts the sequence as soon as the in-flight Run
// call returns, without issuing any further commands.
func Collect(ctx context.Context, sess Runner, seedHostname, seedIP string, opts config.DiscoveryOptions) (*model.Device, error) {
	dev := &model.Device{
		Hostname: seedHostname,
		IP:       seedIP,
	}

	versionOK := applyVersion(ctx, sess, dev)
	interfacesOK := ctx.Err() == nil && applyInterfaces(ctx, sess, dev)
	var neighbors []model.NeighborInfo
	var neighborsOK bool
	if ctx.Err() == nil {
		neighbors, neighborsOK = collectNeighbors(ctx, sess, dev.Hostname, opts.Protocols)
	}
	dev.Neighbors = neighbors

	if !versionOK && !interfacesOK && !neighborsOK {
		return nil, fmt.Errorf("device %s: version, interfaces, and neighbor discovery all failed", seedHostname)
	}

	if ctx.Err() == nil && opts.CollectMACTables {
		applyMACTable(ctx, sess, dev)
	}
	if ctx.Err() == nil {
		applyVLANs(ctx, sess, dev)
	}

	if dev.Hostname == "" {
		dev.Hostname = seedIP
	}

	return dev, nil
}

func applyVersion(ctx context.Context, sess Runner, dev *model.Device) bool {
	out, err := sess.Run(ctx, "show version")
	if err != nil {
		logging.WithDevice(dev.Hostname).WithField("cmd", "show version").WithField("err", err).Warn("command failed")
		return false
	}
	v := parser.ParseVersion(out)
	dev.Hostname = v.Hostname
	dev.Model = v.Model
	dev.OSVersion = v.OSVersion
	dev.Serial = v.Serial
	dev.Uptime = v.Uptime
	return true
}

func applyInterfaces(ctx context.Context, sess Runner, dev *model.Device) bool {
	statusOut, err := sess.Run(ctx, "show interfaces status")
	if err != nil {
		logging.WithDevice(dev.Hostname).WithField("cmd", "show interfaces status").WithField("err", err).Warn("command failed")
		return false
	}
	statuses := parser.ParseInterfacesStatus(statusOut)

	trunkMap := map[string][]int{}
	if ctx.Err() == nil {
		if trunkOut, err := sess.Run(ctx, "show interfaces trunk"); err != nil {
			logging.WithDevice(dev.Hostname).WithField("cmd", "show interfaces trunk").WithField("err", err).Warn("command failed")
		} else {
			trunkMap = parser.ParseInterfacesTrunk(trunkOut)
		}
	}

	ifaces := make([]model.Interface, 0, len(statuses))
	for _, s := range statuses {
		iface := model.Interface{
			Name:       s.Name,
			Status:     s.Status,
			Speed:      s.Speed,
			Duplex:     s.Duplex,
			AccessVLAN: s.AccessVLAN,
			IsTrunk:    s.IsTrunk,
		}
		if vlans, ok := trunkMap[s.Name]; ok {
			iface.TrunkVLANs = vlans
			iface.IsTrunk = true
		}
		ifaces = append(ifaces, iface)
	}
	dev.Interfaces = ifaces
	return true
}

// collectNeighbors attempts CDP first; if CDP yields zero neighbors
// (or fails), it falls back to LLDP. The protocol that actually
// yielded neighbors is the one stamped on every returned record
// (ParseCDPNeighborsDetail/ParseLLDPNeighborsDetail already do this).
func collectNeighbors(ctx context.Context, sess Runner, hostname string, protocols []string) ([]model.NeighborInfo, bool) {
	wantCDP := protocolEnabled(protocols, "cdp")
	wantLLDP := protocolEnabled(protocols, "lldp")

	if wantCDP {
		if out, err := sess.Run(ctx, "show cdp neighbors detail"); err != nil {
			logging.WithDevice(hostname).WithField("cmd", "show cdp neighbors detail").WithField("err", err).Warn("command failed")
		} else if neighbors := parser.ParseCDPNeighborsDetail(hostname, out); len(neighbors) > 0 {
			return neighbors, true
		}
	}

	if wantLLDP && ctx.Err() == nil {
		if out, err := sess.Run(ctx, "show lldp neighbors detail"); err != nil {
			logging.WithDevice(hostname).WithField("cmd", "show lldp neighbors detail").WithField("err", err).Warn("command failed")
			return nil, false
		} else if neighbors := parser.ParseLLDPNeighborsDetail(hostname, out); len(neighbors) > 0 {
			return neighbors, true
		}
	}

	return nil, false
}

func protocolEnabled(protocols []string, name string) bool {
	if len(protocols) == 0 {
		return true
	}
	for _, p := range protocols {
		if p == name {
			return true
		}
	}
	return false
}

func applyMACTable(ctx context.Context, sess Runner, dev *model.Device) {
	out, err := sess.Run(ctx, "show mac address-table")
	if err != nil {
		logging.WithDevice(dev.Hostname).WithField("cmd", "show mac address-table").WithField("err", err).Warn("command failed")
		return
	}
	entries := parser.ParseMACAddressTable(out)
	macs := make([]model.MACEntry, 0, len(entries))
	for _, e := range entries {
		macs = append(macs, model.MACEntry{
			VLANID:        e.VLAN,
			MAC:           e.MAC,
			InterfaceName: e.Interface,
			Type:          e.Type,
		})
	}
	dev.MACEntries = macs
}

func applyVLANs(ctx context.Context, sess Runner, dev *model.Device) {
	out, err := sess.Run(ctx, "show vlan brief")
	if err != nil {
		logging.WithDevice(dev.Hostname).WithField("cmd", "show vlan brief").WithField("err", err).Warn("command failed")
		return
	}
	entries := parser.ParseVLANBrief(out)
	vlans := make([]model.VLAN, 0, len(entries))
	for _, e := range entries {
		vlans = append(vlans, model.VLAN{
			VLANID: e.VLANID,
			Name:   e.Name,
			Status: e.Status,
		})
	}
	dev.VLANs = vlans
}
