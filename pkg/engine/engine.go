// Package engine runs one discovery crawl: a bounded worker pool
// draining a depth-limited FIFO frontier, followed by a two-pass
// commit of the converged results into the store. A WaitGroup plus a
// buffered worker pool bounds concurrent SSH collections, with newly
// discovered neighbours feeding the same frontier that seeded the
// crawl.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/netdiscover/netdiscover/pkg/collector"
	"github.com/netdiscover/netdiscover/pkg/config"
	"github.com/netdiscover/netdiscover/pkg/errs"
	"github.com/netdiscover/netdiscover/pkg/logging"
	"github.com/netdiscover/netdiscover/pkg/model"
	"github.com/netdiscover/netdiscover/pkg/store"
)

// Dialer opens a collector.Runner (an authenticated shell session, in
// production a *sshsession.Session) for one device. Engine depends on
// this interface rather than sshsession directly so tests can replay
// canned transcripts instead of dialing real devices.
type Dialer func(hostname, ip string, port int, creds config.Credentials, timeoutSeconds int) (collector.Runner, error)

// frontierEntry is one (device, depth) pair awaiting collection.
type frontierEntry struct {
	Hostname string
	IP       string
	Port     int
	Creds    config.Credentials
	Depth    int
}

// Engine runs one crawl end to end.
type Engine struct {
	st      store.Store
	dial    Dialer
	mu      sync.Mutex
	visited map[string]struct{}
}

// New constructs an Engine bound to st for persistence and dial for
// opening device sessions.
func New(st store.Store, dial Dialer) *Engine {
	return &Engine{
		st:      st,
		dial:    dial,
		visited: make(map[string]struct{}),
	}
}

// Run seeds the frontier with cfg's seed devices, drains it with up to
// cfg.Parallel.MaxWorkers concurrent workers (each device's discovered
// neighbours feeding back into the same frontier), then commits the
// converged results to the store.
func (e *Engine) Run(ctx context.Context, cfg *config.Config) (*model.Session, error) {
	snapshot, err := json.Marshal(cfg)
	if err != nil {
		snapshot = []byte("{}")
	}

	sessionID, err := e.st.CreateSession(ctx, string(snapshot))
	if err != nil {
		return nil, fmt.Errorf("engine: create session: %w", err)
	}

	sess := &model.Session{ID: sessionID, Status: model.SessionRunning, SeedCount: len(cfg.SeedDevices)}

	frontier := make(chan frontierEntry, cfg.Parallel.QueueSize)
	results := make(chan *model.Device, cfg.Parallel.QueueSize)
	errorsCh := make(chan model.DeviceError, cfg.Parallel.QueueSize)

	var pending sync.WaitGroup

	e.mu.Lock()
	for _, seed := range cfg.SeedDevices {
		e.visited[seed.Hostname] = struct{}{}
		pending.Add(1)
		frontier <- frontierEntry{
			Hostname: seed.Hostname,
			IP:       seed.IP,
			Port:     seed.Port,
			Creds: config.Credentials{
				Username: seed.Username,
				Password: seed.Password,
				Secret:   seed.Secret,
				UseKeys:  cfg.Credentials.UseKeys,
				KeyFile:  cfg.Credentials.KeyFile,
			},
			Depth: 0,
		}
	}
	e.mu.Unlock()

	var wg sync.WaitGroup
	done := make(chan struct{})
	stop := make(chan struct{})
	var stopOnce sync.Once
	closeStop := func() { stopOnce.Do(func() { close(stop) }) }

	for i := 0; i < cfg.Parallel.MaxWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.worker(ctx, cfg, frontier, stop, results, errorsCh, &pending)
		}()
	}

	go func() {
		pending.Wait()
		close(done)
	}()

	var collectedDevices []*model.Device
	var sessionErrors []model.DeviceError
	cdpCount, lldpCount := 0, 0

	draining := true
	for draining {
		select {
		case dev := <-results:
			collectedDevices = append(collectedDevices, dev)
			for _, n := range dev.Neighbors {
				if n.Protocol == model.LinkCDP {
					cdpCount++
				} else if n.Protocol == model.LinkLLDP {
					lldpCount++
				}
			}
		case derr := <-errorsCh:
			sessionErrors = append(sessionErrors, derr)
		case <-done:
			draining = false
		case <-ctx.Done():
			draining = false
		}
	}

	// Workers may still be mid-collectOne here, possibly about to enqueue
	// a discovered neighbour onto frontier. closeStop tells them to give
	// up on that send instead; frontier itself is never closed, since a
	// concurrent send on a closed channel panics regardless of how the
	// sender's select is structured. frontier is simply left for the
	// garbage collector once every worker has exited.
	closeStop()
	wg.Wait()
	close(results)
	close(errorsCh)

	// Drain anything buffered after the worker pool stopped.
	for dev := range results {
		collectedDevices = append(collectedDevices, dev)
	}
	for derr := range errorsCh {
		sessionErrors = append(sessionErrors, derr)
	}

	now := time.Now()
	sess.CompletedAt = &now

	connectionsMade, err := e.commit(ctx, collectedDevices)
	if err != nil {
		sess.Status = model.SessionFailed
		sess.Errors = sessionErrors
		e.st.UpdateSession(ctx, sess)
		return sess, fmt.Errorf("engine: commit pass: %w", err)
	}

	sess.Status = model.SessionCompleted
	sess.DevicesFound = len(collectedDevices)
	sess.ConnectionsMade = connectionsMade
	sess.CDPCount = cdpCount
	sess.LLDPCount = lldpCount
	sess.Errors = sessionErrors

	if err := e.st.UpdateSession(ctx, sess); err != nil {
		return sess, fmt.Errorf("engine: update session: %w", err)
	}

	return sess, nil
}

func (e *Engine) worker(ctx context.Context, cfg *config.Config, frontier chan frontierEntry, stop <-chan struct{}, results chan *model.Device, errorsCh chan model.DeviceError, pending *sync.WaitGroup) {
	for {
		select {
		case entry := <-frontier:
			e.collectOne(ctx, cfg, entry, frontier, stop, results, errorsCh, pending)
		case <-stop:
			return
		}
	}
}

// Enabler is implemented by collector.Runner sessions that support
// privileged-mode elevation. Sessions that don't support it (e.g. test
// doubles) are simply skipped.
type Enabler interface {
	Enable(ctx context.Context, secret string) error
}

func (e *Engine) collectOne(ctx context.Context, cfg *config.Config, entry frontierEntry, frontier chan frontierEntry, stop <-chan struct{}, results chan *model.Device, errorsCh chan model.DeviceError, pending *sync.WaitGroup) {
	defer pending.Done()

	timeout := cfg.DiscoveryOptions.Timeout
	runner, err := e.dial(entry.Hostname, entry.IP, entry.Port, entry.Creds, timeout)
	if err != nil {
		errorsCh <- model.DeviceError{Device: entry.Hostname, Kind: classifyError(err), Message: err.Error()}
		return
	}
	if closer, ok := runner.(interface{ Close() error }); ok {
		defer closer.Close()
	}
	if enabler, ok := runner.(Enabler); ok && entry.Creds.Secret != "" {
		if err := enabler.Enable(ctx, entry.Creds.Secret); err != nil {
			logging.WithDevice(entry.Hostname).WithField("err", err).Warn("enable mode failed, continuing unprivileged")
		}
	}

	dev, err := collector.Collect(ctx, runner, entry.Hostname, entry.IP, cfg.DiscoveryOptions)
	if err != nil {
		errorsCh <- model.DeviceError{Device: entry.Hostname, Kind: classifyError(err), Message: err.Error()}
		return
	}

	results <- dev

	if !cfg.DiscoveryOptions.Recursive || entry.Depth >= cfg.DiscoveryOptions.MaxDepth-1 {
		return
	}

	for _, n := range dev.Neighbors {
		if !n.HasRole() {
			continue
		}
		hostname := strings.TrimSpace(n.RemoteDevice)
		if hostname == "" {
			continue
		}

		e.mu.Lock()
		_, seen := e.visited[hostname]
		if !seen {
			e.visited[hostname] = struct{}{}
		}
		e.mu.Unlock()
		if seen {
			continue
		}

		pending.Add(1)
		next := frontierEntry{
			Hostname: hostname,
			IP:       n.RemoteIP,
			Port:     entry.Port,
			Creds:    entry.Creds,
			Depth:    entry.Depth + 1,
		}
		select {
		case frontier <- next:
		case <-stop:
			pending.Done()
		case <-ctx.Done():
			pending.Done()
		}
	}
}

// classifyError extracts the device error kind from err when it wraps
// an *errs.DeviceError, returning "" otherwise.
func classifyError(err error) string {
	var derr *errs.DeviceError
	if errors.As(err, &derr) {
		return string(derr.Kind)
	}
	return ""
}

// commit writes every collected device and its interfaces/VLANs first,
// then walks neighbours in a second pass to record connections, since
// a connection's far endpoint may not resolve to a device id until
// every device in the crawl has been upserted. It returns the number
// of connections made.
func (e *Engine) commit(ctx context.Context, devices []*model.Device) (int, error) {
	deviceIDs := make(map[string]int64, len(devices))
	interfaceIDs := make(map[string]int64, len(devices))

	for _, dev := range devices {
		id, err := e.st.UpsertDevice(ctx, dev)
		if err != nil {
			return 0, fmt.Errorf("upsert device %s: %w", dev.Hostname, err)
		}
		deviceIDs[dev.Hostname] = id

		for i := range dev.Interfaces {
			ifaceID, err := e.st.UpsertInterface(ctx, id, &dev.Interfaces[i])
			if err != nil {
				logging.WithDevice(dev.Hostname).WithField("err", err).Warn("failed to upsert interface")
				continue
			}
			interfaceIDs[interfaceKey(dev.Hostname, dev.Interfaces[i].Name)] = ifaceID
		}
		for i := range dev.VLANs {
			if _, err := e.st.UpsertVLAN(ctx, id, &dev.VLANs[i]); err != nil {
				logging.WithDevice(dev.Hostname).WithField("err", err).Warn("failed to upsert vlan")
			}
		}
	}

	connectionsMade := 0
	for _, dev := range devices {
		sourceDeviceID, ok := deviceIDs[dev.Hostname]
		if !ok {
			continue
		}

		for i := range dev.MACEntries {
			e.attachMAC(ctx, sourceDeviceID, interfaceIDs, dev.Hostname, &dev.MACEntries[i])
		}

		for _, n := range dev.Neighbors {
			sourceIfaceID, ok := interfaceIDs[interfaceKey(dev.Hostname, n.LocalInterface)]
			if !ok {
				continue
			}
			destDeviceID, ok := deviceIDs[n.RemoteDevice]
			if !ok {
				// Remote device was not collected in this crawl; the
				// connection has no valid far endpoint to record.
				continue
			}
			var destIfaceID *int64
			if id, ok := interfaceIDs[interfaceKey(n.RemoteDevice, n.RemoteInterface)]; ok {
				destIfaceID = &id
			}

			conn := &model.Connection{
				SourceDeviceID:  sourceDeviceID,
				SourceIfaceID:   sourceIfaceID,
				DestDeviceID:    destDeviceID,
				DestIfaceID:     destIfaceID,
				SourceIfaceName: n.LocalInterface,
				DestIfaceName:   n.RemoteInterface,
				LinkType:        n.Protocol,
			}
			if _, err := e.st.UpsertConnection(ctx, conn); err != nil {
				logging.WithDevice(dev.Hostname).WithField("err", err).Warn("failed to upsert connection")
				continue
			}
			connectionsMade++
		}
	}

	return connectionsMade, nil
}

func (e *Engine) attachMAC(ctx context.Context, deviceID int64, interfaceIDs map[string]int64, hostname string, entry *model.MACEntry) {
	entry.DeviceID = deviceID
	if ifaceID, ok := interfaceIDs[interfaceKey(hostname, entry.InterfaceName)]; ok {
		entry.InterfaceID = &ifaceID
	} else if entry.InterfaceName != "" {
		logging.WithDevice(hostname).WithField("interface", entry.InterfaceName).Warn("mac entry references unknown interface, storing without interface id")
	}
	if _, err := e.st.AddOrTouchMAC(ctx, entry); err != nil {
		logging.WithDevice(hostname).WithField("err", err).Warn("failed to upsert mac entry")
	}
}

func interfaceKey(hostname, name string) string {
	return hostname + "\x00" + name
}
