package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netdiscover/netdiscover/pkg/collector"
	"github.com/netdiscover/netdiscover/pkg/config"
	"github.com/netdiscover/netdiscover/pkg/engine"
	"github.com/netdiscover/netdiscover/pkg/progresstui"
	"github.com/netdiscover/netdiscover/pkg/sshsession"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Run or inspect a discovery crawl",
}

var discoverRunOpts struct {
	configPath string
	watch      bool
}

var discoverRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Crawl the network starting from the configured seed devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(discoverRunOpts.configPath)
		if err != nil {
			return err
		}

		ctx := context.Background()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		app.st = st

		eng := engine.New(st, sshDialer)

		if discoverRunOpts.watch {
			return runWithProgress(ctx, eng, cfg)
		}

		sess, err := eng.Run(ctx, cfg)
		if err != nil {
			return err
		}
		fmt.Printf("session %d: %s: %d devices, %d connections, %d errors\n",
			sess.ID, sess.Status, sess.DevicesFound, sess.ConnectionsMade, len(sess.Errors))
		for _, e := range sess.Errors {
			fmt.Printf("  %s: %s\n", e.Device, e.Message)
		}
		return nil
	},
}

// runWithProgress drives the crawl in the background while a Bubble
// Tea progress view shows a spinner. The engine has no progress
// channel, so the view receives a single EventDone, carrying the
// session's device count, when Run returns; no per-device events are
// sent.
func runWithProgress(ctx context.Context, eng *engine.Engine, cfg *config.Config) error {
	events := make(chan progresstui.Event, 1)
	errCh := make(chan error, 1)

	go func() {
		sess, err := eng.Run(ctx, cfg)
		if err != nil {
			errCh <- err
			events <- progresstui.Event{Kind: progresstui.EventDone}
			close(events)
			return
		}
		events <- progresstui.Event{Kind: progresstui.EventDone, DevicesFound: sess.DevicesFound}
		close(events)
		errCh <- nil
	}()

	if err := progresstui.Run(events); err != nil {
		return err
	}
	return <-errCh
}

var discoverStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the most recently started discovery session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		app.st = st

		sess, err := st.LatestSession(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("session %d: %s\n", sess.ID, sess.Status)
		fmt.Printf("  seeds:       %d\n", sess.SeedCount)
		fmt.Printf("  devices:     %d\n", sess.DevicesFound)
		fmt.Printf("  connections: %d\n", sess.ConnectionsMade)
		fmt.Printf("  cdp/lldp:    %d/%d\n", sess.CDPCount, sess.LLDPCount)
		fmt.Printf("  errors:      %d\n", len(sess.Errors))
		return nil
	},
}

func init() {
	discoverRunCmd.Flags().StringVar(&discoverRunOpts.configPath, "config", "netdiscover.yaml", "Discovery configuration document")
	discoverRunCmd.Flags().BoolVar(&discoverRunOpts.watch, "watch", false, "Show a live progress view while the crawl runs")
	discoverCmd.AddCommand(discoverRunCmd, discoverStatusCmd)
}

// sshDialer adapts sshsession.Open to the engine.Dialer shape used for
// real crawls, as opposed to the canned transcripts engine tests dial
// against instead.
func sshDialer(hostname, ip string, port int, creds config.Credentials, timeoutSeconds int) (collector.Runner, error) {
	return sshsession.Open(hostname, ip, creds, port, timeoutSeconds)
}
