// netdiscover crawls a Cisco IOS/XE network over CDP/LLDP, persists
// what it finds, and answers queries against the result.
//
//	netdiscover discover run --config topology.yaml
//	netdiscover list-devices --type switch
//	netdiscover list-connections
//	netdiscover search mac aabb.ccdd.eeff
//	netdiscover export --format graphml --output topology.graphml
//	netdiscover stats
//	netdiscover serve --host 0.0.0.0 --port 8080
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/netdiscover/netdiscover/pkg/logging"
	"github.com/netdiscover/netdiscover/pkg/store"
)

// App holds CLI state shared across command groups.
type App struct {
	dsn     string
	verbose bool

	st store.Store
}

var app = &App{}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "netdiscover",
	Short:         "Cisco CDP/LLDP network discovery and topology tool",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if app.verbose {
			logging.SetLevel("debug")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app.st != nil {
			app.st.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&app.dsn, "dsn", os.Getenv("NETDISCOVER_DSN"), "Postgres connection string (falls back to an in-memory store when empty)")
	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "Verbose logging")

	rootCmd.AddCommand(discoverCmd, listDevicesCmd, listConnectionsCmd, searchCmd, exportCmd, statsCmd, serveCmd)
}

// openStore opens the configured store, defaulting to an in-memory one
// when no DSN was given so ad hoc queries against a scratch crawl work
// without standing up Postgres.
func openStore(ctx context.Context) (store.Store, error) {
	if app.dsn == "" {
		return store.NewMemory(), nil
	}
	pg, err := store.Open(ctx, app.dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", app.dsn, err)
	}
	if err := pg.Bootstrap(ctx); err != nil {
		pg.Close()
		return nil, fmt.Errorf("bootstrapping schema: %w", err)
	}
	return pg, nil
}
