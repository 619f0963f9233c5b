package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/netdiscover/netdiscover/pkg/httpapi"
	"github.com/netdiscover/netdiscover/pkg/logging"
)

var serveOpts struct {
	host  string
	port  int
	debug bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only JSON query API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveOpts.debug {
			logging.SetLevel("debug")
		}

		ctx := context.Background()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		app.st = st

		addr := fmt.Sprintf("%s:%d", serveOpts.host, serveOpts.port)
		srv := &http.Server{
			Addr:              addr,
			Handler:           httpapi.New(st),
			ReadHeaderTimeout: 10 * time.Second,
		}

		logging.WithOperation("serve").Infof("listening on %s", addr)
		return srv.ListenAndServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveOpts.host, "host", "127.0.0.1", "Bind address")
	serveCmd.Flags().IntVar(&serveOpts.port, "port", 8080, "Bind port")
	serveCmd.Flags().BoolVar(&serveOpts.debug, "debug", false, "Enable debug logging")
}
