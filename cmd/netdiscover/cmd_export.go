package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/netdiscover/netdiscover/pkg/export"
	"github.com/netdiscover/netdiscover/pkg/topology"
)

var exportOpts struct {
	format string
	output string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the current topology graph as JSON, GraphML, or GEXF",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		app.st = st

		g, err := topology.Build(ctx, st)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if exportOpts.output != "" {
			f, err := os.Create(exportOpts.output)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}

		return export.Write(w, g, exportOpts.format)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOpts.format, "format", export.FormatJSON, "Output format: json, graphml, or gexf")
	exportCmd.Flags().StringVar(&exportOpts.output, "output", "", "Write to this file instead of stdout")
}
