package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netdiscover/netdiscover/pkg/topology"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print summary statistics about the discovered topology",
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
		s := g.ToJSON().Stats

		fmt.Printf("total devices:     %d\n", s.TotalNodes)
		fmt.Printf("total connections: %d\n", s.TotalEdges)
		fmt.Printf("connected:         %t\n", s.Connected)
		fmt.Printf("components:        %d\n", s.ComponentCount)
		fmt.Printf("average degree:    %.2f\n", s.AverageDegree)
		if len(s.TopDegreeCentral) > 0 {
			fmt.Println("highest-degree devices:")
			for _, h := range s.TopDegreeCentral {
				fmt.Printf("  %s\n", h)
			}
		}
		return nil
	},
}
