package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/netdiscover/netdiscover/pkg/model"
)

var listDevicesOpts struct {
	deviceType string
}

var listDevicesCmd = &cobra.Command{
	Use:   "list-devices",
	Short: "List discovered devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		app.st = st

		devices, err := st.AllDevices(ctx)
		if err != nil {
			return err
		}
		if t := listDevicesOpts.deviceType; t != "" {
			filtered := devices[:0]
			for _, d := range devices {
				if strings.EqualFold(string(d.Type), t) {
					filtered = append(filtered, d)
				}
			}
			devices = filtered
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "HOSTNAME\tIP\tTYPE\tMODEL\tOS VERSION\tLAST SEEN")
		for _, d := range devices {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				d.Hostname, d.IP, d.Type, dash(d.Model), dash(d.OSVersion), d.LastDiscovered.Format("2006-01-02 15:04:05"))
		}
		return tw.Flush()
	},
}

var listConnectionsCmd = &cobra.Command{
	Use:   "list-connections",
	Short: "List discovered CDP/LLDP connections",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		app.st = st

		devices, err := st.AllDevices(ctx)
		if err != nil {
			return err
		}
		byID := make(map[int64]model.Device, len(devices))
		for _, d := range devices {
			byID[d.ID] = d
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SOURCE\tSOURCE IFACE\tDEST\tDEST IFACE\tLINK TYPE")
		for _, d := range devices {
			conns, err := st.Connections(ctx, d.ID)
			if err != nil {
				return err
			}
			for _, c := range conns {
				dest := byID[c.DestDeviceID].Hostname
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.Hostname, c.SourceIfaceName, dest, c.DestIfaceName, c.LinkType)
			}
		}
		return tw.Flush()
	},
}

func init() {
	listDevicesCmd.Flags().StringVar(&listDevicesOpts.deviceType, "type", "", "Filter by device type (switch, router, endpoint)")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
