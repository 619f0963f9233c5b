package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/netdiscover/netdiscover/pkg/macaddr"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search discovered inventory",
}

var searchMACCmd = &cobra.Command{
	Use:   "mac <address>",
	Short: "Find which device/interface/VLAN last learned a MAC address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		normalized, err := macaddr.Normalize(args[0])
		if err != nil {
			return err
		}

		ctx := context.Background()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		app.st = st

		entries, err := st.MACSearch(ctx, normalized)
		if err != nil {
			return err
		}
		devices, err := st.AllDevices(ctx)
		if err != nil {
			return err
		}
		byID := make(map[int64]string, len(devices))
		for _, d := range devices {
			byID[d.ID] = d.Hostname
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "MAC\tDEVICE\tINTERFACE\tVLAN\tTYPE\tLAST SEEN")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", e.MAC, byID[e.DeviceID], dash(e.InterfaceName), e.VLANID, e.Type, e.LastSeen.Format("2006-01-02 15:04:05"))
		}
		return tw.Flush()
	},
}

var searchDeviceCmd = &cobra.Command{
	Use:   "device <query>",
	Short: "Find devices by hostname or IP substring",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		app.st = st

		devices, err := st.SearchDevice(ctx, args[0])
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "HOSTNAME\tIP\tTYPE\tMODEL")
		for _, d := range devices {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Hostname, d.IP, d.Type, dash(d.Model))
		}
		return tw.Flush()
	},
}

var searchInterfaceOpts struct {
	deviceID int64
}

var searchInterfaceCmd = &cobra.Command{
	Use:   "interface <query>",
	Short: "Find interfaces by name substring",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		app.st = st

		var deviceID *int64
		if searchInterfaceOpts.deviceID != 0 {
			deviceID = &searchInterfaceOpts.deviceID
		}
		ifaces, err := st.InterfaceSearch(ctx, args[0], deviceID)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DEVICE ID\tNAME\tSTATUS\tDESCRIPTION")
		for _, i := range ifaces {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i.DeviceID, i.Name, i.Status, dash(i.Description))
		}
		return tw.Flush()
	},
}

func init() {
	searchInterfaceCmd.Flags().Int64Var(&searchInterfaceOpts.deviceID, "device-id", 0, "Restrict the search to one device")
	searchCmd.AddCommand(searchMACCmd, searchDeviceCmd, searchInterfaceCmd)
}
