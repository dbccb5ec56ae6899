package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/mastercactapus/plateloader/device"
	"github.com/spf13/cobra"
)

func portsCmd() *cobra.Command {
	var identify bool
	var baud int
	var marker string

	cmd := &cobra.Command{
		Use:   "ports",
		Short: "List serial ports",
		Long: `Lists the serial ports on this host. With --identify every port is
queried to find the motion controller and the dispenser.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := device.ListPorts()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Println(color.New(color.FgYellow).Sprint("no serial ports found"))
				return nil
			}
			if !identify {
				for _, p := range ports {
					fmt.Println(p)
				}
				return nil
			}

			ch, err := device.Discover(cmd.Context(), ports, device.SerialOpener(baud), device.DiscoverOptions{
				Marker: marker,
				Conn:   device.ConnOptions{AckTimeout: 5 * time.Second},
			})
			if err != nil {
				fmt.Printf("%s %v\n", color.New(color.FgRed).Sprint("FAILED"), err)
				return err
			}
			defer ch.Close()
			for _, p := range ports {
				role := color.New(color.FgHiBlack).Sprint("-")
				switch p {
				case ch.MotionPort:
					role = color.New(color.FgGreen).Sprint(device.RoleMotion)
				case ch.DispenserPort:
					role = color.New(color.FgGreen).Sprint(device.RoleDispenser)
				}
				fmt.Printf("%-24s %s\n", p, role)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&identify, "identify", false, "Query each port to identify the devices.")
	cmd.Flags().IntVar(&baud, "baud", device.DefaultBaud, "Baud rate used to identify devices.")
	cmd.Flags().StringVar(&marker, "marker", device.DefaultMarker, "Prefix of the dispenser's version reply.")
	return cmd
}
