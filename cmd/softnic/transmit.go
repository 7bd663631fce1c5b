package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ardnew/softnic/dataport"
	"github.com/ardnew/softnic/hal"
	"github.com/ardnew/softnic/rpc"
)

var transmitCmd = &cobra.Command{
	Use:   "transmit <hex-frame>",
	Short: "Send a frame through the driver's transmit region",
	Long: `Transmit writes the frame into the shared transmit region and asks the
driver, over the control socket, to send that many bytes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		frame, err := parseHex(args[0])
		if err != nil {
			return err
		}

		port, err := dataport.Map(cfg.TxDataport, hal.DMAPageSize)
		if err != nil {
			return err
		}
		defer port.Close()

		if err := port.CopyIn(0, frame); err != nil {
			return fmt.Errorf("frame of %d bytes: %w", len(frame), err)
		}

		client, err := rpc.Dial(cfg.Socket)
		if err != nil {
			return fmt.Errorf("connect to driver: %w", err)
		}
		defer client.Close()

		if err := client.Transmit(len(frame)); err != nil {
			return fmt.Errorf("transmit: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "sent %d bytes\n", len(frame))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(transmitCmd)
}
