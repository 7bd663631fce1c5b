package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ardnew/softnic/hal/fifo"
	"github.com/ardnew/softnic/pkg"
)

var injectLink string

var injectCmd = &cobra.Command{
	Use:   "inject <device-dir> [hex-frame...]",
	Short: "Put frames or a link change on the simulated wire of a fifo device",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		peer, err := fifo.OpenPeer(args[0])
		if err != nil {
			return err
		}
		defer peer.Close()

		switch injectLink {
		case "":
		case "up", "down":
			if err := peer.SetLink(injectLink == "up"); err != nil {
				return fmt.Errorf("set link: %w", err)
			}
		default:
			return fmt.Errorf("link %q: %w", injectLink, pkg.ErrInvalidParameter)
		}

		for _, arg := range args[1:] {
			frame, err := parseHex(arg)
			if err != nil {
				return err
			}
			if err := peer.InjectFrame(frame); err != nil {
				return fmt.Errorf("inject frame: %w", err)
			}
			pkg.LogDebug(componentCLI, "frame injected", "length", len(frame))
		}
		return nil
	},
}

var captureCmd = &cobra.Command{
	Use:   "capture <device-dir>",
	Short: "Print the frames a fifo device transmits",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		peer, err := fifo.OpenPeer(args[0])
		if err != nil {
			return err
		}
		defer peer.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, renderHeader())

		buf := make([]byte, fifo.MaxMessageSize)
		for {
			n, err := peer.ReadFrame(ctx, buf)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			fmt.Fprintln(out, renderRow(summarize(-1, buf[:n])))
		}
	},
}

func init() {
	injectCmd.Flags().StringVar(&injectLink, "link", "", "set link state before injecting (up or down)")
	rootCmd.AddCommand(injectCmd)
	rootCmd.AddCommand(captureCmd)
}

// parseHex decodes a frame written as hex, ignoring ':' '-' and '.'
// separators.
func parseHex(s string) ([]byte, error) {
	clean := strings.NewReplacer(":", "", "-", "", ".", "", " ", "").Replace(s)
	b, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("frame %q: %v: %w", s, err, pkg.ErrInvalidParameter)
	}
	return b, nil
}
