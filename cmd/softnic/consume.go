package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ardnew/softnic/dataport"
	"github.com/ardnew/softnic/pkg"
	"github.com/ardnew/softnic/ring"
	"github.com/ardnew/softnic/rpc"
)

var (
	consumeCount int
	consumePoll  time.Duration
)

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Drain the receive ring and print a summary of each frame",
	Long: `Consume plays the network stack: it maps the receive ring, subscribes to
has-data events on the control socket and releases every frame the driver
publishes. Start it after "softnic run".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		port, err := dataport.Map(cfg.RxDataport, ring.Size)
		if err != nil {
			return err
		}
		defer port.Close()

		consumer, err := ring.NewConsumer(port)
		if err != nil {
			return err
		}

		client, err := rpc.Dial(cfg.Socket)
		if err != nil {
			return fmt.Errorf("connect to driver: %w", err)
		}
		defer client.Close()

		if err := client.Subscribe(); err != nil {
			return fmt.Errorf("subscribe: %w", err)
		}
		mac, err := client.GetMACAddress(ctx)
		if err != nil {
			return fmt.Errorf("get mac address: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "interface %s\n", mac)
		fmt.Fprintln(out, renderHeader())

		return consume(ctx, client, consumer, func(slot int, frame []byte) {
			fmt.Fprintln(out, renderRow(summarize(slot, frame)))
			if levelOf() <= slog.LevelDebug {
				fmt.Fprintln(out, renderDump(frame))
			}
		})
	},
}

func init() {
	consumeCmd.Flags().IntVarP(&consumeCount, "count", "n", 0, "exit after this many frames (0 runs until interrupted)")
	consumeCmd.Flags().DurationVar(&consumePoll, "poll", 100*time.Millisecond, "rescan interval when no event arrives")
	rootCmd.AddCommand(consumeCmd)
}

// consume drains the ring on every event, and on every poll interval in
// case an event coalesced before the frames were visible.
func consume(ctx context.Context, client *rpc.Client, c *ring.Consumer, fn func(slot int, frame []byte)) error {
	ticker := time.NewTicker(consumePoll)
	defer ticker.Stop()

	total := 0
	for {
		for {
			slot := c.Index()
			if !c.Next(func(frame []byte) { fn(slot, frame) }) {
				break
			}
			total++
			if consumeCount > 0 && total >= consumeCount {
				return nil
			}
		}

		select {
		case <-client.Events():
		case <-ticker.C:
		case <-client.Done():
			pkg.LogWarn(componentCLI, "driver connection closed", "frames", total)
			return nil
		case <-ctx.Done():
			pkg.LogDebug(componentCLI, "consume interrupted", "frames", total)
			return nil
		}
	}
}
