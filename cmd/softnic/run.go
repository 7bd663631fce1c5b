package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ardnew/softnic/config"
	"github.com/ardnew/softnic/dataport"
	"github.com/ardnew/softnic/hal"
	"github.com/ardnew/softnic/hal/fifo"
	"github.com/ardnew/softnic/irq"
	"github.com/ardnew/softnic/link"
	"github.com/ardnew/softnic/nic"
	"github.com/ardnew/softnic/pkg"
	"github.com/ardnew/softnic/ring"
	"github.com/ardnew/softnic/rpc"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the driver and serve the control socket",
	Long: `Run initializes the configured controller, waits for the link to come
up and then moves every received frame into the receive ring until
interrupted. The uspi and genet variants require a board program that
supplies their controller; from this command only the fifo variant runs.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runDriver(ctx, cfg)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// buildHAL creates the controller for the configured variant.
func buildHAL(c *config.Config) (*fifo.HAL, error) {
	if c.Variant != config.VariantFIFO {
		return nil, fmt.Errorf("variant %s needs a board program providing its controller: %w",
			c.Variant, pkg.ErrNotSupported)
	}

	mac, err := c.MACAddress()
	if err != nil {
		return nil, err
	}

	var opts []fifo.Option
	if c.DeviceID != "" {
		opts = append(opts, fifo.WithDeviceID(c.DeviceID))
	}
	return fifo.New(c.BusDir, mac, opts...), nil
}

// resetDataport empties the file backing a dataport so stale slots from a
// previous run are not mistaken for unconsumed frames.
func resetDataport(path string) error {
	if err := os.Truncate(path, 0); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func runDriver(ctx context.Context, c *config.Config) error {
	h, err := buildHAL(c)
	if err != nil {
		return err
	}

	if err := resetDataport(c.RxDataport); err != nil {
		return fmt.Errorf("reset rx dataport: %w", err)
	}
	rx, err := dataport.Map(c.RxDataport, ring.Size)
	if err != nil {
		return err
	}
	defer rx.Close()

	tx, err := dataport.Map(c.TxDataport, hal.DMAPageSize)
	if err != nil {
		return err
	}
	defer tx.Close()

	notifier := ring.NewChanNotifier()
	r, err := ring.New(rx,
		ring.WithWaiter(c.RingWaiter()),
		ring.WithNotifier(notifier))
	if err != nil {
		return err
	}

	bridge := irq.NewBridge()
	for _, intr := range h.Interrupts() {
		if err := bridge.Bind(intr, irq.NewChanLine(h.Raised(), nil)); err != nil {
			return err
		}
	}

	d, err := nic.New(nic.Config{
		HAL:      h,
		Ring:     r,
		Transmit: tx,
		Response: dataport.New("response", hal.MACAddressSize),
		Monitor: link.NewMonitor(h,
			link.WithInterval(c.Link.PollInterval),
			link.WithWarnAfter(c.Link.WarnAfter)),
		Bridge: bridge,
		Idle:   c.Ingress.Idle,
	})
	if err != nil {
		return err
	}
	defer d.Close()

	ln, err := rpc.Listen(c.Socket)
	if err != nil {
		return fmt.Errorf("listen %s: %w", c.Socket, err)
	}
	srv := rpc.NewServer(d)

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := srv.Serve(ctx, ln); err != nil {
			pkg.LogError(componentCLI, "control server stopped", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		for {
			select {
			case <-notifier.C:
				srv.Notify()
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := d.Start(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	pkg.LogInfo(componentCLI, "driver ready",
		"variant", c.Variant,
		"device", h.DeviceDir(),
		"socket", c.Socket)

	err = d.Run(ctx)
	st := d.Stats()
	pkg.LogInfo(componentCLI, "driver stopped",
		"received", st.Received,
		"published", st.Published,
		"dropped", st.Dropped,
		"transmitted", st.Transmitted,
		"transmit_errors", st.TransmitErrors)

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
