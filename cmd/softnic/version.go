package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/ardnew/softnic/ring"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show softnic version and ring geometry",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "softnic version %s\n", version)
		if info, ok := debug.ReadBuildInfo(); ok {
			fmt.Fprintf(out, "go: %s\n", info.GoVersion)
		}
		fmt.Fprintf(out, "ring: %d slots x %d bytes (%d bytes)\n",
			ring.SlotCount, ring.MaxFrameSize, ring.Size)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
