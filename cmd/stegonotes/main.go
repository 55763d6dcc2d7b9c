// Command stegonotes hides notes, images and audio in documents as invisible
// zero-width text and recovers them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// BuildVersion can be set at build time via ldflags.
var BuildVersion = "0.0.1"

var configDir string

var rootCmd = &cobra.Command{
	Use:           "stegonotes",
	Short:         "Hide and recover invisible payloads in documents",
	Version:       BuildVersion,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "directory holding stegonotes.cfg.json")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("✗")+" "+err.Error())
		stop()
		os.Exit(1)
	}
}
