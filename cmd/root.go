package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "perpustakaan",
	Short: "Library account email hygiene",
	Long: `Email hygiene for the library's users, staff and admin accounts: an offline
reconciliation pass that repairs stored emails, and an admin HTTP/gRPC surface
to list and fix the ones it cannot repair.`,
	SilenceUsage: true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
