package cmd

import (
	"fmt"
	"os"

	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/report"
	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/service"
	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Validate and repair stored emails in users, staff and admin",
	Long: `Run one reconciliation pass. Every stored email that fails validation is
normalized and written back when the result is valid and unique; the rest are
reported for manual repair. Exits non-zero only when the pass is aborted.`,
	Args: cobra.NoArgs,
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := configureLogging(cfg); err != nil {
		return err
	}

	ctx := cmd.Context()
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	hygieneService := service.NewEmailHygieneService(newIdentityRepository(db, cfg), service.Options{
		CrossTableGuard:    cfg.Reconcile.CrossTableGuard,
		IsolateRowFailures: cfg.Reconcile.IsolateRowFailures,
	})

	result, err := hygieneService.Reconcile(ctx)
	if err != nil {
		logrus.WithError(err).Error("Email reconciliation aborted")
		return err
	}

	return report.Print(os.Stdout, result)
}
