package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"libraryhub-backend/internal/app"
	"libraryhub-backend/internal/config"
	"libraryhub-backend/internal/jobs"
	"libraryhub-backend/internal/logger"
	"libraryhub-backend/internal/scheduler"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "cronjob",
		Short:         "Runs LibraryHub scheduled circulation jobs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.dev.yaml", "Path to configuration file")

	rootCmd.AddCommand(runCmd(), runOnceCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the cron scheduler and block until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			jobRunner, closeStore, err := newJobRunner(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			cronScheduler := scheduler.NewScheduler(jobRunner)
			cronScheduler.Start()
			logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			<-sigChan

			logger.Info("Shutting down cronjob scheduler...")
			cronScheduler.Stop()
			logger.Info("Cronjob scheduler stopped. Goodbye!")
			return nil
		},
	}
}

// jobsByName maps run-once arguments to job entry points
var jobsByName = map[string]func(*jobs.JobRunner){
	"sweep-expired-reservations": (*jobs.JobRunner).SweepExpiredReservations,
	"report-overdue-loans":       (*jobs.JobRunner).ReportOverdueLoans,
	"all":                        (*jobs.JobRunner).RunAll,
}

func runOnceCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "run-once <sweep-expired-reservations|report-overdue-loans|all>",
		Short:     "Run a single job once and exit",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"sweep-expired-reservations", "report-overdue-loans", "all"},
		RunE: func(cmd *cobra.Command, args []string) error {
			run := jobsByName[args[0]]

			jobRunner, closeStore, err := newJobRunner(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			logger.Info("Running job once", "job", args[0])
			run(jobRunner)
			logger.Info("Job execution completed", "job", args[0])
			return nil
		},
	}
}

func newJobRunner(ctx context.Context) (*jobs.JobRunner, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting LibraryHub Cronjob Runner...", "log_level", cfg.Log.Level)

	if err := app.RequireDatabase(cfg, "cronjob"); err != nil {
		return nil, nil, err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	store, closeStore, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	svcs := app.NewServices(store, cfg)
	return jobs.NewJobRunner(svcs.Reservations, svcs.Borrows, cfg), closeStore, nil
}
