package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"TransferSentinel/internal/collector"
	"TransferSentinel/internal/metrics"
	"TransferSentinel/internal/scheduler"
)

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().Bool("run-on-start", false, "Evaluate every entry once before waiting for the schedule")
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-evaluate the configured entries on a schedule",
	Long: `Re-evaluate every configured entry on the watch cron and export the results
as Prometheus metrics until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.cfg.RequireEntries(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	m := metrics.New()
	srv := &http.Server{
		Addr:              a.cfg.Metrics.ListenAddr,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		a.log.Info("metrics server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("metrics server", zap.Error(err))
			cancel()
		}
	}()

	sched := scheduler.NewScheduler(ctx, collector.NewCollector(a.source), m, a.log,
		a.cfg.Entries, a.cfg.Schedule.Concurrency)
	if err := sched.RegisterAll(a.cfg.Schedule.WatchCron); err != nil {
		return err
	}
	sched.Start()

	if runOnStart, _ := cmd.Flags().GetBool("run-on-start"); runOnStart {
		sched.RunInBackground(ctx)
	}

	a.log.Info("ftledger is running, press Ctrl+C to stop",
		zap.String("cron", a.cfg.Schedule.WatchCron),
		zap.Ints("entries", a.cfg.Entries))
	<-ctx.Done()

	a.log.Info("shutdown signal received, stopping")
	sched.Stop()

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("metrics server shutdown", zap.Error(err))
	}
	return nil
}
