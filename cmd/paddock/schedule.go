package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/paddock/internal/health"
	"github.com/yourusername/paddock/internal/metrics"
	"github.com/yourusername/paddock/internal/scheduler"
	"github.com/yourusername/paddock/internal/service"
)

func newScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run the daily simulate and allocate pass on the configured cron schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchedule(cmd.Context())
		},
	}
}

func runSchedule(ctx context.Context) error {
	if cfg.Schedule.Cron == "" {
		return fmt.Errorf("%w: schedule.cron is required for the schedule command", errConfig)
	}

	a, err := newApp(ctx, overrides{})
	if err != nil {
		return err
	}
	defer a.Close()

	sched := scheduler.NewScheduler(cfg.Location(), appLog)
	if _, err := sched.ScheduleDaily(cfg.Schedule.Cron, dailyJob(a.runner)); err != nil {
		return fmt.Errorf("%w: %v", errConfig, err)
	}

	healthCfg := health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		Port:        cfg.Health.Port,
		GRPCPort:    cfg.Health.GRPCPort,
		MetricsPath: cfg.Metrics.Path,
		Logger:      appLog,
		Checks:      a.checks,
		NextRun:     sched.NextRun,
	}
	if cfg.Metrics.Enabled {
		healthCfg.MetricsHandler = metrics.Handler()
	}
	server := health.NewServer(healthCfg)
	if err := server.Start(ctx); err != nil {
		return err
	}

	if err := sched.Start(); err != nil {
		return err
	}
	server.SetReady(true)

	appLog.WithFields(logrus.Fields{
		"cron":     cfg.Schedule.Cron,
		"timezone": cfg.Location().String(),
		"next_run": sched.NextRun().Format(time.RFC3339),
	}).Info("Scheduler running")

	<-ctx.Done()
	appLog.Info("Shutdown signal received")

	server.SetReady(false)
	sched.Stop()
	if err := server.Shutdown(); err != nil {
		appLog.WithError(err).Error("Error during health server shutdown")
	}
	appLog.Info("paddock scheduler shut down")
	return nil
}

// dailyJob runs a full pass for the day. Failures are logged and the scheduler
// keeps running.
func dailyJob(runner *service.DailyRunner) scheduler.Job {
	return func(ctx context.Context, date time.Time) error {
		result, plan, err := runner.Run(ctx, date, cfg.Allocation.DailyBudget)
		if err != nil {
			return err
		}
		appLog.WithFields(logrus.Fields{
			"date":      date.Format(dateLayout),
			"summary":   result.Summary.String(),
			"outcome":   plan.Outcome,
			"allocated": plan.Allocated,
			"bets":      len(plan.Bets),
		}).Info("Daily run completed")
		return nil
	}
}
