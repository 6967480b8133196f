package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/paddock/internal/database"
	"github.com/yourusername/paddock/internal/models"
	"github.com/yourusername/paddock/internal/params"
	"github.com/yourusername/paddock/internal/report"
	"github.com/yourusername/paddock/internal/repository"
)

func newSimulateCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate every race of a day and store the records",
		RunE: func(cmd *cobra.Command, args []string) error {
			raceDate, err := parseDate(date, time.Now(), cfg.Location())
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), overrides{})
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.runner.Simulate(cmd.Context(), raceDate)
			if err != nil {
				return err
			}
			for raceID, reason := range result.Rejected {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %v\n", raceID, reason)
			}
			appLog.WithField("summary", result.Summary.String()).Info("Simulation pass completed")
			return report.WriteRecords(cmd.OutOrStdout(), result.Records)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Race date (YYYY-MM-DD), defaults to today")
	return cmd
}

func newAllocateCmd() *cobra.Command {
	var (
		date     string
		bankroll float64
		o        overrides
	)
	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Allocate the bankroll across the stored records of a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			raceDate, err := parseDate(date, time.Now(), cfg.Location())
			if err != nil {
				return err
			}
			budget := resolveBankroll(bankroll, cmd.Flags().Changed("bankroll"))

			a, err := newApp(cmd.Context(), o)
			if err != nil {
				return err
			}
			defer a.Close()

			plan, err := a.runner.AllocateStored(cmd.Context(), raceDate, budget)
			if err != nil {
				return err
			}
			return report.WritePlan(cmd.OutOrStdout(), plan)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Race date (YYYY-MM-DD), defaults to today")
	cmd.Flags().Float64Var(&bankroll, "bankroll", 0, "Daily bankroll, defaults to allocation.daily_budget")
	cmd.Flags().StringVar(&o.records, "records", "", "Record store: a directory, a .db SQLite file or a postgres:// URL")
	cmd.Flags().StringVar(&o.odds, "odds", "", "Odds file or directory, overrides the configured odds source")
	return cmd
}

func newRunCmd() *cobra.Command {
	var (
		date     string
		bankroll float64
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate a day and allocate the bankroll in one pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			raceDate, err := parseDate(date, time.Now(), cfg.Location())
			if err != nil {
				return err
			}
			budget := resolveBankroll(bankroll, cmd.Flags().Changed("bankroll"))

			a, err := newApp(cmd.Context(), overrides{})
			if err != nil {
				return err
			}
			defer a.Close()

			result, plan, err := a.runner.Run(cmd.Context(), raceDate, budget)
			if err != nil {
				return err
			}
			appLog.WithField("summary", result.Summary.String()).Info("Simulation pass completed")
			if err := report.WriteRecords(cmd.OutOrStdout(), result.Records); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return report.WritePlan(cmd.OutOrStdout(), plan)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Race date (YYYY-MM-DD), defaults to today")
	cmd.Flags().Float64Var(&bankroll, "bankroll", 0, "Daily bankroll, defaults to allocation.daily_budget")
	return cmd
}

func newParamsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Manage stored race parameters",
	}

	var date string
	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load a parameters document into PostgreSQL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raceDate, races, err := readParameters(args[0], date)
			if err != nil {
				return err
			}
			if cfg.Database.Host == "" {
				return fmt.Errorf("%w: params import needs a database section", errConfig)
			}

			db, err := database.Initialize(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			repo := repository.NewPostgresRaceParameterRepository(db)
			if err := repo.SaveRaces(cmd.Context(), raceDate, races); err != nil {
				return err
			}
			appLog.WithFields(logrus.Fields{
				"date":  raceDate.Format(dateLayout),
				"races": len(races),
				"file":  args[0],
			}).Info("Race parameters imported")
			return nil
		},
	}
	importCmd.Flags().StringVar(&date, "date", "", "Race date (YYYY-MM-DD), defaults to the document date")
	cmd.AddCommand(importCmd)
	return cmd
}

// readParameters decodes a parameters document and validates every race. The
// race date comes from the flag when set, otherwise from the document.
func readParameters(path, date string) (time.Time, []models.RaceParameter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("failed to read parameters file: %w", err)
	}
	var doc params.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return time.Time{}, nil, models.NewValidationError("malformed_parameters", fmt.Sprintf("%s: %v", path, err))
	}

	if date == "" {
		date = doc.Date
	}
	if date == "" {
		return time.Time{}, nil, models.NewValidationError("missing_date",
			fmt.Sprintf("%s has no date; pass --date", path))
	}
	raceDate, err := parseDate(date, time.Now(), time.UTC)
	if err != nil {
		return time.Time{}, nil, err
	}
	if doc.Date != "" && doc.Date != date {
		return time.Time{}, nil, models.NewValidationError("date_mismatch",
			fmt.Sprintf("%s holds parameters for %s, importing for %s", path, doc.Date, date))
	}

	for i := range doc.Races {
		if err := doc.Races[i].Validate(); err != nil {
			return time.Time{}, nil, fmt.Errorf("race %d of %s: %w", i, path, err)
		}
	}
	return raceDate, doc.Races, nil
}
