package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/yourusername/paddock/internal/allocation"
	"github.com/yourusername/paddock/internal/database"
	"github.com/yourusername/paddock/internal/health"
	"github.com/yourusername/paddock/internal/logger"
	"github.com/yourusername/paddock/internal/models"
	"github.com/yourusername/paddock/internal/odds"
	"github.com/yourusername/paddock/internal/params"
	"github.com/yourusername/paddock/internal/publisher"
	"github.com/yourusername/paddock/internal/repository"
	"github.com/yourusername/paddock/internal/service"
	"github.com/yourusername/paddock/internal/simulation"
)

const dateLayout = "2006-01-02"

// overrides replace configured sources for a single command
type overrides struct {
	records string
	odds    string
}

// app holds the wired components of one command invocation
type app struct {
	runner    *service.DailyRunner
	repos     *repository.Repositories
	publisher publisher.Publisher
	checks    map[string]health.Checker
	closers   []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newApp wires stores, sources, the simulator and the allocator from configuration
func newApp(ctx context.Context, o overrides) (*app, error) {
	a := &app{checks: make(map[string]health.Checker)}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	var pg *database.DB
	if cfg.UsesPostgres() && !strings.HasPrefix(o.records, "postgres") {
		db, err := database.Initialize(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		pg = db
		a.closers = append(a.closers, db.Close)
		a.checks["database"] = health.CheckerFunc(db.Ping)
	}

	repos, err := openStore(ctx, a, pg, o.records)
	if err != nil {
		return nil, err
	}
	a.repos = repos

	paramRepo := repos.Parameters
	if paramRepo == nil && pg != nil {
		paramRepo = repository.NewPostgresRaceParameterRepository(pg)
	}
	provider, err := params.NewProvider(cfg, paramRepo, appLog)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errConfig, err)
	}

	var source odds.Source
	if o.odds != "" {
		source = odds.NewFileSource(o.odds)
	} else {
		source, err = odds.NewSource(cfg, appLog)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errConfig, err)
		}
	}
	if rs, isRedis := source.(*odds.RedisSource); isRedis {
		a.checks["redis"] = health.CheckerFunc(rs.Ping)
	}

	pub, err := publisher.New(&cfg.Publisher, appLog)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errConfig, err)
	}
	a.publisher = pub
	a.closers = append(a.closers, func() {
		if err := pub.Close(); err != nil {
			appLog.WithError(err).Warn("Failed to close publisher")
		}
	})

	markets, err := cfg.Allocation.MarketTypes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errConfig, err)
	}

	simulator := simulation.NewSimulator(simulation.Config{
		Trials:       cfg.Simulation.Trials,
		Workers:      cfg.Simulation.Workers,
		ChunkSize:    cfg.Simulation.ChunkSize,
		TrifectaTopN: cfg.Simulation.TrifectaTopN,
		ModelID:      cfg.Simulation.ModelID,
	}, appLog)

	allocator := allocation.NewAllocator(allocation.Config{
		EVThreshold: cfg.Allocation.EVThreshold,
		MinBetUnit:  cfg.Allocation.MinBetUnit,
		Markets:     markets,
	}, appLog)

	a.runner = service.NewDailyRunner(service.Dependencies{
		Parameters: provider,
		Odds:       source,
		Records:    repos.Records,
		Plans:      repos.Plans,
		Publisher:  pub,
		Simulator:  simulator,
		Allocator:  allocator,
	}, service.RunnerConfig{
		Trials:          cfg.Simulation.Trials,
		Seed:            cfg.Simulation.Seed,
		RaceConcurrency: cfg.Simulation.RaceConcurrency,
		Backend:         repos.Backend,
	}, appLog)

	ok = true
	return a, nil
}

// openStore opens the record store. A records override selects the backend by
// its form: a postgres:// URL, a .db or .sqlite file, or a directory.
func openStore(ctx context.Context, a *app, pg *database.DB, records string) (*repository.Repositories, error) {
	backend, location := cfg.Store.Backend, ""
	switch {
	case records == "":
	case strings.HasPrefix(records, "postgres://"), strings.HasPrefix(records, "postgresql://"):
		backend, location = "postgres", records
	case strings.HasSuffix(records, ".db"), strings.HasSuffix(records, ".sqlite"):
		backend, location = "sqlite", records
	default:
		backend, location = "file", records
	}

	switch backend {
	case "file":
		if location == "" {
			location = cfg.Store.Dir
		}
		return repository.NewFileRepositories(location), nil
	case "sqlite":
		if location == "" {
			location = cfg.Store.SQLitePath
		}
		db, err := database.OpenSQLite(ctx, location)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, closeSQL(db))
		a.checks["sqlite"] = health.CheckerFunc(db.PingContext)
		return repository.NewSQLiteRepositories(db)
	case "postgres":
		if location != "" {
			db, err := database.Connect(ctx, location, &cfg.Database)
			if err != nil {
				return nil, fmt.Errorf("failed to connect to records database: %w", err)
			}
			a.closers = append(a.closers, db.Close)
			if err := db.Migrate(ctx); err != nil {
				return nil, err
			}
			pg = db
			a.checks["database"] = health.CheckerFunc(db.Ping)
		}
		return repository.NewPostgresRepositories(pg)
	default:
		return nil, fmt.Errorf("%w: unknown store backend %s", errConfig, backend)
	}
}

func closeSQL(db *sql.DB) func() {
	return func() {
		if err := db.Close(); err != nil {
			appLog.WithError(err).Warn("Failed to close sqlite store")
		}
	}
}

// parseDate reads a YYYY-MM-DD race date; empty means today in the schedule zone
func parseDate(s string, now time.Time, loc *time.Location) (time.Time, error) {
	if s == "" {
		y, m, d := now.In(loc).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	date, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, models.NewValidationError("invalid_date",
			fmt.Sprintf("date %q must be formatted YYYY-MM-DD", s))
	}
	return date, nil
}

// resolveBankroll returns the configured daily budget unless the flag overrides it
func resolveBankroll(flag float64, changed bool) float64 {
	if !changed {
		return cfg.Allocation.DailyBudget
	}
	if flag != cfg.Allocation.DailyBudget {
		logger.NewAuditLogger(appLog).LogConfigChange("allocation.daily_budget", cfg.Allocation.DailyBudget, flag, "cli")
	}
	return flag
}
