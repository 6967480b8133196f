package database

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS simulation_records (
		sim_id     TEXT PRIMARY KEY,
		race_id    TEXT NOT NULL,
		race_date  DATE NOT NULL,
		model_id   TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		trials     INTEGER NOT NULL,
		payload    JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_simulation_records_race ON simulation_records (race_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_simulation_records_date ON simulation_records (race_date)`,
	`CREATE TABLE IF NOT EXISTS allocation_plans (
		plan_id      UUID PRIMARY KEY,
		plan_date    DATE NOT NULL,
		outcome      TEXT NOT NULL,
		total_budget NUMERIC NOT NULL,
		allocated    NUMERIC NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		payload      JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_allocation_plans_date ON allocation_plans (plan_date, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS race_parameters (
		race_date DATE NOT NULL,
		race_id   TEXT NOT NULL,
		nu        DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (race_date, race_id)
	)`,
	`CREATE TABLE IF NOT EXISTS runner_parameters (
		race_date DATE NOT NULL,
		race_id   TEXT NOT NULL,
		position  INTEGER NOT NULL,
		runner_id INTEGER NOT NULL,
		mu        DOUBLE PRECISION NOT NULL,
		sigma     DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (race_date, race_id, runner_id),
		FOREIGN KEY (race_date, race_id) REFERENCES race_parameters (race_date, race_id) ON DELETE CASCADE
	)`,
}

var sqliteSchema = []string{
	`PRAGMA journal_mode = WAL`,
	`PRAGMA busy_timeout = 5000`,
	`CREATE TABLE IF NOT EXISTS simulation_records (
		sim_id     TEXT PRIMARY KEY,
		race_id    TEXT NOT NULL,
		race_date  TEXT NOT NULL,
		model_id   TEXT NOT NULL,
		created_at TEXT NOT NULL,
		trials     INTEGER NOT NULL,
		payload    TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_simulation_records_race ON simulation_records (race_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_simulation_records_date ON simulation_records (race_date)`,
	`CREATE TABLE IF NOT EXISTS allocation_plans (
		plan_id    TEXT PRIMARY KEY,
		plan_date  TEXT NOT NULL,
		outcome    TEXT NOT NULL,
		created_at TEXT NOT NULL,
		payload    TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_allocation_plans_date ON allocation_plans (plan_date, created_at)`,
}
