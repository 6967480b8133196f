package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/paddock/internal/config"
	"github.com/yourusername/paddock/internal/health"
	"github.com/yourusername/paddock/internal/logger"
	"github.com/yourusername/paddock/internal/models"
)

func setTestConfig(t *testing.T) {
	t.Helper()
	loaded, err := config.LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	cfg = loaded
	appLog = logger.Discard()
}

func TestParseDate(t *testing.T) {
	now := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	got, err := parseDate("", now, tokyo)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), got)

	got, err = parseDate("2026-05-26", now, tokyo)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 26, 0, 0, 0, 0, time.UTC), got)

	_, err = parseDate("26/05/2026", now, tokyo)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestResolveBankroll(t *testing.T) {
	setTestConfig(t)
	cfg.Allocation.DailyBudget = 5000

	assert.Equal(t, 5000.0, resolveBankroll(0, false))
	assert.Equal(t, 1200.0, resolveBankroll(1200, true))
}

func TestReadParameters(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		return path
	}

	valid := write("valid.json", `{"date":"2026-05-26","races":[
		{"race_id":"R1","nu":0.1,"runners":[{"runner_id":1,"mu":0.5,"sigma":0.2},{"runner_id":2,"mu":0.1,"sigma":0.2}]}]}`)

	t.Run("document date", func(t *testing.T) {
		date, races, err := readParameters(valid, "")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 5, 26, 0, 0, 0, 0, time.UTC), date)
		require.Len(t, races, 1)
		assert.Equal(t, "R1", races[0].RaceID)
	})

	t.Run("date mismatch", func(t *testing.T) {
		_, _, err := readParameters(valid, "2026-05-27")
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("invalid race", func(t *testing.T) {
		path := write("single.json", `{"date":"2026-05-26","races":[
			{"race_id":"R1","nu":0.1,"runners":[{"runner_id":1,"mu":0.5,"sigma":0.2}]}]}`)
		_, _, err := readParameters(path, "")
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("malformed", func(t *testing.T) {
		path := write("broken.json", `{"races":`)
		_, _, err := readParameters(path, "2026-05-26")
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("no date anywhere", func(t *testing.T) {
		path := write("undated.json", `{"races":[]}`)
		_, _, err := readParameters(path, "")
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}

func TestOpenStoreSelectsBackend(t *testing.T) {
	setTestConfig(t)
	ctx := context.Background()
	dir := t.TempDir()

	a := &app{checks: make(map[string]health.Checker)}
	defer a.Close()

	repos, err := openStore(ctx, a, nil, dir)
	require.NoError(t, err)
	assert.Equal(t, "file", repos.Backend)

	repos, err = openStore(ctx, a, nil, filepath.Join(dir, "records.db"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", repos.Backend)
	assert.Contains(t, a.checks, "sqlite")

	cfg.Store.Backend = "postgres"
	_, err = openStore(ctx, a, nil, "")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "paddock dev")
}

func TestRunAndAllocateCommands(t *testing.T) {
	dir := t.TempDir()
	paramsDir := filepath.Join(dir, "parameters")
	oddsDir := filepath.Join(dir, "odds")
	storeDir := filepath.Join(dir, "records")
	require.NoError(t, os.MkdirAll(paramsDir, 0o755))
	require.NoError(t, os.MkdirAll(oddsDir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(paramsDir, "2026-05-26.json"), []byte(`{"date":"2026-05-26","races":[
		{"race_id":"R1","nu":0.1,"runners":[{"runner_id":1,"mu":1.0,"sigma":0.2},{"runner_id":2,"mu":0.0,"sigma":0.2}]}]}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(oddsDir, "2026-05-26.json"), []byte(`{"date":"2026-05-26","races":[
		{"race_id":"R1","markets":{"WIN":{"1":4.0,"2":1.2}}}]}`), 0o644))

	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
app:
  name: paddock
  environment: development
  log_level: error
simulation:
  trials: 2000
  workers: 2
  seed: 7
  model_id: test
  race_concurrency: 2
allocation:
  ev_threshold: 1.0
  min_bet_unit: 100
  markets: [WIN]
  daily_budget: 1000
parameters:
  source: file
  dir: `+paramsDir+`
odds:
  source: file
  dir: `+oddsDir+`
store:
  backend: file
  dir: `+storeDir+`
publisher:
  type: log
`), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"run", "--config", configPath, "--date", "2026-05-26"})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "Outcome:     allocated")

	records, err := filepath.Glob(filepath.Join(storeDir, "2026-05-26", "R1", "*.json"))
	require.NoError(t, err)
	assert.Len(t, records, 1)

	out.Reset()
	rootCmd.SetArgs([]string{"allocate", "--config", configPath, "--date", "2026-05-26", "--bankroll", "500"})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "Budget:      500.00")

	rootCmd.SetArgs([]string{"simulate", "--config", configPath, "--date", "2026-05-27"})
	err = rootCmd.ExecuteContext(context.Background())
	assert.ErrorIs(t, err, models.ErrNotFound)
}
