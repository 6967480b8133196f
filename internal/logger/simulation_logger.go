package logger

import (
	"github.com/sirupsen/logrus"
)

// SimulationLogger provides dedicated logging for race simulations.
type SimulationLogger struct {
	*logrus.Entry
}

// NewSimulationLogger creates a new simulation logger.
func NewSimulationLogger(baseLogger *logrus.Logger) *SimulationLogger {
	return &SimulationLogger{
		Entry: baseLogger.WithField("component", "simulation"),
	}
}

// LogSimulationStarted logs the start of a race simulation.
func (sl *SimulationLogger) LogSimulationStarted(raceID string, runners, trials, workers int) {
	sl.WithFields(logrus.Fields{
		"race_id": raceID,
		"runners": runners,
		"trials":  trials,
		"workers": workers,
	}).Debug("Simulation started")
}

// LogSimulationCompleted logs a finished simulation.
func (sl *SimulationLogger) LogSimulationCompleted(raceID, simID string, trials int, favouriteID int, favouriteProb, durationMs float64) {
	sl.WithFields(logrus.Fields{
		"race_id":        raceID,
		"sim_id":         simID,
		"trials":         trials,
		"favourite_id":   favouriteID,
		"favourite_prob": favouriteProb,
		"duration_ms":    durationMs,
	}).Info("Simulation completed")
}

// LogDegenerateDraws logs selection steps that used the uniform fallback.
// Degeneracy is a normal path, so it stays at debug level.
func (sl *SimulationLogger) LogDegenerateDraws(raceID string, draws int64) {
	if draws == 0 {
		return
	}
	sl.WithFields(logrus.Fields{
		"race_id":          raceID,
		"degenerate_draws": draws,
	}).Debug("Softmax degenerate, used uniform fallback")
}

// LogRaceRejected logs a race skipped because its parameters are malformed.
func (sl *SimulationLogger) LogRaceRejected(raceID string, err error) {
	sl.WithFields(logrus.Fields{
		"race_id": raceID,
		"error":   err.Error(),
	}).Warn("Race rejected, skipping")
}
