package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogRecordPersisted logs a durably stored simulation record.
func (al *AuditLogger) LogRecordPersisted(simID, raceID, backend string) {
	al.WithFields(logrus.Fields{
		"sim_id":  simID,
		"race_id": raceID,
		"backend": backend,
	}).Info("Simulation record persisted")
}

// LogPersistenceFailure logs a write that failed. The in-memory value is still used.
func (al *AuditLogger) LogPersistenceFailure(entity, id string, err error) {
	al.WithFields(logrus.Fields{
		"entity": entity,
		"id":     id,
		"error":  err.Error(),
	}).Error("Persistence failed, continuing with in-memory value")
}

// LogPlanPublished logs a plan handed to a downstream consumer.
func (al *AuditLogger) LogPlanPublished(planID, publisher string, date time.Time, allocated float64, bets int) {
	al.WithFields(logrus.Fields{
		"plan_id":   planID,
		"publisher": publisher,
		"date":      date.Format("2006-01-02"),
		"allocated": allocated,
		"bets":      bets,
	}).Info("Allocation plan published")
}

// LogConfigChange logs a configuration value overridden at runtime.
func (al *AuditLogger) LogConfigChange(key string, oldValue, newValue interface{}, changedBy string) {
	al.WithFields(logrus.Fields{
		"key":        key,
		"old_value":  oldValue,
		"new_value":  newValue,
		"changed_by": changedBy,
	}).Info("Configuration changed")
}
