package logging

import (
	"log/slog"
)

// WithComponent creates a logger with component/subsystem context.
//
// Example:
//
//	log := logging.WithComponent("optimizer")
//	log.Info("search finished", "cost", cost)
func WithComponent(component string) *slog.Logger {
	return GetLogger().With("component", component)
}

// WithOperator creates a logger for one operator instance, keyed by the
// operator kind and the id it drew from the execution context.
//
// Example:
//
//	log := logging.WithOperator("ExternalSort", 7)
//	log.Debug("run written", "run", 3, "tuples", 120)
func WithOperator(kind string, id int64) *slog.Logger {
	return GetLogger().With("operator", kind, "op_id", id)
}

// WithTable creates a logger with table context.
func WithTable(tableName string) *slog.Logger {
	return GetLogger().With("table", tableName)
}

// WithQuery creates a logger carrying the query text.
func WithQuery(sql string) *slog.Logger {
	return GetLogger().With("query", sql)
}

// WithError creates a logger with error context.
func WithError(err error) *slog.Logger {
	return GetLogger().With("error", err.Error())
}
