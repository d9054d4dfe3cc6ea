// Package logging provides the process-wide structured logger for qexec.
//
// The package wraps [log/slog] behind a single global logger. Subsystems
// obtain loggers through GetLogger or one of the context helpers instead of
// building their own, so level and destination are controlled in one place.
//
// # Initialisation
//
// Call Init once at program startup:
//
//	if err := logging.Init(logging.Config{Level: logging.LevelDebug}); err != nil {
//	    log.Fatal(err)
//	}
//
// If GetLogger is called before Init, a WARN-level stderr logger is
// installed lazily so that tests and library callers stay quiet.
//
// # Context helpers
//
//	logging.WithComponent("optimizer")     // component=optimizer
//	logging.WithOperator("SortMergeJoin", 3) // operator=SortMergeJoin op_id=3
//	logging.WithTable("orders")            // table=orders
//	logging.WithQuery(sql)                 // query=...
//	logging.WithError(err)                 // error=...
package logging
