// Package logger provides structured logging for inatphotos.
//
// It wraps zerolog behind a small Logger interface so components can take a
// logger as a dependency and tests can swap in a TestLogger that records
// messages in memory.
//
//	logger.Initialize(&cfg.Logging)
//	log := logger.GetLogger().WithField("run_id", runID)
//	log.InfoWithFields("Fetched observation", map[string]interface{}{
//	    "observation_id": "12345",
//	    "photos":         3,
//	})
//
// With no log file configured, output goes to stdout through zerolog's console
// writer. Setting logging.file switches to JSON lines appended to that file.
package logger
