// Package logger provides structured logging for talkback using zerolog.
//
// It supports JSON and console output, per-logger levels, and
// component-scoped loggers. pipeline.Log and pipeline.Guard write through
// it, and the bootstrap runtime initialises the process-wide default from
// configuration.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("pipeline.guard")
//	log.Warn("protocol violation", logger.Fields(logger.FieldRule, "data before start"))
package logger
