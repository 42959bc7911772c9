// Package logger provides the structured logging interface used across pfpharvest.
//
// It wraps zerolog and adds two default fields to every line: app=pfpharvest and a
// run_id that is unique per process, so log files from several runs can be told apart.
//
// Basic Usage:
//
//	err := logger.Initialize(&config.LoggingConfig{Level: "info", File: "outputs/errors.log"})
//	log := logger.GetLogger().WithField("component", "gateway")
//	log.WithError(err).Warn("Gateway attempt failed")
//
// Components receive a Logger explicitly; the package level helpers
// (LogRequest, LogFetchAttempt, LogProgress) take it as their first argument.
//
// When Level is "debug", every gateway attempt and catalog request is logged.
// When File is set, lines are written to the console and appended as JSON to File.
package logger
