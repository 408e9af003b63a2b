// Package logging provides structured logging with OpenTelemetry integration.
//
// # Overview
//
// The package builds a *zap.Logger with:
//   - Dual output (stdout + OpenTelemetry via the otelzap bridge)
//   - Defense-in-depth secret redaction (field names and value patterns)
//   - Constant service fields from config
//
// # Usage
//
// Create a logger from config:
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.New(cfg, otelProvider)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync(logger)
//
//	logger.Info("reflection run complete", zap.Duration("duration", d))
//
// # Secret Redaction
//
// Provider API keys flow through reflectd configuration, so redaction is
// layered:
//  1. Domain primitives (config.Secret type)
//  2. Encoder-level field name filtering
//  3. Encoder-level pattern matching (bearer tokens, api keys, sk- keys)
//
// Use helpers for manual redaction:
//
//	logger.Info("auth received",
//	    logging.RedactedString("authorization", authHeader))
//
// # Testing
//
// Use the observer-backed test logger for assertions:
//
//	logger, logs := logging.NewTestLogger()
//	logger.Info("test message")
//	logging.AssertLogged(t, logs, zapcore.InfoLevel, "test message")
//	logging.AssertNoSecrets(t, logs)
package logging
