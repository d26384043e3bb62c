// Package logging provides structured logging for workflow runs.
//
// # Overview
//
// Logging wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Stderr output by default, keeping stdout clean for command output
//   - Automatic context field injection (trace_id, run.id, feature.dir, phase)
//
// # Usage
//
// Create logger from config:
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
// Log with context:
//
//	ctx := logging.WithRunID(ctx, "run_8f14e45f")
//	ctx = logging.WithFeature(ctx, "003-user-auth")
//	ctx = logging.WithPhase(ctx, "plan")
//	logger.Info(ctx, "phase completed", zap.Duration("duration", d))
//
// Output includes automatic correlation:
//
//	{
//	  "ts": "2026-02-11T10:15:30Z",
//	  "level": "info",
//	  "msg": "phase completed",
//	  "run.id": "run_8f14e45f",
//	  "feature.dir": "003-user-auth",
//	  "phase": "plan",
//	  "duration": "45ms"
//	}
//
// # Configuration Precedence
//
// Configuration follows standard specflow precedence:
//  1. Defaults (NewDefaultConfig)
//  2. File (.specflow/config.yaml)
//  3. Environment variables (SPECFLOW_LOGGING_*)
//
// # Testing
//
// Use TestLogger for test assertions:
//
//	tl := logging.NewTestLogger()
//	tl.Info(ctx, "test message", zap.String("key", "value"))
//	tl.AssertLogged(t, zapcore.InfoLevel, "test message")
//	tl.AssertField(t, "test message", "key", "value")
//
// # Concurrency Safety
//
// Logger is safe for concurrent use. Child loggers (With, Named) are
// independent and do not affect parent or siblings.
package logging
