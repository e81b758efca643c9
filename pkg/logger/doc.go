// Package logger builds the slog.Logger used across the service.
//
// [New] picks a JSON or text handler from [Config], wraps it so that
// [ContextExtractor] functions can lift request-scoped values (request id,
// provider name) into every record, and fans records out to Sentry when a
// DSN is configured:
//
//	log, err := logger.New(cfg.Log, os.Stdout,
//		logger.FromContext("request_id", middleware.GetReqID),
//	)
//	if err != nil {
//		return err
//	}
//	defer logger.Flush(2 * time.Second)
//
// Errors become Sentry issues; warnings are kept as Sentry logs unless
// SENTRY_MIN_LEVEL is raised to ERROR. A Sentry init failure is reported on
// the local handler and logging carries on without it.
package logger
