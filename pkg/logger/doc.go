// Package logger wraps Go's slog package with functional options, shared
// attribute constructors, and transparent injection of context values.
//
// New builds a *slog.Logger from Option functions: output format (text or
// json), minimum level, static attributes, and ContextExtractor callbacks
// that pull request-scoped values out of context.Context on every record.
// The verification engines accept the result through their WithLogger
// options.
//
//	log := logger.New(
//	    logger.WithProduction("mfa-service"),
//	    logger.WithContextValue("request_id", ctxKeyRequestID),
//	)
//	logger.SetAsDefault(log)
//
//	log.InfoContext(ctx, "factor verified",
//	    logger.UserID(userID),
//	    logger.Factor("totp"),
//	)
//
// Attribute constructors in attr.go keep key naming consistent: Error and
// Errors emit nothing for nil errors, so call sites need no nil checks.
package logger
