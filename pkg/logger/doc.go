// Package logger provides a small factory around log/slog plus typed
// attribute helpers shared by every component of the bot.
//
// The factory builds a slog.Logger from functional options (format, level,
// output, static attributes) and wraps the handler in a decorator that can
// inject request-scoped values from context, such as a verification flow id.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithProduction("flipperbot"),
//	    logger.WithContextValue("flow_id", flowIDContextKey),
//	)
//	log.Info("verification resolved",
//	    logger.Component("verification"),
//	    logger.UserID(userID),
//	)
//
// Services that accept an optional *slog.Logger default to logger.NewDiscard
// so logging is never a nil check at the call site.
//
// The Redacted helper exists for sensitive values: it truncates to a short
// prefix so correlation tokens and access tokens never appear in full in any
// log output.
package logger
