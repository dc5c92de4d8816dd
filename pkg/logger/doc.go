// Package logger builds the *slog.Logger instances used across coachkit.
//
// New takes functional options for format, level, output, static attributes
// and context extractors. WithEnvironment applies the per-stage preset:
// readable text at debug level in development, JSON at info level elsewhere.
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "coachctl"),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "token refreshed",
//		logger.Component("session"),
//		logger.ExpiresIn(time.Hour),
//	)
//
// Attribute helpers (Error, Method, URL, Status, Attempt, UserID, ...) keep
// key names consistent between the session manager and the API client.
// Helpers that receive an empty value return an empty slog.Attr, which slog
// omits, so call sites need no nil checks.
//
// Components that accept a logger fall back to Discard when none is given.
package logger
