// Package requestid carries request correlation IDs through a context.
//
// The API client stamps every outgoing call with an X-Request-ID header. Ensure
// reuses an ID already stored in the context, so a caller can tie several
// requests (a retry after a token refresh, for example) to one user action:
//
//	ctx, id := requestid.Ensure(ctx)
//	logger.InfoContext(ctx, "loading profile", logger.RequestID(id))
//
// Middleware does the same on the receiving side and is used by the fake
// backend in tests. LoggerExtractor plugs the ID into slog records built with
// the logger package.
package requestid
