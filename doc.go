// Package coachkit is the client side of the coaching platform API: it keeps
// a user signed in, renews access tokens before they expire and performs
// authenticated requests with conditional caching.
//
// The Kit wires the building blocks from pkg/ together:
//
//   - session.Manager holds the access token, renews it through the refresh
//     endpoint (one renewal in flight at a time) and emits session events.
//   - apiclient.Client adds the bearer token, retries once after a 401,
//     revalidates GET responses with ETags and unwraps {data} envelopes.
//   - account.Service covers the profile and password endpoints.
//
// Basic Usage:
//
//	cfg, err := coachkit.LoadConfig()
//	if err != nil {
//		return err
//	}
//
//	kit, err := coachkit.New(ctx, cfg, coachkit.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	defer kit.Close()
//
//	// Restore a previous session, if any.
//	if ok, _ := kit.Start(ctx).Await(); !ok {
//		if err := kit.Session.Login(ctx, email, password); err != nil {
//			return err
//		}
//	}
//
//	profile, err := kit.Account.Profile(ctx)
//
// Logging out purges the API cache. A request that stays unauthorized after
// a renewal publishes session.EventAuthRequired, which UIs use to route the
// user to the sign-in screen.
//
// Development builds may persist the refresh secret between runs
// (DEV_PERSIST_REFRESH=true) in a bbolt file or in Redis. The setting is
// ignored in staging and production.
package coachkit
