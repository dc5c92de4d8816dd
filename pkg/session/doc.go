// Package session manages the access credential of an API client.
//
// A Manager logs in against the backend's /api/auth endpoints, keeps the
// returned access token in memory and renews it through /api/auth/refresh.
// Renewal is single-flight: callers that need a token while a renewal is
// running all wait for that one request. A timer renews the token shortly
// before it expires (Config.ProactiveSkew), so callers rarely wait at all.
//
//	m := session.New("https://api.example.com",
//		session.WithHTTPClient(httpClient),
//		session.WithLogger(log),
//	)
//	defer m.Close()
//
//	m.Start(ctx) // restore a previous session from the cookie jar
//	if err := m.Login(ctx, "a@b.com", "secret"); err != nil {
//		return err
//	}
//	token, ok := m.Token(ctx)
//
// # Failure policy
//
// A failed renewal never logs the user out. The held credential stays in place
// and State().Authenticated stays true; Token simply reports false once the
// old token is within Config.TokenMargin of its expiry. Only Logout clears the
// session. Login and Register return errors (ErrInvalidCredentials,
// *RegistrationError, ErrTransport); renewal failures surface as
// EventRefreshFailed and a warning log line.
//
// # Refresh transport
//
// By default the refresh secret lives in an HTTP-only cookie handled by the
// http.Client's cookie jar. TransportHeader instead sends the secret returned
// by login in the X-Refresh-Token header. A SecretStore can mirror that secret
// to disk or Redis for development (see the boltstore and redisstore
// subpackages); never enable it in production.
//
// # Events
//
// Observers registered with WithObserver run synchronously for every Event.
// Subscribe returns an asynchronous stream backed by pkg/broadcast.
// EventLoggedOut is the signal dependent caches use to purge identity
// sensitive data.
package session
