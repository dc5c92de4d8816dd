// Package apiclient is the HTTP client for the coaching backend's JSON API.
//
// Every request carries the bearer token from a TokenSource (normally a
// *session.Manager), the cookies of the shared http.Client and an
// X-Request-ID. A 401 answer triggers one forced token renewal and one retry;
// there are never more than two network calls per Do.
//
// GET responses that carry an ETag are cached per URL. The next GET of that
// URL sends If-None-Match, and a 304 answer is served from the cache. The
// cache belongs to the Client; PurgeCache empties it, which the coachkit
// facade does on logout.
//
//	api := apiclient.New("https://api.example.com", manager,
//		apiclient.WithHTTPClient(httpClient),
//		apiclient.WithOnAuthRequired(func(ctx context.Context, err *apiclient.APIError) {
//			manager.NotifyAuthRequired(ctx, err.Message)
//		}),
//	)
//
//	var programs []Program
//	if err := api.Get(ctx, "/api/programs", &programs); err != nil {
//		fmt.Println(apiclient.Humanize(err))
//	}
//
// Responses wrapped as {"data": ...} are unwrapped before decoding. Errors
// shaped {"error": {"message", "code", "details"}} become *APIError; branch on
// its Status or use Humanize for display text.
package apiclient
