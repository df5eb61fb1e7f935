// Package google resolves caller-supplied Google OAuth credentials into an
// authenticated HTTP client for the Gmail API.
//
// The server stores no tokens. Every request carries its own access token
// (plus an optional refresh token and expiry), and Resolve turns them into
// a Handle that is used for the duration of one request:
//
//	handle, err := resolver.Resolve(ctx, google.Credentials{AccessToken: tok, RefreshToken: rt})
//	if err != nil {
//	    return err // an *apperr.Error
//	}
//	svc, err := gmail.NewService(ctx, option.WithHTTPClient(handle.HTTPClient()))
//	...
//	if handle.Refreshed() {
//	    // hand handle.EffectiveAccessToken() back to the caller
//	}
//
// A token whose expiry is known and past is refreshed before the handle is
// returned. A token with unknown expiry is refreshed when Google rejects it
// with HTTP 401. Either way the refresh happens at most once per handle.
package google
