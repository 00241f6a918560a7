// Package shield holds the HTTP middleware every domcore listener runs:
// security headers, a request body cap and request IDs.
//
// Usage:
//
//	r := chi.NewRouter()
//	for _, mw := range shield.APIStack(10 << 20) {
//	    r.Use(mw)
//	}
package shield

import "net/http"

// APIStack returns the middleware for a JSON API, outermost first:
// RequestID → SecurityHeaders → MaxBody.
func APIStack(maxBody int64) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		RequestID,
		SecurityHeaders(APIHeaders()),
		MaxBody(maxBody),
	}
}
