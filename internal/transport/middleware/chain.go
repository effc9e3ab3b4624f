// Package middleware holds the HTTP middleware the pipeline server mounts
// in front of its REST handlers.
package middleware

import "net/http"

// Middleware wraps an http.Handler with extra behavior.
type Middleware func(http.Handler) http.Handler

// Chain composes middleware into one. Order is outermost first:
// Chain(mw1, mw2)(h) yields mw1(mw2(h)), so mw1 sees the request before
// mw2 and the response after it.
func Chain(mws ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			final = mws[i](final)
		}
		return final
	}
}
