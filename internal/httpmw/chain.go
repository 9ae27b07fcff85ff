package httpmw

import "net/http"

// Chain wraps h so that mws[0] is outermost. Nil entries are skipped, which
// lets callers leave optional middleware in place.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			h = mws[i](h)
		}
	}
	return h
}
