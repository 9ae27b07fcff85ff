package httpmw

import "net/http"

// MaxBody caps request bodies at n bytes. Reading past the cap fails with
// *http.MaxBytesError. The site only accepts GET and HEAD, so any body is
// unexpected.
func MaxBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}
