package security

import "net/http"

// BodySizeLimit caps request bodies at max bytes. Reads past the limit
// surface as *http.MaxBytesError, which the schema validator turns into
// a 413.
func BodySizeLimit(max int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if max > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, max)
			}
			next.ServeHTTP(w, r)
		})
	}
}
