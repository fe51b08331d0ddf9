package middleware

import (
	"net/http"
	"strings"

	"github.com/drstein77/storefront/internal/compress"
)

// CompressResponseMiddleware gzips catalog payloads when the client accepts
// it. Product listings are large enough to be worth compressing; clients that
// do not send Accept-Encoding get the plain response.
func CompressResponseMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// By default set the original http.ResponseWriter
		ow := w

		acceptEncoding := r.Header.Get("Accept-Encoding")
		if strings.Contains(acceptEncoding, "gzip") {
			gw := compress.NewGzipWriter(w)
			ow = gw
			defer gw.Close()
		}

		h.ServeHTTP(ow, r)
	})
}
