package compress

import (
	"compress/gzip"
	"net/http"
)

// GzipWriter wraps an http.ResponseWriter and gzips everything written to it.
type GzipWriter struct {
	http.ResponseWriter
	zw          *gzip.Writer
	wroteHeader bool
}

// NewGzipWriter creates a GzipWriter over the given response writer.
func NewGzipWriter(w http.ResponseWriter) *GzipWriter {
	return &GzipWriter{
		ResponseWriter: w,
		zw:             gzip.NewWriter(w),
	}
}

// Write compresses data into the underlying response. An implicit 200 goes
// through WriteHeader first so the encoding header is always stamped.
func (g *GzipWriter) Write(p []byte) (int, error) {
	if !g.wroteHeader {
		g.WriteHeader(http.StatusOK)
	}
	return g.zw.Write(p)
}

// WriteHeader stamps the encoding header before the status goes out.
func (g *GzipWriter) WriteHeader(statusCode int) {
	if !g.wroteHeader {
		g.wroteHeader = true
		g.Header().Set("Content-Encoding", "gzip")
		g.Header().Del("Content-Length")
	}
	g.ResponseWriter.WriteHeader(statusCode)
}

// Close flushes the compressed stream.
func (g *GzipWriter) Close() error {
	return g.zw.Close()
}
