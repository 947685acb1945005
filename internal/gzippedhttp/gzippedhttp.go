// Package gzippedhttp transparently decompresses gzip request bodies and
// compresses responses for clients that accept gzip.
package gzippedhttp

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

var writerPool = sync.Pool{
	New: func() interface{} {
		return gzip.NewWriter(io.Discard)
	},
}

type compressedReader struct {
	body io.ReadCloser
	zr   *gzip.Reader
}

func (c *compressedReader) Read(p []byte) (int, error) {
	return c.zr.Read(p)
}

func (c *compressedReader) Close() error {
	if err := c.zr.Close(); err != nil {
		return err
	}

	return c.body.Close()
}

type compressedWriter struct {
	http.ResponseWriter
	zw *gzip.Writer
}

func (c *compressedWriter) Write(p []byte) (int, error) {
	return c.zw.Write(p)
}

// WithGzip is the middleware wiring both directions of compression.
func WithGzip(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		if strings.Contains(request.Header.Get("Content-Encoding"), "gzip") {
			zr, err := gzip.NewReader(request.Body)
			if err != nil {
				http.Error(response, err.Error(), http.StatusBadRequest)

				return
			}
			request.Body = &compressedReader{body: request.Body, zr: zr}
		}

		if !strings.Contains(request.Header.Get("Accept-Encoding"), "gzip") {
			h.ServeHTTP(response, request)

			return
		}

		zw := writerPool.Get().(*gzip.Writer)
		zw.Reset(response)
		defer func() {
			_ = zw.Close()
			writerPool.Put(zw)
		}()

		response.Header().Set("Content-Encoding", "gzip")
		h.ServeHTTP(&compressedWriter{ResponseWriter: response, zw: zw}, request)
	}

	return http.HandlerFunc(middleware)
}
