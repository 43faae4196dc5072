package middleware

import (
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
)

// CompressConfig defines response compression configuration.
type CompressConfig struct {
	Level int
	// Exclude lists path prefixes and suffixes whose responses are sent as is
	Exclude []string
}

// DefaultCompressConfig skips already-compressed frames and the metrics
// endpoint, which negotiates its own encoding.
func DefaultCompressConfig() CompressConfig {
	return CompressConfig{
		Level:   gzip.DefaultCompression,
		Exclude: []string{"/metrics", ".png"},
	}
}

type gzipWriter struct {
	gin.ResponseWriter
	gz      *gzip.Writer
	started bool
}

func (w *gzipWriter) Write(b []byte) (int, error) {
	if !w.started {
		w.started = true
		h := w.Header()
		h.Set("Content-Encoding", "gzip")
		h.Add("Vary", "Accept-Encoding")
		h.Del("Content-Length")
	}
	return w.gz.Write(b)
}

func (w *gzipWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Compress gzips response bodies for clients that accept it. WebSocket
// upgrades and excluded paths pass through untouched.
func Compress(cfg CompressConfig) gin.HandlerFunc {
	writers := sync.Pool{
		New: func() interface{} {
			gz, err := gzip.NewWriterLevel(io.Discard, cfg.Level)
			if err != nil {
				gz = gzip.NewWriter(io.Discard)
			}
			return gz
		},
	}

	return func(c *gin.Context) {
		if !acceptsGzip(c.Request) || excluded(c.Request.URL.Path, cfg.Exclude) {
			c.Next()
			return
		}

		gz := writers.Get().(*gzip.Writer)
		gz.Reset(c.Writer)
		w := &gzipWriter{ResponseWriter: c.Writer, gz: gz}
		c.Writer = w

		defer func() {
			if w.started {
				_ = gz.Close()
			}
			gz.Reset(io.Discard)
			writers.Put(gz)
		}()
		c.Next()
	}
}

func acceptsGzip(r *http.Request) bool {
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return false
	}
	return strings.Contains(r.Header.Get("Accept-Encoding"), "gzip")
}

func excluded(path string, rules []string) bool {
	for _, rule := range rules {
		if strings.HasPrefix(path, rule) || strings.HasSuffix(path, rule) {
			return true
		}
	}
	return false
}
