package logger

import (
	"bytes"
	"io"
	"net/http"
	"time"

	chimd "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Middleware writes one access-log line per request.
type Middleware struct {
	log    *zap.Logger
	bodies *bodyAllowlist
}

func NewMiddleware(l *zap.Logger, bodyPaths []string) *Middleware {
	if l == nil {
		l = zap.NewNop()
	}
	return &Middleware{log: l, bodies: newBodyAllowlist(bodyPaths)}
}

func (m *Middleware) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimd.NewWrapResponseWriter(w, r.ProtoMajor)

			// Only buffer what might be logged; app payloads can be large.
			var body []byte
			if r.Body != nil && r.ContentLength >= 0 && r.ContentLength <= 1<<16 {
				// on a failed read the original body stays, so the handler sees the error
				if b, err := io.ReadAll(r.Body); err == nil {
					body = b
					r.Body.Close()
					r.Body = io.NopCloser(bytes.NewReader(body))
				}
			}

			scheme := "http"
			if r.TLS != nil {
				scheme = "https"
			}

			start := time.Now()
			defer func() {
				log := m.log.With(
					zap.String("dateTime", start.UTC().Format(time.RFC1123)),
					zap.String("requestId", chimd.GetReqID(r.Context())),
					zap.String("httpScheme", scheme),
					zap.String("httpProto", r.Proto),
					zap.String("httpMethod", r.Method),
					zap.String("remoteAddr", r.RemoteAddr),
					zap.String("uri", r.URL.Path),
					zap.Duration("lat", time.Since(start)),
					zap.Int("responseSize", ww.BytesWritten()),
					zap.Int("status", ww.Status()),
				)

				// Redact by default; allowlist small JSON bodies only.
				if m.shouldLogBody(r, body) {
					log.Info("http request", zap.ByteString("requestData", body))
				} else {
					log.Info("http request")
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
