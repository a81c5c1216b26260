package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"xclone/internal/logger"
)

// RequestLogger writes one structured line per request.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("ip", clientIP(r)),
			logger.WithRequestID(chimw.GetReqID(r.Context())),
		}

		switch {
		case ww.Status() >= http.StatusInternalServerError:
			logger.Log.Error("[HTTP] Request", fields...)
		case ww.Status() >= http.StatusBadRequest:
			logger.Log.Warn("[HTTP] Request", fields...)
		default:
			logger.Log.Info("[HTTP] Request", fields...)
		}
	})
}
