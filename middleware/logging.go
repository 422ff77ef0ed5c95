package middleware

import (
	"bufio"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dmitrymomot/testportal/core/handler"
	"github.com/dmitrymomot/testportal/core/logger"
	"github.com/dmitrymomot/testportal/core/response"
)

// SlowRequestThreshold upgrades completed-request logs to warn.
const SlowRequestThreshold = 3 * time.Second

// Logging writes one record per completed request. 5xx responses are logged
// at error, 4xx and slow requests at warn, everything else at info.
// Requests for which skip returns true are not logged.
func Logging[C handler.Context](log *slog.Logger, skip ...func(C) bool) handler.Middleware[C] {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.Component("http"))

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			for _, s := range skip {
				if s(ctx) {
					return next(ctx)
				}
			}

			start := time.Now()
			req := ctx.Request()
			resp := next(ctx)

			return func(w http.ResponseWriter, r *http.Request) error {
				rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
				err := resp(rec, r)
				elapsed := time.Since(start)

				// Errors are rendered by the router after this returns.
				status := rec.status
				if err != nil && !rec.wroteHeader {
					status = response.ToHTTPError(err).Status
				}

				attrs := []slog.Attr{
					logger.Method(req.Method),
					logger.Path(req.URL.Path),
					logger.StatusCode(status),
					logger.BytesOut(rec.size),
					logger.Latency(elapsed),
				}
				if ip, ok := GetClientIP(ctx); ok {
					attrs = append(attrs, logger.ClientIP(ip))
				}
				if ua := req.UserAgent(); ua != "" {
					attrs = append(attrs, logger.UserAgent(ua))
				}

				level := slog.LevelInfo
				switch {
				case status >= http.StatusInternalServerError:
					level = slog.LevelError
				case status >= http.StatusBadRequest || elapsed > SlowRequestThreshold:
					level = slog.LevelWarn
				}
				if err != nil {
					attrs = append(attrs, logger.Error(err))
				}

				log.LogAttrs(req.Context(), level, "http request", attrs...)
				return err
			}
		}
	}
}

// statusRecorder captures the status and size of a response. It forwards
// Flush, Hijack and Unwrap so streaming and WebSocket upgrades keep working.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	size        int64
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.wroteHeader {
		s.status = code
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if !s.wroteHeader {
		s.WriteHeader(http.StatusOK)
	}
	n, err := s.ResponseWriter.Write(b)
	s.size += int64(n)
	return n, err
}

func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	s.status = http.StatusSwitchingProtocols
	return http.NewResponseController(s.ResponseWriter).Hijack()
}
