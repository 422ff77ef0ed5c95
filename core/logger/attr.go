package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// optional drops empty values; slog skips an empty Attr.
func optional(key, value string) slog.Attr {
	if value == "" {
		return slog.Attr{}
	}
	return slog.String(key, value)
}

// Error logs err under "error". A nil error yields nothing.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Errors groups the non-nil errors under "errors", keyed by position.
func Errors(errs ...error) slog.Attr {
	var as []slog.Attr
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

func Duration(d time.Duration) slog.Attr { return slog.Duration("duration", d) }

func Latency(d time.Duration) slog.Attr { return slog.Duration("latency", d) }

// Request attributes.

func RequestID(id string) slog.Attr { return optional("request_id", id) }
func Method(method string) slog.Attr { return slog.String("method", method) }
func Path(path string) slog.Attr     { return slog.String("path", path) }
func StatusCode(code int) slog.Attr  { return slog.Int("status_code", code) }
func ClientIP(ip string) slog.Attr   { return optional("client_ip", ip) }
func UserAgent(ua string) slog.Attr  { return optional("user_agent", ua) }
func BytesOut(n int64) slog.Attr     { return slog.Int64("bytes_out", n) }

// Session attributes.

// Client identifies the browser profile a session slot belongs to.
func Client(id string) slog.Attr { return optional("client_id", id) }

// Identity is the login identity of a record. Secrets are never logged.
func Identity(identity string) slog.Attr { return optional("identity", identity) }

// Reason says why a session ended: "logout" or "idle".
func Reason(reason string) slog.Attr { return optional("reason", reason) }

func Component(name string) slog.Attr { return slog.String("component", name) }

func Event(name string) slog.Attr { return slog.String("event", name) }

func Result(result string) slog.Attr { return optional("result", result) }

// Key logs an arbitrary value. A nil value yields nothing.
func Key(key string, value any) slog.Attr {
	if value == nil {
		return slog.Attr{}
	}
	return slog.Any(key, value)
}
