package response

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/testportal/core/handler"
)

// Socket describes a websocket endpoint. The zero value uses 1 KiB buffers
// and gorilla's same-origin check.
type Socket struct {
	ReadBuffer       int
	WriteBuffer      int
	HandshakeTimeout time.Duration
	CheckOrigin      func(*http.Request) bool
	// OnError receives upgrade failures and the error returned by the
	// connection function. The HTTP side of a failed upgrade is already
	// answered by the upgrader.
	OnError func(context.Context, error)
}

// WebSocket upgrades the request and runs fn on the connection, closing it
// once fn returns. fn owns the close handshake.
func WebSocket(s Socket, fn func(context.Context, *websocket.Conn) error) handler.Response {
	up := websocket.Upgrader{
		ReadBufferSize:   orDefault(s.ReadBuffer, 1024),
		WriteBufferSize:  orDefault(s.WriteBuffer, 1024),
		HandshakeTimeout: s.HandshakeTimeout,
		CheckOrigin:      s.CheckOrigin,
	}
	report := func(ctx context.Context, err error) {
		if err != nil && s.OnError != nil {
			s.OnError(ctx, err)
		}
	}

	return func(w http.ResponseWriter, r *http.Request) error {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			report(r.Context(), err)
			return nil
		}
		defer conn.Close()

		report(r.Context(), fn(r.Context(), conn))
		return nil
	}
}

func orDefault(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
