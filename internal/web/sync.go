package web

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/testportal/core/handler"
	"github.com/dmitrymomot/testportal/core/idle"
	"github.com/dmitrymomot/testportal/core/logger"
	"github.com/dmitrymomot/testportal/core/response"
	"github.com/dmitrymomot/testportal/core/router"
)

const (
	frameActivity = "activity"
	frameSession  = "session"

	maxFrameBytes = 512
)

// ClientFrame is sent by a tab over the sync socket.
type ClientFrame struct {
	Type   string `json:"type"`
	Signal string `json:"signal,omitempty"`
}

// ServerFrame tells a tab about its session. Identity names the record in
// the slot; a tab showing another identity reloads. Redirect is set when
// the tab has to leave the page.
type ServerFrame struct {
	Type     string `json:"type"`
	Present  bool   `json:"present"`
	Identity string `json:"identity,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

func (h *handlers) sync(ctx *router.Context) handler.Response {
	client := clientOf(ctx)
	return response.WebSocket(response.Socket{
		ReadBuffer:       maxFrameBytes,
		HandshakeTimeout: h.cfg.WriteTimeout,
		OnError: func(ctx context.Context, err error) {
			h.log.WarnContext(ctx, "session sync failed",
				logger.Component("sync"),
				logger.Client(client),
				logger.Error(err),
			)
		},
	}, func(reqCtx context.Context, conn *websocket.Conn) error {
		return h.runSync(reqCtx, client, conn)
	})
}

// runSync pumps activity frames from the tab into the idle monitor and
// session states from the portal to the tab. It returns when either side
// goes away, the session ends or the server shuts down.
func (h *handlers) runSync(parent context.Context, client string, conn *websocket.Conn) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	states := h.portal.Watch(ctx, client)
	pongWait := h.cfg.PingInterval * 2

	conn.SetReadLimit(maxFrameBytes)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if gctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
					return nil
				}
				return err
			}

			var frame ClientFrame
			if err := json.Unmarshal(data, &frame); err != nil || frame.Type != frameActivity {
				continue
			}
			sig, err := idle.ParseSignal(frame.Signal)
			if err != nil {
				continue
			}
			h.portal.Activity(ctx, client, sig)
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		}
	})

	g.Go(func() error {
		defer func() {
			cancel()
			_ = conn.Close()
		}()

		ping := time.NewTicker(h.cfg.PingInterval)
		defer ping.Stop()

		for {
			select {
			case <-gctx.Done():
				h.closeFrame(conn, websocket.CloseNormalClosure)
				return nil
			case <-h.shutdown:
				h.closeFrame(conn, websocket.CloseGoingAway)
				return nil
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(h.cfg.WriteTimeout)); err != nil {
					return nil
				}
			case st, ok := <-states:
				if !ok {
					return nil
				}
				frame := ServerFrame{Type: frameSession, Present: st.Present, Identity: st.Identity}
				if !st.Present {
					frame.Redirect = "/"
				}
				_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
				if err := conn.WriteJSON(frame); err != nil {
					return err
				}
				if !st.Present {
					h.closeFrame(conn, websocket.CloseNormalClosure)
					return nil
				}
			}
		}
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (h *handlers) closeFrame(conn *websocket.Conn, code int) {
	msg := websocket.FormatCloseMessage(code, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(h.cfg.WriteTimeout))
}
