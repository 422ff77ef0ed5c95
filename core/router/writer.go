package router

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
)

// trackingWriter remembers the status sent so the error handler and the
// panic path know whether the response is already committed.
type trackingWriter struct {
	http.ResponseWriter
	status int
}

func (w *trackingWriter) WriteHeader(code int) {
	if w.status != 0 {
		return
	}
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *trackingWriter) Write(p []byte) (int, error) {
	w.WriteHeader(http.StatusOK)
	return w.ResponseWriter.Write(p)
}

func (w *trackingWriter) Flush() {
	_ = http.NewResponseController(w.ResponseWriter).Flush()
}

// Hijack hands the connection to the websocket upgrader. The response then
// counts as 101 Switching Protocols.
func (w *trackingWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	conn, rw, err := http.NewResponseController(w.ResponseWriter).Hijack()
	if err != nil {
		return nil, nil, fmt.Errorf("router: hijack: %w", err)
	}
	w.status = http.StatusSwitchingProtocols
	return conn, rw, nil
}

func (w *trackingWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
