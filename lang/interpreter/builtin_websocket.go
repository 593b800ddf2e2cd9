package interpreter

import "github.com/gorilla/websocket"

// WebSocket is the supplemental built-in backing `WS` routes
// (SPEC_FULL.md §4.9), restored from the original Rust implementation's
// websocket server (original_source/netter_core/src/servers/webcosket_core.rs),
// which the distilled specification dropped. It wraps one upgraded
// connection for the lifetime of a single `WS` route invocation.
type WebSocket struct {
	conn   *websocket.Conn
	closed bool
}

// NewWebSocket wraps an already-upgraded gorilla/websocket connection.
func NewWebSocket(conn *websocket.Conn) *WebSocket {
	return &WebSocket{conn: conn}
}

// CallMethod dispatches a WebSocket.<name>(args) invocation.
func (w *WebSocket) CallMethod(name string, args []string) (string, error) {
	switch name {
	case "recv":
		if w.closed {
			return "", runtimeErrorf("WebSocket.recv: connection is closed")
		}
		_, msg, err := w.conn.ReadMessage()
		if err != nil {
			return "", runtimeErrorf("WebSocket.recv: %s", err)
		}
		return string(msg), nil
	case "send":
		if len(args) != 1 {
			return "", runtimeErrorf("WebSocket.send expects 1 argument, got %d", len(args))
		}
		if w.closed {
			return "", runtimeErrorf("WebSocket.send: connection is closed")
		}
		if err := w.conn.WriteMessage(websocket.TextMessage, []byte(args[0])); err != nil {
			return "", runtimeErrorf("WebSocket.send: %s", err)
		}
		return "", nil
	case "close":
		if w.closed {
			return "", nil
		}
		w.closed = true
		return "", w.conn.Close()
	default:
		return "", runtimeErrorf("WebSocket has no method %q", name)
	}
}
