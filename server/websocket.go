package server

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/netterhq/netter/lang/interpreter"
)

// upgrader is shared across all WS routes; spec.md §4.9 places no
// restriction on origin checking, so it accepts any origin the way a
// development-oriented server would.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// serveWebSocket upgrades r if path matches a registered WS route and runs
// that route's body once for the lifetime of the connection (spec.md
// §4.9). It reports whether it handled the request at all, so the caller
// can fall through to the ordinary HTTP dispatch otherwise.
func (s *Server) serveWebSocket(rw http.ResponseWriter, r *http.Request) bool {
	route, params := s.interp.MatchWebSocketRoute(r.URL.Path)
	if route == nil {
		return false
	}

	conn, err := upgrader.Upgrade(rw, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", map[string]interface{}{"path": r.URL.Path, "error": err.Error()})
		return true
	}
	defer conn.Close()

	ws := interpreter.NewWebSocket(conn)
	s.interp.HandleWebSocket(route, params, ws)
	return true
}
