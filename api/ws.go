package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return loopbackOrigin(r.Header.Get("Origin")) },
}

const writeWait = 5 * time.Second

// StreamSession handles GET /v1/session/ws. It pushes a Status every refresh
// interval until the client goes away.
func (s *Server) StreamSession(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("websocket upgrade", "error", err)
		}
		return
	}
	defer conn.Close()

	// Reads only detect the close; clients send nothing.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	t := time.NewTicker(s.refresh)
	defer t.Stop()
	for {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(s.status()); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && s.logger != nil {
				s.logger.Debug("websocket write", "error", err)
			}
			return
		}
		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case <-t.C:
		}
	}
}
