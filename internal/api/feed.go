package api

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser origins are already filtered by the CORS middleware; the
	// session token check below is the real gate.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// FeedSocket upgrades the connection and streams report events until the
// client disconnects. Authentication uses the token query parameter since
// browsers cannot set headers on WebSocket requests.
func (a *API) FeedSocket(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.Sessions.Validate(r.Context(), bearerToken(r)); !ok {
		writeJSON(w, http.StatusUnauthorized, response{Success: false, Message: "Invalid or expired session"})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("⚠️ Feed upgrade failed: %v", err)
		return
	}

	a.Feed.Register(conn)
	log.Println("✅ Review console connected to report feed")

	defer func() {
		a.Feed.Unregister(conn)
		conn.Close()
		log.Println("⚠️ Review console disconnected from report feed")
	}()

	// Reads are discarded; the feed is one-way. The read loop exists to
	// detect disconnects and answer control frames.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
