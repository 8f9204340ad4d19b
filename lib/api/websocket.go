package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/fosdem/happlay/lib/movie"
	"github.com/fosdem/happlay/lib/stats"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(req *http.Request) bool {
		return true
	},
}

type statusPacket struct {
	Event  string         `json:"event"`
	Stats  *stats.Stats   `json:"stats"`
	Movies []movie.Status `json:"movies"`
}

// @Summary	Open websocket for realtime status information
// @Router		/api/ws [get]
// @Param		Upgrade	header	string	true	"websocket"
// @Tags		base
// @Success	101
func (a *Api) handleWebsocket(w http.ResponseWriter, req *http.Request) {
	ws, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		a.log.Warn("couldn't make websocket", "err", err)
		return
	}
	defer func(ws *websocket.Conn) {
		err := ws.Close()
		if err != nil {
			a.log.Debug("could not close websocket", "err", err)
		}
	}(ws)
	a.setClient(ws, true)

	done := make(chan struct{})
	defer close(done)
	go a.websocketWriter(ws, done)

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			a.setClient(ws, false)
			break
		}
		a.log.Debug("websocket message ignored", "msg", string(msg))
	}
}

func (a *Api) setClient(ws *websocket.Conn, connected bool) {
	a.wsMu.Lock()
	defer a.wsMu.Unlock()
	if connected {
		a.wsClients[ws] = &sync.Mutex{}
	} else {
		delete(a.wsClients, ws)
	}
	a.Stats.SetWsClients(len(a.wsClients))
}

// write sends one packet. A connection allows a single writer at a time.
func (a *Api) write(ws *websocket.Conn, packet []byte) error {
	a.wsMu.Lock()
	writeMu, ok := a.wsClients[ws]
	a.wsMu.Unlock()
	if !ok {
		return websocket.ErrCloseSent
	}

	writeMu.Lock()
	defer writeMu.Unlock()
	err := ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err != nil {
		return err
	}
	return ws.WriteMessage(websocket.TextMessage, packet)
}

func (a *Api) broadcast(packet []byte) {
	a.wsMu.Lock()
	clients := make([]*websocket.Conn, 0, len(a.wsClients))
	for ws := range a.wsClients {
		clients = append(clients, ws)
	}
	a.wsMu.Unlock()

	for _, ws := range clients {
		if err := a.write(ws, packet); err != nil {
			a.log.Debug("could not send event", "err", err)
		}
	}
}

func (a *Api) statusPacket() ([]byte, error) {
	snap := a.Stats.Snapshot()
	return json.Marshal(statusPacket{
		Event:  "status",
		Stats:  &snap,
		Movies: a.player.Statuses(),
	})
}

func (a *Api) websocketWriter(ws *websocket.Conn, done <-chan struct{}) {
	pingTicker := time.NewTicker(a.WsInterval)
	defer pingTicker.Stop()

	for {
		packet, err := a.statusPacket()
		if err != nil {
			a.log.Error("could not encode status", "err", err)
			return
		}
		if err := a.write(ws, packet); err != nil {
			return
		}

		select {
		case <-done:
			return
		case <-pingTicker.C:
		}
	}
}
