package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/Aldiyar97/quiz-league/realtime"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the frontend origin before exposing publicly.
		return true
	},
}

type WebSocketHandler struct {
	hub *realtime.Hub
}

func NewWebSocketHandler(hub *realtime.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// ServeWs subscribes the client to live leaderboard updates for one division.
// Clients connect to /ws/divisions/{id}.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	divisionID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || divisionID <= 0 {
		http.Error(w, "invalid division id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection for division %d: %v", divisionID, err)
		return
	}

	client := &realtime.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: realtime.DivisionRoom(divisionID),
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
