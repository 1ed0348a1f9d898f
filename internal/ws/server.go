package ws

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type Server struct {
	hub *Hub
}

func NewServer(hub *Hub) *Server {
	return &Server{
		hub: hub,
	}
}

func (s *Server) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error(err.Error())
		return
	}

	client := &client{
		hub:  s.hub,
		conn: conn,
		send: make(chan Message, 16),
	}

	s.hub.register <- client

	go client.writePump()
	go client.readPump()
}
