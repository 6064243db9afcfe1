package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"

	"github.com/bennyh960/stupid-chat-app/internal/models"
	"github.com/bennyh960/stupid-chat-app/pkg/logger"
)

var SocketServer *socketio.Server

// chatRoom is the single room every connected client joins. The relay has
// exactly one conversation, so there is no per-user fan-out.
const chatRoom = "chat"

// InitSocketServer starts the best-effort real-time channel. Clients that
// receive (or miss) these events still reconcile by polling GET /api/chat;
// nothing here is a source of truth.
func InitSocketServer() *socketio.Server {
	server := socketio.NewServer(&engineio.Options{
		Transports: []transport.Transport{
			&websocket.Transport{
				CheckOrigin: func(r *http.Request) bool { return true },
			},
			&polling.Transport{
				CheckOrigin: func(r *http.Request) bool { return true },
			},
		},
	})

	server.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext("")
		s.Join(chatRoom)
		logger.Debug().Str("socket", s.ID()).Msg("Socket connected")
		return nil
	})

	// Pure client-to-client relay: echo the payload to everyone else,
	// without touching the store.
	server.OnEvent("/", "send-message", func(s socketio.Conn, data map[string]interface{}) {
		server.ForEach("/", chatRoom, func(conn socketio.Conn) {
			if conn.ID() != s.ID() {
				conn.Emit("receive-message", data)
			}
		})
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		logger.Debug().Str("socket", s.ID()).Str("reason", reason).Msg("Socket disconnected")
	})

	server.OnError("/", func(s socketio.Conn, e error) {
		logger.Warn().Err(e).Msg("Socket error")
	})

	go server.Serve()
	SocketServer = server
	return server
}

// BroadcastMessageSent is the store's post-append notification hook. Fire
// and forget: a dropped event only delays clients until their next poll.
func BroadcastMessageSent(msg models.Message) {
	if SocketServer != nil {
		SocketServer.BroadcastToRoom("/", chatRoom, "message_sent", msg)
	}
}

// SocketHandler wraps the socket.io server for gin.
func SocketHandler(server *socketio.Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		server.ServeHTTP(c.Writer, c.Request)
	}
}
