package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/stemsi/classpoints-backend/internal/events"
	"github.com/stemsi/classpoints-backend/internal/service"
	ws "github.com/stemsi/classpoints-backend/internal/websocket"
)

const maxClientMessage = 512

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams bus events to the classroom screen.
type WSHandler struct {
	classroom *service.ClassroomService
	bus       events.Bus
	log       zerolog.Logger
	upgrader  websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(classroom *service.ClassroomService, bus events.Bus, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		classroom: classroom,
		bus:       bus,
		log:       log.With().Str("component", "ws_handler").Logger(),
		upgrader:  buildUpgrader(allowedOrigins),
	}
}

// Stream godoc
// WS /ws/v1/stream
// Sends a hello with the current session, then every bus event. Client
// actions (ping, dismiss_feedback, close_student) are answered on the same
// socket.
func (h *WSHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	sub := h.bus.Subscribe()
	defer h.bus.Unsubscribe(sub)

	wsLog := h.log.With().Str("remote", c.ClientIP()).Logger()
	wsLog.Info().Msg("Stream client connected")

	replies := make(chan interface{}, 8)
	readerDone := make(chan struct{})
	writerDone := make(chan struct{})

	go h.writeLoop(conn, sub, replies, readerDone, writerDone, wsLog)

	ws.PrepareRead(conn, maxClientMessage)
	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		reply := h.handleAction(msg.Action)
		select {
		case replies <- reply:
		case <-writerDone:
		}
	}

	close(readerDone)
	<-writerDone
}

func (h *WSHandler) handleAction(action ws.Action) interface{} {
	switch action {
	case ws.ActionPing:
		return ws.PongMessage{Event: ws.EventPong}
	case ws.ActionDismissFeedback:
		return ws.AckMessage{Event: ws.EventAck, Action: action, OK: h.classroom.DismissFeedback()}
	case ws.ActionCloseStudent:
		h.classroom.CloseStudent()
		return ws.AckMessage{Event: ws.EventAck, Action: action, OK: true}
	default:
		return ws.ErrorMessage{Event: ws.EventError, Error: "unknown action"}
	}
}

// writeLoop owns every write to conn.
func (h *WSHandler) writeLoop(conn *websocket.Conn, sub chan events.Event, replies <-chan interface{}, readerDone <-chan struct{}, writerDone chan<- struct{}, log zerolog.Logger) {
	defer close(writerDone)

	pingTicker := time.NewTicker(ws.PingPeriod)
	defer pingTicker.Stop()

	if err := ws.WriteTyped(conn, ws.HelloMessage{Event: ws.EventHello, Session: h.classroom.Session()}); err != nil {
		conn.Close()
		return
	}

	for {
		var err error
		select {
		case <-readerDone:
			return
		case e, ok := <-sub:
			if !ok {
				conn.Close()
				return
			}
			err = ws.WriteTyped(conn, ws.StreamMessage{Event: ws.EventStream, Data: e})
		case reply := <-replies:
			err = ws.WriteTyped(conn, reply)
		case <-pingTicker.C:
			err = ws.WritePing(conn)
		}
		if err != nil {
			log.Debug().Err(err).Msg("Write failed, closing stream")
			// Unblocks the reader.
			conn.Close()
			return
		}
	}
}
