package handler

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/classpoints-backend/internal/events"
	"github.com/stemsi/classpoints-backend/internal/particles"
	ws "github.com/stemsi/classpoints-backend/internal/websocket"
)

func TestFireworksStream_SendsFrames(t *testing.T) {
	h := NewFireworksHandler(zerolog.Nop())
	h.frameInterval = time.Millisecond

	r := gin.New()
	r.GET("/fireworks", h.Stream)
	req := httptest.NewRequest(http.MethodGet, "/fireworks?width=320&height=200&frames=3", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	var frames []particles.Frame
	sc := bufio.NewScanner(strings.NewReader(w.Body.String()))
	sc.Buffer(make([]byte, 0, 64*1024), 4<<20)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var f particles.Frame
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &f))
		frames = append(frames, f)
	}
	require.Len(t, frames, 3)
	assert.Equal(t, float64(320), frames[0].Width)
	assert.NotEmpty(t, frames[0].Particles, "first tick bursts")
	assert.Equal(t, int64(3), frames[2].Seq)
}

func TestCanvasSide(t *testing.T) {
	assert.Equal(t, float64(800), canvasSide("800", 1))
	assert.Equal(t, float64(1), canvasSide("-4", 1))
	assert.Equal(t, float64(1), canvasSide("wide", 1))
	assert.Equal(t, float64(maxCanvasSide), canvasSide("99999", 1))
}

type wsMessage struct {
	Event  ws.Event     `json:"event"`
	Action ws.Action    `json:"action"`
	OK     bool         `json:"ok"`
	Error  string       `json:"error"`
	Data   events.Event `json:"data"`
}

func dialStream(t *testing.T, h *harness) *websocket.Conn {
	t.Helper()
	wsh := NewWSHandler(h.classroom, h.bus, zerolog.Nop(), nil)
	r := gin.New()
	r.GET("/ws/v1/stream", wsh.Stream)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWSStream_HelloThenEvents(t *testing.T) {
	h := newHarness(t)
	conn := dialStream(t, h)

	var hello ws.HelloMessage
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, ws.EventHello, hello.Event)
	assert.Equal(t, h.current().ID, hello.Session.SelectedClassID)

	require.Eventually(t, func() bool { return h.bus.SubscriberCount() == 1 }, time.Second, 5*time.Millisecond)
	_, applied := h.classroom.ApplyManualPoints(t.Context(), h.current().Students[0].ID, 3)
	require.True(t, applied)

	msg := readMessage(t, conn)
	assert.Equal(t, ws.EventStream, msg.Event)
	assert.Equal(t, events.ScoreUpdated, msg.Data.Type)
}

func TestWSStream_Actions(t *testing.T) {
	h := newHarness(t)
	conn := dialStream(t, h)
	assert.Equal(t, ws.EventHello, readMessage(t, conn).Event)

	require.NoError(t, conn.WriteJSON(ws.RequestEnvelope{Action: ws.ActionPing}))
	assert.Equal(t, ws.EventPong, readMessage(t, conn).Event)

	require.NoError(t, conn.WriteJSON(ws.RequestEnvelope{Action: ws.ActionDismissFeedback}))
	ack := readMessage(t, conn)
	assert.Equal(t, ws.EventAck, ack.Event)
	assert.False(t, ack.OK, "nothing to dismiss")

	require.NoError(t, conn.WriteJSON(ws.RequestEnvelope{Action: "dance"}))
	errMsg := readMessage(t, conn)
	assert.Equal(t, ws.EventError, errMsg.Event)
	assert.NotEmpty(t, errMsg.Error)
}
