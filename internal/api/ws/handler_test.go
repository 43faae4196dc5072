package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/SketchBox/internal/sketch/sandbox"
	"github.com/GriffinCanCode/SketchBox/internal/sketch/session"
)

type message map[string]interface{}

func setup(t *testing.T) (*session.Manager, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	pool := sandbox.NewPool(sandbox.DefaultConfig(), 2)
	manager := session.NewManager(session.Config{Pool: pool, MaxSessions: 2})

	h := NewHandler(Options{Manager: manager, AllowedOrigins: []string{"http://ok.test"}})
	r := gin.New()
	r.GET("/sketches/:id/stream", h.Stream)
	srv := httptest.NewServer(r)

	t.Cleanup(func() {
		srv.Close()
		manager.Shutdown()
		pool.Close()
	})
	return manager, srv
}

func dial(t *testing.T, srv *httptest.Server, sid string, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sketches/" + sid + "/stream"
	return websocket.DefaultDialer.Dial(url, header)
}

// next reads messages until one of type typ arrives
func next(t *testing.T, conn *websocket.Conn, typ string) message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		kind, data, err := conn.ReadMessage()
		require.NoError(t, err)
		if kind != websocket.TextMessage {
			continue
		}
		var msg message
		require.NoError(t, sonic.Unmarshal(data, &msg))
		if msg["type"] == typ {
			return msg
		}
	}
}

// collect reads until one message of each type has arrived, in any order
func collect(t *testing.T, conn *websocket.Conn, types ...string) map[string]message {
	t.Helper()
	want := make(map[string]bool, len(types))
	for _, typ := range types {
		want[typ] = true
	}
	got := make(map[string]message, len(types))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for len(got) < len(types) {
		kind, data, err := conn.ReadMessage()
		require.NoError(t, err)
		if kind != websocket.TextMessage {
			continue
		}
		var msg message
		require.NoError(t, sonic.Unmarshal(data, &msg))
		typ, _ := msg["type"].(string)
		if _, seen := got[typ]; want[typ] && !seen {
			got[typ] = msg
		}
	}
	return got
}

func send(t *testing.T, conn *websocket.Conn, v interface{}) {
	t.Helper()
	data, err := sonic.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func TestStreamUnknownSession(t *testing.T) {
	_, srv := setup(t)

	_, resp, err := dial(t, srv, "7d444840-9dc0-11d1-b245-5ffdce74fad2", nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStreamRejectsForeignOrigin(t *testing.T) {
	manager, srv := setup(t)
	s, err := manager.Create(10, 10)
	require.NoError(t, err)

	_, resp, err := dial(t, srv, s.ID().String(), http.Header{"Origin": {"http://evil.test"}})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestStreamMessages(t *testing.T) {
	manager, srv := setup(t)
	s, err := manager.Create(32, 24)
	require.NoError(t, err)

	conn, _, err := dial(t, srv, s.ID().String(), http.Header{"Origin": {"http://ok.test"}})
	require.NoError(t, err)
	defer conn.Close()

	hello := next(t, conn, MsgHello)
	assert.Equal(t, s.ID().String(), hello["session"])
	assert.Equal(t, "empty", hello["state"])

	send(t, conn, Inbound{Type: MsgPing})
	next(t, conn, MsgPong)

	_, err = s.Studio().Load(context.Background(), `p.keyPressed = () => { console.log("key", p.key); };`)
	require.NoError(t, err)
	state := next(t, conn, string(session.EventState))
	assert.Equal(t, "running", state["data"])

	send(t, conn, message{"type": MsgEvent, "event": message{"type": "keydown", "key": "a", "keyCode": 65}})
	got := collect(t, conn, string(session.EventConsole), MsgAck)
	console := got[string(session.EventConsole)]
	assert.Contains(t, console["data"].(map[string]interface{})["message"], "key a")
	assert.Equal(t, true, got[MsgAck]["handled"])

	send(t, conn, Inbound{Type: MsgResize, Width: 50, Height: 40})
	resize := next(t, conn, string(session.EventResize))
	assert.EqualValues(t, 50, resize["data"].(map[string]interface{})["width"])

	send(t, conn, Inbound{Type: MsgResize})
	errMsg := next(t, conn, MsgError)
	assert.NotEmpty(t, errMsg["message"])

	send(t, conn, Inbound{Type: MsgResize, Width: 60000, Height: 60000})
	errMsg = next(t, conn, MsgError)
	assert.Contains(t, errMsg["message"], "4096")
	assert.Equal(t, 50, s.Info().Width)

	send(t, conn, Inbound{Type: "dance"})
	errMsg = next(t, conn, MsgError)
	assert.Contains(t, errMsg["message"], "dance")
}

func TestStreamEndsWhenSessionCloses(t *testing.T) {
	manager, srv := setup(t)
	s, err := manager.Create(10, 10)
	require.NoError(t, err)

	conn, _, err := dial(t, srv, s.ID().String(), nil)
	require.NoError(t, err)
	defer conn.Close()
	next(t, conn, MsgHello)

	require.NoError(t, manager.Close(s.ID()))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), err.Error())
			return
		}
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://a.test"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://a.test")
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://b.test")
	assert.False(t, check(req))

	assert.True(t, originChecker([]string{"*"})(req))
}
