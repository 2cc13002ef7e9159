package feed

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokertrainer/internal/event"
	"github.com/lox/pokertrainer/internal/session"
)

func newFeedServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	sess := session.New(session.Config{Logger: log.New(io.Discard), Seed: 1})
	srv := NewServer(sess, log.New(io.Discard))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHealthEndpoint(t *testing.T) {
	_, ts := newFeedServer(t)
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestClientReceivesInitialState(t *testing.T) {
	_, ts := newFeedServer(t)
	conn := dialWS(t, ts)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "state", msg.Type)
	require.NotNil(t, msg.State)
	assert.Equal(t, "rookie", msg.State.Zone.ID)
}

func TestBroadcastReachesClients(t *testing.T) {
	srv, ts := newFeedServer(t)
	conn := dialWS(t, ts)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg)) // initial state

	srv.Broadcast(event.TableEvent{ID: "ev-1", Kind: event.KindHint, Text: "Your turn."})
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "event", msg.Type)
	require.NotNil(t, msg.Event)
	assert.Equal(t, "ev-1", msg.Event.ID)
	assert.Equal(t, event.KindHint, msg.Event.Kind)
	assert.Equal(t, "Your turn.", msg.Event.Text)
}

func TestBroadcastWithNoClients(t *testing.T) {
	srv, _ := newFeedServer(t)
	// Must not panic or block.
	srv.Broadcast(event.TableEvent{ID: "ev-1", Kind: event.KindHint})
}
