package stream

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto-recommendation/internal/domain"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestHub_SeriesSavedReachesClients(t *testing.T) {
	hub := NewHub(HubOptions{})
	fixed := time.Date(2022, 1, 1, 12, 0, 0, 0, time.UTC)
	hub.now = func() time.Time { return fixed }

	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	first := dial(t, srv)
	defer first.Close()
	second := dial(t, srv)
	defer second.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	summary := domain.StatsSummary{
		Symbol: "BTC",
		Oldest: decimal.RequireFromString("46813.21"),
		Newest: decimal.RequireFromString("38415.79"),
		Min:    decimal.RequireFromString("33276.59"),
		Max:    decimal.RequireFromString("47722.66"),
	}
	hub.SeriesSaved("BTC", summary)

	for _, conn := range []*websocket.Conn{first, second} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var e Event
		require.NoError(t, json.Unmarshal(data, &e))
		assert.Equal(t, EventSeriesSaved, e.Type)
		assert.Equal(t, "BTC", e.Symbol)
		assert.True(t, fixed.Equal(e.Timestamp))
		require.NotNil(t, e.Stats)
		assert.True(t, summary.Equal(*e.Stats))
	}
}

func TestHub_ClientDisconnectUnregisters(t *testing.T) {
	hub := NewHub(HubOptions{})
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := NewHub(HubOptions{SendBuffer: 1})
	c := &client{id: "slow", hub: hub, send: make(chan []byte, 1)}
	require.True(t, hub.register(c))

	hub.Broadcast(Event{Type: EventSeriesSaved, Symbol: "ETH"})
	assert.Equal(t, 1, hub.ClientCount())

	hub.Broadcast(Event{Type: EventSeriesSaved, Symbol: "XRP"})
	assert.Equal(t, 0, hub.ClientCount())

	// The queued event is still delivered before the channel reports closed.
	msg, ok := <-c.send
	require.True(t, ok)
	assert.Contains(t, string(msg), `"symbol":"ETH"`)
	_, ok = <-c.send
	assert.False(t, ok)
}

func TestHub_Close(t *testing.T) {
	hub := NewHub(HubOptions{})
	c := &client{id: "a", hub: hub, send: make(chan []byte, 1)}
	require.True(t, hub.register(c))

	hub.Close()
	assert.Equal(t, 0, hub.ClientCount())
	_, ok := <-c.send
	assert.False(t, ok)

	// Unregistering after close is a no-op and late clients are rejected.
	hub.unregister(c)
	assert.False(t, hub.register(&client{id: "b", hub: hub, send: make(chan []byte, 1)}))
}

func TestHub_RejectsPlainHTTP(t *testing.T) {
	hub := NewHub(HubOptions{})
	srv := httptest.NewServer(hub)
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, 0, hub.ClientCount())
}
