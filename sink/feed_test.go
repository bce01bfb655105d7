package sink

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/icodeforyou/entsoe-go/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialFeed(t *testing.T, f *Feed) *ws.Conn {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	conn, _, err := ws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestFeedBroadcasts(t *testing.T) {
	f := NewFeed()
	defer f.Close()

	a := dialFeed(t, f)
	b := dialFeed(t, f)
	require.Eventually(t, func() bool { return f.Clients() == 2 }, time.Second, 10*time.Millisecond)

	require.NoError(t, f.Publish(context.Background(), types.KindLoad, "SE", records))

	for _, conn := range []*ws.Conn{a, b} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		for i := range records {
			_, msg, err := conn.ReadMessage()
			require.NoError(t, err)

			var l struct {
				Kind   string         `json:"kind"`
				Area   string         `json:"area"`
				Record map[string]any `json:"record"`
			}
			require.NoError(t, json.Unmarshal(msg, &l))
			assert.Equal(t, "load", l.Kind)
			assert.Equal(t, "SE", l.Area)
			v, _ := records[i].Get("load_MW")
			assert.Equal(t, v, l.Record["load_MW"])
		}
	}
}

func TestFeedDropsClosedClients(t *testing.T) {
	f := NewFeed()
	defer f.Close()

	conn := dialFeed(t, f)
	require.Eventually(t, func() bool { return f.Clients() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return f.Clients() == 0 }, time.Second, 10*time.Millisecond)

	require.NoError(t, f.Publish(context.Background(), types.KindLoad, "SE", records))
}

func TestFeedClosed(t *testing.T) {
	f := NewFeed()
	require.NoError(t, f.Close())
	require.NoError(t, f.Close())
	assert.Error(t, f.Publish(context.Background(), types.KindLoad, "SE", records))
}

func TestMulti(t *testing.T) {
	client := &fakePublisher{}
	var buf strings.Builder
	m := Multi{NewWriter(&buf), newMQTT(client, discardLogger(), "entsoe")}

	require.NoError(t, m.Publish(context.Background(), types.KindLoad, "SE", records))
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
	assert.Len(t, client.messages, 2)
	require.NoError(t, m.Close())
	assert.True(t, client.disconnected)
}
