package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
	"nhooyr.io/websocket" //nolint:staticcheck // TODO: migrate to github.com/coder/websocket

	"github.com/Adalene/glyph/pkg/types"
	"github.com/Adalene/glyph/web/handlers"
)

func upgradeRequest(origin string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/icons/feed", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	return req
}

func TestFeedHub_ValidatesOrigin(t *testing.T) {
	hub := handlers.NewFeedHub([]string{"*.glyph.dev"}, zaptest.NewLogger(t))
	defer hub.Stop()

	for _, origin := range []string{"http://evil.com", "http://glyph.dev.evil.com", "::not a url"} {
		w := httptest.NewRecorder()
		hub.ServeHTTP(w, upgradeRequest(origin))

		assert.Equal(t, http.StatusForbidden, w.Code, origin)
		assert.Contains(t, w.Body.String(), "Forbidden")
	}
}

func TestFeedHub_Broadcast(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := handlers.NewFeedHub(nil, zaptest.NewLogger(t))
	hub.Start()
	defer hub.Stop()

	received := make(chan []byte, 1)
	hub.Register(&handlers.MockClient{SendChan: received})
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	icon := types.Icon{ID: "rocket", Name: "Rocket", Category: "objects", Tags: []string{"space"}, Path: "M1 1", Generated: true, GeneratedAt: 5}
	hub.PublishIcon(icon)

	select {
	case msg := <-received:
		var event handlers.FeedEvent
		require.NoError(t, json.Unmarshal(msg, &event))
		assert.Equal(t, handlers.EventIconCreated, event.Type)
		assert.Equal(t, icon, event.Icon)
	case <-time.After(1 * time.Second):
		t.Fatal("Timeout waiting for broadcast message")
	}
}

func TestFeedHub_DropsSlowClients(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := handlers.NewFeedHub(nil, zaptest.NewLogger(t))
	hub.Start()
	defer hub.Stop()

	slow := make(chan []byte) // unbuffered and never read
	hub.Register(&handlers.MockClient{SendChan: slow})
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Broadcast(map[string]string{"type": "ping"})

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	_, open := <-slow
	assert.False(t, open, "dropped client's channel is closed")
}

func TestFeedHub_StopWithoutStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := handlers.NewFeedHub(nil, nil)
	hub.Stop()
	hub.Register(&handlers.MockClient{SendChan: make(chan []byte, 1)}) // must not block
	assert.Zero(t, hub.ClientCount())
}

func TestFeedHub_EndToEnd(t *testing.T) {
	hub := handlers.NewFeedHub(nil, zaptest.NewLogger(t))
	hub.Start()
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		srv.Close()
		hub.Stop()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil) //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "") //nolint:staticcheck // TODO: migrate to github.com/coder/websocket

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.PublishIcon(types.Icon{ID: "bolt", Path: "M1 1", Tags: []string{}})

	typ, data, err := conn.Read(ctx) //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, typ)

	var event handlers.FeedEvent
	require.NoError(t, json.Unmarshal(data, &event))
	assert.Equal(t, "icon.created", event.Type)
	assert.Equal(t, "bolt", event.Icon.ID)
}
