package wsrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netmirror/server/pkg/wsconn"
)

func serveRouter(t *testing.T, router *WSRouter) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn := wsconn.New(ws)
		defer conn.Close()
		router.ServeConn(r.Context(), conn)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client
}

type greetPayload struct {
	Name string `json:"name"`
}

func TestDispatch(t *testing.T) {
	router := New()

	var mu sync.Mutex
	var got []string
	Handle(router, "greet", func(ctx context.Context, conn *wsconn.Conn, payload greetPayload) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, payload.Name)
		assert.Equal(t, "greet", GetMessageTypeFromCtx(ctx))
		return nil
	})

	client := serveRouter(t, router)

	require.NoError(t, client.WriteJSON(map[string]any{"type": "greet", "payload": map[string]string{"name": "alice"}}))
	// unknown types are ignored, not fatal
	require.NoError(t, client.WriteJSON(map[string]any{"type": "unknown", "payload": nil}))
	require.NoError(t, client.WriteJSON(map[string]any{"type": "greet", "payload": map[string]string{"name": "bob"}}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, 2*time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"alice", "bob"}, got)
}

func TestInvalidPayloadReportedToOnError(t *testing.T) {
	router := New()
	Handle(router, "greet", func(ctx context.Context, conn *wsconn.Conn, payload greetPayload) error {
		t.Error("handler must not run for an unparsable payload")
		return nil
	})

	errs := make(chan error, 1)
	router.OnError = func(ctx context.Context, err error) {
		errs <- err
	}

	client := serveRouter(t, router)
	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(`{"type":"greet","payload":42}`)))

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrInvalidPayload)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for OnError")
	}
}

func TestMiddlewareWrapsHandlers(t *testing.T) {
	router := New()

	var mu sync.Mutex
	var order []string
	router.Use(func(next HandlerFunc[json.RawMessage]) HandlerFunc[json.RawMessage] {
		return func(ctx context.Context, conn *wsconn.Conn, payload json.RawMessage) error {
			mu.Lock()
			order = append(order, "mw")
			mu.Unlock()
			return next(ctx, conn, payload)
		}
	})
	Handle(router, "greet", func(ctx context.Context, conn *wsconn.Conn, payload greetPayload) error {
		mu.Lock()
		order = append(order, "handler")
		mu.Unlock()
		return nil
	})

	client := serveRouter(t, router)
	require.NoError(t, client.WriteJSON(map[string]any{"type": "greet", "payload": map[string]string{"name": "alice"}}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 2
	}, 2*time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"mw", "handler"}, order)
}
