package hub

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/orchestra-ai/internal/snapshot"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return h.Len() == 1 }, time.Second, 5*time.Millisecond)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestPublish(t *testing.T) {
	h := New(zerolog.Nop())
	defer h.Close()
	conn := dial(t, h)

	h.Publish(Message{Type: TypeNarrative, Data: "action"})

	msg := readMessage(t, conn)
	assert.Equal(t, TypeNarrative, msg.Type)
	assert.Equal(t, "action", msg.Data)
}

func TestOnSnapshotEvent(t *testing.T) {
	h := New(zerolog.Nop())
	defer h.Close()
	conn := dial(t, h)

	store := snapshot.NewStore(snapshot.Seed())
	store.Subscribe(h.OnSnapshotEvent)
	require.True(t, store.ResolveAlert(snapshot.SeedCrisisAlertID))

	msg := readMessage(t, conn)
	assert.Equal(t, string(snapshot.EventAlertResolved), msg.Type)
	assert.Equal(t, []string{snapshot.SeedCrisisAlertID}, msg.IDs)
}

func TestPublishWithoutClients(t *testing.T) {
	h := New(zerolog.Nop())
	assert.Equal(t, 0, h.Len())
	h.Publish(Message{Type: TypeSession})

	require.NoError(t, h.Close())
	h.Publish(Message{Type: TypeSession})
}
