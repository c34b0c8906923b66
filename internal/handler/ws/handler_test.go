package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/soothe/backend/internal/model/chat"
	"github.com/zhouzirui/soothe/backend/internal/service/reply"
	"github.com/zhouzirui/soothe/backend/internal/service/resources"
	"github.com/zhouzirui/soothe/backend/internal/service/session"
	"github.com/zhouzirui/soothe/backend/internal/storage"
)

type received struct {
	Type   string          `json:"type"`
	UserID string          `json:"userId"`
	Data   json.RawMessage `json:"data"`
}

func newService() *session.Service {
	engine := reply.NewEngine(reply.DefaultConfig(), nil, nil, nil, nil)
	return session.NewService(storage.NewMemoryStore(), engine, resources.NewDirectory("IN"), session.Options{})
}

func dialUser(t *testing.T, svc *session.Service, userID string) (*websocket.Conn, received) {
	t.Helper()

	r := chi.NewRouter()
	New(svc, "IN", nil).RegisterRoutes(r)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var hello received
	readNext(t, conn, &hello)
	require.Equal(t, "connected", hello.Type)
	return conn, hello
}

func dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _ := dialUser(t, newService(), "u1")
	return conn
}

func readNext(t *testing.T, conn *websocket.Conn, dst *received) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(dst))
}

func sendText(t *testing.T, conn *websocket.Conn, text string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": "message",
		"data": map[string]string{"text": text},
	}))
}

func TestNeutralMessageGetsReply(t *testing.T) {
	conn := dial(t)
	sendText(t, conn, "today was long")

	var msg received
	readNext(t, conn, &msg)
	require.Equal(t, "reply", msg.Type)
	assert.Equal(t, "u1", msg.UserID)

	var turn session.Turn
	require.NoError(t, json.Unmarshal(msg.Data, &turn))
	assert.NotEmpty(t, turn.Reply.Text)
	assert.Empty(t, turn.Banner)
}

func TestCrisisMessageSendsSafetyFirst(t *testing.T) {
	conn := dial(t)
	sendText(t, conn, "I keep thinking about suicide")

	var first, second received
	readNext(t, conn, &first)
	readNext(t, conn, &second)

	assert.Equal(t, "safety", first.Type)
	assert.Contains(t, string(first.Data), "You matter.")
	assert.Equal(t, "reply", second.Type)
}

func TestEmptyMessageReturnsError(t *testing.T) {
	conn := dial(t)
	sendText(t, conn, "   ")

	var msg received
	readNext(t, conn, &msg)
	assert.Equal(t, "error", msg.Type)
	assert.Contains(t, string(msg.Data), session.ErrEmptyMessage.Error())
}

func TestUnknownTypeReturnsError(t *testing.T) {
	conn := dial(t)
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "audio"}))

	var msg received
	readNext(t, conn, &msg)
	assert.Equal(t, "error", msg.Type)
}

func TestConnectedCarriesOwnStatus(t *testing.T) {
	svc := newService()
	_, err := svc.HandleMessage(context.Background(), "u2", "hello", "")
	require.NoError(t, err)

	_, hello := dialUser(t, svc, "u1")
	var fresh session.Status
	require.NoError(t, json.Unmarshal(hello.Data, &fresh))
	assert.Empty(t, fresh.LastEngine)

	_, hello = dialUser(t, svc, "u2")
	var seen session.Status
	require.NoError(t, json.Unmarshal(hello.Data, &seen))
	assert.Equal(t, chat.EngineLocal, seen.LastEngine)
	assert.Equal(t, reply.NoClientNote, seen.LastDiagnostic)
}
