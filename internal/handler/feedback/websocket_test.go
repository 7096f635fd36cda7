package feedback

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/earlysignal/backend/internal/model/feedback"
	feedbackService "github.com/earlysignal/backend/internal/service/feedback"
)

type wsFrame struct {
	Type      string         `json:"type"`
	SessionID string         `json:"sessionId"`
	Data      map[string]any `json:"data"`
}

func dialSession(t *testing.T, server *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/feedback/sessions/" + sessionID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame wsFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func readUntil(t *testing.T, conn *websocket.Conn, typ string) wsFrame {
	t.Helper()
	for i := 0; i < 10; i++ {
		frame := readFrame(t, conn)
		if frame.Type == typ {
			return frame
		}
	}
	t.Fatalf("no %q frame received", typ)
	return wsFrame{}
}

func TestWebSocketConversation(t *testing.T) {
	env := setupRouter(t)
	server := httptest.NewServer(env.router)
	t.Cleanup(server.Close)

	id := env.createSession(t).Session.ID
	conn := dialSession(t, server, id)

	connected := readFrame(t, conn)
	require.Equal(t, "connected", connected.Type)
	assert.Equal(t, id, connected.SessionID)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": "text",
		"data": map[string]string{"text": "We build X"},
	}))

	turn := readFrame(t, conn)
	require.Equal(t, "turn", turn.Type)
	assert.Equal(t, true, turn.Data["pending"])

	result := readUntil(t, conn, "result")
	assert.Equal(t, "accepted", result.Data["result"])

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": "text",
		"data": map[string]string{"text": "too soon"},
	}))
	result = readUntil(t, conn, "result")
	assert.Equal(t, "pending", result.Data["result"])

	env.sched.Advance(feedbackService.DefaultReplyDelay)

	reply := readUntil(t, conn, "turn")
	turnData, ok := reply.Data["turn"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, string(model.RoleAssistant), turnData["role"])
	assert.Equal(t, model.MustDefaultScript().Questions.Problem, turnData["content"])
	assert.Equal(t, "problem", reply.Data["state"])
}

func TestWebSocketSuggestionAndErrors(t *testing.T) {
	env := setupRouter(t)
	server := httptest.NewServer(env.router)
	t.Cleanup(server.Close)

	id := env.createSession(t).Session.ID
	conn := dialSession(t, server, id)
	require.Equal(t, "connected", readFrame(t, conn).Type)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "dance"}))
	errFrame := readFrame(t, conn)
	require.Equal(t, "error", errFrame.Type)
	assert.Contains(t, errFrame.Data["message"], "unsupported message type")

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "text", "sessionId": "other"}))
	errFrame = readFrame(t, conn)
	require.Equal(t, "error", errFrame.Type)
	assert.Equal(t, "session mismatch", errFrame.Data["message"])

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": "suggestion",
		"data": map[string]int{"index": 0},
	}))
	result := readUntil(t, conn, "result")
	assert.Equal(t, true, result.Data["accepted"])

	conv, err := env.feedbackSvc.Conversation(context.Background(), id)
	require.NoError(t, err)
	transcript := conv.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, model.MustDefaultScript().Suggestions["intro"][0].Text, transcript[1].Content)
}

func TestWebSocketUnknownSession(t *testing.T) {
	env := setupRouter(t)
	server := httptest.NewServer(env.router)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/feedback/sessions/missing/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 404, resp.StatusCode)
}
