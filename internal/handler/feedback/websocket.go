package feedback

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	feedbackService "github.com/earlysignal/backend/internal/service/feedback"
	"github.com/earlysignal/backend/pkg/logger"
)

const (
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
	pingInterval = 54 * time.Second
)

// WebSocketHandler lets a client chat with the interviewer over one socket.
type WebSocketHandler struct {
	feedbackSvc *feedbackService.Service
	upgrader    websocket.Upgrader
}

// NewWebSocketHandler creates the socket handler.
func NewWebSocketHandler(feedbackSvc *feedbackService.Service) *WebSocketHandler {
	return &WebSocketHandler{
		feedbackSvc: feedbackSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// TextMessage carries a typed founder answer.
type TextMessage struct {
	Text string `json:"text"`
}

// SuggestionMessage picks one of the offered canned answers.
type SuggestionMessage struct {
	Index int `json:"index"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	conv, err := h.feedbackSvc.Conversation(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithCtx(r.Context()).Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	log := logger.With(zap.String("session_id", sessionID))
	log.Info("websocket connected")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A dropped message is replaced by a snapshot frame.
	outbound := feedbackService.NewFeed[outgoingMessage](eventBuffer)
	send := func(msg outgoingMessage) {
		if !outbound.Push(msg) {
			log.Warn("websocket client lagging, resyncing", zap.String("type", msg.Type))
		}
	}

	unsubscribe := conv.Subscribe(func(c feedbackService.Change) {
		send(changeMessage(c))
	})
	defer unsubscribe()

	send(outgoingMessage{Type: "connected", Data: conv.Snapshot()})

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writeLoop(ctx, conn, sessionID, conv, outbound)
	}()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket read failed", zap.Error(err))
			}
			break
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		if msg.SessionID != "" && msg.SessionID != sessionID {
			send(errorMessage("session mismatch"))
			continue
		}

		if reply, ok := handleInbound(conv, &msg); ok {
			send(reply)
		}
	}

	unsubscribe()
	cancel()
	<-writerDone
	log.Info("websocket disconnected")
}

// handleInbound applies a client message to the conversation.
func handleInbound(conv *feedbackService.Conversation, msg *inboundMessage) (outgoingMessage, bool) {
	var result feedbackService.SubmitResult

	switch msg.Type {
	case "text":
		var text TextMessage
		if err := json.Unmarshal(msg.Data, &text); err != nil {
			return errorMessage("invalid text payload"), true
		}
		result = conv.Submit(text.Text)
	case "suggestion":
		var pick SuggestionMessage
		if err := json.Unmarshal(msg.Data, &pick); err != nil {
			return errorMessage("invalid suggestion payload"), true
		}
		result = conv.SelectSuggestion(pick.Index)
	case "snapshot":
		return outgoingMessage{Type: "snapshot", Data: conv.Snapshot()}, true
	default:
		return errorMessage("unsupported message type: " + msg.Type), true
	}

	return outgoingMessage{Type: "result", Data: map[string]any{
		"result":   result.String(),
		"accepted": result.Accepted(),
	}}, true
}

func changeMessage(c feedbackService.Change) outgoingMessage {
	switch c.Kind {
	case feedbackService.ChangeTurnAppended:
		return outgoingMessage{Type: "turn", Data: map[string]any{
			"turn":    c.Turn,
			"pending": c.Pending,
			"state":   c.State,
		}}
	case feedbackService.ChangePendingChanged:
		return outgoingMessage{Type: "pending", Data: map[string]any{
			"pending": c.Pending,
			"state":   c.State,
		}}
	default:
		return outgoingMessage{Type: "completed", Data: map[string]any{
			"state": c.State,
			"turns": len(c.Transcript),
		}}
	}
}

func errorMessage(message string) outgoingMessage {
	return outgoingMessage{Type: "error", Data: map[string]string{"message": message}}
}

// writeLoop is the only writer on conn.
func (h *WebSocketHandler) writeLoop(ctx context.Context, conn *websocket.Conn, sessionID string, conv *feedbackService.Conversation, outbound *feedbackService.Feed[outgoingMessage]) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	write := func(msg outgoingMessage) bool {
		msg.SessionID = sessionID
		msg.Timestamp = time.Now().Unix()
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			logger.L().Warn("websocket write failed", zap.String("type", msg.Type), zap.Error(err))
			return false
		}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-outbound.Items():
			if !write(msg) {
				return
			}
		case <-outbound.Resync():
			outbound.Drain()
			if !write(outgoingMessage{Type: "snapshot", Data: conv.Snapshot()}) {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
