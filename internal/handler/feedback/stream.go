package feedback

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	model "github.com/earlysignal/backend/internal/model/feedback"
	feedbackService "github.com/earlysignal/backend/internal/service/feedback"
	"github.com/earlysignal/backend/pkg/logger"
	"github.com/earlysignal/backend/pkg/utils"
)

const (
	eventBuffer       = 64
	heartbeatInterval = 15 * time.Second
)

// StreamEvent is the payload of every interview SSE frame.
type StreamEvent struct {
	SessionID string                    `json:"sessionId"`
	Turn      *model.Turn               `json:"turn,omitempty"`
	Content   string                    `json:"content,omitempty"`
	Pending   bool                      `json:"pending"`
	State     feedbackService.State     `json:"state"`
	Turns     int                       `json:"turns,omitempty"`
	Snapshot  *feedbackService.Snapshot `json:"snapshot,omitempty"`
}

// handleEvents streams conversation changes. Assistant turns are preceded by
// delta frames carrying the reply line by line.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "sessionID")

	conv, err := h.feedbackSvc.Conversation(ctx, sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	log := logger.WithCtx(ctx).With(zap.String("session_id", sessionID))

	feed := feedbackService.NewFeed[feedbackService.Change](eventBuffer)
	unsubscribe := conv.Subscribe(func(c feedbackService.Change) {
		if !feed.Push(c) {
			log.Warn("sse subscriber lagging, resyncing", zap.String("kind", string(c.Kind)))
		}
	})
	defer unsubscribe()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	sendSnapshot(w, flusher, sessionID, conv)
	log.Info("feedback event stream opened")

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("feedback event stream closed")
			return
		case <-ticker.C:
			utils.SendSSEEvent(w, flusher, "heartbeat", map[string]string{
				"time": time.Now().UTC().Format(time.RFC3339),
			})
		case <-feed.Resync():
			feed.Drain()
			sendSnapshot(w, flusher, sessionID, conv)
		case change := <-feed.Items():
			if err := h.writeChange(w, flusher, sessionID, change); err != nil {
				log.Warn("feedback event stream failed", zap.Error(err))
				return
			}
		}
	}
}

// sendSnapshot writes the whole conversation. Clients replace their state with
// it; turns they already hold are matched by id.
func sendSnapshot(w http.ResponseWriter, flusher http.Flusher, sessionID string, conv *feedbackService.Conversation) {
	snap := conv.Snapshot()
	utils.SendSSEEvent(w, flusher, "snapshot", StreamEvent{
		SessionID: sessionID,
		Pending:   snap.Pending,
		State:     snap.State,
		Turns:     len(snap.Transcript),
		Snapshot:  &snap,
	})
}

func (h *Handler) writeChange(w http.ResponseWriter, flusher http.Flusher, sessionID string, change feedbackService.Change) error {
	switch change.Kind {
	case feedbackService.ChangeTurnAppended:
		if change.Turn != nil && change.Turn.Role == model.RoleAssistant {
			if err := streamReply(w, flusher, sessionID, change); err != nil {
				return err
			}
		}
		utils.SendSSEEvent(w, flusher, "turn", StreamEvent{
			SessionID: sessionID,
			Turn:      change.Turn,
			Pending:   change.Pending,
			State:     change.State,
		})
	case feedbackService.ChangePendingChanged:
		utils.SendSSEEvent(w, flusher, "pending", StreamEvent{
			SessionID: sessionID,
			Pending:   change.Pending,
			State:     change.State,
		})
	case feedbackService.ChangeCompleted:
		utils.SendSSEEvent(w, flusher, "completed", StreamEvent{
			SessionID: sessionID,
			State:     change.State,
			Turns:     len(change.Transcript),
		})
	}
	return nil
}

// streamReply sends the assistant reply as delta frames and checks the merged
// chunks against the stored turn.
func streamReply(w http.ResponseWriter, flusher http.Flusher, sessionID string, change feedbackService.Change) error {
	stream := feedbackService.ReplyStream(change.Turn.Content)
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 8)
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if chunk == nil {
			continue
		}

		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			utils.SendSSEEvent(w, flusher, "delta", StreamEvent{
				SessionID: sessionID,
				Content:   chunk.Content,
				State:     change.State,
			})
		}
	}

	if len(chunks) == 0 {
		return nil
	}
	merged, err := schema.ConcatMessages(chunks)
	if err != nil {
		return err
	}
	if merged.Content != change.Turn.Content {
		logger.L().Warn("streamed reply diverged from transcript", zap.String("session_id", sessionID))
	}
	return nil
}
