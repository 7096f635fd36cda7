package feedback

import (
	"strings"

	"github.com/cloudwego/eino/schema"

	model "github.com/earlysignal/backend/internal/model/feedback"
)

// ChatMessages converts a transcript to chat-model messages so it can be
// handed to a downstream scorer.
func ChatMessages(turns []model.Turn) []*schema.Message {
	messages := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case model.RoleUser:
			messages = append(messages, schema.UserMessage(turn.Content))
		case model.RoleAssistant:
			messages = append(messages, schema.AssistantMessage(turn.Content, nil))
		}
	}
	return messages
}

// ReplyStream splits an assistant reply into line chunks, mimicking a
// streamed model response.
func ReplyStream(content string) *schema.StreamReader[*schema.Message] {
	lines := strings.SplitAfter(content, "\n")
	chunks := make([]*schema.Message, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		chunks = append(chunks, schema.AssistantMessage(line, nil))
	}
	return schema.StreamReaderFromArray(chunks)
}

// FounderAnswers returns the user turns joined by newlines.
func FounderAnswers(turns []model.Turn) string {
	var b strings.Builder
	for _, turn := range turns {
		if turn.Role != model.RoleUser {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(turn.Content)
	}
	return b.String()
}
