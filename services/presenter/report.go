package presenter

import (
	"fmt"
	"strings"

	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/services/agent"
)

const separator = "------------------------------------------------------------"

// RenderConversation formats a thread's messages in time order, one block
// per message with speaker and timestamp headers.
func (p *Presenter) RenderConversation(messages []agent.ThreadMessage) string {
	if len(messages) == 0 {
		return "No conversation history."
	}

	var b strings.Builder
	b.WriteString("Conversation History:\n")
	b.WriteString(separator)
	b.WriteString("\n")

	for _, msg := range messages {
		speaker := speakerLabel(msg)
		header := fmt.Sprintf("%s at %s", speaker, msg.CreatedAt.Format("2006-01-02 15:04:05"))
		b.WriteString(header)
		b.WriteString("\n")
		b.WriteString(strings.Repeat("-", len(header)))
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(msg.Content))
		b.WriteString("\n")
		b.WriteString(separator)
		b.WriteString("\n")
	}

	return b.String()
}

func speakerLabel(msg agent.ThreadMessage) string {
	switch msg.Role {
	case "user":
		return "User"
	case "assistant":
		if msg.AgentID != "" {
			return fmt.Sprintf("Agent (%s)", msg.AgentID)
		}
		return "Agent"
	default:
		return msg.Role
	}
}
