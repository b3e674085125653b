package assistant

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/brushline/quotedesk/internal/models"
	"github.com/brushline/quotedesk/internal/providers/llm"
	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds every language backend call.
const DefaultTimeout = 20 * time.Second

// Turn is the assistant's answer to one contractor message.
type Turn struct {
	Reply              string  `json:"reply"`
	ReadyForExtraction bool    `json:"ready_for_extraction"`
	Missing            []Topic `json:"missing,omitempty"`
	Fallback           bool    `json:"-"`
}

type Conversation struct {
	llm     llm.Provider
	timeout time.Duration
	log     *logrus.Logger
}

func NewConversation(p llm.Provider, timeout time.Duration, log *logrus.Logger) *Conversation {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logrus.New()
	}
	return &Conversation{llm: p, timeout: timeout, log: log}
}

// Advance produces the next assistant turn. message may be empty for the
// opening greeting. It never returns an error: backend failures, timeouts and
// unusable output produce a clarifying question with ReadyForExtraction false.
func (c *Conversation) Advance(ctx context.Context, message string, history []models.ConversationMessage, co Company) Turn {
	all := history
	if strings.TrimSpace(message) != "" {
		all = append(append([]models.ConversationMessage(nil), history...),
			models.ConversationMessage{Role: models.RoleUserMessage, Content: message})
	}
	check := Review(all)
	missing := check.Missing()

	if c.llm == nil {
		return fallbackTurn(missing)
	}

	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.llm.Complete(cctx, llm.Request{
		System: conversationSystem(co),
		Prompt: conversationPrompt(history, message, missing),
	})
	if err != nil {
		c.log.WithFields(logrus.Fields{"provider": c.llm.Name(), "company_id": co.ID}).
			WithError(err).Warn("conversation backend failed, using fallback")
		return fallbackTurn(missing)
	}

	reply, marked, ok := parseReply(out)
	if !ok {
		c.log.WithFields(logrus.Fields{"provider": c.llm.Name(), "company_id": co.ID}).
			Warn("conversation backend returned unusable text, using fallback")
		return fallbackTurn(missing)
	}

	return Turn{
		Reply:              reply,
		ReadyForExtraction: marked || check.Ready(),
		Missing:            missing,
	}
}

// parseReply strips the ready marker and unwraps replies the model wrapped in
// JSON. ok is false when nothing usable is left.
func parseReply(out string) (reply string, ready bool, ok bool) {
	s := strings.TrimSpace(out)
	if strings.HasPrefix(s, "{") {
		var wrapped struct {
			Reply string `json:"reply"`
			Ready bool   `json:"ready"`
		}
		if err := json.Unmarshal([]byte(s), &wrapped); err != nil {
			return "", false, false
		}
		s, ready = strings.TrimSpace(wrapped.Reply), wrapped.Ready
	}
	if strings.Contains(s, ReadyMarker) {
		ready = true
		s = strings.TrimSpace(strings.ReplaceAll(s, ReadyMarker, ""))
	}
	s = strings.TrimSpace(strings.TrimPrefix(s, "assistant:"))
	if s == "" {
		return "", false, false
	}
	return s, ready, true
}

// fallbackTurn asks for the first missing topic.
func fallbackTurn(missing []Topic) Turn {
	t := Turn{Reply: rephrase, Missing: missing, Fallback: true}
	if len(missing) > 0 {
		t.Reply = topicQuestions[missing[0]]
	}
	return t
}
