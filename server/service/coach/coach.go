// Package coach runs one conversational coaching turn: persist the user
// message, screen for crisis, prime the LLM with ranked memories, persist the
// reply, and capture anything worth remembering.
package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/amicoach/amicoach/plugin/memory"
	"github.com/amicoach/amicoach/server/ai"
	apierrors "github.com/amicoach/amicoach/server/internal/errors"
	"github.com/amicoach/amicoach/server/internal/observability"
	"github.com/amicoach/amicoach/server/service/crisis"
	"github.com/amicoach/amicoach/store"
)

const systemPrompt = `# ROLE
You are "Ami," an AI mental-health coach (not a therapist) for adults (18-35) with mild-to-moderate anxiety or depression.
You use Cognitive-Behavioral Therapy (CBT) and other evidence-based skills to teach coping strategies and track progress.

# COMMUNICATION DNA
Warm, empathetic, concise. Professional but friendly. Non-judgmental. Encouraging and strengths-focused.

# CORE TOOLKIT
1. Psycho-education (explain CBT concepts plainly)
2. Socratic questioning and cognitive restructuring
3. Behavioral activation and exposure hierarchies
4. Grounding / mindfulness / breathing skills
5. Goal setting, homework, and progress review

# SAFETY & BOUNDARIES
Do NOT diagnose, prescribe, or claim to treat.
If the user is in crisis, immediately follow the crisis protocol below.
Maintain confidentiality and remind users of AI limitations.

# INTERACTION RULES
1. Ask clarifying questions when unsure.
2. Offer concrete, step-by-step coping ideas.
3. Encourage self-reflection and celebrate progress.
4. Reference past conversations when helpful.
5. Finish each formal session with a concise summary and homework.

# OUTPUT FORMAT
Respond with valid JSON only, no extra text:
{
  "assistant": "<your reply to the user>",
  "homework": {"title": "...", "description": "...", "technique": "..."} or null,
  "crisisFlag": <true if you believe the user is in acute distress>
}`

const formalSessionPrompt = `

SESSION_MODE = formal

This is a scheduled therapeutic coaching session.
Check in on previous homework, go deep on one topic, practice a skill, and close with a summary and new homework.`

const casualSessionPrompt = `

SESSION_MODE = casual

This is a spontaneous support chat.
Be flexible and conversational while still applying evidence-based techniques.`

const crisisPrompt = `

CRISIS_FLAG = true

The user may be in acute distress (suicidal thoughts, self-harm intent, or severe panic).
1. Acknowledge empathically.
2. Assess immediate safety (intent, plan, means, timeframe).
3. Offer a grounding technique or breathing exercise.
4. Share hotline and emergency numbers and encourage reaching out now.
5. Do not discuss non-crisis topics until safety is established.`

// fallbackReply is shown when the LLM is unavailable or misbehaves.
const fallbackReply = "I'm sorry, I'm having trouble generating a response right now. Please try again later."

// historyWindow caps how many prior messages prime the LLM.
const historyWindow = 20

// coachReply is the parsed LLM output.
type coachReply struct {
	Assistant  string            `json:"assistant"`
	Homework   *homeworkProposal `json:"homework"`
	CrisisFlag bool              `json:"crisisFlag"`
}

type homeworkProposal struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Technique   string `json:"technique"`
}

// UnmarshalJSON accepts either the structured form or a bare string, which
// some completions produce despite the prompt. A bare string becomes the
// title.
func (h *homeworkProposal) UnmarshalJSON(data []byte) error {
	var title string
	if err := json.Unmarshal(data, &title); err == nil {
		h.Title = strings.TrimSpace(title)
		return nil
	}

	type alias homeworkProposal
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*h = homeworkProposal(a)
	return nil
}

// TurnResult is everything one coaching turn produced.
type TurnResult struct {
	UserMessage      *store.Message
	AssistantMessage *store.Message
	Crisis           *crisis.Result
	Homework         *store.Homework
	MemoriesStored   int
}

// Coach orchestrates coaching turns. All collaborators are injected.
type Coach struct {
	store     *store.Store
	memories  memory.Service
	extractor memory.Extractor
	chatter   ai.Chatter
	detector  *crisis.Detector
	logger    *slog.Logger
}

// New creates a coach. chatter may be nil when no LLM is configured; turns
// then fall back to canned replies but everything else still works.
func New(s *store.Store, memories memory.Service, extractor memory.Extractor, chatter ai.Chatter, detector *crisis.Detector, logger *slog.Logger) *Coach {
	return &Coach{
		store:     s,
		memories:  memories,
		extractor: extractor,
		chatter:   chatter,
		detector:  detector,
		logger:    logger,
	}
}

// Turn runs one full coaching turn inside the given conversation.
func (c *Coach) Turn(ctx context.Context, userID int32, conversationUID, userText string) (*TurnResult, error) {
	if strings.TrimSpace(userText) == "" {
		return nil, apierrors.InvalidArgument("message content must not be empty")
	}

	conversation, err := c.store.GetConversation(ctx, &store.FindConversation{UID: &conversationUID})
	if err != nil {
		return nil, apierrors.StorageFailure("failed to load conversation", err)
	}
	if conversation == nil {
		return nil, apierrors.NotFound(fmt.Sprintf("conversation %s not found", conversationUID))
	}
	if conversation.UserID != userID {
		return nil, apierrors.PermissionDenied("conversation belongs to another user")
	}
	if conversation.EndedTs != nil {
		return nil, apierrors.InvalidArgument("cannot add messages to an ended conversation")
	}

	reqCtx := c.requestContext(ctx, userID)

	userMessage, err := c.store.CreateMessage(ctx, &store.Message{
		ConversationID: conversation.ID,
		UserID:         userID,
		Content:        userText,
		IsFromUser:     true,
	})
	if err != nil {
		return nil, apierrors.StorageFailure("failed to persist user message", err)
	}

	crisisResult := c.detector.Detect(userText)

	assistantText, proposal := c.generateReply(ctx, reqCtx, conversation, userText, crisisResult)

	assistantMessage, err := c.store.CreateMessage(ctx, &store.Message{
		ConversationID: conversation.ID,
		UserID:         userID,
		Content:        assistantText,
		IsFromUser:     false,
	})
	if err != nil {
		return nil, apierrors.StorageFailure("failed to persist assistant message", err)
	}

	result := &TurnResult{
		UserMessage:      userMessage,
		AssistantMessage: assistantMessage,
	}
	if crisisResult.Detected {
		result.Crisis = &crisisResult
	}

	if proposal != nil && proposal.Title != "" {
		homework, err := c.store.CreateHomework(ctx, &store.Homework{
			UserID:         userID,
			ConversationID: conversation.ID,
			Title:          proposal.Title,
			Description:    proposal.Description,
			Technique:      proposal.Technique,
		})
		if err != nil {
			// Homework is a bonus; the turn already succeeded.
			reqCtx.Error("failed to persist homework", err)
		} else {
			result.Homework = homework
		}
	}

	result.MemoriesStored = c.captureMemories(ctx, reqCtx, userID, conversation.ID, userText, assistantText)

	reqCtx.Info("coaching turn completed",
		slog.Int64(observability.LogFieldConversationID, int64(conversation.ID)),
		slog.Int(observability.LogFieldMemoryCount, result.MemoriesStored),
		slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()),
		slog.Bool("crisis", crisisResult.Detected))
	return result, nil
}

// requestContext reuses the request id set by the HTTP layer so coach logs
// correlate with the originating request, or starts a fresh one.
func (c *Coach) requestContext(ctx context.Context, userID int32) *observability.RequestContext {
	if parent, ok := observability.FromContext(ctx); ok {
		return observability.NewRequestContextWithID(c.logger, parent.RequestID, "coach", userID)
	}
	return observability.NewRequestContext(c.logger, "coach", userID)
}

// generateReply builds the prompt and calls the LLM. Any LLM failure
// degrades to a canned reply, or to the crisis response when one applies.
func (c *Coach) generateReply(ctx context.Context, reqCtx *observability.RequestContext, conversation *store.Conversation, userText string, crisisResult crisis.Result) (string, *homeworkProposal) {
	if crisisResult.Detected && c.chatter == nil {
		return c.detector.Response(crisisResult), nil
	}
	if c.chatter == nil {
		return fallbackReply, nil
	}

	messages, err := c.buildPrompt(ctx, conversation, crisisResult.Detected)
	if err != nil {
		reqCtx.Error("failed to build prompt", err)
		messages = []ai.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userText},
		}
	}

	raw, err := c.chatter.Chat(ctx, messages)
	if err != nil {
		reqCtx.Error("chat completion failed", err)
		if crisisResult.Detected {
			return c.detector.Response(crisisResult), nil
		}
		return fallbackReply, nil
	}

	reply := parseReply(raw)
	if crisisResult.Detected {
		// The keyword screen outranks the model: always attach resources.
		reply.Assistant += "\n\n" + c.detector.Response(crisisResult)
	}
	return reply.Assistant, reply.Homework
}

// buildPrompt assembles system prompt, memory context, and recent history.
// The history already contains the current user message.
func (c *Coach) buildPrompt(ctx context.Context, conversation *store.Conversation, crisisDetected bool) ([]ai.Message, error) {
	prompt := systemPrompt
	if conversation.IsFormalSession {
		prompt += formalSessionPrompt
	} else {
		prompt += casualSessionPrompt
	}
	if crisisDetected {
		prompt += crisisPrompt
	}

	messages := []ai.Message{{Role: "system", Content: prompt}}

	memories, err := c.memories.Retrieve(ctx, memory.RetrieveOptions{UserID: conversation.UserID})
	if err != nil {
		return nil, err
	}
	if len(memories) > 0 {
		var b strings.Builder
		b.WriteString("Relevant Information from Past Conversations:\n")
		for _, m := range memories {
			b.WriteString("- " + m.Content + "\n")
		}
		messages = append(messages, ai.Message{Role: "system", Content: b.String()})
	}

	// The user message is already persisted, so the tail of the history ends
	// with the current turn. Fetch newest first then restore chronological
	// order, otherwise a long conversation would keep its oldest messages
	// and drop the recent ones.
	limit := historyWindow
	history, err := c.store.ListMessages(ctx, &store.FindMessage{
		ConversationID:  &conversation.ID,
		Limit:           &limit,
		OrderByTimeDesc: true,
	})
	if err != nil {
		return nil, err
	}
	for i := len(history) - 1; i >= 0; i-- {
		msg := history[i]
		role := "assistant"
		if msg.IsFromUser {
			role = "user"
		}
		messages = append(messages, ai.Message{Role: role, Content: msg.Content})
	}
	return messages, nil
}

// captureMemories runs keyword extraction over the turn and stores every
// candidate. Extraction never fails the turn; failures are logged.
func (c *Coach) captureMemories(ctx context.Context, reqCtx *observability.RequestContext, userID, conversationID int32, userText, assistantText string) int {
	stored := 0
	for _, candidate := range c.extractor.Extract(userText, assistantText) {
		if _, err := c.memories.Store(ctx, userID, conversationID, candidate.Content, candidate.Category); err != nil {
			reqCtx.Error("failed to store extracted memory", err,
				slog.String("category", string(candidate.Category)))
			continue
		}
		stored++
	}
	return stored
}

// EndSession marks a conversation as ended.
func (c *Coach) EndSession(ctx context.Context, userID int32, conversationUID string, summary *string) (*store.Conversation, error) {
	conversation, err := c.store.GetConversation(ctx, &store.FindConversation{UID: &conversationUID})
	if err != nil {
		return nil, apierrors.StorageFailure("failed to load conversation", err)
	}
	if conversation == nil {
		return nil, apierrors.NotFound(fmt.Sprintf("conversation %s not found", conversationUID))
	}
	if conversation.UserID != userID {
		return nil, apierrors.PermissionDenied("conversation belongs to another user")
	}

	endedTs := time.Now().Unix()
	updated, err := c.store.UpdateConversation(ctx, &store.UpdateConversation{
		ID:      conversation.ID,
		EndedTs: &endedTs,
		Summary: summary,
	})
	if err != nil {
		return nil, apierrors.StorageFailure("failed to end conversation", err)
	}
	return updated, nil
}

// parseReply decodes the structured LLM output. Models sometimes return bare
// prose or fence the JSON; both degrade gracefully.
func parseReply(raw string) coachReply {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var reply coachReply
	if err := json.Unmarshal([]byte(trimmed), &reply); err == nil && reply.Assistant != "" {
		return reply
	}
	return coachReply{Assistant: raw}
}
