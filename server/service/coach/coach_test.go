package coach

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amicoach/amicoach/internal/profile"
	"github.com/amicoach/amicoach/plugin/memory"
	"github.com/amicoach/amicoach/server/ai"
	apierrors "github.com/amicoach/amicoach/server/internal/errors"
	"github.com/amicoach/amicoach/server/service/crisis"
	"github.com/amicoach/amicoach/store"
	teststore "github.com/amicoach/amicoach/store/test"
)

// chatterFunc adapts a function to ai.Chatter.
type chatterFunc func(ctx context.Context, messages []ai.Message) (string, error)

func (f chatterFunc) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	return f(ctx, messages)
}

type fixture struct {
	store        *store.Store
	coach        *Coach
	conversation *store.Conversation
}

func newFixture(t *testing.T, chatter ai.Chatter) *fixture {
	t.Helper()
	ctx := context.Background()

	s := store.New(teststore.NewDriver(), &profile.Profile{Mode: "dev", Driver: "sqlite"})
	conversation, err := s.CreateConversation(ctx, &store.Conversation{
		UID:    "conv-1",
		UserID: 1,
		Title:  "Tuesday check-in",
	})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := New(s, memory.NewService(s), memory.NewKeywordExtractor(), chatter, crisis.NewDetector(), logger)
	return &fixture{store: s, coach: c, conversation: conversation}
}

func TestTurnPersistsBothMessages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, chatterFunc(func(ctx context.Context, messages []ai.Message) (string, error) {
		return `{"assistant": "That sounds hard. What usually helps?", "homework": null, "crisisFlag": false}`, nil
	}))

	result, err := f.coach.Turn(ctx, 1, "conv-1", "Work has been stressful lately.")
	require.NoError(t, err)
	assert.Equal(t, "Work has been stressful lately.", result.UserMessage.Content)
	assert.True(t, result.UserMessage.IsFromUser)
	assert.Equal(t, "That sounds hard. What usually helps?", result.AssistantMessage.Content)
	assert.False(t, result.AssistantMessage.IsFromUser)
	assert.Nil(t, result.Crisis)
	assert.Nil(t, result.Homework)

	messages, err := f.store.ListMessages(ctx, &store.FindMessage{ConversationID: &f.conversation.ID})
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}

func TestTurnCapturesMemories(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, chatterFunc(func(ctx context.Context, messages []ai.Message) (string, error) {
		return `{"assistant": "You could practice box breathing tonight.", "homework": null, "crisisFlag": false}`, nil
	}))

	result, err := f.coach.Turn(ctx, 1, "conv-1", "I feel anxious before every standup.")
	require.NoError(t, err)

	// One TRIGGER from the user text, one COPING from the assistant text.
	assert.Equal(t, 2, result.MemoriesStored)

	userID := int32(1)
	minImportance := 0.0
	memories, err := f.store.ListMemories(ctx, &store.FindMemory{UserID: &userID, MinImportance: &minImportance})
	require.NoError(t, err)
	require.Len(t, memories, 2)
	categories := map[store.MemoryCategory]bool{}
	for _, m := range memories {
		categories[m.Category] = true
		assert.Equal(t, f.conversation.ID, m.ConversationID)
	}
	assert.True(t, categories[store.MemoryCategoryTrigger])
	assert.True(t, categories[store.MemoryCategoryCoping])
}

func TestTurnCreatesHomework(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, chatterFunc(func(ctx context.Context, messages []ai.Message) (string, error) {
		return `{"assistant": "Let's build on that.", "homework": {"title": "Thought record", "description": "Log one anxious thought per day", "technique": "cognitive restructuring"}, "crisisFlag": false}`, nil
	}))

	result, err := f.coach.Turn(ctx, 1, "conv-1", "What should I work on this week?")
	require.NoError(t, err)
	require.NotNil(t, result.Homework)
	assert.Equal(t, "Thought record", result.Homework.Title)
	assert.Equal(t, "cognitive restructuring", result.Homework.Technique)
	assert.Equal(t, int32(1), result.Homework.UserID)
}

func TestTurnHomeworkAsBareString(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, chatterFunc(func(ctx context.Context, messages []ai.Message) (string, error) {
		return `{"assistant": "ok", "homework": "Log one anxious thought per day", "crisisFlag": false}`, nil
	}))

	result, err := f.coach.Turn(ctx, 1, "conv-1", "What should I do this week?")
	require.NoError(t, err)
	require.NotNil(t, result.Homework)
	assert.Equal(t, "Log one anxious thought per day", result.Homework.Title)
	assert.Empty(t, result.Homework.Technique)
}

func TestTurnCrisisAttachesResources(t *testing.T) {
	ctx := context.Background()
	var gotCrisisPrompt bool
	f := newFixture(t, chatterFunc(func(ctx context.Context, messages []ai.Message) (string, error) {
		for _, m := range messages {
			if m.Role == "system" && contains(m.Content, "CRISIS_FLAG = true") {
				gotCrisisPrompt = true
			}
		}
		return `{"assistant": "I'm really sorry you're feeling this way.", "homework": null, "crisisFlag": true}`, nil
	}))

	result, err := f.coach.Turn(ctx, 1, "conv-1", "Lately I feel like there is no reason to live.")
	require.NoError(t, err)
	require.NotNil(t, result.Crisis)
	assert.Contains(t, result.Crisis.Categories, crisis.CategorySuicide)
	assert.True(t, gotCrisisPrompt)
	assert.Contains(t, result.AssistantMessage.Content, "Emergency Resources:")
}

func TestTurnLLMFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, chatterFunc(func(ctx context.Context, messages []ai.Message) (string, error) {
		return "", errors.New("upstream unavailable")
	}))

	result, err := f.coach.Turn(ctx, 1, "conv-1", "Just checking in today.")
	require.NoError(t, err)
	assert.Equal(t, fallbackReply, result.AssistantMessage.Content)
}

func TestTurnWithoutChatter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	result, err := f.coach.Turn(ctx, 1, "conv-1", "Just checking in today.")
	require.NoError(t, err)
	assert.Equal(t, fallbackReply, result.AssistantMessage.Content)
}

func TestTurnRawTextReplyPassesThrough(t *testing.T) {
	ctx := context.Background()
	raw := "Plain prose without any JSON wrapper."
	f := newFixture(t, chatterFunc(func(ctx context.Context, messages []ai.Message) (string, error) {
		return raw, nil
	}))

	result, err := f.coach.Turn(ctx, 1, "conv-1", "Hello again.")
	require.NoError(t, err)
	assert.Equal(t, raw, result.AssistantMessage.Content)
}

func TestTurnPrimesPromptWithMemories(t *testing.T) {
	ctx := context.Background()
	var sawMemoryContext bool
	f := newFixture(t, chatterFunc(func(ctx context.Context, messages []ai.Message) (string, error) {
		for _, m := range messages {
			if m.Role == "system" && contains(m.Content, "deadlines make me panic") {
				sawMemoryContext = true
			}
		}
		return `{"assistant": "ok", "homework": null, "crisisFlag": false}`, nil
	}))

	svc := memory.NewService(f.store)
	_, err := svc.Store(ctx, 1, f.conversation.ID, "deadlines make me panic", store.MemoryCategoryTrigger)
	require.NoError(t, err)

	_, err = f.coach.Turn(ctx, 1, "conv-1", "Hello again.")
	require.NoError(t, err)
	assert.True(t, sawMemoryContext)
}

func TestTurnPromptContainsUserTextOnce(t *testing.T) {
	ctx := context.Background()
	var prompt []ai.Message
	f := newFixture(t, chatterFunc(func(ctx context.Context, messages []ai.Message) (string, error) {
		prompt = messages
		return `{"assistant": "ok", "homework": null, "crisisFlag": false}`, nil
	}))

	userText := "Work has been stressful lately."
	_, err := f.coach.Turn(ctx, 1, "conv-1", userText)
	require.NoError(t, err)

	occurrences := 0
	for _, m := range prompt {
		if m.Role == "user" && m.Content == userText {
			occurrences++
		}
	}
	assert.Equal(t, 1, occurrences)
	require.NotEmpty(t, prompt)
	assert.Equal(t, "user", prompt[len(prompt)-1].Role)
	assert.Equal(t, userText, prompt[len(prompt)-1].Content)
}

func TestTurnPromptKeepsRecentHistory(t *testing.T) {
	ctx := context.Background()
	var prompt []ai.Message
	f := newFixture(t, chatterFunc(func(ctx context.Context, messages []ai.Message) (string, error) {
		prompt = messages
		return `{"assistant": "ok", "homework": null, "crisisFlag": false}`, nil
	}))

	// Seed more history than the prompt window holds.
	seeded := historyWindow + 10
	for i := 0; i < seeded; i++ {
		_, err := f.store.CreateMessage(ctx, &store.Message{
			ConversationID: f.conversation.ID,
			UserID:         1,
			Content:        fmt.Sprintf("message %d", i),
			IsFromUser:     i%2 == 0,
			CreatedTs:      int64(1000 + i),
		})
		require.NoError(t, err)
	}

	userText := "What did we just talk about?"
	_, err := f.coach.Turn(ctx, 1, "conv-1", userText)
	require.NoError(t, err)

	var history []ai.Message
	for _, m := range prompt {
		if m.Role != "system" {
			history = append(history, m)
		}
	}
	require.Len(t, history, historyWindow)

	// The window ends with the current turn and keeps the newest seeded
	// messages, dropping the oldest ones.
	assert.Equal(t, userText, history[len(history)-1].Content)
	assert.Equal(t, fmt.Sprintf("message %d", seeded-1), history[len(history)-2].Content)
	assert.Equal(t, fmt.Sprintf("message %d", seeded-historyWindow+1), history[0].Content)
	for _, m := range history {
		assert.NotEqual(t, "message 0", m.Content)
	}
}

func TestTurnIntoEndedConversation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, err := f.coach.EndSession(ctx, 1, "conv-1", nil)
	require.NoError(t, err)

	_, err = f.coach.Turn(ctx, 1, "conv-1", "one more thing")
	require.Error(t, err)
	assert.Equal(t, apierrors.ErrCodeInvalidArgument, apierrors.GetCodeFromError(err, ""))

	// The rejected message was not persisted.
	messages, err := f.store.ListMessages(ctx, &store.FindMessage{ConversationID: &f.conversation.ID})
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestTurnConversationNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, err := f.coach.Turn(ctx, 1, "missing", "hello")
	require.Error(t, err)
	assert.Equal(t, apierrors.ErrCodeNotFound, apierrors.GetCodeFromError(err, ""))
}

func TestTurnWrongOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, err := f.coach.Turn(ctx, 2, "conv-1", "hello")
	require.Error(t, err)
	assert.Equal(t, apierrors.ErrCodePermissionDenied, apierrors.GetCodeFromError(err, ""))
}

func TestTurnEmptyMessageRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, err := f.coach.Turn(ctx, 1, "conv-1", "   ")
	require.Error(t, err)
	assert.Equal(t, apierrors.ErrCodeInvalidArgument, apierrors.GetCodeFromError(err, ""))
}

func TestEndSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	summary := "Worked on reframing deadline anxiety."
	updated, err := f.coach.EndSession(ctx, 1, "conv-1", &summary)
	require.NoError(t, err)
	require.NotNil(t, updated.EndedTs)
	require.NotNil(t, updated.Summary)
	assert.Equal(t, summary, *updated.Summary)
}

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}
