package v1

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createConversation(t *testing.T, svc *APIV1Service, userID int32, body string) ConversationResponse {
	t.Helper()
	c, rec := newEchoContext(t, http.MethodPost, "/api/v1/conversations", body, userID)
	require.NoError(t, svc.CreateConversation(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ConversationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCreateConversationAssignsUID(t *testing.T) {
	svc := newTestAPIService(t)

	resp := createConversation(t, svc, 1, `{"title": "Tuesday check-in"}`)
	assert.NotEmpty(t, resp.UID)
	assert.Equal(t, "Tuesday check-in", resp.Title)
	assert.False(t, resp.IsFormalSession)
	assert.Nil(t, resp.SessionNumber)
}

func TestCreateFormalSessionNumbersSequentially(t *testing.T) {
	svc := newTestAPIService(t)

	first := createConversation(t, svc, 1, `{"title": "Session", "is_formal_session": true}`)
	second := createConversation(t, svc, 1, `{"title": "Session", "is_formal_session": true}`)

	require.NotNil(t, first.SessionNumber)
	require.NotNil(t, second.SessionNumber)
	assert.Equal(t, int32(1), *first.SessionNumber)
	assert.Equal(t, int32(2), *second.SessionNumber)
}

func TestPostMessageRunsTurn(t *testing.T) {
	svc := newTestAPIService(t)
	conversation := createConversation(t, svc, 1, `{"title": "Check-in"}`)

	c, rec := newEchoContext(t, http.MethodPost, "/api/v1/conversations/"+conversation.UID+"/messages", `{"content": "I feel anxious about tomorrow."}`, 1)
	c.SetParamNames("uid")
	c.SetParamValues(conversation.UID)
	require.NoError(t, svc.PostMessage(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var turn TurnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &turn))
	require.NotNil(t, turn.UserMessage)
	require.NotNil(t, turn.AssistantMessage)
	assert.Equal(t, "I feel anxious about tomorrow.", turn.UserMessage.Content)
	assert.NotEmpty(t, turn.AssistantMessage.Content)
	assert.Nil(t, turn.Crisis)

	// The anxious trigger was captured as a memory.
	mc, mrec := newEchoContext(t, http.MethodGet, "/api/v1/memories", "", 1)
	require.NoError(t, svc.ListMemories(mc))
	var memories []*MemoryResponse
	require.NoError(t, json.Unmarshal(mrec.Body.Bytes(), &memories))
	require.Len(t, memories, 1)
	assert.Equal(t, "TRIGGER", memories[0].Category)
	assert.Equal(t, "I feel anxious about tomorrow", memories[0].Content)
}

func TestPostMessageOtherUsersConversation(t *testing.T) {
	svc := newTestAPIService(t)
	conversation := createConversation(t, svc, 1, `{"title": "Check-in"}`)

	c, rec := newEchoContext(t, http.MethodPost, "/api/v1/conversations/"+conversation.UID+"/messages", `{"content": "hello"}`, 2)
	c.SetParamNames("uid")
	c.SetParamValues(conversation.UID)
	require.NoError(t, svc.PostMessage(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteConversationKeepsMemories(t *testing.T) {
	svc := newTestAPIService(t)
	conversation := createConversation(t, svc, 1, `{"title": "Check-in"}`)

	// A turn that produces one memory.
	c, _ := newEchoContext(t, http.MethodPost, "/api/v1/conversations/"+conversation.UID+"/messages", `{"content": "I am worried about work."}`, 1)
	c.SetParamNames("uid")
	c.SetParamValues(conversation.UID)
	require.NoError(t, svc.PostMessage(c))

	dc, drec := newEchoContext(t, http.MethodDelete, "/api/v1/conversations/"+conversation.UID, "", 1)
	dc.SetParamNames("uid")
	dc.SetParamValues(conversation.UID)
	require.NoError(t, svc.DeleteConversation(dc))
	require.Equal(t, http.StatusOK, drec.Code)

	// Conversation is gone.
	gc, grec := newEchoContext(t, http.MethodGet, "/api/v1/conversations/"+conversation.UID, "", 1)
	gc.SetParamNames("uid")
	gc.SetParamValues(conversation.UID)
	require.NoError(t, svc.GetConversation(gc))
	assert.Equal(t, http.StatusNotFound, grec.Code)

	// Memories survive the deletion.
	mc, mrec := newEchoContext(t, http.MethodGet, "/api/v1/memories", "", 1)
	require.NoError(t, svc.ListMemories(mc))
	var memories []*MemoryResponse
	require.NoError(t, json.Unmarshal(mrec.Body.Bytes(), &memories))
	assert.Len(t, memories, 1)
}

func TestEndConversationHandler(t *testing.T) {
	svc := newTestAPIService(t)
	conversation := createConversation(t, svc, 1, `{"title": "Check-in"}`)

	c, rec := newEchoContext(t, http.MethodPost, "/api/v1/conversations/"+conversation.UID+"/end", `{"summary": "Short but productive."}`, 1)
	c.SetParamNames("uid")
	c.SetParamValues(conversation.UID)
	require.NoError(t, svc.EndConversation(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got ConversationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.NotNil(t, got.EndedTs)
	require.NotNil(t, got.Summary)
	assert.Equal(t, "Short but productive.", *got.Summary)
}
