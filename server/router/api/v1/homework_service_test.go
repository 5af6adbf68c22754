package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amicoach/amicoach/store"
)

func seedHomework(t *testing.T, svc *APIV1Service, userID int32, title string) *store.Homework {
	t.Helper()
	h, err := svc.Store.CreateHomework(context.Background(), &store.Homework{
		UserID:         userID,
		ConversationID: 1,
		Title:          title,
		Description:    "Log one anxious thought per day",
		Technique:      "cognitive restructuring",
	})
	require.NoError(t, err)
	return h
}

func TestListHomeworkHandler(t *testing.T) {
	svc := newTestAPIService(t)
	seedHomework(t, svc, 1, "Thought record")
	seedHomework(t, svc, 2, "Someone else's assignment")

	c, rec := newEchoContext(t, http.MethodGet, "/api/v1/homework", "", 1)
	require.NoError(t, svc.ListHomework(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got []*HomeworkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Thought record", got[0].Title)
	assert.False(t, got[0].IsCompleted)
}

func TestCompleteHomeworkHandler(t *testing.T) {
	svc := newTestAPIService(t)
	h := seedHomework(t, svc, 1, "Thought record")

	c, rec := newEchoContext(t, http.MethodPost, "/api/v1/homework/1/complete", `{"notes": "Did it five days out of seven."}`, 1)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, svc.CompleteHomework(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got HomeworkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, h.ID, got.ID)
	assert.True(t, got.IsCompleted)
	require.NotNil(t, got.CompletionNotes)
	assert.Equal(t, "Did it five days out of seven.", *got.CompletionNotes)
	require.NotNil(t, got.CompletionTs)

	// The completed filter now finds it.
	fc, frec := newEchoContext(t, http.MethodGet, "/api/v1/homework?completed=true", "", 1)
	require.NoError(t, svc.ListHomework(fc))
	var completed []*HomeworkResponse
	require.NoError(t, json.Unmarshal(frec.Body.Bytes(), &completed))
	assert.Len(t, completed, 1)
}

func TestCompleteHomeworkHandlerHidesOtherUsers(t *testing.T) {
	svc := newTestAPIService(t)
	seedHomework(t, svc, 2, "Someone else's assignment")

	c, rec := newEchoContext(t, http.MethodPost, "/api/v1/homework/1/complete", "", 1)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, svc.CompleteHomework(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
