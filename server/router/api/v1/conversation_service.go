package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	apierrors "github.com/amicoach/amicoach/server/internal/errors"
	"github.com/amicoach/amicoach/server/service/crisis"
	"github.com/amicoach/amicoach/store"
)

type CreateConversationRequest struct {
	Title           string `json:"title"`
	IsFormalSession bool   `json:"is_formal_session"`
}

type ConversationResponse struct {
	UID             string  `json:"uid"`
	Title           string  `json:"title"`
	IsFormalSession bool    `json:"is_formal_session"`
	SessionNumber   *int32  `json:"session_number,omitempty"`
	StartedTs       int64   `json:"started_ts"`
	EndedTs         *int64  `json:"ended_ts,omitempty"`
	Summary         *string `json:"summary,omitempty"`
}

type MessageResponse struct {
	ID         int32  `json:"id"`
	Content    string `json:"content"`
	IsFromUser bool   `json:"is_from_user"`
	CreatedTs  int64  `json:"created_ts"`
}

type PostMessageRequest struct {
	Content string `json:"content"`
}

type TurnResponse struct {
	UserMessage      *MessageResponse  `json:"user_message"`
	AssistantMessage *MessageResponse  `json:"assistant_message"`
	Crisis           *crisis.Result    `json:"crisis,omitempty"`
	Homework         *HomeworkResponse `json:"homework,omitempty"`
}

type EndConversationRequest struct {
	Summary *string `json:"summary"`
}

func toConversationResponse(conversation *store.Conversation) *ConversationResponse {
	return &ConversationResponse{
		UID:             conversation.UID,
		Title:           conversation.Title,
		IsFormalSession: conversation.IsFormalSession,
		SessionNumber:   conversation.SessionNumber,
		StartedTs:       conversation.StartedTs,
		EndedTs:         conversation.EndedTs,
		Summary:         conversation.Summary,
	}
}

func toMessageResponse(message *store.Message) *MessageResponse {
	return &MessageResponse{
		ID:         message.ID,
		Content:    message.Content,
		IsFromUser: message.IsFromUser,
		CreatedTs:  message.CreatedTs,
	}
}

// CreateConversation starts a new conversation for the authenticated user.
// POST /api/v1/conversations
func (s *APIV1Service) CreateConversation(c echo.Context) error {
	ctx := c.Request().Context()
	userID := currentUserID(c)

	var req CreateConversationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("malformed request body"))
	}

	create := &store.Conversation{
		UID:             shortuuid.New(),
		UserID:          userID,
		Title:           req.Title,
		IsFormalSession: req.IsFormalSession,
	}
	if req.IsFormalSession {
		formal := true
		previous, err := s.Store.ListConversations(ctx, &store.FindConversation{
			UserID:          &userID,
			IsFormalSession: &formal,
		})
		if err != nil {
			return s.writeError(c, err)
		}
		number := int32(len(previous)) + 1
		create.SessionNumber = &number
	}

	conversation, err := s.Store.CreateConversation(ctx, create)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, toConversationResponse(conversation))
}

// ListConversations lists the authenticated user's conversations, newest first.
// GET /api/v1/conversations
func (s *APIV1Service) ListConversations(c echo.Context) error {
	ctx := c.Request().Context()
	userID := currentUserID(c)

	conversations, err := s.Store.ListConversations(ctx, &store.FindConversation{UserID: &userID})
	if err != nil {
		return s.writeError(c, err)
	}

	response := make([]*ConversationResponse, 0, len(conversations))
	for _, conversation := range conversations {
		response = append(response, toConversationResponse(conversation))
	}
	return c.JSON(http.StatusOK, response)
}

// GetConversation returns one conversation by uid.
// GET /api/v1/conversations/:uid
func (s *APIV1Service) GetConversation(c echo.Context) error {
	conversation, err := s.findOwnedConversation(c)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, toConversationResponse(conversation))
}

// DeleteConversation deletes a conversation and its messages. Memories
// extracted from it are kept; they belong to the user, not the conversation.
// DELETE /api/v1/conversations/:uid
func (s *APIV1Service) DeleteConversation(c echo.Context) error {
	ctx := c.Request().Context()

	conversation, err := s.findOwnedConversation(c)
	if err != nil {
		return s.writeError(c, err)
	}
	if err := s.Store.DeleteConversation(ctx, &store.DeleteConversation{ID: conversation.ID}); err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"deleted": true})
}

// ListMessages returns the messages of a conversation in chronological order.
// GET /api/v1/conversations/:uid/messages
func (s *APIV1Service) ListMessages(c echo.Context) error {
	ctx := c.Request().Context()

	conversation, err := s.findOwnedConversation(c)
	if err != nil {
		return s.writeError(c, err)
	}

	messages, err := s.Store.ListMessages(ctx, &store.FindMessage{ConversationID: &conversation.ID})
	if err != nil {
		return s.writeError(c, err)
	}

	response := make([]*MessageResponse, 0, len(messages))
	for _, message := range messages {
		response = append(response, toMessageResponse(message))
	}
	return c.JSON(http.StatusOK, response)
}

// PostMessage runs one coaching turn in the conversation.
// POST /api/v1/conversations/:uid/messages
func (s *APIV1Service) PostMessage(c echo.Context) error {
	ctx := c.Request().Context()
	userID := currentUserID(c)

	var req PostMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("malformed request body"))
	}

	result, err := s.Coach.Turn(ctx, userID, c.Param("uid"), req.Content)
	if err != nil {
		return s.writeError(c, err)
	}

	response := &TurnResponse{
		UserMessage:      toMessageResponse(result.UserMessage),
		AssistantMessage: toMessageResponse(result.AssistantMessage),
		Crisis:           result.Crisis,
	}
	if result.Homework != nil {
		response.Homework = toHomeworkResponse(result.Homework)
	}
	return c.JSON(http.StatusOK, response)
}

// EndConversation marks a conversation as ended, optionally with a summary.
// POST /api/v1/conversations/:uid/end
func (s *APIV1Service) EndConversation(c echo.Context) error {
	ctx := c.Request().Context()
	userID := currentUserID(c)

	var req EndConversationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("malformed request body"))
	}

	conversation, err := s.Coach.EndSession(ctx, userID, c.Param("uid"), req.Summary)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, toConversationResponse(conversation))
}

// findOwnedConversation loads the :uid conversation and checks ownership.
// A conversation owned by another user reads as not found.
func (s *APIV1Service) findOwnedConversation(c echo.Context) (*store.Conversation, error) {
	ctx := c.Request().Context()
	userID := currentUserID(c)
	uid := c.Param("uid")

	conversation, err := s.Store.GetConversation(ctx, &store.FindConversation{UID: &uid})
	if err != nil {
		return nil, apierrors.StorageFailure("failed to load conversation", err)
	}
	if conversation == nil || conversation.UserID != userID {
		return nil, apierrors.NotFound("conversation not found")
	}
	return conversation, nil
}
