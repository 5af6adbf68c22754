package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	apierrors "github.com/amicoach/amicoach/server/internal/errors"
	"github.com/amicoach/amicoach/store"
)

type HomeworkResponse struct {
	ID              int32   `json:"id"`
	ConversationID  int32   `json:"conversation_id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Technique       string  `json:"technique"`
	IsCompleted     bool    `json:"is_completed"`
	CompletionNotes *string `json:"completion_notes,omitempty"`
	CompletionTs    *int64  `json:"completion_ts,omitempty"`
	CreatedTs       int64   `json:"created_ts"`
}

type CompleteHomeworkRequest struct {
	Notes *string `json:"notes"`
}

func toHomeworkResponse(h *store.Homework) *HomeworkResponse {
	return &HomeworkResponse{
		ID:              h.ID,
		ConversationID:  h.ConversationID,
		Title:           h.Title,
		Description:     h.Description,
		Technique:       h.Technique,
		IsCompleted:     h.IsCompleted,
		CompletionNotes: h.CompletionNotes,
		CompletionTs:    h.CompletionTs,
		CreatedTs:       h.CreatedTs,
	}
}

// ListHomework lists the authenticated user's homework, newest first.
// Optional query param: completed=true|false.
// GET /api/v1/homework
func (s *APIV1Service) ListHomework(c echo.Context) error {
	ctx := c.Request().Context()
	userID := currentUserID(c)

	find := &store.FindHomework{UserID: &userID}
	if raw := c.QueryParam("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorBody("invalid completed filter"))
		}
		find.IsCompleted = &completed
	}

	homework, err := s.Store.ListHomework(ctx, find)
	if err != nil {
		return s.writeError(c, err)
	}

	response := make([]*HomeworkResponse, 0, len(homework))
	for _, h := range homework {
		response = append(response, toHomeworkResponse(h))
	}
	return c.JSON(http.StatusOK, response)
}

// CompleteHomework marks a homework assignment as done.
// POST /api/v1/homework/:id/complete
func (s *APIV1Service) CompleteHomework(c echo.Context) error {
	ctx := c.Request().Context()
	userID := currentUserID(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		return s.writeError(c, apierrors.NotFound("homework not found"))
	}
	homeworkID := int32(id)

	var req CompleteHomeworkRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("malformed request body"))
	}

	existing, err := s.Store.GetHomework(ctx, &store.FindHomework{ID: &homeworkID})
	if err != nil {
		return s.writeError(c, apierrors.StorageFailure("failed to load homework", err))
	}
	if existing == nil || existing.UserID != userID {
		return s.writeError(c, apierrors.NotFound("homework not found"))
	}

	completed := true
	completionTs := time.Now().Unix()
	updated, err := s.Store.UpdateHomework(ctx, &store.UpdateHomework{
		ID:              homeworkID,
		IsCompleted:     &completed,
		CompletionNotes: req.Notes,
		CompletionTs:    &completionTs,
	})
	if err != nil {
		return s.writeError(c, apierrors.StorageFailure("failed to complete homework", err))
	}
	return c.JSON(http.StatusOK, toHomeworkResponse(updated))
}
