package v1

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/amicoach/amicoach/plugin/memory"
	"github.com/amicoach/amicoach/store"
)

type MemoryResponse struct {
	ID             int32   `json:"id"`
	ConversationID int32   `json:"conversation_id"`
	Content        string  `json:"content"`
	Category       string  `json:"category"`
	Importance     float64 `json:"importance"`
	CreatedTs      int64   `json:"created_ts"`
}

type UpdateMemoryRequest struct {
	Content    *string  `json:"content"`
	Category   *string  `json:"category"`
	Importance *float64 `json:"importance"`
}

func toMemoryResponse(m *store.Memory) *MemoryResponse {
	return &MemoryResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Content:        m.Content,
		Category:       string(m.Category),
		Importance:     m.Importance,
		CreatedTs:      m.CreatedTs,
	}
}

// ListMemories returns the authenticated user's memories ranked by
// importance. Optional query params: conversation_id, category, limit,
// min_importance.
// GET /api/v1/memories
func (s *APIV1Service) ListMemories(c echo.Context) error {
	ctx := c.Request().Context()

	opts := memory.RetrieveOptions{UserID: currentUserID(c)}

	if raw := c.QueryParam("conversation_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorBody("invalid conversation_id"))
		}
		conversationID := int32(id)
		opts.ConversationID = &conversationID
	}
	if raw := c.QueryParam("category"); raw != "" {
		category := store.MemoryCategory(raw)
		opts.Category = &category
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return c.JSON(http.StatusBadRequest, errorBody("invalid limit"))
		}
		opts.Limit = limit
	}
	if raw := c.QueryParam("min_importance"); raw != "" {
		minImportance, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorBody("invalid min_importance"))
		}
		opts.MinImportance = &minImportance
	}

	memories, err := s.MemoryService.Retrieve(ctx, opts)
	if err != nil {
		return s.writeError(c, err)
	}

	response := make([]*MemoryResponse, 0, len(memories))
	for _, m := range memories {
		response = append(response, toMemoryResponse(m))
	}
	return c.JSON(http.StatusOK, response)
}

// GetMemory returns one memory by id.
// GET /api/v1/memories/:id
func (s *APIV1Service) GetMemory(c echo.Context) error {
	ctx := c.Request().Context()

	m, err := s.ownedMemory(ctx, c)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, toMemoryResponse(m))
}

// UpdateMemory applies a user correction to a memory.
// PATCH /api/v1/memories/:id
func (s *APIV1Service) UpdateMemory(c echo.Context) error {
	ctx := c.Request().Context()

	m, err := s.ownedMemory(ctx, c)
	if err != nil {
		return s.writeError(c, err)
	}

	var req UpdateMemoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("malformed request body"))
	}

	patch := memory.UpdatePatch{
		Content:    req.Content,
		Importance: req.Importance,
	}
	if req.Category != nil {
		category := store.MemoryCategory(*req.Category)
		patch.Category = &category
	}

	updated, err := s.MemoryService.Update(ctx, m.ID, patch)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, toMemoryResponse(updated))
}

// DeleteMemory removes a memory.
// DELETE /api/v1/memories/:id
func (s *APIV1Service) DeleteMemory(c echo.Context) error {
	ctx := c.Request().Context()

	m, err := s.ownedMemory(ctx, c)
	if err != nil {
		return s.writeError(c, err)
	}
	if err := s.MemoryService.Delete(ctx, m.ID); err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"deleted": true})
}

// ownedMemory parses :id, loads the memory, and checks ownership. A memory
// owned by another user reads as not found.
func (s *APIV1Service) ownedMemory(ctx context.Context, c echo.Context) (*store.Memory, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		return nil, memory.ErrMemoryNotFound
	}

	m, err := s.MemoryService.Get(ctx, int32(id))
	if err != nil {
		return nil, err
	}
	if m.UserID != currentUserID(c) {
		return nil, memory.ErrMemoryNotFound
	}
	return m, nil
}
