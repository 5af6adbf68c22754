// Package v1 exposes the JSON API under /api/v1.
package v1

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/amicoach/amicoach/internal/profile"
	"github.com/amicoach/amicoach/plugin/memory"
	"github.com/amicoach/amicoach/server/ai"
	"github.com/amicoach/amicoach/server/auth"
	apierrors "github.com/amicoach/amicoach/server/internal/errors"
	"github.com/amicoach/amicoach/server/internal/observability"
	"github.com/amicoach/amicoach/server/middleware"
	"github.com/amicoach/amicoach/server/service/coach"
	"github.com/amicoach/amicoach/server/service/crisis"
	"github.com/amicoach/amicoach/store"
)

// userIDContextKey is the echo context key holding the authenticated user id.
const userIDContextKey = "user-id"

type APIV1Service struct {
	Profile       *profile.Profile
	Store         *store.Store
	MemoryService memory.Service
	Coach         *coach.Coach
	Authenticator *auth.Authenticator

	logger  *slog.Logger
	limiter *middleware.RateLimiter
}

// NewAPIV1Service wires the service graph. chatter may be nil when no LLM is
// configured; coaching then degrades to canned replies.
func NewAPIV1Service(profile *profile.Profile, s *store.Store, chatter ai.Chatter, logger *slog.Logger) (*APIV1Service, error) {
	authenticator, err := auth.NewAuthenticator(profile.Secret)
	if err != nil {
		return nil, err
	}

	memoryService := memory.NewService(s)
	coachService := coach.New(s, memoryService, memory.NewKeywordExtractor(), chatter, crisis.NewDetector(), logger)

	return &APIV1Service{
		Profile:       profile,
		Store:         s,
		MemoryService: memoryService,
		Coach:         coachService,
		Authenticator: authenticator,
		logger:        logger,
		limiter:       middleware.NewRateLimiter(time.Second/10, 20),
	}, nil
}

// Register mounts the API routes on the given echo instance.
func (s *APIV1Service) Register(e *echo.Echo) {
	api := e.Group("/api/v1")

	public := api.Group("/auth")
	public.POST("/signup", s.SignUp)
	public.POST("/signin", s.SignIn)

	protected := api.Group("", s.authMiddleware)
	protected.GET("/me", s.GetMe)

	protected.POST("/conversations", s.CreateConversation)
	protected.GET("/conversations", s.ListConversations)
	protected.GET("/conversations/:uid", s.GetConversation)
	protected.DELETE("/conversations/:uid", s.DeleteConversation)
	protected.GET("/conversations/:uid/messages", s.ListMessages)
	protected.POST("/conversations/:uid/messages", s.PostMessage)
	protected.POST("/conversations/:uid/end", s.EndConversation)

	protected.GET("/memories", s.ListMemories)
	protected.GET("/memories/:id", s.GetMemory)
	protected.PATCH("/memories/:id", s.UpdateMemory)
	protected.DELETE("/memories/:id", s.DeleteMemory)

	protected.GET("/homework", s.ListHomework)
	protected.POST("/homework/:id/complete", s.CompleteHomework)
}

// authMiddleware validates the bearer token and rate limits per user.
func (s *APIV1Service) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, _, err := s.Authenticator.ValidateToken(c.Request().Header.Get("Authorization"))
		if err != nil {
			return s.writeError(c, apierrors.Unauthorized("authentication required"))
		}
		if !s.limiter.Allow("user/" + strconv.FormatInt(int64(userID), 10)) {
			return s.writeError(c, apierrors.RateLimitExceeded("rate limit exceeded"))
		}
		c.Set(userIDContextKey, userID)

		reqCtx := observability.NewRequestContext(s.logger, "api", userID)
		ctx := observability.WithRequestContext(c.Request().Context(), reqCtx)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

func currentUserID(c echo.Context) int32 {
	userID, _ := c.Get(userIDContextKey).(int32)
	return userID
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

// writeError maps service errors to HTTP statuses in one place.
func (s *APIV1Service) writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, memory.ErrMemoryNotFound):
		return c.JSON(http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, memory.ErrInvalidImportance),
		errors.Is(err, memory.ErrInvalidCategory),
		errors.Is(err, memory.ErrEmptyContent),
		errors.Is(err, memory.ErrUserIDRequired):
		return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
	}

	switch apierrors.GetCodeFromError(err, apierrors.ErrCodeStorageFailure) {
	case apierrors.ErrCodeInvalidArgument:
		return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
	case apierrors.ErrCodeNotFound:
		return c.JSON(http.StatusNotFound, errorBody(err.Error()))
	case apierrors.ErrCodeUnauthorized:
		return c.JSON(http.StatusUnauthorized, errorBody(err.Error()))
	case apierrors.ErrCodePermissionDenied:
		return c.JSON(http.StatusForbidden, errorBody(err.Error()))
	case apierrors.ErrCodeRateLimitExceeded:
		return c.JSON(http.StatusTooManyRequests, errorBody(err.Error()))
	case apierrors.ErrCodeLLMUnavailable, apierrors.ErrCodeTimeout:
		return c.JSON(http.StatusServiceUnavailable, errorBody(err.Error()))
	default:
		s.logger.Error("internal error",
			"error", err,
			"path", c.Path(),
			observability.LogFieldErrorCode, string(apierrors.GetCodeFromError(err, apierrors.ErrCodeStorageFailure)))
		return c.JSON(http.StatusInternalServerError, errorBody("internal server error"))
	}
}
