package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/amicoach/amicoach/server/auth"
	"github.com/amicoach/amicoach/store"
)

type SignUpRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type SignInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}

type UserResponse struct {
	ID          int32  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	CreatedTs   int64  `json:"created_ts"`
}

func toUserResponse(u *store.User) *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedTs:   u.CreatedTs,
	}
}

// SignUp creates a new account and returns an access token.
// POST /api/v1/auth/signup
func (s *APIV1Service) SignUp(c echo.Context) error {
	ctx := c.Request().Context()

	var req SignUpRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("malformed request body"))
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, errorBody("username and password are required"))
	}
	if len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, errorBody("password must be at least 8 characters"))
	}

	existing, err := s.Store.GetUser(ctx, &store.FindUser{Username: &req.Username})
	if err != nil {
		return s.writeError(c, err)
	}
	if existing != nil {
		return c.JSON(http.StatusConflict, errorBody("username already taken"))
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return s.writeError(c, err)
	}

	user, err := s.Store.CreateUser(ctx, &store.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		DisplayName:  req.DisplayName,
	})
	if err != nil {
		return s.writeError(c, err)
	}

	token, err := s.Authenticator.IssueToken(user.ID, user.Username)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, AuthResponse{Token: token, User: toUserResponse(user)})
}

// SignIn exchanges credentials for an access token.
// POST /api/v1/auth/signin
func (s *APIV1Service) SignIn(c echo.Context) error {
	ctx := c.Request().Context()

	var req SignInRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("malformed request body"))
	}
	if !s.limiter.Allow(c.RealIP() + "/signin") {
		return c.JSON(http.StatusTooManyRequests, errorBody("rate limit exceeded"))
	}

	user, err := s.Store.GetUser(ctx, &store.FindUser{Username: &req.Username})
	if err != nil {
		return s.writeError(c, err)
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, errorBody("invalid credentials"))
	}

	token, err := s.Authenticator.IssueToken(user.ID, user.Username)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, AuthResponse{Token: token, User: toUserResponse(user)})
}

// GetMe returns the authenticated user.
// GET /api/v1/me
func (s *APIV1Service) GetMe(c echo.Context) error {
	ctx := c.Request().Context()
	userID := currentUserID(c)

	user, err := s.Store.GetUser(ctx, &store.FindUser{ID: &userID})
	if err != nil {
		return s.writeError(c, err)
	}
	if user == nil {
		return c.JSON(http.StatusNotFound, errorBody("user not found"))
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}
