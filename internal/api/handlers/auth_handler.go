package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/auth"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	TrialKey string `json:"trial_key"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	Role      auth.Role `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AuthHandler struct {
	guard  *auth.Guard
	tokens *auth.TokenIssuer
}

func NewAuthHandler(guard *auth.Guard, tokens *auth.TokenIssuer) *AuthHandler {
	return &AuthHandler{guard: guard, tokens: tokens}
}

// Login exchanges an account password or the trial key for a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	var (
		account auth.Account
		err     error
	)
	switch {
	case req.TrialKey != "":
		account, err = h.guard.LoginTrial(c.Request.Context(), req.TrialKey)
	case strings.TrimSpace(req.Username) != "":
		account, err = h.guard.Login(c.Request.Context(), req.Username, req.Password)
	default:
		badRequest(c, "username or trial_key is required")
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	token, expires, err := h.tokens.Issue(account)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		Username:  account.Username,
		Role:      account.Role,
		ExpiresAt: expires.UTC(),
	})
}
