package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/session"
)

type SessionKeyRequest struct {
	APIKey string `json:"apiKey" binding:"required"`
}

type SessionKeyResponse struct {
	HasKey bool   `json:"hasKey"`
	Masked string `json:"masked,omitempty"`
}

// SessionController manages the user's own OpenRouter key (BYOK).
type SessionController struct {
	keys KeyStore
	log  *zap.Logger
}

func NewSessionController(keys KeyStore, log *zap.Logger) *SessionController {
	return &SessionController{keys: keys, log: log}
}

// GetKey handles GET /api/session/key. The key itself never leaves the server.
func (sc *SessionController) GetKey(c *gin.Context) {
	key, err := sc.keys.UserKey(c.Request.Context())
	if err != nil {
		if !errors.Is(err, session.ErrNoUserKey) {
			sc.log.Warn("discarded unreadable session key", zap.Error(err))
		}
		c.JSON(http.StatusOK, SessionKeyResponse{HasKey: false})
		return
	}
	c.JSON(http.StatusOK, SessionKeyResponse{HasKey: true, Masked: session.MaskKey(key)})
}

// PutKey handles PUT /api/session/key
func (sc *SessionController) PutKey(c *gin.Context) {
	var req SessionKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "apiKey is required")
		return
	}
	if err := sc.keys.PutUserKey(c.Request.Context(), req.APIKey); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, SessionKeyResponse{HasKey: true, Masked: session.MaskKey(req.APIKey)})
}

// DeleteKey handles DELETE /api/session/key
func (sc *SessionController) DeleteKey(c *gin.Context) {
	sc.keys.DeleteUserKey(c.Request.Context())
	c.JSON(http.StatusOK, SessionKeyResponse{HasKey: false})
}

// CSRFToken handles GET /api/csrf. Clients send the token back in the
// X-CSRF-Token header.
func CSRFToken(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"token": session.Token(c), "header": session.TokenHeader})
}

// userKey returns the session's BYOK key, or "" to use server providers.
func userKey(c *gin.Context, keys KeyStore) string {
	if keys == nil || !keys.HasUserKey(c.Request.Context()) {
		return ""
	}
	key, err := keys.UserKey(c.Request.Context())
	if err != nil {
		return ""
	}
	return key
}
