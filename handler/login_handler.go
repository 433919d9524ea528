package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tieubaoca/finsight-be/logger"
	"github.com/tieubaoca/finsight-be/middleware"
	"github.com/tieubaoca/finsight-be/types"
)

const oauthStateCookie = "oauth_state"

type Authenticator interface {
	AuthCodeURL(state string) string
	Login(ctx context.Context, code string) (*types.User, error)
}

type LoginHandler struct {
	auth        Authenticator
	sessions    *middleware.SessionManager
	frontendURL string
	secure      bool
	logger      *slog.Logger
}

func NewLoginHandler(auth Authenticator, sessions *middleware.SessionManager, frontendURL string, secureCookies bool) *LoginHandler {
	return &LoginHandler{
		auth:        auth,
		sessions:    sessions,
		frontendURL: frontendURL,
		secure:      secureCookies,
		logger:      logger.NewModuleLogger("handler", "login"),
	}
}

// HandleLogin redirects to the Google consent page.
func (h *LoginHandler) HandleLogin(c *gin.Context) {
	state := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, 600, "/", "", h.secure, true)
	c.Redirect(http.StatusFound, h.auth.AuthCodeURL(state))
}

func (h *LoginHandler) HandleCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "Authorization code not provided"})
		return
	}
	expected, err := c.Cookie(oauthStateCookie)
	if err != nil || expected == "" || c.Query("state") != expected {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "Invalid OAuth state"})
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/", "", h.secure, true)

	user, err := h.auth.Login(c.Request.Context(), code)
	if err != nil {
		h.logger.Warn("login failed", "error", err)
		writeError(c, err, "")
		return
	}
	if err := h.sessions.Establish(c, user); err != nil {
		writeError(c, err, "")
		return
	}

	target := h.frontendURL + "?name=" + url.QueryEscape(user.Name)
	c.Redirect(http.StatusFound, target)
}

func (h *LoginHandler) HandleLogout(c *gin.Context) {
	h.sessions.Clear(c)
	c.JSON(http.StatusOK, types.MessageResponse{Message: "Logout successful"})
}

func (h *LoginHandler) HandleMe(c *gin.Context) {
	session, _ := middleware.SessionFromContext(c)
	c.JSON(http.StatusOK, gin.H{
		"user_id": session.UserID,
		"name":    session.Name,
		"email":   session.Email,
	})
}

func (h *LoginHandler) HandleDebugSession(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, session)
}
