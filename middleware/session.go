package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/finsight-be/logger"
	"github.com/tieubaoca/finsight-be/types"
	"github.com/tieubaoca/finsight-be/utils"
)

const sessionContextKey = "session"

type SessionConfig struct {
	CookieName string
	Secret     []byte
	TTL        time.Duration
	Secure     bool
}

// SessionManager keeps login state in a signed cookie, one per client.
type SessionManager struct {
	cfg    SessionConfig
	logger *slog.Logger
}

func NewSessionManager(cfg SessionConfig) *SessionManager {
	if cfg.CookieName == "" {
		cfg.CookieName = "finsight_session"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &SessionManager{
		cfg:    cfg,
		logger: logger.NewModuleLogger("middleware", "session"),
	}
}

// LoadSession decodes the session cookie when present. Invalid or expired
// cookies are ignored.
func (m *SessionManager) LoadSession(c *gin.Context) {
	token, err := c.Cookie(m.cfg.CookieName)
	if err == nil && token != "" {
		session, err := utils.ParseSessionToken(token, m.cfg.Secret)
		if err != nil {
			m.logger.Debug("ignoring session cookie", "error", err)
		} else {
			c.Set(sessionContextKey, session)
		}
	}
	c.Next()
}

// RequireSession rejects requests without a valid session.
func (m *SessionManager) RequireSession(c *gin.Context) {
	if _, ok := SessionFromContext(c); !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, types.ErrorResponse{
			Error: "Authentication required",
		})
		return
	}
	c.Next()
}

// Establish issues the session cookie for user.
func (m *SessionManager) Establish(c *gin.Context, user *types.User) error {
	token, err := utils.GenerateSessionToken(user, m.cfg.Secret, m.cfg.TTL)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cfg.CookieName, token, int(m.cfg.TTL.Seconds()), "/", "", m.cfg.Secure, true)
	return nil
}

func (m *SessionManager) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cfg.CookieName, "", -1, "/", "", m.cfg.Secure, true)
	c.Set(sessionContextKey, nil)
}

func SessionFromContext(c *gin.Context) (*types.Session, bool) {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return nil, false
	}
	session, ok := v.(*types.Session)
	return session, ok && session != nil
}
