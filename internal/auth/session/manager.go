package session

import (
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/taskflow/internal/auth/domain"
	"github.com/smallbiznis/taskflow/internal/clock"
	"github.com/smallbiznis/taskflow/internal/config"
)

const DefaultCookieName = "taskflow_sid"

// Manager carries the raw login token in an HttpOnly cookie that lives as
// long as the session row behind it.
type Manager struct {
	name   string
	secure bool
	clock  clock.Clock
}

func NewManager(cfg config.Config, clk clock.Clock) *Manager {
	name := strings.TrimSpace(cfg.AuthCookieName)
	if name == "" {
		name = DefaultCookieName
	}
	return &Manager{
		name:   name,
		secure: cfg.AuthCookieSecure,
		clock:  clk,
	}
}

// Issue writes the cookie for a fresh login. A session that is already past
// its expiry clears the cookie instead.
func (m *Manager) Issue(c *gin.Context, result *domain.LoginResult) {
	maxAge := int(result.ExpiresAt.Sub(m.clock.Now()) / time.Second)
	if maxAge <= 0 {
		m.Clear(c)
		return
	}
	m.write(c, result.RawToken, maxAge)
}

// Token returns the cookie value when it has the shape of a login token.
func (m *Manager) Token(c *gin.Context) (string, bool) {
	raw, err := c.Cookie(m.name)
	if err != nil {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil || len(decoded) != domain.SessionTokenBytes {
		return "", false
	}
	return raw, true
}

func (m *Manager) Clear(c *gin.Context) {
	m.write(c, "", -1)
}

func (m *Manager) write(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.name, value, maxAge, "/", "", m.secure, true)
}
