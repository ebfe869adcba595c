package session

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/taskflow/internal/auth/domain"
	"github.com/smallbiznis/taskflow/internal/clock"
	"github.com/smallbiznis/taskflow/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managerNow = time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

func newContext(method, path string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, path, nil)
	return c, rec
}

func rawToken(fill byte) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strings.Repeat(string(fill), domain.SessionTokenBytes)))
}

func TestManagerIssueAndRead(t *testing.T) {
	m := NewManager(config.Config{AuthCookieSecure: true}, clock.NewFakeClock(managerNow))
	token := rawToken('a')

	c, rec := newContext(http.MethodPost, "/auth/login")
	m.Issue(c, &domain.LoginResult{RawToken: token, ExpiresAt: managerNow.Add(24 * time.Hour)})

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, DefaultCookieName, cookies[0].Name)
	assert.Equal(t, 24*60*60, cookies[0].MaxAge)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)

	c, _ = newContext(http.MethodGet, "/auth/me")
	c.Request.AddCookie(cookies[0])
	got, ok := m.Token(c)
	assert.True(t, ok)
	assert.Equal(t, token, got)

	c, _ = newContext(http.MethodGet, "/auth/me")
	_, ok = m.Token(c)
	assert.False(t, ok)
}

func TestManagerRejectsForeignTokens(t *testing.T) {
	m := NewManager(config.Config{}, clock.NewFakeClock(managerNow))

	for _, value := range []string{"bogus", "not base64 !", base64.RawURLEncoding.EncodeToString([]byte("short"))} {
		c, _ := newContext(http.MethodGet, "/auth/me")
		c.Request.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: value})
		_, ok := m.Token(c)
		assert.False(t, ok, value)
	}
}

func TestManagerUsesConfiguredName(t *testing.T) {
	m := NewManager(config.Config{AuthCookieName: "tf"}, clock.NewFakeClock(managerNow))
	token := rawToken('b')

	c, _ := newContext(http.MethodGet, "/auth/me")
	c.Request.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: token})
	_, ok := m.Token(c)
	assert.False(t, ok)

	c.Request.AddCookie(&http.Cookie{Name: "tf", Value: token})
	got, ok := m.Token(c)
	assert.True(t, ok)
	assert.Equal(t, token, got)
}

func TestManagerIssueExpiredSessionClears(t *testing.T) {
	m := NewManager(config.Config{}, clock.NewFakeClock(managerNow))

	c, rec := newContext(http.MethodPost, "/auth/login")
	m.Issue(c, &domain.LoginResult{RawToken: rawToken('c'), ExpiresAt: managerNow.Add(-time.Minute)})

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestManagerClear(t *testing.T) {
	m := NewManager(config.Config{}, clock.NewFakeClock(managerNow))

	c, rec := newContext(http.MethodPost, "/auth/logout")
	m.Clear(c)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestRedisKey(t *testing.T) {
	assert.Equal(t, "taskflow:session:42", redisKey(snowflake.ID(42)))
}
