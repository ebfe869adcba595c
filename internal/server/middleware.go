package server

import (
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/taskflow/internal/activeorg"
	obscontext "github.com/smallbiznis/taskflow/internal/observability/context"
)

const (
	contextUserIDKey    = "user_id"
	contextSessionIDKey = "session_id"
	contextScopeKey     = "scope"
	contextActiveOrgKey = "active_org_id"
)

// AuthRequired authenticates the session cookie and resolves the request
// scope, including the session's active organization.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.Token(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		sess, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := obscontext.WithActor(c.Request.Context(), obscontext.ActorTypeUser, sess.UserID.String())
		scope, err := s.resolver.ScopeFor(ctx, sess.UserID, sess.ID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if scope.HasOrg() {
			ctx = obscontext.WithOrgID(ctx, scope.OrgID.String())
			c.Set(contextActiveOrgKey, scope.OrgID.String())
		}
		c.Request = c.Request.WithContext(ctx)

		c.Set(contextUserIDKey, sess.UserID)
		c.Set(contextSessionIDKey, sess.ID)
		c.Set(contextScopeKey, scope)
		c.Next()
	}
}

func scopeFrom(c *gin.Context) activeorg.Scope {
	if v, ok := c.Get(contextScopeKey); ok {
		if scope, ok := v.(activeorg.Scope); ok {
			return scope
		}
	}
	return activeorg.Scope{}
}

func userIDFrom(c *gin.Context) snowflake.ID {
	if v, ok := c.Get(contextUserIDKey); ok {
		if id, ok := v.(snowflake.ID); ok {
			return id
		}
	}
	return 0
}

func sessionIDFrom(c *gin.Context) snowflake.ID {
	if v, ok := c.Get(contextSessionIDKey); ok {
		if id, ok := v.(snowflake.ID); ok {
			return id
		}
	}
	return 0
}

// ThrottleLogin rejects login attempts over the per-address limit.
func (s *Server) ThrottleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		res := s.limiter.Allow(c.Request.Context(), c.ClientIP())
		if !res.Allowed {
			seconds := int(res.RetryAfter.Seconds())
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
