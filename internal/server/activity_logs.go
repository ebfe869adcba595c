package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	activitydomain "github.com/smallbiznis/taskflow/internal/activity/domain"
)

func (s *Server) ListActivityLogs(c *gin.Context) {
	resp, err := s.activitySvc.List(c.Request.Context(), activitydomain.Filter{
		ProjectID: c.Query("project"),
		UserID:    c.Query("user"),
		TaskID:    c.Query("task"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetActivityLog(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.activitySvc.Get(c.Request.Context(), userIDFrom(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
