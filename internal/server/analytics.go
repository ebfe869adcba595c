package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	analyticsdomain "github.com/smallbiznis/taskflow/internal/analytics/domain"
)

func analyticsRequest(c *gin.Context) analyticsdomain.Request {
	return analyticsdomain.Request{
		OrgID:     c.Query("org_id"),
		ProjectID: c.Query("project_id"),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	}
}

func (s *Server) TasksCompletedPerDay(c *gin.Context) {
	resp, err := s.analyticsSvc.CompletedPerDay(c.Request.Context(), userIDFrom(c), analyticsRequest(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) MemberProductivity(c *gin.Context) {
	resp, err := s.analyticsSvc.MemberProductivity(c.Request.Context(), userIDFrom(c), analyticsRequest(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) MissedDeadlines(c *gin.Context) {
	resp, err := s.analyticsSvc.MissedDeadlines(c.Request.Context(), userIDFrom(c), analyticsRequest(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) BurndownChart(c *gin.Context) {
	resp, err := s.analyticsSvc.BurndownChart(c.Request.Context(), userIDFrom(c), analyticsRequest(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
