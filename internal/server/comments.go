package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	commentdomain "github.com/smallbiznis/taskflow/internal/comment/domain"
)

func (s *Server) ListComments(c *gin.Context) {
	resp, err := s.commentSvc.List(c.Request.Context(), scopeFrom(c), commentdomain.ListFilter{
		TaskID: c.Query("task"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) CreateComment(c *gin.Context) {
	var req commentdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.commentSvc.Create(c.Request.Context(), scopeFrom(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) GetComment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.commentSvc.Get(c.Request.Context(), scopeFrom(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) UpdateComment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req commentdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.commentSvc.Update(c.Request.Context(), scopeFrom(c), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) DeleteComment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.commentSvc.Delete(c.Request.Context(), scopeFrom(c), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
