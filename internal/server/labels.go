package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	labeldomain "github.com/smallbiznis/taskflow/internal/label/domain"
)

func (s *Server) ListLabels(c *gin.Context) {
	resp, err := s.labelSvc.List(c.Request.Context(), scopeFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) CreateLabel(c *gin.Context) {
	var req labeldomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.labelSvc.Create(c.Request.Context(), scopeFrom(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) GetLabel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.labelSvc.Get(c.Request.Context(), scopeFrom(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) UpdateLabel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req labeldomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.labelSvc.Update(c.Request.Context(), scopeFrom(c), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) DeleteLabel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.labelSvc.Delete(c.Request.Context(), scopeFrom(c), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
