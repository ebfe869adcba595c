package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	boarddomain "github.com/smallbiznis/taskflow/internal/board/domain"
)

func (s *Server) ListBoards(c *gin.Context) {
	resp, err := s.boardSvc.List(c.Request.Context(), scopeFrom(c), boarddomain.ListFilter{
		ProjectID: c.Query("project"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) CreateBoard(c *gin.Context) {
	var req boarddomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.boardSvc.Create(c.Request.Context(), scopeFrom(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) GetBoard(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.boardSvc.Get(c.Request.Context(), scopeFrom(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) UpdateBoard(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req boarddomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.boardSvc.Update(c.Request.Context(), scopeFrom(c), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) DeleteBoard(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.boardSvc.Delete(c.Request.Context(), scopeFrom(c), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) ListColumns(c *gin.Context) {
	resp, err := s.columnSvc.List(c.Request.Context(), scopeFrom(c), boarddomain.ColumnListFilter{
		BoardID: c.Query("board"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) CreateColumn(c *gin.Context) {
	var req boarddomain.CreateColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.columnSvc.Create(c.Request.Context(), scopeFrom(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) GetColumn(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.columnSvc.Get(c.Request.Context(), scopeFrom(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) UpdateColumn(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req boarddomain.UpdateColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.columnSvc.Update(c.Request.Context(), scopeFrom(c), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) DeleteColumn(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.columnSvc.Delete(c.Request.Context(), scopeFrom(c), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
