package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/taskflow/internal/activeorg"
	organizationdomain "github.com/smallbiznis/taskflow/internal/organization/domain"
	"go.uber.org/zap"
)

type createOrganizationRequest struct {
	Name string `json:"name"`
}

type updateOrganizationRequest struct {
	Name *string `json:"name,omitempty"`
}

func (s *Server) ListOrganizations(c *gin.Context) {
	orgs, err := s.orgSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := make([]organizationdomain.OrganizationResponse, 0, len(orgs))
	for _, org := range orgs {
		resp = append(resp, org.ToResponse())
	}
	c.JSON(http.StatusOK, resp)
}

// CreateOrganization creates the organization with the caller as admin and
// makes it the session's active organization. Session state may live outside
// the database, so a failed activation deletes the new organization again.
func (s *Server) CreateOrganization(c *gin.Context) {
	var req createOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()
	userID := userIDFrom(c)
	org, err := s.orgSvc.Create(ctx, userID, organizationdomain.CreateOrganizationRequest{Name: req.Name})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.resolver.SetActiveOrganization(ctx, sessionIDFrom(c), org.ID, activeorg.ReasonCreated); err != nil {
		if derr := s.orgSvc.Delete(ctx, userID, org.ID); derr != nil {
			s.log.Error("discard organization after failed activation",
				zap.String("org_id", org.ID.String()),
				zap.Error(derr),
			)
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, org.ToResponse())
}

func (s *Server) GetOrganization(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	org, err := s.orgSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, org.ToResponse())
}

func (s *Server) UpdateOrganization(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	org, err := s.orgSvc.Update(c.Request.Context(), userIDFrom(c), id, organizationdomain.UpdateOrganizationRequest{
		Name: trimStringPtr(req.Name),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, org.ToResponse())
}

func (s *Server) DeleteOrganization(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.orgSvc.Delete(c.Request.Context(), userIDFrom(c), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) JoinOrganization(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	result, err := s.orgSvc.Join(c.Request.Context(), userIDFrom(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) SwitchOrganization(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	org, err := s.resolver.Switch(c.Request.Context(), sessionIDFrom(c), userIDFrom(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "switched",
		"organization": org.Name,
	})
}

func (s *Server) MyOrganizations(c *gin.Context) {
	ctx := c.Request.Context()
	items, err := s.orgSvc.ListForUser(ctx, userIDFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var activeOrgID *string
	if scope := scopeFrom(c); scope.HasOrg() {
		id := scope.OrgID.String()
		activeOrgID = &id
	}

	c.JSON(http.StatusOK, gin.H{
		"organizations": items,
		"active_org_id": activeOrgID,
	})
}
