package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleMember  = "member"
)

// ValidRole reports whether role is one of the membership roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleMember:
		return true
	}
	return false
}

type Service interface {
	Create(ctx context.Context, userID snowflake.ID, req CreateOrganizationRequest) (*Organization, error)
	Get(ctx context.Context, id snowflake.ID) (*Organization, error)
	List(ctx context.Context) ([]Organization, error)
	Update(ctx context.Context, userID, id snowflake.ID, req UpdateOrganizationRequest) (*Organization, error)
	Delete(ctx context.Context, userID, id snowflake.ID) error
	Join(ctx context.Context, userID, orgID snowflake.ID) (*JoinResult, error)
	RoleFor(ctx context.Context, orgID, userID snowflake.ID) (string, bool, error)
	ListForUser(ctx context.Context, userID snowflake.ID) ([]OrganizationListResponseItem, error)
}

type CreateOrganizationRequest struct {
	Name string
}

type UpdateOrganizationRequest struct {
	Name *string
}

type JoinResult struct {
	Status string `json:"status"`
	Role   string `json:"role"`
}

type OrganizationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// ToResponse converts an organization to its public shape.
func (o Organization) ToResponse() OrganizationResponse {
	return OrganizationResponse{
		ID:        o.ID.String(),
		Name:      o.Name,
		Slug:      o.Slug,
		CreatedAt: o.CreatedAt,
	}
}

type OrganizationListResponseItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}
