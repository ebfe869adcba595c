package authorization

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrForbidden        = errors.New("forbidden")
	ErrResourceNotFound = errors.New("resource_not_found")
	ErrInvalidResource  = errors.New("invalid_resource")
)

// Service decides whether a user holds a level on a resource's organization.
// A missing membership is a denial, never an error.
type Service interface {
	Authorize(ctx context.Context, userID snowflake.ID, res Resource, level Level) (bool, error)
	AuthorizeOrg(ctx context.Context, userID, orgID snowflake.ID, level Level) (bool, error)
	Require(ctx context.Context, userID snowflake.ID, res Resource, level Level) error
	RequireOrg(ctx context.Context, userID, orgID snowflake.ID, level Level) error
	OwningOrganization(ctx context.Context, res Resource) (snowflake.ID, error)
}
