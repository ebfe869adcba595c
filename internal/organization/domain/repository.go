package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type OrganizationListItem struct {
	ID   snowflake.ID
	Name string
	Role string
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrganization(ctx context.Context, org *Organization) error
	FindByID(ctx context.Context, id snowflake.ID) (*Organization, error)
	List(ctx context.Context) ([]Organization, error)
	UpdateName(ctx context.Context, id snowflake.ID, name, slug string) error
	Delete(ctx context.Context, id snowflake.ID) error
	AddMemberIfAbsent(ctx context.Context, member *Membership) error
	FindMembership(ctx context.Context, orgID, userID snowflake.ID) (*Membership, error)
	ListOrganizationsByUser(ctx context.Context, userID snowflake.ID) ([]OrganizationListItem, error)
}
