// Package domain contains persistence models for the org service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/taskflow/internal/auth/domain"
)

// Organization represents a tenant.
type Organization struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:varchar(255);not null" json:"name"`
	Slug      string       `gorm:"type:varchar(255);not null;index:ix_organizations_slug" json:"slug"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Organization) TableName() string { return "organizations" }

// Membership represents a user's role inside an organization.
type Membership struct {
	ID           snowflake.ID     `gorm:"primaryKey" json:"id"`
	OrgID        snowflake.ID     `gorm:"not null;index;uniqueIndex:ux_membership_org_user,priority:1" json:"org_id"`
	Organization *Organization    `gorm:"foreignKey:OrgID;constraint:OnDelete:CASCADE" json:"-"`
	UserID       snowflake.ID     `gorm:"not null;index;uniqueIndex:ux_membership_org_user,priority:2" json:"user_id"`
	User         *authdomain.User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Role         string           `gorm:"type:varchar(20);not null" json:"role"`
	CreatedAt    time.Time        `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (Membership) TableName() string { return "memberships" }
