package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	orgdomain "github.com/smallbiznis/taskflow/internal/organization/domain"
)

// Project groups boards inside an organization.
type Project struct {
	ID             snowflake.ID            `gorm:"primaryKey"`
	OrganizationID snowflake.ID            `gorm:"not null;index"`
	Organization   *orgdomain.Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE"`
	Name           string                  `gorm:"type:varchar(255);not null"`
	Description    string                  `gorm:"type:text;not null;default:''"`
	CreatedAt      time.Time               `gorm:"not null"`
	UpdatedAt      time.Time               `gorm:"not null"`
}

// TableName sets the database table name.
func (Project) TableName() string { return "projects" }
