package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	orgdomain "github.com/smallbiznis/taskflow/internal/organization/domain"
)

// Label tags tasks inside one organization.
type Label struct {
	ID             snowflake.ID            `gorm:"primaryKey"`
	OrganizationID snowflake.ID            `gorm:"not null;index"`
	Organization   *orgdomain.Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE"`
	Name           string                  `gorm:"type:varchar(50);not null"`
	Color          string                  `gorm:"type:varchar(20);not null"`
	CreatedAt      time.Time               `gorm:"not null"`
}

// TableName sets the database table name.
func (Label) TableName() string { return "labels" }
