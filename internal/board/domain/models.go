package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	projectdomain "github.com/smallbiznis/taskflow/internal/project/domain"
)

// Board belongs to exactly one project.
type Board struct {
	ID        snowflake.ID           `gorm:"primaryKey"`
	ProjectID snowflake.ID           `gorm:"not null;index"`
	Project   *projectdomain.Project `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	Name      string                 `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time              `gorm:"not null"`
	UpdatedAt time.Time              `gorm:"not null"`
}

// TableName sets the database table name.
func (Board) TableName() string { return "boards" }

// Column is an ordered lane of a board.
type Column struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	BoardID   snowflake.ID `gorm:"not null;index"`
	Board     *Board       `gorm:"foreignKey:BoardID;constraint:OnDelete:CASCADE"`
	Name      string       `gorm:"type:varchar(100);not null"`
	Order     int          `gorm:"column:sort_order;not null;default:0"`
	CreatedAt time.Time    `gorm:"not null"`
}

// TableName sets the database table name.
func (Column) TableName() string { return "board_columns" }
