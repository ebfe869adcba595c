package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/taskflow/internal/auth/domain"
	boarddomain "github.com/smallbiznis/taskflow/internal/board/domain"
	labeldomain "github.com/smallbiznis/taskflow/internal/label/domain"
	orgdomain "github.com/smallbiznis/taskflow/internal/organization/domain"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// DateLayout is the wire and storage layout of calendar dates.
const DateLayout = "2006-01-02"

// Task is a card in a board column. OrganizationID duplicates the owner
// reached through column, board and project and is set on create.
type Task struct {
	ID             snowflake.ID            `gorm:"primaryKey"`
	ColumnID       snowflake.ID            `gorm:"not null;index"`
	Column         *boarddomain.Column     `gorm:"foreignKey:ColumnID;constraint:OnDelete:CASCADE"`
	OrganizationID *snowflake.ID           `gorm:"index"`
	Organization   *orgdomain.Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE"`
	Title          string                  `gorm:"type:varchar(255);not null"`
	Description    string                  `gorm:"type:text;not null;default:''"`
	DueDate        *time.Time              `gorm:"type:date;index"`
	Priority       string                  `gorm:"type:varchar(20);not null;default:medium"`
	Assignees      []authdomain.User       `gorm:"many2many:task_assignees;constraint:OnDelete:CASCADE"`
	Labels         []labeldomain.Label     `gorm:"many2many:task_labels;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time               `gorm:"not null;index"`
	UpdatedAt      time.Time               `gorm:"not null"`
	CompletedAt    *time.Time              `gorm:"index"`
}

// TableName sets the database table name.
func (Task) TableName() string { return "tasks" }

// ValidPriority reports whether p is a known priority.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}
