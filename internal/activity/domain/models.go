package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/taskflow/internal/auth/domain"
	projectdomain "github.com/smallbiznis/taskflow/internal/project/domain"
	taskdomain "github.com/smallbiznis/taskflow/internal/task/domain"
	"gorm.io/datatypes"
)

const (
	ActionCreated    = "created"
	ActionUpdated    = "updated"
	ActionDeleted    = "deleted"
	ActionCommented  = "commented"
	ActionAssigned   = "assigned"
	ActionUnassigned = "unassigned"
)

// ValidAction reports whether action is a recordable action.
func ValidAction(action string) bool {
	switch action {
	case ActionCreated, ActionUpdated, ActionDeleted, ActionCommented, ActionAssigned, ActionUnassigned:
		return true
	}
	return false
}

// ActivityLog is an append-only record of a user action. The project is
// captured at write time so later task deletion keeps the attribution.
type ActivityLog struct {
	ID          snowflake.ID           `gorm:"primaryKey"`
	UserID      *snowflake.ID          `gorm:"index"`
	User        *authdomain.User       `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
	TaskID      *snowflake.ID          `gorm:"index"`
	Task        *taskdomain.Task       `gorm:"foreignKey:TaskID;constraint:OnDelete:SET NULL"`
	ProjectID   *snowflake.ID          `gorm:"index"`
	Project     *projectdomain.Project `gorm:"foreignKey:ProjectID;constraint:OnDelete:SET NULL"`
	Action      string                 `gorm:"type:varchar(20);not null"`
	Description string                 `gorm:"type:text;not null"`
	Metadata    datatypes.JSONMap
	Timestamp   time.Time              `gorm:"not null;index"`
}

// TableName sets the database table name.
func (ActivityLog) TableName() string { return "activity_logs" }
