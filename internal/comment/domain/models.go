package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/taskflow/internal/auth/domain"
	taskdomain "github.com/smallbiznis/taskflow/internal/task/domain"
)

// Comment is a note on a task. ParentID links a reply to the comment it
// answers; deleting a comment removes its replies.
type Comment struct {
	ID        snowflake.ID     `gorm:"primaryKey"`
	TaskID    snowflake.ID     `gorm:"not null;index"`
	Task      *taskdomain.Task `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
	UserID    snowflake.ID     `gorm:"not null;index"`
	User      authdomain.User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Content   string           `gorm:"type:text;not null"`
	ParentID  *snowflake.ID    `gorm:"index"`
	Parent    *Comment         `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time        `gorm:"not null"`
}

// TableName sets the database table name.
func (Comment) TableName() string { return "comments" }
