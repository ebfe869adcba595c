package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, task *Task) error
	Update(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Task, error)
	ListByOrganization(ctx context.Context, db *gorm.DB, orgID snowflake.ID, columnID *snowflake.ID) ([]Task, error)
	ReplaceAssignees(ctx context.Context, db *gorm.DB, taskID snowflake.ID, userIDs []snowflake.ID) error
	AddAssignee(ctx context.Context, db *gorm.DB, taskID, userID snowflake.ID) error
	RemoveAssignee(ctx context.Context, db *gorm.DB, taskID, userID snowflake.ID) error
	ReplaceLabels(ctx context.Context, db *gorm.DB, taskID snowflake.ID, labelIDs []snowflake.ID) error
	DetachActivity(ctx context.Context, db *gorm.DB, taskID snowflake.ID) error
}
