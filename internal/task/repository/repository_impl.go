package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	taskdomain "github.com/smallbiznis/taskflow/internal/task/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() taskdomain.Repository {
	return &repo{}
}

// Insert stores the task row only; assignees and labels are written through
// the join table helpers.
func (r *repo) Insert(ctx context.Context, db *gorm.DB, task *taskdomain.Task) error {
	return db.WithContext(ctx).Omit(clause.Associations).Create(task).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return db.WithContext(ctx).Model(&taskdomain.Task{}).Where("id = ?", id).Updates(fields).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM tasks WHERE id = ?`, id).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*taskdomain.Task, error) {
	var task taskdomain.Task
	err := db.WithContext(ctx).
		Preload("Assignees", func(tx *gorm.DB) *gorm.DB { return tx.Order("users.id ASC") }).
		Preload("Labels", func(tx *gorm.DB) *gorm.DB { return tx.Order("labels.id ASC") }).
		Where("id = ?", id).
		First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *repo) ListByOrganization(ctx context.Context, db *gorm.DB, orgID snowflake.ID, columnID *snowflake.ID) ([]taskdomain.Task, error) {
	query := db.WithContext(ctx).Model(&taskdomain.Task{}).
		Joins("JOIN board_columns ON board_columns.id = tasks.column_id").
		Joins("JOIN boards ON boards.id = board_columns.board_id").
		Joins("JOIN projects ON projects.id = boards.project_id").
		Where("projects.organization_id = ?", orgID).
		Preload("Assignees", func(tx *gorm.DB) *gorm.DB { return tx.Order("users.id ASC") }).
		Preload("Labels", func(tx *gorm.DB) *gorm.DB { return tx.Order("labels.id ASC") })
	if columnID != nil {
		query = query.Where("tasks.column_id = ?", *columnID)
	}

	var items []taskdomain.Task
	if err := query.Order("tasks.created_at ASC").Order("tasks.id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ReplaceAssignees(ctx context.Context, db *gorm.DB, taskID snowflake.ID, userIDs []snowflake.ID) error {
	if err := db.WithContext(ctx).Exec(`DELETE FROM task_assignees WHERE task_id = ?`, taskID).Error; err != nil {
		return err
	}
	for _, userID := range userIDs {
		if err := r.AddAssignee(ctx, db, taskID, userID); err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) AddAssignee(ctx context.Context, db *gorm.DB, taskID, userID snowflake.ID) error {
	return db.WithContext(ctx).Table("task_assignees").Clauses(clause.OnConflict{DoNothing: true}).
		Create(map[string]any{"task_id": taskID, "user_id": userID}).Error
}

func (r *repo) RemoveAssignee(ctx context.Context, db *gorm.DB, taskID, userID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM task_assignees WHERE task_id = ? AND user_id = ?`,
		taskID,
		userID,
	).Error
}

func (r *repo) ReplaceLabels(ctx context.Context, db *gorm.DB, taskID snowflake.ID, labelIDs []snowflake.ID) error {
	if err := db.WithContext(ctx).Exec(`DELETE FROM task_labels WHERE task_id = ?`, taskID).Error; err != nil {
		return err
	}
	for _, labelID := range labelIDs {
		err := db.WithContext(ctx).Table("task_labels").Clauses(clause.OnConflict{DoNothing: true}).
			Create(map[string]any{"task_id": taskID, "label_id": labelID}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// DetachActivity keeps historical log rows but drops their task reference.
func (r *repo) DetachActivity(ctx context.Context, db *gorm.DB, taskID snowflake.ID) error {
	return db.WithContext(ctx).Exec(`UPDATE activity_logs SET task_id = NULL WHERE task_id = ?`, taskID).Error
}
