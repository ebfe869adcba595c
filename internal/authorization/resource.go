package authorization

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ResourceKind names an entity type that belongs to an organization.
type ResourceKind string

const (
	KindOrganization ResourceKind = "organization"
	KindProject      ResourceKind = "project"
	KindBoard        ResourceKind = "board"
	KindColumn       ResourceKind = "column"
	KindTask         ResourceKind = "task"
	KindComment      ResourceKind = "comment"
	KindLabel        ResourceKind = "label"
	KindActivityLog  ResourceKind = "activity_log"
)

// Resource identifies one entity.
type Resource struct {
	Kind ResourceKind
	ID   snowflake.ID
}

func Organization(id snowflake.ID) Resource { return Resource{Kind: KindOrganization, ID: id} }
func Project(id snowflake.ID) Resource      { return Resource{Kind: KindProject, ID: id} }
func Board(id snowflake.ID) Resource        { return Resource{Kind: KindBoard, ID: id} }
func Column(id snowflake.ID) Resource       { return Resource{Kind: KindColumn, ID: id} }
func Task(id snowflake.ID) Resource         { return Resource{Kind: KindTask, ID: id} }
func Comment(id snowflake.ID) Resource      { return Resource{Kind: KindComment, ID: id} }
func Label(id snowflake.ID) Resource        { return Resource{Kind: KindLabel, ID: id} }
func ActivityLog(id snowflake.ID) Resource  { return Resource{Kind: KindActivityLog, ID: id} }

// Owner queries select (org_id) for a resource id. Activity logs whose
// project was removed yield a NULL org and therefore no owner.
var ownerQueries = map[ResourceKind]string{
	KindOrganization: `SELECT id AS org_id FROM organizations WHERE id = ?`,
	KindProject:      `SELECT organization_id AS org_id FROM projects WHERE id = ?`,
	KindBoard: `SELECT p.organization_id AS org_id
		 FROM boards b
		 JOIN projects p ON p.id = b.project_id
		 WHERE b.id = ?`,
	KindColumn: `SELECT p.organization_id AS org_id
		 FROM board_columns c
		 JOIN boards b ON b.id = c.board_id
		 JOIN projects p ON p.id = b.project_id
		 WHERE c.id = ?`,
	KindTask: `SELECT p.organization_id AS org_id
		 FROM tasks t
		 JOIN board_columns c ON c.id = t.column_id
		 JOIN boards b ON b.id = c.board_id
		 JOIN projects p ON p.id = b.project_id
		 WHERE t.id = ?`,
	KindComment: `SELECT p.organization_id AS org_id
		 FROM comments cm
		 JOIN tasks t ON t.id = cm.task_id
		 JOIN board_columns c ON c.id = t.column_id
		 JOIN boards b ON b.id = c.board_id
		 JOIN projects p ON p.id = b.project_id
		 WHERE cm.id = ?`,
	KindLabel: `SELECT organization_id AS org_id FROM labels WHERE id = ?`,
	KindActivityLog: `SELECT p.organization_id AS org_id
		 FROM activity_logs a
		 JOIN projects p ON p.id = a.project_id
		 WHERE a.id = ?`,
}

// ResolveOwner returns the organization that owns res, following the parent
// chain in a single query. db may be a transaction.
func ResolveOwner(ctx context.Context, db *gorm.DB, res Resource) (snowflake.ID, error) {
	query, ok := ownerQueries[res.Kind]
	if !ok || res.ID == 0 {
		return 0, ErrInvalidResource
	}

	var row struct {
		OrgID *int64 `gorm:"column:org_id"`
	}
	err := db.WithContext(ctx).Raw(query, res.ID).Scan(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrResourceNotFound
		}
		return 0, err
	}
	if row.OrgID == nil || *row.OrgID == 0 {
		return 0, ErrResourceNotFound
	}
	return snowflake.ID(*row.OrgID), nil
}
