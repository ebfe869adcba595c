package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	activitydomain "github.com/smallbiznis/taskflow/internal/activity/domain"
	"github.com/smallbiznis/taskflow/internal/authorization"
	"github.com/smallbiznis/taskflow/internal/clock"
	"github.com/smallbiznis/taskflow/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Authz   authorization.Service
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	authz   authorization.Service
	metrics *metrics.Metrics
}

func New(p Params) activitydomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("activity.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		authz:   p.Authz,
		metrics: p.Metrics,
	}
}

// Record resolves the task's project through its column and board and
// appends one row using tx. A returned error must abort the caller's
// transaction.
func (s *Service) Record(ctx context.Context, tx *gorm.DB, req activitydomain.RecordRequest) error {
	if tx == nil {
		return activitydomain.ErrMissingTx
	}
	if !activitydomain.ValidAction(req.Action) {
		return activitydomain.ErrInvalidAction
	}

	var row struct {
		ProjectID int64 `gorm:"column:project_id"`
	}
	err := tx.WithContext(ctx).Raw(
		`SELECT b.project_id AS project_id
		 FROM tasks t
		 JOIN board_columns c ON c.id = t.column_id
		 JOIN boards b ON b.id = c.board_id
		 WHERE t.id = ?`,
		req.TaskID,
	).Scan(&row).Error
	if err != nil {
		return err
	}
	if row.ProjectID == 0 {
		return activitydomain.ErrTaskNotFound
	}

	taskID := req.TaskID
	projectID := snowflake.ID(row.ProjectID)
	entry := &activitydomain.ActivityLog{
		ID:          s.genID.Generate(),
		TaskID:      &taskID,
		ProjectID:   &projectID,
		Action:      req.Action,
		Description: req.Description,
		Timestamp:   s.clock.Now(),
	}
	if req.ActorID != 0 {
		actorID := req.ActorID
		entry.UserID = &actorID
	}
	if len(req.Metadata) > 0 {
		entry.Metadata = datatypes.JSONMap(req.Metadata)
	}

	if err := tx.WithContext(ctx).Create(entry).Error; err != nil {
		return err
	}

	s.metrics.RecordActivity(ctx, req.Action)
	return nil
}

// List returns entries newest first. No organization restriction is applied.
func (s *Service) List(ctx context.Context, filter activitydomain.Filter) ([]activitydomain.Response, error) {
	query := s.db.WithContext(ctx).Model(&activitydomain.ActivityLog{}).
		Preload("User").
		Preload("Task").
		Preload("Project")

	conditions := []struct {
		column string
		raw    string
	}{
		{"project_id", filter.ProjectID},
		{"user_id", filter.UserID},
		{"task_id", filter.TaskID},
	}
	for _, cond := range conditions {
		raw := strings.TrimSpace(cond.raw)
		if raw == "" {
			continue
		}
		id, err := snowflake.ParseString(raw)
		if err != nil {
			return nil, activitydomain.ErrInvalidFilter
		}
		query = query.Where(cond.column+" = ?", id)
	}

	var items []activitydomain.ActivityLog
	if err := query.Order("timestamp DESC").Order("id DESC").Find(&items).Error; err != nil {
		return nil, err
	}

	resp := make([]activitydomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

// Get requires membership in the organization of the entry's project. Entries
// whose project was deleted are visible to their actor only.
func (s *Service) Get(ctx context.Context, userID, id snowflake.ID) (*activitydomain.Response, error) {
	var item activitydomain.ActivityLog
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Task").
		Preload("Project").
		Where("id = ?", id).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, activitydomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if item.ProjectID == nil {
		if item.UserID == nil || *item.UserID != userID {
			return nil, authorization.ErrForbidden
		}
	} else if err := s.authz.Require(ctx, userID, authorization.ActivityLog(item.ID), authorization.LevelMember); err != nil {
		return nil, err
	}

	resp := toResponse(&item)
	return &resp, nil
}

func toResponse(a *activitydomain.ActivityLog) activitydomain.Response {
	resp := activitydomain.Response{
		ID:          a.ID.String(),
		Action:      a.Action,
		Description: a.Description,
		Timestamp:   a.Timestamp,
	}
	if a.UserID != nil {
		resp.User = idString(*a.UserID)
	}
	if a.User != nil {
		resp.UserName = &a.User.Username
	}
	if a.TaskID != nil {
		resp.Task = idString(*a.TaskID)
	}
	if a.Task != nil {
		resp.TaskTitle = &a.Task.Title
	}
	if a.ProjectID != nil {
		resp.Project = idString(*a.ProjectID)
	}
	if a.Project != nil {
		resp.ProjectName = &a.Project.Name
	}
	if len(a.Metadata) > 0 {
		resp.Metadata = map[string]any(a.Metadata)
	}
	return resp
}

func idString(id snowflake.ID) *string {
	v := id.String()
	return &v
}
