package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/taskflow/internal/activeorg"
	activitydomain "github.com/smallbiznis/taskflow/internal/activity/domain"
	authdomain "github.com/smallbiznis/taskflow/internal/auth/domain"
	"github.com/smallbiznis/taskflow/internal/authorization"
	"github.com/smallbiznis/taskflow/internal/clock"
	labeldomain "github.com/smallbiznis/taskflow/internal/label/domain"
	taskdomain "github.com/smallbiznis/taskflow/internal/task/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxTitleLength = 255

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     taskdomain.Repository
	Authz    authorization.Service
	Recorder activitydomain.Recorder
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     taskdomain.Repository
	authz    authorization.Service
	recorder activitydomain.Recorder
}

func New(p Params) taskdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("task.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		authz:    p.Authz,
		recorder: p.Recorder,
	}
}

func (s *Service) List(ctx context.Context, scope activeorg.Scope, filter taskdomain.ListFilter) ([]taskdomain.Response, error) {
	if !scope.HasOrg() {
		return []taskdomain.Response{}, nil
	}

	var columnID *snowflake.ID
	if raw := strings.TrimSpace(filter.ColumnID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			return nil, taskdomain.ErrInvalidColumn
		}
		columnID = &id
	}

	items, err := s.repo.ListByOrganization(ctx, s.db, scope.OrgID, columnID)
	if err != nil {
		return nil, err
	}

	resp := make([]taskdomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

// Create validates the column chain against the active organization and
// writes the task, its links and the created entry in one transaction.
func (s *Service) Create(ctx context.Context, scope activeorg.Scope, req taskdomain.CreateRequest) (*taskdomain.Response, error) {
	if !scope.HasOrg() {
		return nil, activeorg.ErrNoActiveOrg
	}

	title, err := normalizeTitle(req.Title)
	if err != nil {
		return nil, err
	}

	columnID, err := s.columnInOrg(ctx, req.Column, scope.OrgID)
	if err != nil {
		return nil, err
	}

	priority := strings.ToLower(strings.TrimSpace(req.Priority))
	if priority == "" {
		priority = taskdomain.PriorityMedium
	}
	if !taskdomain.ValidPriority(priority) {
		return nil, taskdomain.ErrInvalidPriority
	}

	var dueDate *time.Time
	if req.DueDate != nil {
		dueDate, err = parseDueDate(*req.DueDate)
		if err != nil {
			return nil, err
		}
	}

	assigneeIDs, err := s.resolveAssignees(ctx, req.Assignees)
	if err != nil {
		return nil, err
	}
	labelIDs, err := s.resolveLabels(ctx, req.Labels, scope.OrgID)
	if err != nil {
		return nil, err
	}

	if err := s.authz.RequireOrg(ctx, scope.UserID, scope.OrgID, authorization.LevelMember); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	orgID := scope.OrgID
	task := &taskdomain.Task{
		ID:             s.genID.Generate(),
		ColumnID:       columnID,
		OrganizationID: &orgID,
		Title:          title,
		Description:    strings.TrimSpace(req.Description),
		DueDate:        dueDate,
		Priority:       priority,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.Completed {
		task.CompletedAt = &now
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, task); err != nil {
			return err
		}
		if err := s.repo.ReplaceAssignees(ctx, tx, task.ID, assigneeIDs); err != nil {
			return err
		}
		if err := s.repo.ReplaceLabels(ctx, tx, task.ID, labelIDs); err != nil {
			return err
		}
		return s.recorder.Record(ctx, tx, activitydomain.RecordRequest{
			ActorID:     scope.UserID,
			TaskID:      task.ID,
			Action:      activitydomain.ActionCreated,
			Description: fmt.Sprintf("Created task '%s'", task.Title),
		})
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, task.ID)
}

func (s *Service) Get(ctx context.Context, scope activeorg.Scope, id snowflake.ID) (*taskdomain.Response, error) {
	if err := s.require(ctx, scope, id); err != nil {
		return nil, err
	}
	return s.reload(ctx, id)
}

func (s *Service) Update(ctx context.Context, scope activeorg.Scope, id snowflake.ID, req taskdomain.UpdateRequest) (*taskdomain.Response, error) {
	if err := s.require(ctx, scope, id); err != nil {
		return nil, err
	}
	task, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, taskdomain.ErrNotFound
	}

	owner, err := authorization.ResolveOwner(ctx, s.db, authorization.Task(task.ID))
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	fields := map[string]any{}
	if req.Title != nil {
		title, err := normalizeTitle(*req.Title)
		if err != nil {
			return nil, err
		}
		fields["title"] = title
		task.Title = title
	}
	if req.Description != nil {
		fields["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Column != nil {
		columnID, err := s.columnInOrg(ctx, *req.Column, owner)
		if err != nil {
			return nil, err
		}
		fields["column_id"] = columnID
	}
	if req.Priority != nil {
		priority := strings.ToLower(strings.TrimSpace(*req.Priority))
		if !taskdomain.ValidPriority(priority) {
			return nil, taskdomain.ErrInvalidPriority
		}
		fields["priority"] = priority
	}
	if req.DueDate != nil {
		dueDate, err := parseDueDate(*req.DueDate)
		if err != nil {
			return nil, err
		}
		fields["due_date"] = dueDate
	}
	if req.Completed != nil {
		switch {
		case *req.Completed && task.CompletedAt == nil:
			fields["completed_at"] = now
		case !*req.Completed && task.CompletedAt != nil:
			fields["completed_at"] = nil
		}
	}

	var assigneeIDs, labelIDs []snowflake.ID
	if req.Assignees != nil {
		if assigneeIDs, err = s.resolveAssignees(ctx, *req.Assignees); err != nil {
			return nil, err
		}
	}
	if req.Labels != nil {
		if labelIDs, err = s.resolveLabels(ctx, *req.Labels, owner); err != nil {
			return nil, err
		}
	}

	fields["updated_at"] = now
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Update(ctx, tx, task.ID, fields); err != nil {
			return err
		}
		if req.Assignees != nil {
			if err := s.repo.ReplaceAssignees(ctx, tx, task.ID, assigneeIDs); err != nil {
				return err
			}
		}
		if req.Labels != nil {
			if err := s.repo.ReplaceLabels(ctx, tx, task.ID, labelIDs); err != nil {
				return err
			}
		}
		return s.recorder.Record(ctx, tx, activitydomain.RecordRequest{
			ActorID:     scope.UserID,
			TaskID:      task.ID,
			Action:      activitydomain.ActionUpdated,
			Description: fmt.Sprintf("Updated task '%s'", task.Title),
		})
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, task.ID)
}

// Delete records the deletion, detaches historical log rows from the task and
// removes it. Comments and links cascade.
func (s *Service) Delete(ctx context.Context, scope activeorg.Scope, id snowflake.ID) error {
	if err := s.require(ctx, scope, id); err != nil {
		return err
	}
	task, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if task == nil {
		return taskdomain.ErrNotFound
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.recorder.Record(ctx, tx, activitydomain.RecordRequest{
			ActorID:     scope.UserID,
			TaskID:      task.ID,
			Action:      activitydomain.ActionDeleted,
			Description: fmt.Sprintf("Deleted task '%s'", task.Title),
		}); err != nil {
			return err
		}
		if err := s.repo.DetachActivity(ctx, tx, task.ID); err != nil {
			return err
		}
		return s.repo.Delete(ctx, tx, task.ID)
	})
}

// AssignMember adds userID to the task's assignees and records it atomically.
func (s *Service) AssignMember(ctx context.Context, scope activeorg.Scope, id snowflake.ID, userID string) error {
	task, user, err := s.loadForMembership(ctx, scope, id, userID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.AddAssignee(ctx, tx, task.ID, user.ID); err != nil {
			return err
		}
		return s.recorder.Record(ctx, tx, activitydomain.RecordRequest{
			ActorID:     scope.UserID,
			TaskID:      task.ID,
			Action:      activitydomain.ActionAssigned,
			Description: fmt.Sprintf("Assigned '%s' to task '%s'", user.Username, task.Title),
			Metadata:    map[string]any{"assignee_id": user.ID.String()},
		})
	})
}

func (s *Service) UnassignMember(ctx context.Context, scope activeorg.Scope, id snowflake.ID, userID string) error {
	task, user, err := s.loadForMembership(ctx, scope, id, userID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.RemoveAssignee(ctx, tx, task.ID, user.ID); err != nil {
			return err
		}
		return s.recorder.Record(ctx, tx, activitydomain.RecordRequest{
			ActorID:     scope.UserID,
			TaskID:      task.ID,
			Action:      activitydomain.ActionUnassigned,
			Description: fmt.Sprintf("Unassigned '%s' from task '%s'", user.Username, task.Title),
			Metadata:    map[string]any{"assignee_id": user.ID.String()},
		})
	})
}

func (s *Service) loadForMembership(ctx context.Context, scope activeorg.Scope, id snowflake.ID, rawUserID string) (*taskdomain.Task, *authdomain.User, error) {
	if err := s.require(ctx, scope, id); err != nil {
		return nil, nil, err
	}
	task, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, nil, err
	}
	if task == nil {
		return nil, nil, taskdomain.ErrNotFound
	}

	userID, err := snowflake.ParseString(strings.TrimSpace(rawUserID))
	if err != nil || userID == 0 {
		return nil, nil, taskdomain.ErrUserNotFound
	}
	var user authdomain.User
	err = s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, taskdomain.ErrUserNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return task, &user, nil
}

func (s *Service) require(ctx context.Context, scope activeorg.Scope, id snowflake.ID) error {
	err := s.authz.Require(ctx, scope.UserID, authorization.Task(id), authorization.LevelMember)
	if errors.Is(err, authorization.ErrResourceNotFound) || errors.Is(err, authorization.ErrInvalidResource) {
		return taskdomain.ErrNotFound
	}
	return err
}

func (s *Service) reload(ctx context.Context, id snowflake.ID) (*taskdomain.Response, error) {
	task, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, taskdomain.ErrNotFound
	}
	resp := toResponse(task)
	return &resp, nil
}

func (s *Service) columnInOrg(ctx context.Context, raw string, orgID snowflake.ID) (snowflake.ID, error) {
	columnID, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || columnID == 0 {
		return 0, taskdomain.ErrInvalidColumn
	}
	owner, err := authorization.ResolveOwner(ctx, s.db, authorization.Column(columnID))
	if err != nil {
		if errors.Is(err, authorization.ErrResourceNotFound) {
			return 0, taskdomain.ErrInvalidColumn
		}
		return 0, err
	}
	if owner != orgID {
		return 0, taskdomain.ErrColumnNotInOrg
	}
	return columnID, nil
}

func (s *Service) resolveAssignees(ctx context.Context, raw []string) ([]snowflake.ID, error) {
	ids, err := parseIDs(raw, taskdomain.ErrInvalidAssignee)
	if err != nil || len(ids) == 0 {
		return ids, err
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&authdomain.User{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return nil, err
	}
	if int(count) != len(ids) {
		return nil, taskdomain.ErrInvalidAssignee
	}
	return ids, nil
}

func (s *Service) resolveLabels(ctx context.Context, raw []string, orgID snowflake.ID) ([]snowflake.ID, error) {
	ids, err := parseIDs(raw, taskdomain.ErrInvalidLabel)
	if err != nil || len(ids) == 0 {
		return ids, err
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&labeldomain.Label{}).
		Where("id IN ? AND organization_id = ?", ids, orgID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if int(count) != len(ids) {
		return nil, taskdomain.ErrInvalidLabel
	}
	return ids, nil
}

// parseIDs parses and de-duplicates ids, keeping their order.
func parseIDs(raw []string, invalid error) ([]snowflake.ID, error) {
	seen := make(map[snowflake.ID]struct{}, len(raw))
	ids := make([]snowflake.ID, 0, len(raw))
	for _, value := range raw {
		id, err := snowflake.ParseString(strings.TrimSpace(value))
		if err != nil || id == 0 {
			return nil, invalid
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseDueDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	date, err := time.Parse(taskdomain.DateLayout, raw)
	if err != nil {
		return nil, taskdomain.ErrInvalidDueDate
	}
	date = date.UTC()
	return &date, nil
}

func normalizeTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" || len(title) > maxTitleLength {
		return "", taskdomain.ErrInvalidTitle
	}
	return title, nil
}

func toResponse(t *taskdomain.Task) taskdomain.Response {
	resp := taskdomain.Response{
		ID:          t.ID.String(),
		Title:       t.Title,
		Description: t.Description,
		Column:      t.ColumnID.String(),
		Assignees:   make([]string, 0, len(t.Assignees)),
		Labels:      make([]string, 0, len(t.Labels)),
		Priority:    t.Priority,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		CompletedAt: t.CompletedAt,
	}
	if t.OrganizationID != nil {
		org := t.OrganizationID.String()
		resp.Organization = &org
	}
	if t.DueDate != nil {
		due := t.DueDate.UTC().Format(taskdomain.DateLayout)
		resp.DueDate = &due
	}
	for _, user := range t.Assignees {
		resp.Assignees = append(resp.Assignees, user.ID.String())
	}
	for _, label := range t.Labels {
		resp.Labels = append(resp.Labels, label.ID.String())
	}
	return resp
}
