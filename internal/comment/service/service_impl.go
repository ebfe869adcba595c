package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/taskflow/internal/activeorg"
	activitydomain "github.com/smallbiznis/taskflow/internal/activity/domain"
	"github.com/smallbiznis/taskflow/internal/authorization"
	"github.com/smallbiznis/taskflow/internal/clock"
	commentdomain "github.com/smallbiznis/taskflow/internal/comment/domain"
	taskdomain "github.com/smallbiznis/taskflow/internal/task/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Authz    authorization.Service
	Recorder activitydomain.Recorder
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	authz    authorization.Service
	recorder activitydomain.Recorder
}

func New(p Params) commentdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("comment.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		authz:    p.Authz,
		recorder: p.Recorder,
	}
}

// List returns every comment of the task, each carrying its nested replies.
func (s *Service) List(ctx context.Context, scope activeorg.Scope, filter commentdomain.ListFilter) ([]commentdomain.Response, error) {
	raw := strings.TrimSpace(filter.TaskID)
	if raw == "" {
		return []commentdomain.Response{}, nil
	}
	taskID, err := snowflake.ParseString(raw)
	if err != nil {
		return []commentdomain.Response{}, nil
	}

	if err := s.authz.Require(ctx, scope.UserID, authorization.Task(taskID), authorization.LevelMember); err != nil {
		if errors.Is(err, authorization.ErrResourceNotFound) {
			return []commentdomain.Response{}, nil
		}
		return nil, err
	}

	var items []commentdomain.Comment
	err = s.db.WithContext(ctx).
		Preload("User").
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	tree := newReplyTree(items)
	resp := make([]commentdomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, tree.build(&items[i]))
	}
	return resp, nil
}

func (s *Service) Create(ctx context.Context, scope activeorg.Scope, req commentdomain.CreateRequest) (*commentdomain.Response, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, commentdomain.ErrInvalidContent
	}

	taskID, err := snowflake.ParseString(strings.TrimSpace(req.Task))
	if err != nil || taskID == 0 {
		return nil, commentdomain.ErrInvalidTask
	}
	if err := s.authz.Require(ctx, scope.UserID, authorization.Task(taskID), authorization.LevelMember); err != nil {
		if errors.Is(err, authorization.ErrResourceNotFound) {
			return nil, commentdomain.ErrInvalidTask
		}
		return nil, err
	}

	var task taskdomain.Task
	if err := s.db.WithContext(ctx).Select("id", "title").Where("id = ?", taskID).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commentdomain.ErrInvalidTask
		}
		return nil, err
	}

	var parentID *snowflake.ID
	if req.Parent != nil && strings.TrimSpace(*req.Parent) != "" {
		id, err := snowflake.ParseString(strings.TrimSpace(*req.Parent))
		if err != nil {
			return nil, commentdomain.ErrInvalidParent
		}
		var count int64
		if err := s.db.WithContext(ctx).Model(&commentdomain.Comment{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, commentdomain.ErrInvalidParent
		}
		parentID = &id
	}

	item := &commentdomain.Comment{
		ID:        s.genID.Generate(),
		TaskID:    taskID,
		UserID:    scope.UserID,
		Content:   content,
		ParentID:  parentID,
		CreatedAt: s.clock.Now(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Task", "User", "Parent").Create(item).Error; err != nil {
			return err
		}
		return s.recorder.Record(ctx, tx, activitydomain.RecordRequest{
			ActorID:     scope.UserID,
			TaskID:      taskID,
			Action:      activitydomain.ActionCommented,
			Description: fmt.Sprintf("Commented on task '%s'", task.Title),
			Metadata:    map[string]any{"comment_id": item.ID.String()},
		})
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, scope, item.ID)
}

func (s *Service) Get(ctx context.Context, scope activeorg.Scope, id snowflake.ID) (*commentdomain.Response, error) {
	item, err := s.load(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	var replies []commentdomain.Comment
	if err := s.db.WithContext(ctx).
		Preload("User").
		Where("task_id = ?", item.TaskID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&replies).Error; err != nil {
		return nil, err
	}

	resp := newReplyTree(replies).build(item)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, scope activeorg.Scope, id snowflake.ID, req commentdomain.UpdateRequest) (*commentdomain.Response, error) {
	item, err := s.load(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		if content == "" {
			return nil, commentdomain.ErrInvalidContent
		}
		if err := s.db.WithContext(ctx).Model(&commentdomain.Comment{}).
			Where("id = ?", item.ID).
			Update("content", content).Error; err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, scope, id)
}

// Delete removes the comment and, through the parent key, its replies.
func (s *Service) Delete(ctx context.Context, scope activeorg.Scope, id snowflake.ID) error {
	item, err := s.load(ctx, scope, id)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Where("id = ?", item.ID).Delete(&commentdomain.Comment{}).Error
}

func (s *Service) load(ctx context.Context, scope activeorg.Scope, id snowflake.ID) (*commentdomain.Comment, error) {
	if err := s.authz.Require(ctx, scope.UserID, authorization.Comment(id), authorization.LevelMember); err != nil {
		if errors.Is(err, authorization.ErrResourceNotFound) || errors.Is(err, authorization.ErrInvalidResource) {
			return nil, commentdomain.ErrNotFound
		}
		return nil, err
	}

	var item commentdomain.Comment
	err := s.db.WithContext(ctx).Preload("User").Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, commentdomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// replyTree indexes comments by parent so replies can be nested.
type replyTree struct {
	children map[snowflake.ID][]*commentdomain.Comment
}

func newReplyTree(items []commentdomain.Comment) replyTree {
	tree := replyTree{children: make(map[snowflake.ID][]*commentdomain.Comment)}
	for i := range items {
		if parent := items[i].ParentID; parent != nil {
			tree.children[*parent] = append(tree.children[*parent], &items[i])
		}
	}
	return tree
}

func (t replyTree) build(c *commentdomain.Comment) commentdomain.Response {
	resp := toResponse(c)
	for _, child := range t.children[c.ID] {
		resp.Replies = append(resp.Replies, t.build(child))
	}
	return resp
}

func toResponse(c *commentdomain.Comment) commentdomain.Response {
	resp := commentdomain.Response{
		ID:        c.ID.String(),
		Task:      c.TaskID.String(),
		User:      c.User.ToResponse(),
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		Replies:   []commentdomain.Response{},
	}
	if c.ParentID != nil {
		parent := c.ParentID.String()
		resp.Parent = &parent
	}
	return resp
}
