package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/taskflow/internal/activeorg"
	"github.com/smallbiznis/taskflow/internal/authorization"
	"github.com/smallbiznis/taskflow/internal/clock"
	obslogger "github.com/smallbiznis/taskflow/internal/observability/logger"
	projectdomain "github.com/smallbiznis/taskflow/internal/project/domain"
	"github.com/smallbiznis/taskflow/pkg/db/option"
	"github.com/smallbiznis/taskflow/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxNameLength = 255

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Authz authorization.Service
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  repository.Repository[projectdomain.Project]
	genID *snowflake.Node
	clock clock.Clock
	authz authorization.Service
}

func New(p Params) projectdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("project.service"),
		repo:  repository.ProvideStore[projectdomain.Project](p.DB),
		genID: p.GenID,
		clock: p.Clock,
		authz: p.Authz,
	}
}

// List returns the active organization's projects, or nothing when the
// session has no active organization.
func (s *Service) List(ctx context.Context, scope activeorg.Scope) ([]projectdomain.Response, error) {
	if !scope.HasOrg() {
		return []projectdomain.Response{}, nil
	}

	items, err := s.repo.Find(ctx, &projectdomain.Project{OrganizationID: scope.OrgID},
		option.WithOrderBy("created_at", false),
		option.WithOrderBy("id", false),
	)
	if err != nil {
		return nil, err
	}

	resp := make([]projectdomain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, toResponse(item))
	}
	return resp, nil
}

func (s *Service) Create(ctx context.Context, scope activeorg.Scope, req projectdomain.CreateRequest) (*projectdomain.Response, error) {
	if !scope.HasOrg() {
		return nil, activeorg.ErrNoActiveOrg
	}

	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > maxNameLength {
		return nil, projectdomain.ErrInvalidName
	}

	if err := s.authz.RequireOrg(ctx, scope.UserID, scope.OrgID, authorization.LevelMember); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	item := &projectdomain.Project{
		ID:             s.genID.Generate(),
		OrganizationID: scope.OrgID,
		Name:           name,
		Description:    strings.TrimSpace(req.Description),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, scope activeorg.Scope, id snowflake.ID) (*projectdomain.Response, error) {
	item, err := s.load(ctx, scope, id, authorization.LevelMember)
	if err != nil {
		return nil, err
	}
	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, scope activeorg.Scope, id snowflake.ID, req projectdomain.UpdateRequest) (*projectdomain.Response, error) {
	item, err := s.load(ctx, scope, id, authorization.LevelMember)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" || len(name) > maxNameLength {
			return nil, projectdomain.ErrInvalidName
		}
		item.Name = name
		fields["name"] = name
	}
	if req.Description != nil {
		item.Description = strings.TrimSpace(*req.Description)
		fields["description"] = item.Description
	}
	if len(fields) == 0 {
		resp := toResponse(item)
		return &resp, nil
	}

	item.UpdatedAt = s.clock.Now()
	fields["updated_at"] = item.UpdatedAt
	if err := s.repo.Updates(ctx, int64(item.ID), fields); err != nil {
		return nil, err
	}

	resp := toResponse(item)
	return &resp, nil
}

// Delete requires a manager or admin; boards, columns and tasks cascade.
func (s *Service) Delete(ctx context.Context, scope activeorg.Scope, id snowflake.ID) error {
	item, err := s.load(ctx, scope, id, authorization.LevelManagerOrAdmin)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, int64(item.ID)); err != nil {
		return err
	}
	obslogger.WithContext(ctx, s.log).Info("project deleted",
		zap.String("project_id", item.ID.String()),
		zap.String("user_id", scope.UserID.String()),
	)
	return nil
}

func (s *Service) load(ctx context.Context, scope activeorg.Scope, id snowflake.ID, level authorization.Level) (*projectdomain.Project, error) {
	item, err := s.repo.FindByID(ctx, int64(id))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, projectdomain.ErrNotFound
	}
	if err := s.authz.RequireOrg(ctx, scope.UserID, item.OrganizationID, level); err != nil {
		return nil, err
	}
	return item, nil
}

func toResponse(p *projectdomain.Project) projectdomain.Response {
	return projectdomain.Response{
		ID:           p.ID.String(),
		Name:         p.Name,
		Description:  p.Description,
		Organization: p.OrganizationID.String(),
		CreatedAt:    p.CreatedAt,
	}
}
