package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/taskflow/internal/activeorg"
	"github.com/smallbiznis/taskflow/internal/authorization"
	boarddomain "github.com/smallbiznis/taskflow/internal/board/domain"
	"github.com/smallbiznis/taskflow/internal/clock"
	"github.com/smallbiznis/taskflow/pkg/db/option"
	"github.com/smallbiznis/taskflow/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxBoardNameLength = 255

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
	repo  repository.Repository[boarddomain.Board]
	genID *snowflake.Node
	clock clock.Clock
	authz authorization.Service
}

func New(p Params) boarddomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("board.service"),
		repo:  repository.ProvideStore[boarddomain.Board](p.DB),
		genID: p.GenID,
		clock: p.Clock,
		authz: p.Authz,
	}
}

func (s *Service) List(ctx context.Context, scope activeorg.Scope, filter boarddomain.ListFilter) ([]boarddomain.Response, error) {
	if !scope.HasOrg() {
		return []boarddomain.Response{}, nil
	}

	opts := []option.QueryOption{
		option.WithJoin("JOIN projects ON projects.id = boards.project_id"),
		option.WithWhere("projects.organization_id = ?", scope.OrgID),
		option.WithOrderBy("boards.id", false),
	}
	if raw := strings.TrimSpace(filter.ProjectID); raw != "" {
		projectID, err := snowflake.ParseString(raw)
		if err != nil {
			return nil, boarddomain.ErrInvalidProject
		}
		opts = append(opts, option.WithWhere("boards.project_id = ?", projectID))
	}

	items, err := s.repo.Find(ctx, nil, opts...)
	if err != nil {
		return nil, err
	}

	resp := make([]boarddomain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, toResponse(item))
	}
	return resp, nil
}

// Create rejects projects outside the active organization before writing.
func (s *Service) Create(ctx context.Context, scope activeorg.Scope, req boarddomain.CreateRequest) (*boarddomain.Response, error) {
	if !scope.HasOrg() {
		return nil, activeorg.ErrNoActiveOrg
	}

	name, err := normalizeName(req.Name)
	if err != nil {
		return nil, err
	}

	projectID, err := s.projectInOrg(ctx, req.Project, scope.OrgID)
	if err != nil {
		return nil, err
	}

	if err := s.authz.RequireOrg(ctx, scope.UserID, scope.OrgID, authorization.LevelMember); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	item := &boarddomain.Board{
		ID:        s.genID.Generate(),
		ProjectID: projectID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, scope activeorg.Scope, id snowflake.ID) (*boarddomain.Response, error) {
	item, err := s.load(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, scope activeorg.Scope, id snowflake.ID, req boarddomain.UpdateRequest) (*boarddomain.Response, error) {
	item, err := s.load(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	// Tasks carry their organization, so a board never leaves its owner.
	owner, err := authorization.ResolveOwner(ctx, s.db, authorization.Board(item.ID))
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.Name != nil {
		name, err := normalizeName(*req.Name)
		if err != nil {
			return nil, err
		}
		item.Name = name
		fields["name"] = name
	}
	if req.Project != nil {
		projectID, err := s.projectInOrg(ctx, *req.Project, owner)
		if err != nil {
			return nil, err
		}
		item.ProjectID = projectID
		fields["project_id"] = projectID
	}
	if len(fields) > 0 {
		item.UpdatedAt = s.clock.Now()
		fields["updated_at"] = item.UpdatedAt
		if err := s.repo.Updates(ctx, int64(item.ID), fields); err != nil {
			return nil, err
		}
	}

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, scope activeorg.Scope, id snowflake.ID) error {
	item, err := s.load(ctx, scope, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, int64(item.ID))
}

func (s *Service) load(ctx context.Context, scope activeorg.Scope, id snowflake.ID) (*boarddomain.Board, error) {
	if err := s.authz.Require(ctx, scope.UserID, authorization.Board(id), authorization.LevelMember); err != nil {
		if errors.Is(err, authorization.ErrResourceNotFound) || errors.Is(err, authorization.ErrInvalidResource) {
			return nil, boarddomain.ErrNotFound
		}
		return nil, err
	}
	item, err := s.repo.FindByID(ctx, int64(id))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, boarddomain.ErrNotFound
	}
	return item, nil
}

func (s *Service) projectInOrg(ctx context.Context, raw string, orgID snowflake.ID) (snowflake.ID, error) {
	projectID, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || projectID == 0 {
		return 0, boarddomain.ErrInvalidProject
	}
	owner, err := authorization.ResolveOwner(ctx, s.db, authorization.Project(projectID))
	if err != nil {
		if errors.Is(err, authorization.ErrResourceNotFound) {
			return 0, boarddomain.ErrInvalidProject
		}
		return 0, err
	}
	if owner != orgID {
		return 0, boarddomain.ErrProjectNotInOrg
	}
	return projectID, nil
}

func normalizeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" || len(name) > maxBoardNameLength {
		return "", boarddomain.ErrInvalidName
	}
	return name, nil
}

func toResponse(b *boarddomain.Board) boarddomain.Response {
	return boarddomain.Response{
		ID:      b.ID.String(),
		Name:    b.Name,
		Project: b.ProjectID.String(),
	}
}
