package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/taskflow/internal/activeorg"
	"github.com/smallbiznis/taskflow/internal/authorization"
	"github.com/smallbiznis/taskflow/internal/clock"
	labeldomain "github.com/smallbiznis/taskflow/internal/label/domain"
	"github.com/smallbiznis/taskflow/pkg/db/option"
	"github.com/smallbiznis/taskflow/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxNameLength  = 50
	maxColorLength = 20
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Authz authorization.Service
}

type Service struct {
	log   *zap.Logger
	repo  repository.Repository[labeldomain.Label]
	genID *snowflake.Node
	clock clock.Clock
	authz authorization.Service
}

func New(p Params) labeldomain.Service {
	return &Service{
		log:   p.Log.Named("label.service"),
		repo:  repository.ProvideStore[labeldomain.Label](p.DB),
		genID: p.GenID,
		clock: p.Clock,
		authz: p.Authz,
	}
}

func (s *Service) List(ctx context.Context, scope activeorg.Scope) ([]labeldomain.Response, error) {
	if !scope.HasOrg() {
		return []labeldomain.Response{}, nil
	}

	items, err := s.repo.Find(ctx, &labeldomain.Label{OrganizationID: scope.OrgID},
		option.WithOrderBy("name", false),
		option.WithOrderBy("id", false),
	)
	if err != nil {
		return nil, err
	}

	resp := make([]labeldomain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, toResponse(item))
	}
	return resp, nil
}

func (s *Service) Create(ctx context.Context, scope activeorg.Scope, req labeldomain.CreateRequest) (*labeldomain.Response, error) {
	if !scope.HasOrg() {
		return nil, activeorg.ErrNoActiveOrg
	}

	name, err := normalize(req.Name, maxNameLength, labeldomain.ErrInvalidName)
	if err != nil {
		return nil, err
	}
	color, err := normalize(req.Color, maxColorLength, labeldomain.ErrInvalidColor)
	if err != nil {
		return nil, err
	}

	if err := s.authz.RequireOrg(ctx, scope.UserID, scope.OrgID, authorization.LevelMember); err != nil {
		return nil, err
	}

	item := &labeldomain.Label{
		ID:             s.genID.Generate(),
		OrganizationID: scope.OrgID,
		Name:           name,
		Color:          color,
		CreatedAt:      s.clock.Now(),
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, scope activeorg.Scope, id snowflake.ID) (*labeldomain.Response, error) {
	item, err := s.load(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, scope activeorg.Scope, id snowflake.ID, req labeldomain.UpdateRequest) (*labeldomain.Response, error) {
	item, err := s.load(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.Name != nil {
		name, err := normalize(*req.Name, maxNameLength, labeldomain.ErrInvalidName)
		if err != nil {
			return nil, err
		}
		item.Name = name
		fields["name"] = name
	}
	if req.Color != nil {
		color, err := normalize(*req.Color, maxColorLength, labeldomain.ErrInvalidColor)
		if err != nil {
			return nil, err
		}
		item.Color = color
		fields["color"] = color
	}
	if err := s.repo.Updates(ctx, int64(item.ID), fields); err != nil {
		return nil, err
	}

	resp := toResponse(item)
	return &resp, nil
}

// Delete removes the label; task links go with it.
func (s *Service) Delete(ctx context.Context, scope activeorg.Scope, id snowflake.ID) error {
	item, err := s.load(ctx, scope, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, int64(item.ID))
}

func (s *Service) load(ctx context.Context, scope activeorg.Scope, id snowflake.ID) (*labeldomain.Label, error) {
	if err := s.authz.Require(ctx, scope.UserID, authorization.Label(id), authorization.LevelMember); err != nil {
		if errors.Is(err, authorization.ErrResourceNotFound) || errors.Is(err, authorization.ErrInvalidResource) {
			return nil, labeldomain.ErrNotFound
		}
		return nil, err
	}
	item, err := s.repo.FindByID(ctx, int64(id))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, labeldomain.ErrNotFound
	}
	return item, nil
}

func normalize(raw string, maxLen int, invalid error) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" || len(value) > maxLen {
		return "", invalid
	}
	return value, nil
}

func toResponse(l *labeldomain.Label) labeldomain.Response {
	return labeldomain.Response{
		ID:    l.ID.String(),
		Name:  l.Name,
		Color: l.Color,
	}
}
