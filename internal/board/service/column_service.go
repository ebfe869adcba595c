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
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxColumnNameLength = 100

type ColumnService struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  repository.Repository[boarddomain.Column]
	genID *snowflake.Node
	clock clock.Clock
	authz authorization.Service
}

func NewColumnService(p Params) boarddomain.ColumnService {
	return &ColumnService{
		db:    p.DB,
		log:   p.Log.Named("column.service"),
		repo:  repository.ProvideStore[boarddomain.Column](p.DB),
		genID: p.GenID,
		clock: p.Clock,
		authz: p.Authz,
	}
}

// List returns the active organization's columns ordered by board, then
// display order, then id.
func (s *ColumnService) List(ctx context.Context, scope activeorg.Scope, filter boarddomain.ColumnListFilter) ([]boarddomain.ColumnResponse, error) {
	if !scope.HasOrg() {
		return []boarddomain.ColumnResponse{}, nil
	}

	opts := []option.QueryOption{
		option.WithJoin("JOIN boards ON boards.id = board_columns.board_id"),
		option.WithJoin("JOIN projects ON projects.id = boards.project_id"),
		option.WithWhere("projects.organization_id = ?", scope.OrgID),
	}
	if raw := strings.TrimSpace(filter.BoardID); raw != "" {
		boardID, err := snowflake.ParseString(raw)
		if err != nil {
			return nil, boarddomain.ErrInvalidBoard
		}
		opts = append(opts, option.WithWhere("board_columns.board_id = ?", boardID))
	}
	opts = append(opts,
		option.WithOrderBy("board_columns.board_id", false),
		option.WithOrderBy("board_columns.sort_order", false),
		option.WithOrderBy("board_columns.id", false),
	)

	items, err := s.repo.Find(ctx, nil, opts...)
	if err != nil {
		return nil, err
	}

	resp := make([]boarddomain.ColumnResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toColumnResponse(item))
	}
	return resp, nil
}

// Create rejects boards outside the active organization before writing.
func (s *ColumnService) Create(ctx context.Context, scope activeorg.Scope, req boarddomain.CreateColumnRequest) (*boarddomain.ColumnResponse, error) {
	if !scope.HasOrg() {
		return nil, activeorg.ErrNoActiveOrg
	}

	name, err := normalizeColumnName(req.Name)
	if err != nil {
		return nil, err
	}

	boardID, err := s.boardInOrg(ctx, req.Board, scope.OrgID)
	if err != nil {
		return nil, err
	}

	if err := s.authz.RequireOrg(ctx, scope.UserID, scope.OrgID, authorization.LevelMember); err != nil {
		return nil, err
	}

	order := 0
	if req.Order != nil {
		order = *req.Order
	}

	item := &boarddomain.Column{
		ID:        s.genID.Generate(),
		BoardID:   boardID,
		Name:      name,
		Order:     order,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}

	resp := toColumnResponse(item)
	return &resp, nil
}

func (s *ColumnService) Get(ctx context.Context, scope activeorg.Scope, id snowflake.ID) (*boarddomain.ColumnResponse, error) {
	item, err := s.load(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	resp := toColumnResponse(item)
	return &resp, nil
}

func (s *ColumnService) Update(ctx context.Context, scope activeorg.Scope, id snowflake.ID, req boarddomain.UpdateColumnRequest) (*boarddomain.ColumnResponse, error) {
	item, err := s.load(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	owner, err := authorization.ResolveOwner(ctx, s.db, authorization.Column(item.ID))
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.Name != nil {
		name, err := normalizeColumnName(*req.Name)
		if err != nil {
			return nil, err
		}
		item.Name = name
		fields["name"] = name
	}
	if req.Board != nil {
		boardID, err := s.boardInOrg(ctx, *req.Board, owner)
		if err != nil {
			return nil, err
		}
		item.BoardID = boardID
		fields["board_id"] = boardID
	}
	if req.Order != nil {
		item.Order = *req.Order
		fields["sort_order"] = item.Order
	}
	if err := s.repo.Updates(ctx, int64(item.ID), fields); err != nil {
		return nil, err
	}

	resp := toColumnResponse(item)
	return &resp, nil
}

func (s *ColumnService) Delete(ctx context.Context, scope activeorg.Scope, id snowflake.ID) error {
	item, err := s.load(ctx, scope, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, int64(item.ID))
}

func (s *ColumnService) load(ctx context.Context, scope activeorg.Scope, id snowflake.ID) (*boarddomain.Column, error) {
	if err := s.authz.Require(ctx, scope.UserID, authorization.Column(id), authorization.LevelMember); err != nil {
		if errors.Is(err, authorization.ErrResourceNotFound) || errors.Is(err, authorization.ErrInvalidResource) {
			return nil, boarddomain.ErrColumnNotFound
		}
		return nil, err
	}
	item, err := s.repo.FindByID(ctx, int64(id))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, boarddomain.ErrColumnNotFound
	}
	return item, nil
}

func (s *ColumnService) boardInOrg(ctx context.Context, raw string, orgID snowflake.ID) (snowflake.ID, error) {
	boardID, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || boardID == 0 {
		return 0, boarddomain.ErrInvalidBoard
	}
	owner, err := authorization.ResolveOwner(ctx, s.db, authorization.Board(boardID))
	if err != nil {
		if errors.Is(err, authorization.ErrResourceNotFound) {
			return 0, boarddomain.ErrInvalidBoard
		}
		return 0, err
	}
	if owner != orgID {
		return 0, boarddomain.ErrBoardNotInOrg
	}
	return boardID, nil
}

func normalizeColumnName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" || len(name) > maxColumnNameLength {
		return "", boarddomain.ErrInvalidName
	}
	return name, nil
}

func toColumnResponse(c *boarddomain.Column) boarddomain.ColumnResponse {
	return boarddomain.ColumnResponse{
		ID:    c.ID.String(),
		Name:  c.Name,
		Board: c.BoardID.String(),
		Order: c.Order,
	}
}
