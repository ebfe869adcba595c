package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/taskflow/internal/authorization"
	"github.com/smallbiznis/taskflow/internal/clock"
	obslogger "github.com/smallbiznis/taskflow/internal/observability/logger"
	"github.com/smallbiznis/taskflow/internal/organization/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxNameLength = 255

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Repo  domain.Repository
	Authz authorization.Service
	GenID *snowflake.Node
	Clock clock.Clock
}

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	authz authorization.Service
	genID *snowflake.Node
	clock clock.Clock
}

func NewService(p Params) domain.Service {
	return &service{
		db:    p.DB,
		log:   p.Log.Named("organization.service"),
		repo:  p.Repo,
		authz: p.Authz,
		genID: p.GenID,
		clock: p.Clock,
	}
}

// Create stores the organization and the creator's admin membership in one
// transaction.
func (s *service) Create(ctx context.Context, userID snowflake.ID, req domain.CreateOrganizationRequest) (*domain.Organization, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	name, err := normalizeName(req.Name)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	org := &domain.Organization{
		ID:        s.genID.Generate(),
		Name:      name,
		Slug:      slug.Make(name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateOrganization(ctx, org); err != nil {
			return err
		}

		member := &domain.Membership{
			ID:        s.genID.Generate(),
			OrgID:     org.ID,
			UserID:    userID,
			Role:      domain.RoleAdmin,
			CreatedAt: now,
		}
		return repo.AddMemberIfAbsent(ctx, member)
	})
	if err != nil {
		return nil, err
	}

	obslogger.WithContext(ctx, s.log).Info("organization created",
		zap.String("org_id", org.ID.String()),
		zap.String("user_id", userID.String()),
	)
	return org, nil
}

func (s *service) Get(ctx context.Context, id snowflake.ID) (*domain.Organization, error) {
	if id == 0 {
		return nil, domain.ErrNotFound
	}
	return s.repo.FindByID(ctx, id)
}

func (s *service) List(ctx context.Context) ([]domain.Organization, error) {
	return s.repo.List(ctx)
}

func (s *service) Update(ctx context.Context, userID, id snowflake.ID, req domain.UpdateOrganizationRequest) (*domain.Organization, error) {
	org, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.RequireOrg(ctx, userID, org.ID, authorization.LevelManagerOrAdmin); err != nil {
		return nil, err
	}

	if req.Name == nil {
		return org, nil
	}
	name, err := normalizeName(*req.Name)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateName(ctx, org.ID, name, slug.Make(name)); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, org.ID)
}

// Delete removes the organization; projects, boards, columns, tasks, labels
// and memberships go with it through foreign key cascades.
func (s *service) Delete(ctx context.Context, userID, id snowflake.ID) error {
	org, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.RequireOrg(ctx, userID, org.ID, authorization.LevelAdmin); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, org.ID); err != nil {
		return err
	}
	obslogger.WithContext(ctx, s.log).Info("organization deleted",
		zap.String("org_id", org.ID.String()),
		zap.String("user_id", userID.String()),
	)
	return nil
}

// Join is an atomic get-or-create of a member membership. An existing role is
// returned unchanged.
func (s *service) Join(ctx context.Context, userID, orgID snowflake.ID) (*domain.JoinResult, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}
	org, err := s.Get(ctx, orgID)
	if err != nil {
		return nil, err
	}

	var role string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.AddMemberIfAbsent(ctx, &domain.Membership{
			ID:        s.genID.Generate(),
			OrgID:     org.ID,
			UserID:    userID,
			Role:      domain.RoleMember,
			CreatedAt: s.clock.Now(),
		}); err != nil {
			return err
		}

		member, err := repo.FindMembership(ctx, org.ID, userID)
		if err != nil {
			return err
		}
		if member == nil {
			return domain.ErrNotMember
		}
		role = member.Role
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &domain.JoinResult{Status: "joined", Role: role}, nil
}

func (s *service) RoleFor(ctx context.Context, orgID, userID snowflake.ID) (string, bool, error) {
	member, err := s.repo.FindMembership(ctx, orgID, userID)
	if err != nil {
		return "", false, err
	}
	if member == nil {
		return "", false, nil
	}
	return member.Role, true, nil
}

func (s *service) ListForUser(ctx context.Context, userID snowflake.ID) ([]domain.OrganizationListResponseItem, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	items, err := s.repo.ListOrganizationsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.OrganizationListResponseItem, 0, len(items))
	for _, item := range items {
		resp = append(resp, domain.OrganizationListResponseItem{
			ID:   item.ID.String(),
			Name: item.Name,
			Role: item.Role,
		})
	}
	return resp, nil
}

func normalizeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" || len(name) > maxNameLength {
		return "", domain.ErrInvalidName
	}
	return name, nil
}
