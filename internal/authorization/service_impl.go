package authorization

import (
	"context"
	_ "embed"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/smallbiznis/taskflow/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const objectOrganization = "organization"

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	Metrics  *metrics.Metrics `optional:"true"`
}

type ServiceImpl struct {
	db       *gorm.DB
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	metrics  *metrics.Metrics
}

// NewEnforcer loads role grants from the casbin_rule table and seeds the
// built-in role hierarchy.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		db:       p.DB,
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		metrics:  p.Metrics,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, userID snowflake.ID, res Resource, level Level) (bool, error) {
	orgID, err := s.OwningOrganization(ctx, res)
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) || errors.Is(err, ErrInvalidResource) {
			s.record(ctx, level, res.Kind, false)
			return false, nil
		}
		return false, err
	}
	return s.decide(ctx, userID, orgID, res.Kind, level)
}

func (s *ServiceImpl) AuthorizeOrg(ctx context.Context, userID, orgID snowflake.ID, level Level) (bool, error) {
	return s.decide(ctx, userID, orgID, KindOrganization, level)
}

// Require resolves the owner first so that a missing resource is reported as
// not found rather than forbidden.
func (s *ServiceImpl) Require(ctx context.Context, userID snowflake.ID, res Resource, level Level) error {
	orgID, err := s.OwningOrganization(ctx, res)
	if err != nil {
		return err
	}
	allowed, err := s.decide(ctx, userID, orgID, res.Kind, level)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) RequireOrg(ctx context.Context, userID, orgID snowflake.ID, level Level) error {
	allowed, err := s.AuthorizeOrg(ctx, userID, orgID, level)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) OwningOrganization(ctx context.Context, res Resource) (snowflake.ID, error) {
	return ResolveOwner(ctx, s.db, res)
}

func (s *ServiceImpl) decide(ctx context.Context, userID, orgID snowflake.ID, kind ResourceKind, level Level) (bool, error) {
	if userID == 0 || orgID == 0 {
		s.record(ctx, level, kind, false)
		return false, nil
	}

	role, err := s.roleForUser(ctx, orgID, userID)
	if err != nil {
		return false, err
	}
	if role == "" {
		s.record(ctx, level, kind, false)
		return false, nil
	}

	allowed, err := s.enforcer.Enforce("role:"+role, objectOrganization, level.String())
	if err != nil {
		return false, err
	}
	s.record(ctx, level, kind, allowed)
	if !allowed {
		s.log.Debug("authorization denied",
			zap.String("user_id", userID.String()),
			zap.String("org_id", orgID.String()),
			zap.String("role", role),
			zap.String("level", level.String()),
			zap.String("resource_kind", string(kind)),
		)
	}
	return allowed, nil
}

func (s *ServiceImpl) roleForUser(ctx context.Context, orgID snowflake.ID, userID snowflake.ID) (string, error) {
	var row struct {
		Role string `gorm:"column:role"`
	}
	if err := s.db.WithContext(ctx).Raw(
		`SELECT role
		 FROM memberships
		 WHERE org_id = ? AND user_id = ?
		 LIMIT 1`,
		orgID,
		userID,
	).Scan(&row).Error; err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(row.Role)), nil
}

func (s *ServiceImpl) record(ctx context.Context, level Level, kind ResourceKind, allowed bool) {
	s.metrics.RecordAuthorization(ctx, level.String(), string(kind), allowed)
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		{"role:member", objectOrganization, LevelMember.String()},
		{"role:manager", objectOrganization, LevelManagerOrAdmin.String()},
		{"role:admin", objectOrganization, LevelAdmin.String()},
	}
	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy[0], policy[1], policy[2]); err != nil {
			return err
		}
	}

	// admin inherits manager grants, manager inherits member grants
	groupings := [][]string{
		{"role:manager", "role:member"},
		{"role:admin", "role:manager"},
	}
	for _, grouping := range groupings {
		if _, err := enforcer.AddGroupingPolicy(grouping[0], grouping[1]); err != nil {
			return err
		}
	}
	return nil
}
