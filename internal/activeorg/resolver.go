package activeorg

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/taskflow/internal/auth/session"
	"github.com/smallbiznis/taskflow/internal/observability/metrics"
	orgdomain "github.com/smallbiznis/taskflow/internal/organization/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// SessionKeyActiveOrg is the session state key holding the active org id.
const SessionKeyActiveOrg = "active_org"

const (
	ReasonCreated  = "created"
	ReasonSwitched = "switched"
)

var ErrNoSession = errors.New("no_session")

type Params struct {
	fx.In

	Log     *zap.Logger
	Store   session.StateStore
	Orgs    orgdomain.Repository
	Metrics *metrics.Metrics `optional:"true"`
}

type Resolver struct {
	log     *zap.Logger
	store   session.StateStore
	orgs    orgdomain.Repository
	metrics *metrics.Metrics
}

func NewResolver(p Params) *Resolver {
	return &Resolver{
		log:     p.Log.Named("activeorg.resolver"),
		store:   p.Store,
		orgs:    p.Orgs,
		metrics: p.Metrics,
	}
}

// GetActiveOrganization returns nil without error when the session holds no
// organization, holds a malformed id, or points at a deleted organization.
func (r *Resolver) GetActiveOrganization(ctx context.Context, sessionID snowflake.ID) (*orgdomain.Organization, error) {
	if sessionID == 0 {
		return nil, nil
	}

	raw, ok, err := r.store.Get(ctx, sessionID, SessionKeyActiveOrg)
	if err != nil {
		return nil, err
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	orgID, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || orgID == 0 {
		r.log.Debug("ignoring malformed active org", zap.String("session_id", sessionID.String()))
		return nil, nil
	}

	org, err := r.orgs.FindByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, orgdomain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return org, nil
}

func (r *Resolver) SetActiveOrganization(ctx context.Context, sessionID, orgID snowflake.ID, reason string) error {
	if sessionID == 0 {
		return ErrNoSession
	}
	if orgID == 0 {
		return orgdomain.ErrInvalidOrganization
	}
	if err := r.store.Set(ctx, sessionID, SessionKeyActiveOrg, orgID.String()); err != nil {
		return err
	}
	r.metrics.RecordActiveOrgSwitch(ctx, reason)
	return nil
}

// Switch activates orgID for the session when userID is a member. A
// non-member leaves the session untouched.
func (r *Resolver) Switch(ctx context.Context, sessionID, userID, orgID snowflake.ID) (*orgdomain.Organization, error) {
	org, err := r.orgs.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}

	member, err := r.orgs.FindMembership(ctx, org.ID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, orgdomain.ErrNotMember
	}

	if err := r.SetActiveOrganization(ctx, sessionID, org.ID, ReasonSwitched); err != nil {
		return nil, err
	}
	r.log.Info("active organization switched",
		zap.String("user_id", userID.String()),
		zap.String("org_id", org.ID.String()),
	)
	return org, nil
}

// ScopeFor builds the request scope for a user's session.
func (r *Resolver) ScopeFor(ctx context.Context, userID, sessionID snowflake.ID) (Scope, error) {
	scope := Scope{UserID: userID, SessionID: sessionID}
	org, err := r.GetActiveOrganization(ctx, sessionID)
	if err != nil {
		return scope, err
	}
	if org != nil {
		scope.OrgID = org.ID
	}
	return scope, nil
}
