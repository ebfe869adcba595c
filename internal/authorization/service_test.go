package authorization_test

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/taskflow/internal/authorization"
	orgdomain "github.com/smallbiznis/taskflow/internal/organization/domain"
	taskdomain "github.com/smallbiznis/taskflow/internal/task/domain"
	"github.com/smallbiznis/taskflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizeOrgByRole(t *testing.T) {
	f := testutil.New(t)
	acme := f.Tenant("alice", "Acme")
	manager := f.User("mona")
	member := f.User("bob")
	outsider := f.User("eve")
	f.Member(acme.Org.ID, manager.ID, orgdomain.RoleManager)
	f.Member(acme.Org.ID, member.ID, orgdomain.RoleMember)

	cases := []struct {
		name   string
		userID snowflake.ID
		level  authorization.Level
		want   bool
	}{
		{"admin/member", acme.Admin.ID, authorization.LevelMember, true},
		{"admin/manager", acme.Admin.ID, authorization.LevelManagerOrAdmin, true},
		{"admin/admin", acme.Admin.ID, authorization.LevelAdmin, true},
		{"manager/member", manager.ID, authorization.LevelMember, true},
		{"manager/manager", manager.ID, authorization.LevelManagerOrAdmin, true},
		{"manager/admin", manager.ID, authorization.LevelAdmin, false},
		{"member/member", member.ID, authorization.LevelMember, true},
		{"member/manager", member.ID, authorization.LevelManagerOrAdmin, false},
		{"member/admin", member.ID, authorization.LevelAdmin, false},
		{"outsider/member", outsider.ID, authorization.LevelMember, false},
		{"anonymous/member", 0, authorization.LevelMember, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := f.Authz.AuthorizeOrg(f.Ctx(), tc.userID, acme.Org.ID, tc.level)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestOwningOrganizationFollowsParents(t *testing.T) {
	f := testutil.New(t)
	acme := f.Tenant("alice", "Acme")
	task := f.Task(acme.Org.ID, acme.Column.ID, "Ship it")
	label := f.Label(acme.Org.ID, "bug", "red")

	for _, res := range []authorization.Resource{
		authorization.Organization(acme.Org.ID),
		authorization.Project(acme.Project.ID),
		authorization.Board(acme.Board.ID),
		authorization.Column(acme.Column.ID),
		authorization.Task(task.ID),
		authorization.Label(label.ID),
	} {
		t.Run(string(res.Kind), func(t *testing.T) {
			orgID, err := f.Authz.OwningOrganization(f.Ctx(), res)
			require.NoError(t, err)
			assert.Equal(t, acme.Org.ID, orgID)
		})
	}

	_, err := f.Authz.OwningOrganization(f.Ctx(), authorization.Task(f.Node.Generate()))
	assert.ErrorIs(t, err, authorization.ErrResourceNotFound)

	_, err = f.Authz.OwningOrganization(f.Ctx(), authorization.Resource{Kind: "widget", ID: 1})
	assert.ErrorIs(t, err, authorization.ErrInvalidResource)
}

func TestRequireReportsMissingBeforeForbidden(t *testing.T) {
	f := testutil.New(t)
	acme := f.Tenant("alice", "Acme")
	other := f.Tenant("eve", "Other")
	task := f.Task(other.Org.ID, other.Column.ID, "Secret", func(task *taskdomain.Task) {
		task.Priority = taskdomain.PriorityHigh
	})

	err := f.Authz.Require(f.Ctx(), acme.Admin.ID, authorization.Task(task.ID), authorization.LevelMember)
	assert.ErrorIs(t, err, authorization.ErrForbidden)

	err = f.Authz.Require(f.Ctx(), acme.Admin.ID, authorization.Task(f.Node.Generate()), authorization.LevelMember)
	assert.ErrorIs(t, err, authorization.ErrResourceNotFound)

	ok, err := f.Authz.Authorize(f.Ctx(), acme.Admin.ID, authorization.Task(f.Node.Generate()), authorization.LevelMember)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, f.Authz.RequireOrg(f.Ctx(), other.Admin.ID, other.Org.ID, authorization.LevelAdmin))
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "member", authorization.LevelMember.String())
	assert.Equal(t, "manager_or_admin", authorization.LevelManagerOrAdmin.String())
	assert.Equal(t, "admin", authorization.LevelAdmin.String())
	assert.Equal(t, "unknown", authorization.Level(0).String())
}
