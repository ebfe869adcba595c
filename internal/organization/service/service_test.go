package service

import (
	"testing"

	"github.com/smallbiznis/taskflow/internal/authorization"
	"github.com/smallbiznis/taskflow/internal/organization/domain"
	"github.com/smallbiznis/taskflow/internal/organization/repository"
	projectdomain "github.com/smallbiznis/taskflow/internal/project/domain"
	"github.com/smallbiznis/taskflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(f *testutil.Fixture) domain.Service {
	return NewService(Params{
		DB:    f.DB,
		Log:   f.Log,
		Repo:  repository.NewRepository(f.DB),
		Authz: f.Authz,
		GenID: f.Node,
		Clock: f.Clock,
	})
}

func TestCreateMakesCreatorAdmin(t *testing.T) {
	f := testutil.New(t)
	alice := f.User("alice")
	svc := newTestService(f)

	org, err := svc.Create(f.Ctx(), alice.ID, domain.CreateOrganizationRequest{Name: "  Acme Corp "})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", org.Name)
	assert.Equal(t, "acme-corp", org.Slug)

	role, ok, err := svc.RoleFor(f.Ctx(), org.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domain.RoleAdmin, role)

	_, err = svc.Create(f.Ctx(), alice.ID, domain.CreateOrganizationRequest{Name: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestJoinIsIdempotent(t *testing.T) {
	f := testutil.New(t)
	acme := f.Tenant("alice", "Acme")
	bob := f.User("bob")
	svc := newTestService(f)

	first, err := svc.Join(f.Ctx(), bob.ID, acme.Org.ID)
	require.NoError(t, err)
	assert.Equal(t, &domain.JoinResult{Status: "joined", Role: domain.RoleMember}, first)

	second, err := svc.Join(f.Ctx(), bob.ID, acme.Org.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var count int64
	require.NoError(t, f.DB.Model(&domain.Membership{}).
		Where("org_id = ? AND user_id = ?", acme.Org.ID, bob.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	admin, err := svc.Join(f.Ctx(), acme.Admin.ID, acme.Org.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)

	_, err = svc.Join(f.Ctx(), bob.ID, f.Node.Generate())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateRequiresManager(t *testing.T) {
	f := testutil.New(t)
	acme := f.Tenant("alice", "Acme")
	bob := f.User("bob")
	mona := f.User("mona")
	f.Member(acme.Org.ID, bob.ID, domain.RoleMember)
	f.Member(acme.Org.ID, mona.ID, domain.RoleManager)
	svc := newTestService(f)

	name := "Acme Labs"
	_, err := svc.Update(f.Ctx(), bob.ID, acme.Org.ID, domain.UpdateOrganizationRequest{Name: &name})
	assert.ErrorIs(t, err, authorization.ErrForbidden)

	updated, err := svc.Update(f.Ctx(), mona.ID, acme.Org.ID, domain.UpdateOrganizationRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Acme Labs", updated.Name)
	assert.Equal(t, "acme-labs", updated.Slug)
}

func TestDeleteRequiresAdminAndCascades(t *testing.T) {
	f := testutil.New(t)
	acme := f.Tenant("alice", "Acme")
	mona := f.User("mona")
	f.Member(acme.Org.ID, mona.ID, domain.RoleManager)
	svc := newTestService(f)

	err := svc.Delete(f.Ctx(), mona.ID, acme.Org.ID)
	assert.ErrorIs(t, err, authorization.ErrForbidden)

	require.NoError(t, svc.Delete(f.Ctx(), acme.Admin.ID, acme.Org.ID))

	var projects int64
	require.NoError(t, f.DB.Model(&projectdomain.Project{}).Count(&projects).Error)
	assert.Zero(t, projects)

	_, err = svc.Get(f.Ctx(), acme.Org.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListForUser(t *testing.T) {
	f := testutil.New(t)
	acme := f.Tenant("alice", "Acme")
	other := f.Tenant("eve", "Other")
	f.Member(other.Org.ID, acme.Admin.ID, domain.RoleMember)
	svc := newTestService(f)

	items, err := svc.ListForUser(f.Ctx(), acme.Admin.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	roles := map[string]string{}
	for _, item := range items {
		roles[item.Name] = item.Role
	}
	assert.Equal(t, map[string]string{"Acme": domain.RoleAdmin, "Other": domain.RoleMember}, roles)

	all, err := svc.List(f.Ctx())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
