package service

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/taskflow/internal/activeorg"
	"github.com/smallbiznis/taskflow/internal/authorization"
	labeldomain "github.com/smallbiznis/taskflow/internal/label/domain"
	"github.com/smallbiznis/taskflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelLifecycle(t *testing.T) {
	f := testutil.New(t)
	acme := f.Tenant("alice", "Acme")
	other := f.Tenant("eve", "Other")
	f.Label(other.Org.ID, "theirs", "blue")
	svc := New(Params{DB: f.DB, Log: f.Log, GenID: f.Node, Clock: f.Clock, Authz: f.Authz})
	scope := activeorg.ForUser(acme.Admin.ID, acme.Org.ID)

	_, err := svc.Create(f.Ctx(), scope, labeldomain.CreateRequest{Name: "bug"})
	assert.ErrorIs(t, err, labeldomain.ErrInvalidColor)

	_, err = svc.Create(f.Ctx(), scope, labeldomain.CreateRequest{Color: "red"})
	assert.ErrorIs(t, err, labeldomain.ErrInvalidName)

	bug, err := svc.Create(f.Ctx(), scope, labeldomain.CreateRequest{Name: "bug", Color: "red"})
	require.NoError(t, err)

	items, err := svc.List(f.Ctx(), scope)
	require.NoError(t, err)
	if assert.Len(t, items, 1) {
		assert.Equal(t, "bug", items[0].Name)
	}

	color := "#ff0000"
	updated, err := svc.Update(f.Ctx(), scope, mustParse(t, bug.ID), labeldomain.UpdateRequest{Color: &color})
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", updated.Color)

	require.NoError(t, svc.Delete(f.Ctx(), scope, mustParse(t, bug.ID)))
	_, err = svc.Get(f.Ctx(), scope, mustParse(t, bug.ID))
	assert.ErrorIs(t, err, labeldomain.ErrNotFound)
}

func TestLabelGetForbiddenAcrossOrgs(t *testing.T) {
	f := testutil.New(t)
	acme := f.Tenant("alice", "Acme")
	other := f.Tenant("eve", "Other")
	theirs := f.Label(other.Org.ID, "theirs", "blue")
	svc := New(Params{DB: f.DB, Log: f.Log, GenID: f.Node, Clock: f.Clock, Authz: f.Authz})

	_, err := svc.Get(f.Ctx(), activeorg.ForUser(acme.Admin.ID, acme.Org.ID), theirs.ID)
	assert.ErrorIs(t, err, authorization.ErrForbidden)
}

func mustParse(t *testing.T, raw string) snowflake.ID {
	t.Helper()
	id, err := snowflake.ParseString(raw)
	require.NoError(t, err)
	return id
}
