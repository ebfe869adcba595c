package service

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/taskflow/internal/activeorg"
	"github.com/smallbiznis/taskflow/internal/authorization"
	boarddomain "github.com/smallbiznis/taskflow/internal/board/domain"
	orgdomain "github.com/smallbiznis/taskflow/internal/organization/domain"
	"github.com/smallbiznis/taskflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newParams(f *testutil.Fixture) Params {
	return Params{DB: f.DB, Log: f.Log, GenID: f.Node, Clock: f.Clock, Authz: f.Authz}
}

func TestBoardCreateValidatesProject(t *testing.T) {
	f := testutil.New(t)
	acme := f.Tenant("alice", "Acme")
	other := f.Tenant("eve", "Other")
	svc := New(newParams(f))
	scope := activeorg.ForUser(acme.Admin.ID, acme.Org.ID)

	board, err := svc.Create(f.Ctx(), scope, boarddomain.CreateRequest{Name: "Backlog", Project: acme.Project.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, acme.Project.ID.String(), board.Project)

	_, err = svc.Create(f.Ctx(), scope, boarddomain.CreateRequest{Name: "Steal", Project: other.Project.ID.String()})
	assert.ErrorIs(t, err, boarddomain.ErrProjectNotInOrg)

	_, err = svc.Create(f.Ctx(), scope, boarddomain.CreateRequest{Name: "Ghost", Project: f.Node.Generate().String()})
	assert.ErrorIs(t, err, boarddomain.ErrInvalidProject)

	_, err = svc.Create(f.Ctx(), scope, boarddomain.CreateRequest{Name: "Bad", Project: "abc"})
	assert.ErrorIs(t, err, boarddomain.ErrInvalidProject)

	_, err = svc.Create(f.Ctx(), activeorg.Scope{UserID: acme.Admin.ID}, boarddomain.CreateRequest{Name: "x", Project: acme.Project.ID.String()})
	assert.ErrorIs(t, err, activeorg.ErrNoActiveOrg)
}

func TestBoardListFiltersByProject(t *testing.T) {
	f := testutil.New(t)
	acme := f.Tenant("alice", "Acme")
	second := f.Project(acme.Org.ID, "P2")
	f.Board(second.ID, "Ops")
	f.Tenant("eve", "Other")
	svc := New(newParams(f))
	scope := activeorg.ForUser(acme.Admin.ID, acme.Org.ID)

	all, err := svc.List(f.Ctx(), scope, boarddomain.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := svc.List(f.Ctx(), scope, boarddomain.ListFilter{ProjectID: second.ID.String()})
	require.NoError(t, err)
	if assert.Len(t, filtered, 1) {
		assert.Equal(t, "Ops", filtered[0].Name)
	}

	_, err = svc.List(f.Ctx(), scope, boarddomain.ListFilter{ProjectID: "nope"})
	assert.ErrorIs(t, err, boarddomain.ErrInvalidProject)
}

func TestBoardGetHidesMissingAndForbidden(t *testing.T) {
	f := testutil.New(t)
	acme := f.Tenant("alice", "Acme")
	other := f.Tenant("eve", "Other")
	svc := New(newParams(f))
	scope := activeorg.ForUser(acme.Admin.ID, acme.Org.ID)

	_, err := svc.Get(f.Ctx(), scope, f.Node.Generate())
	assert.ErrorIs(t, err, boarddomain.ErrNotFound)

	_, err = svc.Get(f.Ctx(), scope, other.Board.ID)
	assert.ErrorIs(t, err, authorization.ErrForbidden)
}

func TestColumnLifecycle(t *testing.T) {
	f := testutil.New(t)
	acme := f.Tenant("alice", "Acme")
	other := f.Tenant("eve", "Other")
	svc := NewColumnService(newParams(f))
	scope := activeorg.ForUser(acme.Admin.ID, acme.Org.ID)

	order := 2
	done, err := svc.Create(f.Ctx(), scope, boarddomain.CreateColumnRequest{Name: "Done", Board: acme.Board.ID.String(), Order: &order})
	require.NoError(t, err)
	assert.Equal(t, 2, done.Order)

	_, err = svc.Create(f.Ctx(), scope, boarddomain.CreateColumnRequest{Name: "Stolen", Board: other.Board.ID.String()})
	assert.ErrorIs(t, err, boarddomain.ErrBoardNotInOrg)

	columns, err := svc.List(f.Ctx(), scope, boarddomain.ColumnListFilter{BoardID: acme.Board.ID.String()})
	require.NoError(t, err)
	names := []string{}
	for _, column := range columns {
		names = append(names, column.Name)
	}
	assert.Equal(t, []string{"Todo", "Done"}, names)

	renamed := "Shipped"
	updated, err := svc.Update(f.Ctx(), scope, acme.Column.ID, boarddomain.UpdateColumnRequest{Name: &renamed})
	require.NoError(t, err)
	assert.Equal(t, "Shipped", updated.Name)

	require.NoError(t, svc.Delete(f.Ctx(), scope, acme.Column.ID))
	_, err = svc.Get(f.Ctx(), scope, acme.Column.ID)
	assert.ErrorIs(t, err, boarddomain.ErrColumnNotFound)
}

func taskChainOrg(t *testing.T, f *testutil.Fixture, taskID snowflake.ID) (chain, stored snowflake.ID) {
	t.Helper()
	var row struct {
		Chain  int64
		Stored int64
	}
	require.NoError(t, f.DB.Raw(`
		SELECT projects.organization_id AS chain, tasks.organization_id AS stored
		FROM tasks
		JOIN board_columns ON board_columns.id = tasks.column_id
		JOIN boards ON boards.id = board_columns.board_id
		JOIN projects ON projects.id = boards.project_id
		WHERE tasks.id = ?`, taskID).Scan(&row).Error)
	return snowflake.ID(row.Chain), snowflake.ID(row.Stored)
}

func TestBoardUpdateKeepsOwningOrganization(t *testing.T) {
	f := testutil.New(t)
	acme := f.Tenant("alice", "Acme")
	other := f.Tenant("eve", "Other")
	f.Member(other.Org.ID, acme.Admin.ID, orgdomain.RoleMember)
	task := f.Task(acme.Org.ID, acme.Column.ID, "Ship it")
	svc := New(newParams(f))
	scope := activeorg.ForUser(acme.Admin.ID, other.Org.ID)

	target := other.Project.ID.String()
	_, err := svc.Update(f.Ctx(), scope, acme.Board.ID, boarddomain.UpdateRequest{Project: &target})
	assert.ErrorIs(t, err, boarddomain.ErrProjectNotInOrg)

	chain, stored := taskChainOrg(t, f, task.ID)
	assert.Equal(t, acme.Org.ID, chain)
	assert.Equal(t, stored, chain)

	sibling := f.Project(acme.Org.ID, "Side").ID.String()
	moved, err := svc.Update(f.Ctx(), scope, acme.Board.ID, boarddomain.UpdateRequest{Project: &sibling})
	require.NoError(t, err)
	assert.Equal(t, sibling, moved.Project)
}

func TestColumnUpdateKeepsOwningOrganization(t *testing.T) {
	f := testutil.New(t)
	acme := f.Tenant("alice", "Acme")
	other := f.Tenant("eve", "Other")
	f.Member(other.Org.ID, acme.Admin.ID, orgdomain.RoleMember)
	task := f.Task(acme.Org.ID, acme.Column.ID, "Ship it")
	svc := NewColumnService(newParams(f))
	scope := activeorg.ForUser(acme.Admin.ID, other.Org.ID)

	target := other.Board.ID.String()
	_, err := svc.Update(f.Ctx(), scope, acme.Column.ID, boarddomain.UpdateColumnRequest{Board: &target})
	assert.ErrorIs(t, err, boarddomain.ErrBoardNotInOrg)

	chain, stored := taskChainOrg(t, f, task.ID)
	assert.Equal(t, acme.Org.ID, chain)
	assert.Equal(t, stored, chain)

	sibling := f.Board(acme.Project.ID, "Ops").ID.String()
	moved, err := svc.Update(f.Ctx(), scope, acme.Column.ID, boarddomain.UpdateColumnRequest{Board: &sibling})
	require.NoError(t, err)
	assert.Equal(t, sibling, moved.Board)
}
