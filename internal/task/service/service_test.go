package service

import (
	"testing"

	"github.com/smallbiznis/taskflow/internal/activeorg"
	activitydomain "github.com/smallbiznis/taskflow/internal/activity/domain"
	activityservice "github.com/smallbiznis/taskflow/internal/activity/service"
	"github.com/smallbiznis/taskflow/internal/authorization"
	orgdomain "github.com/smallbiznis/taskflow/internal/organization/domain"
	taskdomain "github.com/smallbiznis/taskflow/internal/task/domain"
	"github.com/smallbiznis/taskflow/internal/task/repository"
	"github.com/smallbiznis/taskflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(f *testutil.Fixture) taskdomain.Service {
	recorder := activityservice.New(activityservice.Params{
		DB:    f.DB,
		Log:   f.Log,
		GenID: f.Node,
		Clock: f.Clock,
		Authz: f.Authz,
	})
	return New(Params{
		DB:       f.DB,
		Log:      f.Log,
		GenID:    f.Node,
		Clock:    f.Clock,
		Repo:     repository.Provide(),
		Authz:    f.Authz,
		Recorder: recorder,
	})
}

func logsFor(t *testing.T, f *testutil.Fixture) []activitydomain.ActivityLog {
	t.Helper()
	var logs []activitydomain.ActivityLog
	require.NoError(t, f.DB.Order("timestamp ASC").Order("id ASC").Find(&logs).Error)
	return logs
}

func strPtr(v string) *string { return &v }

func TestCreateTaskRecordsActivity(t *testing.T) {
	f := testutil.New(t)
	acme := f.Tenant("alice", "Acme")
	bob := f.User("bob")
	bug := f.Label(acme.Org.ID, "bug", "red")
	svc := newTestService(f)
	scope := activeorg.ForUser(acme.Admin.ID, acme.Org.ID)

	created, err := svc.Create(f.Ctx(), scope, taskdomain.CreateRequest{
		Title:     "  Ship it ",
		Column:    acme.Column.ID.String(),
		Assignees: []string{bob.ID.String(), bob.ID.String()},
		Labels:    []string{bug.ID.String()},
		DueDate:   strPtr("2025-03-20"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ship it", created.Title)
	assert.Equal(t, taskdomain.PriorityMedium, created.Priority)
	assert.Equal(t, []string{bob.ID.String()}, created.Assignees)
	assert.Equal(t, []string{bug.ID.String()}, created.Labels)
	require.NotNil(t, created.DueDate)
	assert.Equal(t, "2025-03-20", *created.DueDate)
	assert.Nil(t, created.CompletedAt)

	logs := logsFor(t, f)
	require.Len(t, logs, 1)
	assert.Equal(t, activitydomain.ActionCreated, logs[0].Action)
	assert.Equal(t, "Created task 'Ship it'", logs[0].Description)
	assert.Equal(t, acme.Project.ID, *logs[0].ProjectID)
	assert.Equal(t, acme.Admin.ID, *logs[0].UserID)
}

func TestCreateTaskValidation(t *testing.T) {
	f := testutil.New(t)
	acme := f.Tenant("alice", "Acme")
	other := f.Tenant("eve", "Other")
	theirs := f.Label(other.Org.ID, "theirs", "blue")
	svc := newTestService(f)
	scope := activeorg.ForUser(acme.Admin.ID, acme.Org.ID)
	column := acme.Column.ID.String()

	cases := []struct {
		name string
		req  taskdomain.CreateRequest
		want error
	}{
		{"blank title", taskdomain.CreateRequest{Title: " ", Column: column}, taskdomain.ErrInvalidTitle},
		{"missing column", taskdomain.CreateRequest{Title: "x", Column: f.Node.Generate().String()}, taskdomain.ErrInvalidColumn},
		{"foreign column", taskdomain.CreateRequest{Title: "x", Column: other.Column.ID.String()}, taskdomain.ErrColumnNotInOrg},
		{"priority", taskdomain.CreateRequest{Title: "x", Column: column, Priority: "urgent"}, taskdomain.ErrInvalidPriority},
		{"due date", taskdomain.CreateRequest{Title: "x", Column: column, DueDate: strPtr("03/20/2025")}, taskdomain.ErrInvalidDueDate},
		{"assignee", taskdomain.CreateRequest{Title: "x", Column: column, Assignees: []string{f.Node.Generate().String()}}, taskdomain.ErrInvalidAssignee},
		{"foreign label", taskdomain.CreateRequest{Title: "x", Column: column, Labels: []string{theirs.ID.String()}}, taskdomain.ErrInvalidLabel},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(f.Ctx(), scope, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err := svc.Create(f.Ctx(), activeorg.Scope{UserID: acme.Admin.ID}, taskdomain.CreateRequest{Title: "x", Column: column})
	assert.ErrorIs(t, err, activeorg.ErrNoActiveOrg)

	assert.Empty(t, logsFor(t, f))
}

func TestUpdateTogglesCompletion(t *testing.T) {
	f := testutil.New(t)
	acme := f.Tenant("alice", "Acme")
	done := f.Column(acme.Board.ID, "Done", 1)
	task := f.Task(acme.Org.ID, acme.Column.ID, "Ship it", func(task *taskdomain.Task) {
		task.DueDate = testutil.Date("2025-03-20")
	})
	svc := newTestService(f)
	scope := activeorg.ForUser(acme.Admin.ID, acme.Org.ID)

	completed := true
	column := done.ID.String()
	updated, err := svc.Update(f.Ctx(), scope, task.ID, taskdomain.UpdateRequest{Completed: &completed, Column: &column})
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedAt)
	assert.True(t, testutil.Now.Equal(*updated.CompletedAt))
	assert.Equal(t, done.ID.String(), updated.Column)

	completed = false
	updated, err = svc.Update(f.Ctx(), scope, task.ID, taskdomain.UpdateRequest{Completed: &completed, DueDate: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, updated.CompletedAt)
	assert.Nil(t, updated.DueDate)

	logs := logsFor(t, f)
	require.Len(t, logs, 2)
	assert.Equal(t, activitydomain.ActionUpdated, logs[1].Action)
	assert.Equal(t, "Updated task 'Ship it'", logs[1].Description)
}

func TestUpdateRejectsColumnOutsideOwner(t *testing.T) {
	f := testutil.New(t)
	acme := f.Tenant("alice", "Acme")
	other := f.Tenant("eve", "Other")
	f.Member(other.Org.ID, acme.Admin.ID, orgdomain.RoleMember)
	task := f.Task(acme.Org.ID, acme.Column.ID, "Ship it")
	svc := newTestService(f)

	column := other.Column.ID.String()
	_, err := svc.Update(f.Ctx(), activeorg.ForUser(acme.Admin.ID, other.Org.ID), task.ID, taskdomain.UpdateRequest{Column: &column})
	assert.ErrorIs(t, err, taskdomain.ErrColumnNotInOrg)
}

func TestDeleteKeepsHistory(t *testing.T) {
	f := testutil.New(t)
	acme := f.Tenant("alice", "Acme")
	task := f.Task(acme.Org.ID, acme.Column.ID, "Ship it")
	svc := newTestService(f)
	scope := activeorg.ForUser(acme.Admin.ID, acme.Org.ID)

	title := "Ship it now"
	_, err := svc.Update(f.Ctx(), scope, task.ID, taskdomain.UpdateRequest{Title: &title})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(f.Ctx(), scope, task.ID))

	_, err = svc.Get(f.Ctx(), scope, task.ID)
	assert.ErrorIs(t, err, taskdomain.ErrNotFound)

	logs := logsFor(t, f)
	require.Len(t, logs, 2)
	for _, entry := range logs {
		assert.Nil(t, entry.TaskID)
		assert.Equal(t, acme.Project.ID, *entry.ProjectID)
	}
	assert.Equal(t, "Deleted task 'Ship it now'", logs[1].Description)
}

func TestAssignAndUnassign(t *testing.T) {
	f := testutil.New(t)
	acme := f.Tenant("alice", "Acme")
	bob := f.User("bob")
	task := f.Task(acme.Org.ID, acme.Column.ID, "Ship it")
	svc := newTestService(f)
	scope := activeorg.ForUser(acme.Admin.ID, acme.Org.ID)

	require.NoError(t, svc.AssignMember(f.Ctx(), scope, task.ID, bob.ID.String()))
	require.NoError(t, svc.AssignMember(f.Ctx(), scope, task.ID, bob.ID.String()))

	got, err := svc.Get(f.Ctx(), scope, task.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID.String()}, got.Assignees)

	require.NoError(t, svc.UnassignMember(f.Ctx(), scope, task.ID, bob.ID.String()))
	got, err = svc.Get(f.Ctx(), scope, task.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Assignees)

	err = svc.AssignMember(f.Ctx(), scope, task.ID, f.Node.Generate().String())
	assert.ErrorIs(t, err, taskdomain.ErrUserNotFound)

	logs := logsFor(t, f)
	require.Len(t, logs, 3)
	assert.Equal(t, "Assigned 'bob' to task 'Ship it'", logs[0].Description)
	assert.Equal(t, bob.ID.String(), logs[0].Metadata["assignee_id"])
	assert.Equal(t, activitydomain.ActionUnassigned, logs[2].Action)
	assert.Equal(t, "Unassigned 'bob' from task 'Ship it'", logs[2].Description)
}

func TestListScopedToActiveOrg(t *testing.T) {
	f := testutil.New(t)
	acme := f.Tenant("alice", "Acme")
	other := f.Tenant("eve", "Other")
	f.Member(other.Org.ID, acme.Admin.ID, orgdomain.RoleMember)
	second := f.Column(acme.Board.ID, "Doing", 1)
	first := f.Task(acme.Org.ID, acme.Column.ID, "a")
	f.Task(acme.Org.ID, second.ID, "b")
	f.Task(other.Org.ID, other.Column.ID, "c")
	svc := newTestService(f)

	items, err := svc.List(f.Ctx(), activeorg.ForUser(acme.Admin.ID, acme.Org.ID), taskdomain.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = svc.List(f.Ctx(), activeorg.ForUser(acme.Admin.ID, acme.Org.ID), taskdomain.ListFilter{ColumnID: second.ID.String()})
	require.NoError(t, err)
	if assert.Len(t, items, 1) {
		assert.Equal(t, "b", items[0].Title)
	}

	items, err = svc.List(f.Ctx(), activeorg.ForUser(acme.Admin.ID, other.Org.ID), taskdomain.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = svc.Get(f.Ctx(), activeorg.ForUser(other.Admin.ID, other.Org.ID), first.ID)
	assert.ErrorIs(t, err, authorization.ErrForbidden)
}
