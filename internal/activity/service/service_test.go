package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	activitydomain "github.com/smallbiznis/taskflow/internal/activity/domain"
	"github.com/smallbiznis/taskflow/internal/authorization"
	orgdomain "github.com/smallbiznis/taskflow/internal/organization/domain"
	projectdomain "github.com/smallbiznis/taskflow/internal/project/domain"
	"github.com/smallbiznis/taskflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(f *testutil.Fixture) activitydomain.Service {
	return New(Params{
		DB:    f.DB,
		Log:   f.Log,
		GenID: f.Node,
		Clock: f.Clock,
		Authz: f.Authz,
	})
}

func record(t *testing.T, f *testutil.Fixture, svc activitydomain.Service, req activitydomain.RecordRequest) {
	t.Helper()
	require.NoError(t, f.DB.Transaction(func(tx *gorm.DB) error {
		return svc.Record(context.Background(), tx, req)
	}))
}

func TestRecordResolvesProject(t *testing.T) {
	f := testutil.New(t)
	acme := f.Tenant("alice", "Acme")
	task := f.Task(acme.Org.ID, acme.Column.ID, "Ship it")
	svc := newTestService(f)

	record(t, f, svc, activitydomain.RecordRequest{
		ActorID:     acme.Admin.ID,
		TaskID:      task.ID,
		Action:      activitydomain.ActionCreated,
		Description: "Created task 'Ship it'",
		Metadata:    map[string]any{"source": "test"},
	})

	items, err := svc.List(f.Ctx(), activitydomain.Filter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	got := items[0]
	assert.Equal(t, acme.Project.ID.String(), *got.Project)
	assert.Equal(t, "Acme project", *got.ProjectName)
	assert.Equal(t, task.ID.String(), *got.Task)
	assert.Equal(t, "Ship it", *got.TaskTitle)
	assert.Equal(t, "alice", *got.UserName)
	assert.Equal(t, "test", got.Metadata["source"])
	assert.True(t, testutil.Now.Equal(got.Timestamp))
}

func TestRecordRejectsBadInput(t *testing.T) {
	f := testutil.New(t)
	acme := f.Tenant("alice", "Acme")
	task := f.Task(acme.Org.ID, acme.Column.ID, "Ship it")
	svc := newTestService(f)

	err := svc.Record(f.Ctx(), nil, activitydomain.RecordRequest{TaskID: task.ID, Action: activitydomain.ActionCreated})
	assert.ErrorIs(t, err, activitydomain.ErrMissingTx)

	err = f.DB.Transaction(func(tx *gorm.DB) error {
		return svc.Record(f.Ctx(), tx, activitydomain.RecordRequest{TaskID: task.ID, Action: "archived"})
	})
	assert.ErrorIs(t, err, activitydomain.ErrInvalidAction)

	err = f.DB.Transaction(func(tx *gorm.DB) error {
		return svc.Record(f.Ctx(), tx, activitydomain.RecordRequest{TaskID: f.Node.Generate(), Action: activitydomain.ActionCreated})
	})
	assert.ErrorIs(t, err, activitydomain.ErrTaskNotFound)
}

func TestRecordRollsBackWithCaller(t *testing.T) {
	f := testutil.New(t)
	acme := f.Tenant("alice", "Acme")
	task := f.Task(acme.Org.ID, acme.Column.ID, "Ship it")
	svc := newTestService(f)
	boom := errors.New("boom")

	err := f.DB.Transaction(func(tx *gorm.DB) error {
		if err := svc.Record(f.Ctx(), tx, activitydomain.RecordRequest{TaskID: task.ID, Action: activitydomain.ActionUpdated}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, f.DB.Model(&activitydomain.ActivityLog{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestListFiltersAndOrder(t *testing.T) {
	f := testutil.New(t)
	acme := f.Tenant("alice", "Acme")
	other := f.Tenant("eve", "Other")
	first := f.Task(acme.Org.ID, acme.Column.ID, "first")
	second := f.Task(acme.Org.ID, acme.Column.ID, "second")
	foreign := f.Task(other.Org.ID, other.Column.ID, "foreign")
	svc := newTestService(f)

	record(t, f, svc, activitydomain.RecordRequest{ActorID: acme.Admin.ID, TaskID: first.ID, Action: activitydomain.ActionCreated})
	f.Clock.Advance(time.Minute)
	record(t, f, svc, activitydomain.RecordRequest{ActorID: acme.Admin.ID, TaskID: second.ID, Action: activitydomain.ActionCreated})
	f.Clock.Advance(time.Minute)
	record(t, f, svc, activitydomain.RecordRequest{ActorID: other.Admin.ID, TaskID: foreign.ID, Action: activitydomain.ActionCreated})

	all, err := svc.List(f.Ctx(), activitydomain.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, foreign.ID.String(), *all[0].Task)
	assert.Equal(t, first.ID.String(), *all[2].Task)

	byProject, err := svc.List(f.Ctx(), activitydomain.Filter{ProjectID: acme.Project.ID.String()})
	require.NoError(t, err)
	assert.Len(t, byProject, 2)

	byUser, err := svc.List(f.Ctx(), activitydomain.Filter{UserID: other.Admin.ID.String()})
	require.NoError(t, err)
	assert.Len(t, byUser, 1)

	combined, err := svc.List(f.Ctx(), activitydomain.Filter{
		ProjectID: acme.Project.ID.String(),
		TaskID:    second.ID.String(),
	})
	require.NoError(t, err)
	if assert.Len(t, combined, 1) {
		assert.Equal(t, "second", *combined[0].TaskTitle)
	}

	_, err = svc.List(f.Ctx(), activitydomain.Filter{TaskID: "abc"})
	assert.ErrorIs(t, err, activitydomain.ErrInvalidFilter)
}

func TestGetVisibility(t *testing.T) {
	f := testutil.New(t)
	acme := f.Tenant("alice", "Acme")
	bob := f.User("bob")
	eve := f.User("eve")
	f.Member(acme.Org.ID, bob.ID, orgdomain.RoleMember)
	task := f.Task(acme.Org.ID, acme.Column.ID, "Ship it")
	svc := newTestService(f)

	record(t, f, svc, activitydomain.RecordRequest{ActorID: bob.ID, TaskID: task.ID, Action: activitydomain.ActionCommented})
	items, err := svc.List(f.Ctx(), activitydomain.Filter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	id, err := snowflake.ParseString(items[0].ID)
	require.NoError(t, err)

	_, err = svc.Get(f.Ctx(), acme.Admin.ID, id)
	assert.NoError(t, err)
	_, err = svc.Get(f.Ctx(), eve.ID, id)
	assert.ErrorIs(t, err, authorization.ErrForbidden)

	require.NoError(t, f.DB.Delete(&projectdomain.Project{}, acme.Project.ID).Error)

	got, err := svc.Get(f.Ctx(), bob.ID, id)
	require.NoError(t, err)
	assert.Nil(t, got.Project)
	assert.Nil(t, got.Task)
	_, err = svc.Get(f.Ctx(), acme.Admin.ID, id)
	assert.ErrorIs(t, err, authorization.ErrForbidden)

	_, err = svc.Get(f.Ctx(), bob.ID, f.Node.Generate())
	assert.ErrorIs(t, err, activitydomain.ErrNotFound)
}
