package service

import (
	"testing"
	"time"

	analyticsdomain "github.com/smallbiznis/taskflow/internal/analytics/domain"
	"github.com/smallbiznis/taskflow/internal/config"
	taskdomain "github.com/smallbiznis/taskflow/internal/task/domain"
	"github.com/smallbiznis/taskflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dataset struct {
	acme    testutil.Tenant
	bob     string
	open    *taskdomain.Task
	stale   *taskdomain.Task
	request analyticsdomain.Request
}

func at(days int, hour int) time.Time {
	return testutil.Now.AddDate(0, 0, days).Truncate(24 * time.Hour).Add(time.Duration(hour) * time.Hour)
}

func created(ts time.Time) func(*taskdomain.Task) {
	return func(task *taskdomain.Task) {
		task.CreatedAt = ts
		task.UpdatedAt = ts
	}
}

func completed(ts time.Time) func(*taskdomain.Task) {
	return func(task *taskdomain.Task) { task.CompletedAt = &ts }
}

func due(date string) func(*taskdomain.Task) {
	return func(task *taskdomain.Task) { task.DueDate = testutil.Date(date) }
}

// seed builds two days of history in Acme plus noise in another org.
func seed(f *testutil.Fixture) dataset {
	acme := f.Tenant("alice", "Acme")
	other := f.Tenant("eve", "Other")
	bob := f.User("bob")

	t1 := f.Task(acme.Org.ID, acme.Column.ID, "t1", created(at(-2, 9)), completed(at(-1, 9)))
	t2 := f.Task(acme.Org.ID, acme.Column.ID, "t2", created(at(-2, 11)), completed(at(0, 8)))
	t3 := f.Task(acme.Org.ID, acme.Column.ID, "t3", created(at(-1, 9)), due("2025-03-11"))
	f.Task(acme.Org.ID, acme.Column.ID, "t4", due("2025-03-05"), completed(testutil.Now))
	f.Task(acme.Org.ID, acme.Column.ID, "t5", due("2025-03-12"))
	f.Assign(t1.ID, bob.ID)
	f.Assign(t2.ID, bob.ID, acme.Admin.ID)
	f.Assign(t3.ID, acme.Admin.ID)

	side := f.Project(acme.Org.ID, "Side")
	sideBoard := f.Board(side.ID, "Backlog")
	sideColumn := f.Column(sideBoard.ID, "Todo", 0)
	stale := f.Task(acme.Org.ID, sideColumn.ID, "stale", due("2025-03-01"))

	f.Task(other.Org.ID, other.Column.ID, "noise", due("2025-03-01"), completed(at(-1, 12)))

	return dataset{
		acme:    acme,
		bob:     bob.ID.String(),
		open:    t3,
		stale:   stale,
		request: analyticsdomain.Request{OrgID: acme.Org.ID.String()},
	}
}

func newTestService(f *testutil.Fixture) analyticsdomain.Service {
	return New(Params{
		DB:     f.DB,
		Log:    f.Log,
		Clock:  f.Clock,
		Authz:  f.Authz,
		Config: config.NewStaticAnalyticsConfigHolder(config.DefaultAnalyticsConfig()),
	})
}

func TestCompletedPerDay(t *testing.T) {
	f := testutil.New(t)
	ds := seed(f)
	svc := newTestService(f)
	userID := ds.acme.Admin.ID

	got, err := svc.CompletedPerDay(f.Ctx(), userID, ds.request)
	require.NoError(t, err)
	assert.Equal(t, []analyticsdomain.CompletedPerDay{
		{Date: "2025-03-11", CompletedTasksCount: 1},
		{Date: "2025-03-12", CompletedTasksCount: 2},
	}, got)

	req := ds.request
	req.StartDate = "2025-03-12"
	got, err = svc.CompletedPerDay(f.Ctx(), userID, req)
	require.NoError(t, err)
	assert.Equal(t, []analyticsdomain.CompletedPerDay{{Date: "2025-03-12", CompletedTasksCount: 2}}, got)

	req = ds.request
	req.StartDate = "2025-03-12"
	req.EndDate = "2025-03-01"
	got, err = svc.CompletedPerDay(f.Ctx(), userID, req)
	require.NoError(t, err)
	assert.Empty(t, got)

	req.EndDate = "12/03/2025"
	_, err = svc.CompletedPerDay(f.Ctx(), userID, req)
	assert.ErrorIs(t, err, analyticsdomain.ErrInvalidDate)
}

func TestCompletedPerDayDefaultWindowIsInclusive(t *testing.T) {
	f := testutil.New(t)
	acme := f.Tenant("alice", "Acme")
	svc := newTestService(f)

	// today is 2025-03-12 and the default window spans seven days back
	f.Task(acme.Org.ID, acme.Column.ID, "first instant", completed(at(-7, 0)))
	f.Task(acme.Org.ID, acme.Column.ID, "first day late", completed(at(-7, 23)))
	f.Task(acme.Org.ID, acme.Column.ID, "day before", completed(at(-8, 23)))
	f.Task(acme.Org.ID, acme.Column.ID, "today", completed(at(0, 9)))
	f.Task(acme.Org.ID, acme.Column.ID, "tomorrow", completed(at(1, 0)))
	f.Task(acme.Org.ID, acme.Column.ID, "open")

	got, err := svc.CompletedPerDay(f.Ctx(), acme.Admin.ID, analyticsdomain.Request{OrgID: acme.Org.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, []analyticsdomain.CompletedPerDay{
		{Date: "2025-03-05", CompletedTasksCount: 2},
		{Date: "2025-03-12", CompletedTasksCount: 1},
	}, got)

	var inWindow int64
	require.NoError(t, f.DB.Model(&taskdomain.Task{}).
		Where("organization_id = ? AND completed_at >= ? AND completed_at < ?", acme.Org.ID, at(-7, 0), at(1, 0)).
		Count(&inWindow).Error)
	var total int64
	for _, day := range got {
		total += day.CompletedTasksCount
	}
	assert.Equal(t, inWindow, total)
	assert.EqualValues(t, 3, total)
}

func TestMemberProductivity(t *testing.T) {
	f := testutil.New(t)
	ds := seed(f)
	svc := newTestService(f)

	got, err := svc.MemberProductivity(f.Ctx(), ds.acme.Admin.ID, ds.request)
	require.NoError(t, err)
	assert.Equal(t, []analyticsdomain.MemberProductivity{
		{UserID: ds.bob, UserName: "bob", CompletedTasksCount: 2, PendingTasksCount: 0},
		{UserID: ds.acme.Admin.ID.String(), UserName: "alice", CompletedTasksCount: 1, PendingTasksCount: 1},
	}, got)
}

func TestMissedDeadlines(t *testing.T) {
	f := testutil.New(t)
	ds := seed(f)
	svc := newTestService(f)

	got, err := svc.MissedDeadlines(f.Ctx(), ds.acme.Admin.ID, ds.request)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ds.stale.ID.String(), got[0].ID)
	assert.Equal(t, "2025-03-01", got[0].DueDate)
	assert.Equal(t, ds.open.ID.String(), got[1].ID)
	assert.Equal(t, taskdomain.PriorityMedium, got[1].Priority)

	req := ds.request
	req.ProjectID = ds.acme.Project.ID.String()
	got, err = svc.MissedDeadlines(f.Ctx(), ds.acme.Admin.ID, req)
	require.NoError(t, err)
	if assert.Len(t, got, 1) {
		assert.Equal(t, "t3", got[0].Title)
	}
}

func TestBurndownChart(t *testing.T) {
	f := testutil.New(t)
	ds := seed(f)
	svc := newTestService(f)

	req := ds.request
	req.ProjectID = ds.acme.Project.ID.String()
	got, err := svc.BurndownChart(f.Ctx(), ds.acme.Admin.ID, req)
	require.NoError(t, err)
	assert.Equal(t, []analyticsdomain.BurndownPoint{
		{Date: "2025-03-10", CreatedCount: 2, CompletedCount: 2},
		{Date: "2025-03-11", CreatedCount: 1, CompletedCount: 0},
		{Date: "2025-03-12", CreatedCount: 2, CompletedCount: 1},
	}, got)
}

func TestReportRequestValidation(t *testing.T) {
	f := testutil.New(t)
	ds := seed(f)
	outsider := f.User("mallory")
	svc := newTestService(f)

	_, err := svc.BurndownChart(f.Ctx(), ds.acme.Admin.ID, analyticsdomain.Request{})
	assert.ErrorIs(t, err, analyticsdomain.ErrMissingOrgID)

	_, err = svc.BurndownChart(f.Ctx(), ds.acme.Admin.ID, analyticsdomain.Request{OrgID: "abc"})
	assert.ErrorIs(t, err, analyticsdomain.ErrInvalidOrgID)

	_, err = svc.MissedDeadlines(f.Ctx(), outsider.ID, ds.request)
	assert.ErrorIs(t, err, analyticsdomain.ErrUnauthorizedOrg)

	_, err = svc.MissedDeadlines(f.Ctx(), ds.acme.Admin.ID, analyticsdomain.Request{OrgID: f.Node.Generate().String()})
	assert.ErrorIs(t, err, analyticsdomain.ErrUnauthorizedOrg)

	req := ds.request
	req.ProjectID = "side"
	_, err = svc.MemberProductivity(f.Ctx(), ds.acme.Admin.ID, req)
	assert.ErrorIs(t, err, analyticsdomain.ErrInvalidProject)
}
