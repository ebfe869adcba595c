// Package testutil builds an in-memory database with the full schema and
// seeds tenant data for service tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	authdomain "github.com/smallbiznis/taskflow/internal/auth/domain"
	"github.com/smallbiznis/taskflow/internal/authorization"
	boarddomain "github.com/smallbiznis/taskflow/internal/board/domain"
	"github.com/smallbiznis/taskflow/internal/clock"
	labeldomain "github.com/smallbiznis/taskflow/internal/label/domain"
	"github.com/smallbiznis/taskflow/internal/migration"
	orgdomain "github.com/smallbiznis/taskflow/internal/organization/domain"
	projectdomain "github.com/smallbiznis/taskflow/internal/project/domain"
	taskdomain "github.com/smallbiznis/taskflow/internal/task/domain"
	"github.com/smallbiznis/taskflow/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

// Now is the fixed wall time fixtures start at.
var Now = time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

type Fixture struct {
	t *testing.T

	DB    *gorm.DB
	Node  *snowflake.Node
	Clock *clock.FakeClock
	Log   *zap.Logger
	Authz authorization.Service
}

func New(t *testing.T) *Fixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(conn))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zaptest.NewLogger(t)
	enforcer, err := authorization.NewEnforcer(conn)
	require.NoError(t, err)

	return &Fixture{
		t:     t,
		DB:    conn,
		Node:  node,
		Clock: clock.NewFakeClock(Now),
		Log:   log,
		Authz: authorization.NewService(authorization.Params{
			DB:       conn,
			Log:      log,
			Enforcer: enforcer,
		}),
	}
}

func (f *Fixture) Ctx() context.Context {
	return context.Background()
}

func (f *Fixture) create(value any) {
	f.t.Helper()
	require.NoError(f.t, f.DB.Create(value).Error)
}

func (f *Fixture) User(username string) *authdomain.User {
	user := &authdomain.User{
		ID:        f.Node.Generate(),
		Username:  username,
		Email:     username + "@example.com",
		CreatedAt: f.Clock.Now(),
		UpdatedAt: f.Clock.Now(),
	}
	f.create(user)
	return user
}

// Org creates an organization with owner as its admin.
func (f *Fixture) Org(name string, owner snowflake.ID) *orgdomain.Organization {
	org := &orgdomain.Organization{
		ID:        f.Node.Generate(),
		Name:      name,
		Slug:      slug.Make(name),
		CreatedAt: f.Clock.Now(),
		UpdatedAt: f.Clock.Now(),
	}
	f.create(org)
	f.Member(org.ID, owner, orgdomain.RoleAdmin)
	return org
}

func (f *Fixture) Member(orgID, userID snowflake.ID, role string) {
	f.create(&orgdomain.Membership{
		ID:        f.Node.Generate(),
		OrgID:     orgID,
		UserID:    userID,
		Role:      role,
		CreatedAt: f.Clock.Now(),
	})
}

func (f *Fixture) Project(orgID snowflake.ID, name string) *projectdomain.Project {
	project := &projectdomain.Project{
		ID:             f.Node.Generate(),
		OrganizationID: orgID,
		Name:           name,
		CreatedAt:      f.Clock.Now(),
		UpdatedAt:      f.Clock.Now(),
	}
	f.create(project)
	return project
}

func (f *Fixture) Board(projectID snowflake.ID, name string) *boarddomain.Board {
	board := &boarddomain.Board{
		ID:        f.Node.Generate(),
		ProjectID: projectID,
		Name:      name,
		CreatedAt: f.Clock.Now(),
		UpdatedAt: f.Clock.Now(),
	}
	f.create(board)
	return board
}

func (f *Fixture) Column(boardID snowflake.ID, name string, order int) *boarddomain.Column {
	column := &boarddomain.Column{
		ID:        f.Node.Generate(),
		BoardID:   boardID,
		Name:      name,
		Order:     order,
		CreatedAt: f.Clock.Now(),
	}
	f.create(column)
	return column
}

func (f *Fixture) Label(orgID snowflake.ID, name, color string) *labeldomain.Label {
	label := &labeldomain.Label{
		ID:             f.Node.Generate(),
		OrganizationID: orgID,
		Name:           name,
		Color:          color,
		CreatedAt:      f.Clock.Now(),
	}
	f.create(label)
	return label
}

// Task inserts a task in column, applying opts before the insert.
func (f *Fixture) Task(orgID, columnID snowflake.ID, title string, opts ...func(*taskdomain.Task)) *taskdomain.Task {
	owner := orgID
	task := &taskdomain.Task{
		ID:             f.Node.Generate(),
		ColumnID:       columnID,
		OrganizationID: &owner,
		Title:          title,
		Priority:       taskdomain.PriorityMedium,
		CreatedAt:      f.Clock.Now(),
		UpdatedAt:      f.Clock.Now(),
	}
	for _, opt := range opts {
		opt(task)
	}
	require.NoError(f.t, f.DB.Omit("Assignees", "Labels").Create(task).Error)
	return task
}

// Assign links users to a task.
func (f *Fixture) Assign(taskID snowflake.ID, userIDs ...snowflake.ID) {
	for _, userID := range userIDs {
		require.NoError(f.t, f.DB.Exec(
			`INSERT INTO task_assignees (task_id, user_id) VALUES (?, ?)`,
			taskID, userID,
		).Error)
	}
}

// Date returns the UTC midnight of a YYYY-MM-DD string.
func Date(value string) *time.Time {
	parsed, err := time.Parse(taskdomain.DateLayout, value)
	if err != nil {
		panic(err)
	}
	return &parsed
}

// Tenant is one organization with a single project, board and column.
type Tenant struct {
	Admin   *authdomain.User
	Org     *orgdomain.Organization
	Project *projectdomain.Project
	Board   *boarddomain.Board
	Column  *boarddomain.Column
}

// Tenant seeds an organization owned by a new admin user with one column.
func (f *Fixture) Tenant(admin, orgName string) Tenant {
	user := f.User(admin)
	org := f.Org(orgName, user.ID)
	project := f.Project(org.ID, orgName+" project")
	board := f.Board(project.ID, "Sprint")
	return Tenant{
		Admin:   user,
		Org:     org,
		Project: project,
		Board:   board,
		Column:  f.Column(board.ID, "Todo", 0),
	}
}
