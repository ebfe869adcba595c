package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Service computes read-only task reports for one organization.
type Service interface {
	CompletedPerDay(ctx context.Context, userID snowflake.ID, req Request) ([]CompletedPerDay, error)
	MemberProductivity(ctx context.Context, userID snowflake.ID, req Request) ([]MemberProductivity, error)
	MissedDeadlines(ctx context.Context, userID snowflake.ID, req Request) ([]MissedDeadline, error)
	BurndownChart(ctx context.Context, userID snowflake.ID, req Request) ([]BurndownPoint, error)
}

// Request carries raw query parameters. Dates use the YYYY-MM-DD layout and
// are only read by CompletedPerDay.
type Request struct {
	OrgID     string
	ProjectID string
	StartDate string
	EndDate   string
}

type CompletedPerDay struct {
	Date                string `json:"date"`
	CompletedTasksCount int64  `json:"completed_tasks_count"`
}

type MemberProductivity struct {
	UserID              string `json:"user_id"`
	UserName            string `json:"user_name"`
	CompletedTasksCount int64  `json:"completed_tasks_count"`
	PendingTasksCount   int64  `json:"pending_tasks_count"`
}

type MissedDeadline struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	DueDate   string    `json:"due_date"`
	Priority  string    `json:"priority"`
	ColumnID  string    `json:"column_id"`
	CreatedAt time.Time `json:"created_at"`
}

type BurndownPoint struct {
	Date           string `json:"date"`
	CreatedCount   int64  `json:"created_count"`
	CompletedCount int64  `json:"completed_count"`
}

const (
	ReportCompletedPerDay    = "tasks_completed"
	ReportMemberProductivity = "member_productivity"
	ReportMissedDeadlines    = "missed_deadlines"
	ReportBurndownChart      = "burndown_chart"
)

var (
	ErrMissingOrgID    = errors.New("missing_org_id")
	ErrInvalidOrgID    = errors.New("invalid_org_id")
	ErrInvalidProject  = errors.New("invalid_project_id")
	ErrInvalidDate     = errors.New("invalid_date")
	ErrUnauthorizedOrg = errors.New("unauthorized_for_organization")
)
