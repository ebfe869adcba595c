package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/taskflow/internal/activeorg"
)

type Service interface {
	List(ctx context.Context, scope activeorg.Scope, filter ListFilter) ([]Response, error)
	Create(ctx context.Context, scope activeorg.Scope, req CreateRequest) (*Response, error)
	Get(ctx context.Context, scope activeorg.Scope, id snowflake.ID) (*Response, error)
	Update(ctx context.Context, scope activeorg.Scope, id snowflake.ID, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, scope activeorg.Scope, id snowflake.ID) error
	AssignMember(ctx context.Context, scope activeorg.Scope, id snowflake.ID, userID string) error
	UnassignMember(ctx context.Context, scope activeorg.Scope, id snowflake.ID, userID string) error
}

type ListFilter struct {
	ColumnID string
}

type CreateRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Column      string   `json:"column"`
	Assignees   []string `json:"assignees"`
	Labels      []string `json:"labels"`
	DueDate     *string  `json:"due_date"`
	Priority    string   `json:"priority"`
	Completed   bool     `json:"completed"`
}

// UpdateRequest applies only the fields that are set. An empty DueDate
// clears the due date.
type UpdateRequest struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Column      *string   `json:"column,omitempty"`
	Assignees   *[]string `json:"assignees,omitempty"`
	Labels      *[]string `json:"labels,omitempty"`
	DueDate     *string   `json:"due_date,omitempty"`
	Priority    *string   `json:"priority,omitempty"`
	Completed   *bool     `json:"completed,omitempty"`
}

type Response struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Column       string     `json:"column"`
	Organization *string    `json:"organization"`
	Assignees    []string   `json:"assignees"`
	Labels       []string   `json:"labels"`
	DueDate      *string    `json:"due_date"`
	Priority     string     `json:"priority"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at"`
}

var (
	ErrInvalidTitle    = errors.New("invalid_title")
	ErrInvalidColumn   = errors.New("invalid_column")
	ErrInvalidPriority = errors.New("invalid_priority")
	ErrInvalidDueDate  = errors.New("invalid_due_date")
	ErrInvalidAssignee = errors.New("invalid_assignee")
	ErrInvalidLabel    = errors.New("invalid_label")
	ErrColumnNotInOrg  = errors.New("column_not_in_active_organization")
	ErrUserNotFound    = errors.New("user_not_found")
	ErrNotFound        = errors.New("task_not_found")
)
