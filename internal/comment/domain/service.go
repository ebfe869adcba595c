package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/taskflow/internal/activeorg"
	authdomain "github.com/smallbiznis/taskflow/internal/auth/domain"
)

type Service interface {
	List(ctx context.Context, scope activeorg.Scope, filter ListFilter) ([]Response, error)
	Create(ctx context.Context, scope activeorg.Scope, req CreateRequest) (*Response, error)
	Get(ctx context.Context, scope activeorg.Scope, id snowflake.ID) (*Response, error)
	Update(ctx context.Context, scope activeorg.Scope, id snowflake.ID, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, scope activeorg.Scope, id snowflake.ID) error
}

// ListFilter selects the comments of one task. An empty TaskID lists nothing.
type ListFilter struct {
	TaskID string
}

type CreateRequest struct {
	Task    string  `json:"task"`
	Content string  `json:"content"`
	Parent  *string `json:"parent"`
}

type UpdateRequest struct {
	Content *string `json:"content,omitempty"`
}

type Response struct {
	ID        string                  `json:"id"`
	Task      string                  `json:"task"`
	User      authdomain.UserResponse `json:"user"`
	Content   string                  `json:"content"`
	Parent    *string                 `json:"parent"`
	CreatedAt time.Time               `json:"created_at"`
	Replies   []Response              `json:"replies"`
}

var (
	ErrInvalidContent = errors.New("invalid_content")
	ErrInvalidTask    = errors.New("invalid_task")
	ErrInvalidParent  = errors.New("invalid_parent")
	ErrNotFound       = errors.New("comment_not_found")
)
