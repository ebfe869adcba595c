package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/taskflow/internal/activeorg"
)

type Service interface {
	List(ctx context.Context, scope activeorg.Scope, filter ListFilter) ([]Response, error)
	Create(ctx context.Context, scope activeorg.Scope, req CreateRequest) (*Response, error)
	Get(ctx context.Context, scope activeorg.Scope, id snowflake.ID) (*Response, error)
	Update(ctx context.Context, scope activeorg.Scope, id snowflake.ID, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, scope activeorg.Scope, id snowflake.ID) error
}

type ColumnService interface {
	List(ctx context.Context, scope activeorg.Scope, filter ColumnListFilter) ([]ColumnResponse, error)
	Create(ctx context.Context, scope activeorg.Scope, req CreateColumnRequest) (*ColumnResponse, error)
	Get(ctx context.Context, scope activeorg.Scope, id snowflake.ID) (*ColumnResponse, error)
	Update(ctx context.Context, scope activeorg.Scope, id snowflake.ID, req UpdateColumnRequest) (*ColumnResponse, error)
	Delete(ctx context.Context, scope activeorg.Scope, id snowflake.ID) error
}

type ListFilter struct {
	ProjectID string
}

type CreateRequest struct {
	Name    string `json:"name"`
	Project string `json:"project"`
}

type UpdateRequest struct {
	Name    *string `json:"name,omitempty"`
	Project *string `json:"project,omitempty"`
}

type Response struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Project string `json:"project"`
}

type ColumnListFilter struct {
	BoardID string
}

type CreateColumnRequest struct {
	Name  string `json:"name"`
	Board string `json:"board"`
	Order *int   `json:"order"`
}

type UpdateColumnRequest struct {
	Name  *string `json:"name,omitempty"`
	Board *string `json:"board,omitempty"`
	Order *int    `json:"order,omitempty"`
}

type ColumnResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Board string `json:"board"`
	Order int    `json:"order"`
}

var (
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidProject  = errors.New("invalid_project")
	ErrInvalidBoard    = errors.New("invalid_board")
	ErrProjectNotInOrg = errors.New("project_not_in_active_organization")
	ErrBoardNotInOrg   = errors.New("board_not_in_active_organization")
	ErrNotFound        = errors.New("board_not_found")
	ErrColumnNotFound  = errors.New("column_not_found")
)
