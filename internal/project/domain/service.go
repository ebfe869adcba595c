package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/taskflow/internal/activeorg"
)

type Service interface {
	List(ctx context.Context, scope activeorg.Scope) ([]Response, error)
	Create(ctx context.Context, scope activeorg.Scope, req CreateRequest) (*Response, error)
	Get(ctx context.Context, scope activeorg.Scope, id snowflake.ID) (*Response, error)
	Update(ctx context.Context, scope activeorg.Scope, id snowflake.ID, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, scope activeorg.Scope, id snowflake.ID) error
}

type CreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type UpdateRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

type Response struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Organization string    `json:"organization"`
	CreatedAt    time.Time `json:"created_at"`
}

var (
	ErrInvalidName = errors.New("invalid_name")
	ErrNotFound    = errors.New("project_not_found")
)
