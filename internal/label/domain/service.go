package domain

import (
	"context"
	"errors"

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
	Name  string `json:"name"`
	Color string `json:"color"`
}

type UpdateRequest struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

type Response struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidColor = errors.New("invalid_color")
	ErrNotFound     = errors.New("label_not_found")
)
