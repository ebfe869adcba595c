package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Recorder appends activity inside the caller's transaction.
type Recorder interface {
	Record(ctx context.Context, tx *gorm.DB, req RecordRequest) error
}

type Service interface {
	Recorder
	List(ctx context.Context, filter Filter) ([]Response, error)
	Get(ctx context.Context, userID, id snowflake.ID) (*Response, error)
}

type RecordRequest struct {
	ActorID     snowflake.ID
	TaskID      snowflake.ID
	Action      string
	Description string
	Metadata    map[string]any
}

// Filter fields are ANDed; empty fields do not restrict.
type Filter struct {
	ProjectID string
	UserID    string
	TaskID    string
}

type Response struct {
	ID          string         `json:"id"`
	User        *string        `json:"user"`
	UserName    *string        `json:"user_name"`
	Task        *string        `json:"task"`
	TaskTitle   *string        `json:"task_title"`
	Project     *string        `json:"project"`
	ProjectName *string        `json:"project_name"`
	Action      string         `json:"action"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

var (
	ErrInvalidAction = errors.New("invalid_action")
	ErrInvalidFilter = errors.New("invalid_filter")
	ErrTaskNotFound  = errors.New("task_not_found")
	ErrNotFound      = errors.New("activity_log_not_found")
	ErrMissingTx     = errors.New("activity_requires_transaction")
)
