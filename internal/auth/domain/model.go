// Package domain contains core types for the auth service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// User represents a system user account.
type User struct {
	ID                  snowflake.ID `gorm:"primaryKey" json:"id"`
	Username            string       `gorm:"type:varchar(150);not null;uniqueIndex" json:"username"`
	Email               string       `gorm:"type:varchar(254);column:email" json:"email"`
	PasswordHash        *string      `gorm:"type:text" json:"-"`
	IsOrganizationAdmin bool         `gorm:"column:is_organization_admin;not null;default:false" json:"is_organization_admin"`
	LastPasswordChanged *time.Time   `gorm:"column:last_password_changed" json:"-"`
	CreatedAt           time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time    `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// Session represents a persisted login session.
type Session struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	UserID           snowflake.ID `gorm:"column:user_id;not null;index"`
	User             *User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	SessionTokenHash string       `gorm:"column:session_token_hash;type:varchar(64);not null;uniqueIndex"`
	UserAgent        string       `gorm:"column:user_agent;type:text"`
	IPAddress        string       `gorm:"column:ip_address;type:varchar(64)"`
	ExpiresAt        time.Time    `gorm:"column:expires_at;not null;index"`
	RevokedAt        *time.Time   `gorm:"column:revoked_at"`
	CreatedAt        time.Time    `gorm:"column:created_at;not null"`
	LastSeenAt       time.Time    `gorm:"column:last_seen_at;not null"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }

// SessionValue is one key of per-session state kept in the database.
type SessionValue struct {
	SessionID snowflake.ID `gorm:"primaryKey;column:session_id"`
	Session   *Session     `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
	Key       string       `gorm:"primaryKey;column:state_key;type:varchar(64)"`
	Value     string       `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time    `gorm:"column:updated_at;not null"`
}

// TableName sets the database table name.
func (SessionValue) TableName() string { return "session_values" }

// UserResponse is the public shape of a user.
type UserResponse struct {
	ID                  string `json:"id"`
	Username            string `json:"username"`
	Email               string `json:"email"`
	IsOrganizationAdmin bool   `json:"is_organization_admin"`
}

// ToResponse converts a user to its public shape.
func (u User) ToResponse() UserResponse {
	return UserResponse{
		ID:                  u.ID.String(),
		Username:            u.Username,
		Email:               u.Email,
		IsOrganizationAdmin: u.IsOrganizationAdmin,
	}
}
