package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/smallbiznis/taskflow/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestIsDuplicateKeyErr(t *testing.T) {
	assert.False(t, IsDuplicateKeyErr(nil))
	assert.True(t, IsDuplicateKeyErr(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicateKeyErr(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.True(t, IsDuplicateKeyErr(&pq.Error{Code: "23505"}))
	assert.True(t, IsDuplicateKeyErr(errors.New("UNIQUE constraint failed: memberships.org_id")))
	assert.False(t, IsDuplicateKeyErr(&pgconn.PgError{Code: "23503"}))
}

func TestDialect(t *testing.T) {
	for _, typ := range []string{TypeMySQL, TypePostgres, TypeSQLite} {
		d, err := Dialect(Config{Type: typ, Name: "taskflow"})
		require.NoError(t, err)
		assert.Equal(t, typ, d.Name())
	}

	_, err := Dialect(Config{Type: "oracle"})
	assert.Error(t, err)
}

func TestFromAppConfig(t *testing.T) {
	cfg := FromAppConfig(config.Config{DBType: "postgres", DBHost: "db", DBMaxOpenConn: 7})
	assert.Equal(t, "postgres", cfg.Type)
	assert.Equal(t, "db", cfg.Host)
	assert.Equal(t, 7, cfg.MaxOpenConn)
}

func TestNewTestEnforcesForeignKeys(t *testing.T) {
	conn, err := NewTest()
	require.NoError(t, err)

	require.NoError(t, conn.Exec(`CREATE TABLE parents (id INTEGER PRIMARY KEY)`).Error)
	require.NoError(t, conn.Exec(`CREATE TABLE children (id INTEGER PRIMARY KEY, parent_id INTEGER REFERENCES parents(id))`).Error)

	err = conn.Exec(`INSERT INTO children (id, parent_id) VALUES (1, 99)`).Error
	assert.Error(t, err)
}
