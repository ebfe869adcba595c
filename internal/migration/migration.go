package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	activitydomain "github.com/smallbiznis/taskflow/internal/activity/domain"
	authdomain "github.com/smallbiznis/taskflow/internal/auth/domain"
	boarddomain "github.com/smallbiznis/taskflow/internal/board/domain"
	commentdomain "github.com/smallbiznis/taskflow/internal/comment/domain"
	labeldomain "github.com/smallbiznis/taskflow/internal/label/domain"
	orgdomain "github.com/smallbiznis/taskflow/internal/organization/domain"
	projectdomain "github.com/smallbiznis/taskflow/internal/project/domain"
	taskdomain "github.com/smallbiznis/taskflow/internal/task/domain"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies the embedded postgres migrations.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// Models lists every table in dependency order.
func Models() []any {
	return []any{
		&authdomain.User{},
		&authdomain.Session{},
		&authdomain.SessionValue{},
		&orgdomain.Organization{},
		&orgdomain.Membership{},
		&projectdomain.Project{},
		&boarddomain.Board{},
		&boarddomain.Column{},
		&labeldomain.Label{},
		&taskdomain.Task{},
		&commentdomain.Comment{},
		&activitydomain.ActivityLog{},
	}
}

// AutoMigrate creates the schema from the models. Used for sqlite and mysql
// deployments and by tests.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
