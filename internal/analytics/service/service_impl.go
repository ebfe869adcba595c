package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	analyticsdomain "github.com/smallbiznis/taskflow/internal/analytics/domain"
	"github.com/smallbiznis/taskflow/internal/authorization"
	"github.com/smallbiznis/taskflow/internal/clock"
	"github.com/smallbiznis/taskflow/internal/config"
	"github.com/smallbiznis/taskflow/internal/observability/metrics"
	taskdomain "github.com/smallbiznis/taskflow/internal/task/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Authz   authorization.Service
	Config  *config.AnalyticsConfigHolder
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	authz   authorization.Service
	cfg     *config.AnalyticsConfigHolder
	metrics *metrics.Metrics
}

func New(p Params) analyticsdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("analytics.service"),
		clock:   p.Clock,
		authz:   p.Authz,
		cfg:     p.Config,
		metrics: p.Metrics,
	}
}

// scope is a validated report request.
type scope struct {
	orgID     snowflake.ID
	projectID *snowflake.ID
	loc       *time.Location
	today     time.Time
}

type taskTimes struct {
	CreatedAt   time.Time  `gorm:"column:created_at"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
}

type productivityRow struct {
	UserID    int64  `gorm:"column:user_id"`
	UserName  string `gorm:"column:user_name"`
	Completed int64  `gorm:"column:completed"`
	Pending   int64  `gorm:"column:pending"`
}

// CompletedPerDay counts tasks by completion date in the configured zone over
// an inclusive range. The range defaults to the last defaultWindowDays days.
func (s *Service) CompletedPerDay(ctx context.Context, userID snowflake.ID, req analyticsdomain.Request) ([]analyticsdomain.CompletedPerDay, error) {
	sc, err := s.resolve(ctx, userID, req, analyticsdomain.ReportCompletedPerDay)
	if err != nil {
		return nil, err
	}

	start := sc.today.AddDate(0, 0, -s.cfg.Get().DefaultWindowDays)
	end := sc.today
	if raw := strings.TrimSpace(req.StartDate); raw != "" {
		if start, err = time.ParseInLocation(taskdomain.DateLayout, raw, sc.loc); err != nil {
			return nil, analyticsdomain.ErrInvalidDate
		}
	}
	if raw := strings.TrimSpace(req.EndDate); raw != "" {
		if end, err = time.ParseInLocation(taskdomain.DateLayout, raw, sc.loc); err != nil {
			return nil, analyticsdomain.ErrInvalidDate
		}
	}
	if end.Before(start) {
		return []analyticsdomain.CompletedPerDay{}, nil
	}

	var rows []taskTimes
	err = s.tasks(ctx, sc).
		Select("tasks.created_at", "tasks.completed_at").
		Where("tasks.completed_at >= ? AND tasks.completed_at < ?", start.UTC(), end.AddDate(0, 0, 1).UTC()).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := map[string]int64{}
	for _, row := range rows {
		if row.CompletedAt == nil {
			continue
		}
		counts[row.CompletedAt.In(sc.loc).Format(taskdomain.DateLayout)]++
	}

	out := make([]analyticsdomain.CompletedPerDay, 0, len(counts))
	for _, date := range sortedKeys(counts) {
		out = append(out, analyticsdomain.CompletedPerDay{Date: date, CompletedTasksCount: counts[date]})
	}
	return out, nil
}

// MemberProductivity counts completed and pending tasks per assignee.
// Unassigned tasks are not reported.
func (s *Service) MemberProductivity(ctx context.Context, userID snowflake.ID, req analyticsdomain.Request) ([]analyticsdomain.MemberProductivity, error) {
	sc, err := s.resolve(ctx, userID, req, analyticsdomain.ReportMemberProductivity)
	if err != nil {
		return nil, err
	}

	var rows []productivityRow
	err = s.tasks(ctx, sc).
		Select(`users.id AS user_id,
			users.username AS user_name,
			COUNT(CASE WHEN tasks.completed_at IS NOT NULL THEN 1 END) AS completed,
			COUNT(CASE WHEN tasks.completed_at IS NULL THEN 1 END) AS pending`).
		Joins("JOIN task_assignees ON task_assignees.task_id = tasks.id").
		Joins("JOIN users ON users.id = task_assignees.user_id").
		Group("users.id, users.username").
		Order("completed DESC").
		Order("users.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]analyticsdomain.MemberProductivity, 0, len(rows))
	for _, row := range rows {
		out = append(out, analyticsdomain.MemberProductivity{
			UserID:              snowflake.ID(row.UserID).String(),
			UserName:            row.UserName,
			CompletedTasksCount: row.Completed,
			PendingTasksCount:   row.Pending,
		})
	}
	return out, nil
}

// MissedDeadlines lists open tasks whose due date is before today.
func (s *Service) MissedDeadlines(ctx context.Context, userID snowflake.ID, req analyticsdomain.Request) ([]analyticsdomain.MissedDeadline, error) {
	sc, err := s.resolve(ctx, userID, req, analyticsdomain.ReportMissedDeadlines)
	if err != nil {
		return nil, err
	}

	today := time.Date(sc.today.Year(), sc.today.Month(), sc.today.Day(), 0, 0, 0, 0, time.UTC)

	var items []taskdomain.Task
	err = s.tasks(ctx, sc).
		Select("tasks.id", "tasks.title", "tasks.due_date", "tasks.priority", "tasks.column_id", "tasks.created_at").
		Where("tasks.due_date IS NOT NULL AND tasks.due_date < ?", today).
		Where("tasks.completed_at IS NULL").
		Order("tasks.due_date ASC").
		Order("tasks.id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	out := make([]analyticsdomain.MissedDeadline, 0, len(items))
	for _, item := range items {
		row := analyticsdomain.MissedDeadline{
			ID:        item.ID.String(),
			Title:     item.Title,
			Priority:  item.Priority,
			ColumnID:  item.ColumnID.String(),
			CreatedAt: item.CreatedAt,
		}
		if item.DueDate != nil {
			row.DueDate = item.DueDate.UTC().Format(taskdomain.DateLayout)
		}
		out = append(out, row)
	}
	return out, nil
}

// BurndownChart groups tasks by creation date and counts how many of each
// day's tasks are completed now.
func (s *Service) BurndownChart(ctx context.Context, userID snowflake.ID, req analyticsdomain.Request) ([]analyticsdomain.BurndownPoint, error) {
	sc, err := s.resolve(ctx, userID, req, analyticsdomain.ReportBurndownChart)
	if err != nil {
		return nil, err
	}

	var rows []taskTimes
	if err := s.tasks(ctx, sc).Select("tasks.created_at", "tasks.completed_at").Scan(&rows).Error; err != nil {
		return nil, err
	}

	points := map[string]*analyticsdomain.BurndownPoint{}
	for _, row := range rows {
		date := row.CreatedAt.In(sc.loc).Format(taskdomain.DateLayout)
		point, ok := points[date]
		if !ok {
			point = &analyticsdomain.BurndownPoint{Date: date}
			points[date] = point
		}
		point.CreatedCount++
		if row.CompletedAt != nil {
			point.CompletedCount++
		}
	}

	out := make([]analyticsdomain.BurndownPoint, 0, len(points))
	for _, date := range sortedKeys(points) {
		out = append(out, *points[date])
	}
	return out, nil
}

// resolve validates the request and checks membership. The org check always
// runs before any task is read.
func (s *Service) resolve(ctx context.Context, userID snowflake.ID, req analyticsdomain.Request, report string) (scope, error) {
	rawOrg := strings.TrimSpace(req.OrgID)
	if rawOrg == "" {
		return scope{}, analyticsdomain.ErrMissingOrgID
	}
	orgID, err := snowflake.ParseString(rawOrg)
	if err != nil || orgID == 0 {
		return scope{}, analyticsdomain.ErrInvalidOrgID
	}

	allowed, err := s.authz.AuthorizeOrg(ctx, userID, orgID, authorization.LevelMember)
	if err != nil {
		return scope{}, err
	}
	if !allowed {
		return scope{}, analyticsdomain.ErrUnauthorizedOrg
	}

	sc := scope{orgID: orgID}
	if rawProject := strings.TrimSpace(req.ProjectID); rawProject != "" {
		projectID, err := snowflake.ParseString(rawProject)
		if err != nil {
			return scope{}, analyticsdomain.ErrInvalidProject
		}
		sc.projectID = &projectID
	}

	sc.loc = s.cfg.Get().Location()
	now := s.clock.Now().In(sc.loc)
	sc.today = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, sc.loc)

	s.metrics.RecordAnalyticsQuery(ctx, report, orgID.String())
	return sc, nil
}

func (s *Service) tasks(ctx context.Context, sc scope) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&taskdomain.Task{}).Where("tasks.organization_id = ?", sc.orgID)
	if sc.projectID != nil {
		q = q.Joins("JOIN board_columns ON board_columns.id = tasks.column_id").
			Joins("JOIN boards ON boards.id = board_columns.board_id").
			Where("boards.project_id = ?", *sc.projectID)
	}
	return q
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
