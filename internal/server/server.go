package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/taskflow/internal/activeorg"
	"github.com/smallbiznis/taskflow/internal/activity"
	activitydomain "github.com/smallbiznis/taskflow/internal/activity/domain"
	"github.com/smallbiznis/taskflow/internal/analytics"
	analyticsdomain "github.com/smallbiznis/taskflow/internal/analytics/domain"
	"github.com/smallbiznis/taskflow/internal/auth"
	authdomain "github.com/smallbiznis/taskflow/internal/auth/domain"
	"github.com/smallbiznis/taskflow/internal/auth/session"
	"github.com/smallbiznis/taskflow/internal/authorization"
	"github.com/smallbiznis/taskflow/internal/board"
	boarddomain "github.com/smallbiznis/taskflow/internal/board/domain"
	"github.com/smallbiznis/taskflow/internal/comment"
	commentdomain "github.com/smallbiznis/taskflow/internal/comment/domain"
	"github.com/smallbiznis/taskflow/internal/config"
	"github.com/smallbiznis/taskflow/internal/label"
	labeldomain "github.com/smallbiznis/taskflow/internal/label/domain"
	"github.com/smallbiznis/taskflow/internal/observability"
	obsmiddleware "github.com/smallbiznis/taskflow/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/taskflow/internal/observability/metrics"
	obstracing "github.com/smallbiznis/taskflow/internal/observability/tracing"
	"github.com/smallbiznis/taskflow/internal/organization"
	organizationdomain "github.com/smallbiznis/taskflow/internal/organization/domain"
	"github.com/smallbiznis/taskflow/internal/project"
	projectdomain "github.com/smallbiznis/taskflow/internal/project/domain"
	"github.com/smallbiznis/taskflow/internal/ratelimit"
	"github.com/smallbiznis/taskflow/internal/task"
	taskdomain "github.com/smallbiznis/taskflow/internal/task/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	auth.Module,
	organization.Module,
	activeorg.Module,
	activity.Module,
	project.Module,
	board.Module,
	label.Module,
	task.Module,
	comment.Module,
	analytics.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	log          *zap.Logger
	authsvc      authdomain.Service
	sessions     *session.Manager
	resolver     *activeorg.Resolver
	orgSvc       organizationdomain.Service
	projectSvc   projectdomain.Service
	boardSvc     boarddomain.Service
	columnSvc    boarddomain.ColumnService
	labelSvc     labeldomain.Service
	taskSvc      taskdomain.Service
	commentSvc   commentdomain.Service
	activitySvc  activitydomain.Service
	analyticsSvc analyticsdomain.Service
	limiter      *ratelimit.LoginLimiter
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Log          *zap.Logger
	Authsvc      authdomain.Service
	Sessions     *session.Manager
	Resolver     *activeorg.Resolver
	OrgSvc       organizationdomain.Service
	ProjectSvc   projectdomain.Service
	BoardSvc     boarddomain.Service
	ColumnSvc    boarddomain.ColumnService
	LabelSvc     labeldomain.Service
	TaskSvc      taskdomain.Service
	CommentSvc   commentdomain.Service
	ActivitySvc  activitydomain.Service
	AnalyticsSvc analyticsdomain.Service
	Limiter      *ratelimit.LoginLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		log:          p.Log.Named("http.server"),
		authsvc:      p.Authsvc,
		sessions:     p.Sessions,
		resolver:     p.Resolver,
		orgSvc:       p.OrgSvc,
		projectSvc:   p.ProjectSvc,
		boardSvc:     p.BoardSvc,
		columnSvc:    p.ColumnSvc,
		labelSvc:     p.LabelSvc,
		taskSvc:      p.TaskSvc,
		commentSvc:   p.CommentSvc,
		activitySvc:  p.ActivitySvc,
		analyticsSvc: p.AnalyticsSvc,
		limiter:      p.Limiter,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()
	svc.registerAnalyticsRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/register", s.Register)
	auth.POST("/login", s.ThrottleLogin(), s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	// -------- Organizations --------
	api.GET("/organizations", s.ListOrganizations)
	api.POST("/organizations", s.CreateOrganization)
	api.GET("/organizations/my-organizations", s.MyOrganizations)
	api.GET("/organizations/:id", s.GetOrganization)
	api.PATCH("/organizations/:id", s.UpdateOrganization)
	api.DELETE("/organizations/:id", s.DeleteOrganization)
	api.POST("/organizations/:id/join", s.JoinOrganization)
	api.POST("/organizations/:id/switch", s.SwitchOrganization)

	// -------- Projects --------
	api.GET("/projects", s.ListProjects)
	api.POST("/projects", s.CreateProject)
	api.GET("/projects/:id", s.GetProject)
	api.PATCH("/projects/:id", s.UpdateProject)
	api.DELETE("/projects/:id", s.DeleteProject)

	// -------- Boards --------
	api.GET("/boards", s.ListBoards)
	api.POST("/boards", s.CreateBoard)
	api.GET("/boards/:id", s.GetBoard)
	api.PATCH("/boards/:id", s.UpdateBoard)
	api.DELETE("/boards/:id", s.DeleteBoard)

	// -------- Columns --------
	api.GET("/columns", s.ListColumns)
	api.POST("/columns", s.CreateColumn)
	api.GET("/columns/:id", s.GetColumn)
	api.PATCH("/columns/:id", s.UpdateColumn)
	api.DELETE("/columns/:id", s.DeleteColumn)

	// -------- Tasks --------
	api.GET("/tasks", s.ListTasks)
	api.POST("/tasks", s.CreateTask)
	api.GET("/tasks/:id", s.GetTask)
	api.PATCH("/tasks/:id", s.UpdateTask)
	api.DELETE("/tasks/:id", s.DeleteTask)
	api.POST("/tasks/:id/assign_member", s.AssignTaskMember)
	api.POST("/tasks/:id/unassign_member", s.UnassignTaskMember)

	// -------- Labels --------
	api.GET("/labels", s.ListLabels)
	api.POST("/labels", s.CreateLabel)
	api.GET("/labels/:id", s.GetLabel)
	api.PATCH("/labels/:id", s.UpdateLabel)
	api.DELETE("/labels/:id", s.DeleteLabel)

	// -------- Comments --------
	api.GET("/comments", s.ListComments)
	api.POST("/comments", s.CreateComment)
	api.GET("/comments/:id", s.GetComment)
	api.PATCH("/comments/:id", s.UpdateComment)
	api.DELETE("/comments/:id", s.DeleteComment)

	// -------- Activity Logs --------
	api.GET("/activity-logs", s.ListActivityLogs)
	api.GET("/activity-logs/:id", s.GetActivityLog)
}

func (s *Server) registerAnalyticsRoutes() {
	analytics := s.engine.Group("/analytics", s.AuthRequired())

	analytics.GET("/tasks-completed", s.TasksCompletedPerDay)
	analytics.GET("/member-productivity", s.MemberProductivity)
	analytics.GET("/missed-deadlines", s.MissedDeadlines)
	analytics.GET("/burndown-chart", s.BurndownChart)
}
