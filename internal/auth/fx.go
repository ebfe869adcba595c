package auth

import (
	"github.com/smallbiznis/taskflow/internal/auth/password"
	"github.com/smallbiznis/taskflow/internal/auth/repository"
	"github.com/smallbiznis/taskflow/internal/auth/service"
	"github.com/smallbiznis/taskflow/internal/auth/session"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(password.NewHasher),
	fx.Provide(repository.New),
	fx.Provide(service.New),
	session.Module,
)
