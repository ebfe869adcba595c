package task

import (
	"github.com/smallbiznis/taskflow/internal/task/repository"
	"github.com/smallbiznis/taskflow/internal/task/service"
	"go.uber.org/fx"
)

var Module = fx.Module("task.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
