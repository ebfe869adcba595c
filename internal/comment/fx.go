package comment

import (
	"github.com/smallbiznis/taskflow/internal/comment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("comment.service",
	fx.Provide(service.New),
)
