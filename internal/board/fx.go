package board

import (
	"github.com/smallbiznis/taskflow/internal/board/service"
	"go.uber.org/fx"
)

var Module = fx.Module("board.service",
	fx.Provide(service.New),
	fx.Provide(service.NewColumnService),
)
