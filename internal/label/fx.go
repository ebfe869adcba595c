package label

import (
	"github.com/smallbiznis/taskflow/internal/label/service"
	"go.uber.org/fx"
)

var Module = fx.Module("label.service",
	fx.Provide(service.New),
)
