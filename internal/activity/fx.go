package activity

import (
	activitydomain "github.com/smallbiznis/taskflow/internal/activity/domain"
	"github.com/smallbiznis/taskflow/internal/activity/service"
	"go.uber.org/fx"
)

var Module = fx.Module("activity.service",
	fx.Provide(service.New),
	fx.Provide(func(svc activitydomain.Service) activitydomain.Recorder { return svc }),
)
