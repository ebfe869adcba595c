package activeorg

import "go.uber.org/fx"

var Module = fx.Module("activeorg",
	fx.Provide(NewResolver),
)
