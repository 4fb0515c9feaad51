package clockify

import "go.uber.org/fx"

var Module = fx.Module("providers.clockify",
	fx.Provide(New),
)
