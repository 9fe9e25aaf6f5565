package runnerfx

import (
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(Source),
	fx.Provide(QueryHandler),
	fx.Provide(Driver),
	fx.Invoke(RegisterQueryRoute),
	fx.Invoke(RunDriver),
)
