package sqlfx

import (
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(OpenDatabase),
	fx.Provide(PoolExecutor),
	fx.Provide(FreshExecutor),
	fx.Invoke(ManageDatabase),
)
