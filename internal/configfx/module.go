package configfx

import (
	"go.uber.org/fx"
)

// Module expects *viper.Viper to be supplied: the mode has to be known before
// the application graph is assembled.
var Module = fx.Options(
	fx.Provide(DatabaseConfigProvider),
	fx.Provide(PoolConfigProvider),
	fx.Provide(OrchestratorConfigProvider),
	fx.Provide(RunnerConfigProvider),
)
