package orchestratorfx

import (
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(JobTemplate),
	fx.Provide(SubmitterConfig),
	fx.Provide(Submitter),
	fx.Invoke(RequireDatabaseConfig),
	fx.Invoke(RunSubmitter),
)
