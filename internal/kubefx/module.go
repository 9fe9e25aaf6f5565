package kubefx

import (
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(KubernetesConfigProvider),
	fx.Provide(RestConfig),
	fx.Provide(Clientset),
	fx.Provide(JobClient),
)
