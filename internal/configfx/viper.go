package configfx

import (
	"path"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix              = "sqljobrunner"
	DefaultConfigDirectory = "sqljobrunner"
	DefaultConfigFile      = "sqljobrunner"
)

var (
	defaultConfigPaths = []string{
		".",
		"./config",
		path.Join("/etc", DefaultConfigDirectory),
	}

	// Environment names the runner jobs and their deployments already use.
	envBindings = map[string]string{
		ConfigMode:                   "MODE",
		ConfigDatabaseConnection:     "CONN_STR",
		ConfigDatabaseDriver:         "DB_DRIVER",
		ConfigOrchestratorImage:      "IMAGE_NAME",
		ConfigOrchestratorNamespace:  "NAMESPACE",
		ConfigOrchestratorSecretName: "SECRET_NAME",
		ConfigOrchestratorSecretKey:  "SECRET_KEY",
		ConfigOrchestratorJobCount:   "JOB_COUNT",
		ConfigOrchestratorInterval:   "BATCH_INTERVAL_SECONDS",
		ConfigOrchestratorSchedule:   "BATCH_SCHEDULE",
		ConfigOrchestratorTTL:        "JOB_TTL_SECONDS",
		ConfigKubernetesKubeconfig:   "KUBECONFIG",
		ConfigRunnerDuration:         "RUNNER_DURATION_MINUTES",
		ConfigRunnerQueryWait:        "QUERY_WAIT_SECONDS",
		ConfigRunnerQuery:            "RUNNER_QUERY",
		ConfigRunnerUseEndpoint:      "RUNNER_USE_ENDPOINT",
		ConfigRunnerEndpointGrace:    "RUNNER_ENDPOINT_GRACE",
		ConfigPoolMinSize:            "POOL_MIN_SIZE",
		ConfigPoolMaxSize:            "POOL_MAX_SIZE",
		ConfigPoolConnectTimeout:     "POOL_CONNECT_TIMEOUT",
		ConfigServerAddress:          "SERVER_ADDRESS",
		ConfigServerLogRequests:      "SERVER_LOG_REQUESTS",
		ConfigLogLevel:               "LOG_LEVEL",
		ConfigLogFormat:              "LOG_FORMAT",
	}
)

func setDefaults(v *viper.Viper) {
	v.SetDefault(ConfigMode, string(ModeRunner))
	v.SetDefault(ConfigDatabaseDriver, DriverSqlServer)
	v.SetDefault(ConfigOrchestratorNamespace, DefaultNamespace)
	v.SetDefault(ConfigOrchestratorSecretName, DefaultSecretName)
	v.SetDefault(ConfigOrchestratorSecretKey, DefaultSecretKey)
	v.SetDefault(ConfigOrchestratorTTL, DefaultJobTTLSeconds)
	v.SetDefault(ConfigRunnerQuery, DefaultRunnerQuery)
	v.SetDefault(ConfigRunnerEndpointGrace, 2*time.Second)
	v.SetDefault(ConfigPoolMinSize, 1)
	v.SetDefault(ConfigPoolMaxSize, 10)
	v.SetDefault(ConfigPoolConnectTimeout, 30*time.Second)
	v.SetDefault(ConfigServerTimeoutRead, 15*time.Second)
	v.SetDefault(ConfigServerTimeoutWrite, 15*time.Second)
	v.SetDefault(ConfigLogLevel, "info")
	v.SetDefault(ConfigLogFormat, "text")
}

func ViperProvider(logger *logrus.Logger, flagSet *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	err := v.BindPFlags(flagSet)
	if err != nil {
		return nil, err
	}

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	// Read config from config file
	if configFile := v.GetString("config"); configFile != "" {
		// If user do specify config file, then this file MUST exist and be valid
		// so missing file is a fatal error

		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		// If user does not specify config file, then we'll still try to find appropriate config,
		// but missing file is not an error

		v.SetConfigName(DefaultConfigFile)

		for _, dir := range defaultConfigPaths {
			v.AddConfigPath(dir)
		}

		if err := v.ReadInConfig(); err != nil {
			logger.WithError(err).Debug("Couldn't read config file")
		}
	}

	return v, nil
}
