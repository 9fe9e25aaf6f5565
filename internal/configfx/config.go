package configfx

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/distribution/reference"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const (
	ConfigMode = "mode"

	ConfigDatabaseConnection = "database.connection_string"
	ConfigDatabaseDriver     = "database.driver"

	ConfigOrchestratorImage      = "orchestrator.image"
	ConfigOrchestratorNamespace  = "orchestrator.namespace"
	ConfigOrchestratorSecretName = "orchestrator.secret_name"
	ConfigOrchestratorSecretKey  = "orchestrator.secret_key"
	ConfigOrchestratorJobCount   = "orchestrator.job_count"
	ConfigOrchestratorInterval   = "orchestrator.interval_seconds"
	ConfigOrchestratorSchedule   = "orchestrator.schedule"
	ConfigOrchestratorTTL        = "orchestrator.ttl_seconds"

	ConfigKubernetesKubeconfig = "kubernetes.kubeconfig"

	ConfigRunnerDuration      = "runner.duration_minutes"
	ConfigRunnerQueryWait     = "runner.query_wait_seconds"
	ConfigRunnerQuery         = "runner.query"
	ConfigRunnerUseEndpoint   = "runner.use_endpoint"
	ConfigRunnerEndpointGrace = "runner.endpoint_grace"

	ConfigPoolMinSize        = "pool.min_size"
	ConfigPoolMaxSize        = "pool.max_size"
	ConfigPoolConnectTimeout = "pool.connect_timeout"

	ConfigServerAddress      = "server.address"
	ConfigServerTimeoutRead  = "server.timeout.read"
	ConfigServerTimeoutWrite = "server.timeout.write"
	ConfigServerLogRequests  = "server.log.requests"

	ConfigLogLevel  = "log.level"
	ConfigLogFormat = "log.format"
)

const (
	DefaultNamespace       = "default"
	DefaultSecretName      = "sql-connection-secret"
	DefaultSecretKey       = "CONN_STR"
	DefaultJobCount        = 50
	DefaultIntervalSeconds = 60
	DefaultJobTTLSeconds   = 300
	DefaultDurationMinutes = 1
	DefaultQueryWait       = 10
	DefaultRunnerQuery     = "SELECT COUNT(1) FROM [SalesLT].[Customer]"

	// Runners only talk to themselves; orchestrators are probed and scraped
	// from outside the pod.
	DefaultRunnerServerAddress       = "127.0.0.1:8080"
	DefaultOrchestratorServerAddress = ":8080"

	DriverSqlServer = "sqlserver"
	DriverPostgres  = "pgx"
	DriverSqlite    = "sqlite3"
)

var (
	ErrInvalidMode       = errors.New("invalid mode")
	ErrMissingConnection = errors.New("CONN_STR environment variable is required")
	ErrMissingImage      = errors.New("IMAGE_NAME environment variable is required in orchestrator mode")
	ErrUnsupportedDriver = errors.New("unsupported database driver")
	ErrInvalidPoolSizes  = errors.New("pool min size must not exceed max size")
)

type Mode string

const (
	ModeOrchestrator Mode = "orchestrator"
	ModeRunner       Mode = "runner"
)

func ModeProvider(v *viper.Viper) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(v.GetString(ConfigMode))))

	switch mode {
	case ModeOrchestrator, ModeRunner:
		return mode, nil
	default:
		return "", errors.Wrapf(ErrInvalidMode, "'%s', must be 'orchestrator' or 'runner'", mode)
	}
}

type DatabaseConfig struct {
	Driver           string
	ConnectionString string
}

func DatabaseConfigProvider(v *viper.Viper) (*DatabaseConfig, error) {
	config := &DatabaseConfig{
		Driver:           strings.ToLower(v.GetString(ConfigDatabaseDriver)),
		ConnectionString: v.GetString(ConfigDatabaseConnection),
	}

	if config.ConnectionString == "" {
		return nil, ErrMissingConnection
	}

	switch config.Driver {
	case DriverSqlServer, DriverPostgres, DriverSqlite:
	default:
		return nil, errors.Wrapf(ErrUnsupportedDriver, "'%s'", config.Driver)
	}

	return config, nil
}

type PoolConfig struct {
	MinSize        int
	MaxSize        int
	ConnectTimeout time.Duration
}

func PoolConfigProvider(v *viper.Viper) (*PoolConfig, error) {
	config := &PoolConfig{
		MinSize:        nonNegativeInt(v, ConfigPoolMinSize, 1),
		MaxSize:        positiveInt(v, ConfigPoolMaxSize, 10),
		ConnectTimeout: v.GetDuration(ConfigPoolConnectTimeout),
	}

	if config.MinSize > config.MaxSize {
		return nil, errors.Wrapf(ErrInvalidPoolSizes, "min=%d max=%d", config.MinSize, config.MaxSize)
	}

	return config, nil
}

type OrchestratorConfig struct {
	Image      string
	Namespace  string
	SecretName string
	SecretKey  string
	JobCount   int
	Interval   time.Duration

	// Schedule is a cron spec; when set it replaces Interval.
	Schedule string

	TTLSeconds int32
}

func OrchestratorConfigProvider(v *viper.Viper) (*OrchestratorConfig, error) {
	config := &OrchestratorConfig{
		Image:      strings.TrimSpace(v.GetString(ConfigOrchestratorImage)),
		Namespace:  stringOrDefault(v, ConfigOrchestratorNamespace, DefaultNamespace),
		SecretName: stringOrDefault(v, ConfigOrchestratorSecretName, DefaultSecretName),
		SecretKey:  stringOrDefault(v, ConfigOrchestratorSecretKey, DefaultSecretKey),
		JobCount:   positiveInt(v, ConfigOrchestratorJobCount, DefaultJobCount),
		Interval:   time.Duration(positiveInt(v, ConfigOrchestratorInterval, DefaultIntervalSeconds)) * time.Second,
		Schedule:   strings.TrimSpace(v.GetString(ConfigOrchestratorSchedule)),
		TTLSeconds: int32(intInRange(v, ConfigOrchestratorTTL, 1, math.MaxInt32, DefaultJobTTLSeconds)),
	}

	if config.Image == "" {
		return nil, ErrMissingImage
	}

	if _, err := reference.ParseNormalizedNamed(config.Image); err != nil {
		return nil, errors.Wrapf(err, "Invalid image reference '%s'", config.Image)
	}

	return config, nil
}

type RunnerConfig struct {
	Duration      time.Duration
	QueryWait     time.Duration
	Query         string
	UseEndpoint   bool
	EndpointGrace time.Duration
}

func RunnerConfigProvider(v *viper.Viper) *RunnerConfig {
	return &RunnerConfig{
		Duration:      time.Duration(nonNegativeInt(v, ConfigRunnerDuration, DefaultDurationMinutes)) * time.Minute,
		QueryWait:     time.Duration(nonNegativeInt(v, ConfigRunnerQueryWait, DefaultQueryWait)) * time.Second,
		Query:         stringOrDefault(v, ConfigRunnerQuery, DefaultRunnerQuery),
		UseEndpoint:   v.GetBool(ConfigRunnerUseEndpoint),
		EndpointGrace: v.GetDuration(ConfigRunnerEndpointGrace),
	}
}

// positiveInt falls back to def when the value is missing, not an integer or
// not positive.
func positiveInt(v *viper.Viper, key string, def int) int {
	return intInRange(v, key, 1, math.MaxInt, def)
}

// nonNegativeInt is positiveInt that accepts zero. A missing value is still
// replaced by def.
func nonNegativeInt(v *viper.Viper, key string, def int) int {
	return intInRange(v, key, 0, math.MaxInt, def)
}

func intInRange(v *viper.Viper, key string, lo, hi, def int) int {
	raw := v.Get(key)
	if raw == nil || raw == "" {
		return def
	}

	n, err := toInt(raw)
	if err != nil || n < lo || n > hi {
		logrus.WithFields(logrus.Fields{
			"key":     key,
			"value":   raw,
			"default": def,
		}).Debug("Invalid numeric setting, using default")
		return def
	}
	return n
}

// toInt reads strings in base 10: environment values like "010" are decimal.
func toInt(raw interface{}) (int, error) {
	if s, ok := raw.(string); ok {
		return strconv.Atoi(strings.TrimSpace(s))
	}
	return cast.ToIntE(raw)
}

func stringOrDefault(v *viper.Viper, key, def string) string {
	if s := strings.TrimSpace(v.GetString(key)); s != "" {
		return s
	}
	return def
}
