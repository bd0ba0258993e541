package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile = "./config.yml"
	DefaultEnvFile    = "./config.env"
	EnvPrefix         = "BOOKSTORE"
	DefaultVersion    = "1.0.0"
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit               string          `yaml:"git_commit" split_words:"true"`
	GitTag                  string          `yaml:"git_tag" split_words:"true"`
	BuildTime               string          `yaml:"build_time" split_words:"true"`
	Environment             string          `yaml:"environment" envconfig:"NODE_ENV"`
	IsProduction            bool            `yaml:"is_production" split_words:"true"`
	LogLevel                zapcore.Level   `yaml:"log_level" split_words:"true"`
	LogFolder               string          `yaml:"log_folder" split_words:"true"`
	LogMaxSize              int             `yaml:"log_max_size" split_words:"true"` // in megabytes
	OpsEndpointsEnable      bool            `yaml:"ops_endpoints_enable" split_words:"true"`
	ProfilerEndpointsEnable bool            `yaml:"profiler_endpoints_enable" split_words:"true"`
	Server                  ServerConfig    `yaml:"server" split_words:"true"`
	RateLimit               RateLimitConfig `yaml:"rate_limit" split_words:"true"`
	Redis                   RedisConfig     `yaml:"redis" split_words:"true"`
	Journal                 JournalConfig   `yaml:"journal" split_words:"true"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" split_words:"true"`
	Port            string        `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration `yaml:"write_timeout" split_words:"true"`
	RequestTimeout  time.Duration `yaml:"request_timeout" split_words:"true"` // Time to wait for a request to finish
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true"` // Zero closes the server without draining
	MaxBodyBytes    int64         `yaml:"max_body_bytes" split_words:"true"`
}

type RateLimitConfig struct {
	Disabled          bool          `yaml:"disabled" split_words:"true"`
	Backend           string        `yaml:"backend" split_words:"true"` // memory or redis
	Window            time.Duration `yaml:"window" split_words:"true"`
	Max               int           `yaml:"max" split_words:"true"`
	SweepInterval     time.Duration `yaml:"sweep_interval" split_words:"true"`
	TrustProxyHeaders bool          `yaml:"trust_proxy_headers" split_words:"true"` // Only behind a proxy overwriting X-Real-IP and X-Forwarded-For
}

type RedisConfig struct {
	Host          string        `yaml:"host" split_words:"true"`
	Port          string        `yaml:"port" split_words:"true"`
	DialTimeout   time.Duration `yaml:"dial_timeout" split_words:"true"`
	ReadTimeout   time.Duration `yaml:"read_timeout" split_words:"true"`
	WriteTimeout  time.Duration `yaml:"write_timeout" split_words:"true"`
	PoolSize      int           `yaml:"pool_size" split_words:"true"`
	PoolTimeout   time.Duration `yaml:"pool_timeout" split_words:"true"`
	Username      string        `yaml:"username" split_words:"true"`
	Password      string        `yaml:"password" split_words:"true" json:"-"`
	DatabaseIndex int           `yaml:"db_index" split_words:"true"`
}

type JournalConfig struct {
	Enabled       bool          `yaml:"enabled" split_words:"true"`
	Queue         string        `yaml:"queue" split_words:"true"` // memory or redis
	QueueCapacity int           `yaml:"queue_capacity" split_words:"true"`
	FilePath      string        `yaml:"filepath" split_words:"true"`
	Timeout       time.Duration `yaml:"timeout" split_words:"true"`
	BucketName    string        `yaml:"bucket_name" split_words:"true"`
}

// UsesRedis tells whether any component is configured on top of redis.
func (c *Config) UsesRedis() bool {
	return (!c.RateLimit.Disabled && c.RateLimit.Backend == "redis") ||
		(c.Journal.Enabled && c.Journal.Queue == "redis")
}

// LoadConfigFile provides an instance of config structure for the all application.
func LoadConfigFile(configFile string) (*Config, error) {
	file, err := os.Open(configFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg := &Config{}
	yd := yaml.NewDecoder(file)
	err = yd.Decode(cfg)

	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigEnvs reads the environments variables and provides an instance of the App config.
// Fields tagged with a bare name like `PORT` are also read without the prefix.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// SetDefaults fills every non provided parameter with its default value.
func SetDefaults(config *Config) {
	if config.Environment == "" {
		config.Environment = "development"
	}
	if config.LogMaxSize == 0 {
		config.LogMaxSize = 100
	}
	if config.Server.Host == "" {
		config.Server.Host = "0.0.0.0"
	}
	if config.Server.Port == "" {
		config.Server.Port = "3000"
	}
	if config.Server.ReadTimeout == 0 {
		config.Server.ReadTimeout = 30 * time.Second
	}
	if config.Server.WriteTimeout == 0 {
		config.Server.WriteTimeout = 30 * time.Second
	}
	if config.Server.RequestTimeout == 0 {
		config.Server.RequestTimeout = 20 * time.Second
	}
	if config.Server.MaxBodyBytes == 0 {
		config.Server.MaxBodyBytes = 10 << 20
	}
	if config.RateLimit.Backend == "" {
		config.RateLimit.Backend = "memory"
	}
	if config.RateLimit.Window == 0 {
		config.RateLimit.Window = 15 * time.Minute
	}
	if config.RateLimit.Max == 0 {
		config.RateLimit.Max = 100
	}
	if config.RateLimit.SweepInterval == 0 {
		config.RateLimit.SweepInterval = time.Minute
	}
	if config.Redis.Host == "" {
		config.Redis.Host = "localhost"
	}
	if config.Redis.Port == "" {
		config.Redis.Port = "6379"
	}
	if config.Redis.DialTimeout == 0 {
		config.Redis.DialTimeout = 5 * time.Second
	}
	if config.Redis.ReadTimeout == 0 {
		config.Redis.ReadTimeout = 3 * time.Second
	}
	if config.Redis.WriteTimeout == 0 {
		config.Redis.WriteTimeout = 3 * time.Second
	}
	if config.Journal.Queue == "" {
		config.Journal.Queue = "memory"
	}
	if config.Journal.QueueCapacity == 0 {
		config.Journal.QueueCapacity = 1024
	}
	if config.Journal.FilePath == "" {
		config.Journal.FilePath = "./data/journal.db"
	}
	if config.Journal.Timeout == 0 {
		config.Journal.Timeout = 5 * time.Second
	}
	if config.Journal.BucketName == "" {
		config.Journal.BucketName = "catalog.events"
	}
}

// InitConfig setup defaults values for non provided parameters
// and configures build tags values to be used if provided.
func InitConfig(config *Config, gitCommit, gitTag, buildTime string) error {
	if len(gitCommit) != 0 {
		config.GitCommit = gitCommit
	}

	if len(gitTag) != 0 {
		config.GitTag = gitTag
	}

	if len(buildTime) != 0 {
		config.BuildTime = buildTime
	}

	SetDefaults(config)

	if config.Environment == "production" {
		config.IsProduction = true
	}

	if port, err := strconv.Atoi(config.Server.Port); err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid server port %q", config.Server.Port)
	}

	if config.Server.ShutdownTimeout < 0 {
		return errors.New("server shutdown timeout must not be negative")
	}

	if config.RateLimit.Max < 0 || config.RateLimit.Window < 0 {
		return errors.New("rate limit max and window must not be negative")
	}

	if config.RateLimit.Backend != "memory" && config.RateLimit.Backend != "redis" {
		return fmt.Errorf("unsupported rate limit backend %q", config.RateLimit.Backend)
	}

	if config.Journal.Queue != "memory" && config.Journal.Queue != "redis" {
		return fmt.Errorf("unsupported journal queue %q", config.Journal.Queue)
	}

	return nil
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data. Missing files are skipped.
func LoadAndInitConfigs(gitCommit, gitTag, buildTime string) (*Config, error) {
	// Setup the yaml configuration from file.
	config, err := LoadConfigFile(DefaultConfigFile)
	if errors.Is(err, fs.ErrNotExist) {
		config, err = &Config{}, nil
	}
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %s", err)
	}

	// Set the environment configuration.
	err = godotenv.Load(DefaultEnvFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config, fmt.Errorf("failed to set environment configurations: %s", err)
	}

	// Use environment variables with prefix `BOOKSTORE`.
	err = LoadConfigEnvs(EnvPrefix, config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %s", err)
	}

	err = InitConfig(config, gitCommit, gitTag, buildTime)
	if err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %s", err)
	}
	return config, nil
}
