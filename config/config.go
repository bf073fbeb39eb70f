// Package config loads the YAML configuration with environment overrides.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/slighter12/go-lib/database/postgres"
)

const (
	defaultHTTPPort           = 8080
	defaultMaxRequestBodySize = "64MB"
	defaultMetricsPath        = "/metrics"
)

// Config is the whole application configuration. Optional integrations are
// pointers and stay nil when their section is absent.
type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int    `json:"port" yaml:"port"`
		MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		Timeouts           struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
			RequestTimeout    time.Duration `json:"requestTimeout" yaml:"requestTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	Database DatabaseConfig `json:"database" yaml:"database"`

	SecretKey struct {
		Access string `json:"access" yaml:"access"`
	} `json:"secretKey" yaml:"secretKey"`

	Auth *AuthConfig `json:"auth" yaml:"auth"`

	Storage *StorageConfig `json:"storage" yaml:"storage"`

	// Mail configures the SMTP transport; email delivery is disabled when nil or host is empty
	Mail *MailConfig `json:"mail" yaml:"mail"`

	// Scanner configures the optional clamd malware scanner
	Scanner *ScannerConfig `json:"scanner" yaml:"scanner"`

	PubSub *PubSubConfig `json:"pubsub" yaml:"pubsub"`

	Redis *RedisConfig `json:"redis" yaml:"redis"`

	Firebase *FirebaseConfig `json:"firebase" yaml:"firebase"`

	QRCode *QRCodeConfig `json:"qrcode" yaml:"qrcode"`

	Marketplace MarketplaceConfig `json:"marketplace" yaml:"marketplace"`

	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
}

// DatabaseConfig covers what the go-lib connection config does not.
type DatabaseConfig struct {
	AutoMigrate bool `json:"autoMigrate" yaml:"autoMigrate"`

	// SlowQueryThreshold logs statements slower than this at warn level; 0 keeps the default.
	SlowQueryThreshold time.Duration `json:"slowQueryThreshold" yaml:"slowQueryThreshold"`
}

// AuthConfig tunes credential handling.
type AuthConfig struct {
	BcryptCost     int           `json:"bcryptCost" yaml:"bcryptCost"`
	AccessTokenTTL time.Duration `json:"accessTokenTTL" yaml:"accessTokenTTL"`
}

// Log configures the slog handler.
type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// StorageConfig defines the image store location.
// BucketURL is a gocloud.dev URL: file:///path, s3://bucket, gs://bucket or mem://.
type StorageConfig struct {
	BucketURL     string `json:"bucketUrl" yaml:"bucketUrl"`
	PublicBaseURL string `json:"publicBaseUrl" yaml:"publicBaseUrl"`
}

// MailConfig defines the SMTP transport and the async mail worker pool
type MailConfig struct {
	Host       string `json:"host" yaml:"host"`
	Port       int    `json:"port" yaml:"port"`
	TLS        bool   `json:"tls" yaml:"tls"`
	Username   string `json:"username" yaml:"username"`
	Password   string `json:"password" yaml:"password"`
	From       string `json:"from" yaml:"from"`
	Workers    int    `json:"workers" yaml:"workers"`
	QueueSize  int    `json:"queueSize" yaml:"queueSize"`
	MaxRetries int    `json:"maxRetries" yaml:"maxRetries"`
}

// ScannerConfig defines the clamd endpoint, e.g. tcp://127.0.0.1:3310 or unix:///run/clamd.sock
type ScannerConfig struct {
	Address string        `json:"address" yaml:"address"`
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// FirebaseConfig enables push delivery when CredentialsPath is set.
type FirebaseConfig struct {
	ProjectID       string `json:"projectId" yaml:"projectId"`
	CredentialsPath string `json:"credentialsPath" yaml:"credentialsPath"`
}

// QRCodeConfig shapes referral QR codes. BaseURL prefixes the encoded signup link.
type QRCodeConfig struct {
	Size                 int    `json:"size" yaml:"size"`
	ErrorCorrectionLevel string `json:"errorCorrectionLevel" yaml:"errorCorrectionLevel"`
	BaseURL              string `json:"baseUrl" yaml:"baseUrl"`
}

// PubSubConfig selects how background jobs reach the worker.
type PubSubConfig struct {
	// Provider is inprocess (default), none, local or google.
	Provider      string `json:"provider" yaml:"provider"`
	ProjectID     string `json:"projectId" yaml:"projectId"`
	TopicID       string `json:"topicId" yaml:"topicId"`
	LocalEndpoint string `json:"localEndpoint" yaml:"localEndpoint"`
	// Workers sizes the inprocess pool.
	Workers int `json:"workers" yaml:"workers"`
}

// RedisConfig enables realtime fan-out.
type RedisConfig struct {
	URL string `json:"url" yaml:"url"`
}

// MarketplaceConfig holds business switches that are not fixed rules
type MarketplaceConfig struct {
	// ApprovalRewardEnabled credits the uploader with the appraised value on approval
	ApprovalRewardEnabled bool `json:"approvalRewardEnabled" yaml:"approvalRewardEnabled"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

// New loads config.yaml from the working directory or a config directory up to
// two levels above it, overlays the environment and applies defaults.
func New() (*Config, error) {
	cfg, err := Load[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if cfg.Postgres != nil {
		cfg.Postgres.Replicas = replicasFromEnv()
	}

	return cfg, cfg.Validate()
}

func (cfg *Config) applyDefaults() {
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = defaultHTTPPort
	}
	if strings.TrimSpace(cfg.HTTP.MaxRequestBodySize) == "" {
		cfg.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = defaultMetricsPath
	}
}

// Validate rejects settings that would only fail later, at first use.
func (cfg *Config) Validate() error {
	if cfg.HTTP.Port < 1 || cfg.HTTP.Port > 65535 {
		return errors.Errorf("http.port %d is out of range", cfg.HTTP.Port)
	}
	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return errors.Errorf("metrics.path %q must start with /", cfg.Metrics.Path)
	}
	if cfg.PubSub != nil {
		switch cfg.PubSub.Provider {
		case "", "inprocess", "none", "local", "google":
		default:
			return errors.Errorf("pubsub.provider %q is not supported", cfg.PubSub.Provider)
		}
	}

	return nil
}
