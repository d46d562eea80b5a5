package config

import (
	"time"

	"golang-ea-automation/pkg/config"
)

// Auth holds bearer token settings.
type Auth struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// Vultr holds provisioning API settings.
type Vultr struct {
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RateLimit  float64       `mapstructure:"rate_limit"`
	RateBurst  int           `mapstructure:"rate_burst"`
	MaxRetries uint          `mapstructure:"max_retries"`
	CatalogTTL time.Duration `mapstructure:"catalog_ttl"`
}

// Bridge holds MT5 bridge settings.
type Bridge struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	Timeout        time.Duration `mapstructure:"timeout"`
	StatusTimeout  time.Duration `mapstructure:"status_timeout"`
	RefreshTimeout time.Duration `mapstructure:"refresh_timeout"`
}

// Orchestrator holds job orchestration settings.
type Orchestrator struct {
	LockBackend            string        `mapstructure:"lock_backend"`
	LockTTL                time.Duration `mapstructure:"lock_ttl"`
	LockWait               time.Duration `mapstructure:"lock_wait"`
	EncryptionKey          string        `mapstructure:"encryption_key"`
	MaxRetries             int           `mapstructure:"max_retries"`
	BulkRefreshConcurrency int           `mapstructure:"bulk_refresh_concurrency"`
	JobTimeout             time.Duration `mapstructure:"job_timeout"`
	AutoMigrate            bool          `mapstructure:"auto_migrate"`
}

// Sweep holds the cron schedules of background sweeps.
type Sweep struct {
	Enabled         bool   `mapstructure:"enabled"`
	BulkRefreshCron string `mapstructure:"bulk_refresh_cron"`
	VPSSyncCron     string `mapstructure:"vps_sync_cron"`
}

// Telegram holds the admin alert mirror settings.
type Telegram struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Config holds the full configuration for the orchestrator service.
type Config struct {
	App          config.App      `mapstructure:"app"`
	Logger       config.Logger   `mapstructure:"logger"`
	Database     config.Database `mapstructure:"database"`
	Redis        config.Redis    `mapstructure:"redis"`
	API          config.API      `mapstructure:"api"`
	Auth         Auth            `mapstructure:"auth"`
	Vultr        Vultr           `mapstructure:"vultr"`
	Bridge       Bridge          `mapstructure:"bridge"`
	Orchestrator Orchestrator    `mapstructure:"orchestrator"`
	Sweep        Sweep           `mapstructure:"sweep"`
	Telegram     Telegram        `mapstructure:"telegram"`
}

var defaults = map[string]interface{}{
	"app.name":                              "ea-automation-orchestrator",
	"logger.level":                          "info",
	"logger.encoding":                       "json",
	"api.port":                              8080,
	"auth.issuer":                           "ea-automation",
	"auth.token_ttl":                        "24h",
	"vultr.base_url":                        "https://api.vultr.com/v2",
	"vultr.timeout":                         "30s",
	"vultr.rate_limit":                      2.0,
	"vultr.rate_burst":                      2,
	"vultr.max_retries":                     3,
	"vultr.catalog_ttl":                     "1h",
	"bridge.base_url":                       "http://localhost:5000",
	"bridge.timeout":                        "10s",
	"bridge.status_timeout":                 "10s",
	"bridge.refresh_timeout":                "5s",
	"orchestrator.lock_backend":             "local",
	"orchestrator.lock_ttl":                 "30s",
	"orchestrator.lock_wait":                "5s",
	"orchestrator.max_retries":              3,
	"orchestrator.bulk_refresh_concurrency": 1,
	"orchestrator.job_timeout":              "2m",
	"sweep.bulk_refresh_cron":               "*/15 * * * *",
	"sweep.vps_sync_cron":                   "*/2 * * * *",
}

// Load loads the orchestrator configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg, defaults); err != nil {
		return nil, err
	}
	return &cfg, nil
}
