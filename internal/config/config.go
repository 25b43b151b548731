package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName             string        `mapstructure:"app_name"`
	Env                 string        `mapstructure:"app_env"`
	LogLevel            string        `mapstructure:"log_level"`
	EndpointsFile       string        `mapstructure:"endpoints_file"`
	PublishersFile      string        `mapstructure:"publishers_file"`
	PollIntervalSeconds int64         `mapstructure:"poll_interval"`
	PollInterval        time.Duration `mapstructure:"-"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`

	HTTPBaseURI          string `mapstructure:"http_base_uri"`
	HTTPTimeoutMS        int64  `mapstructure:"http_timeout_ms"`
	HTTPConnectTimeoutMS int64  `mapstructure:"http_connect_timeout_ms"`
	HTTPProxyHTTP        string `mapstructure:"http_proxy_http"`
	HTTPProxyHTTPS       string `mapstructure:"http_proxy_https"`
	HTTPProxyNo          string `mapstructure:"http_proxy_no"`
	HTTPResponseType     string `mapstructure:"http_response_type"`
	HTTPAutoTrimSlash    bool   `mapstructure:"http_auto_trim_slash"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "samvad-poller")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("endpoints_file", "./configs/endpoints.yaml")
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("poll_interval", 300) // seconds
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/snapshots.db")
	v.SetDefault("storage_ttl_seconds", int64((7*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.SetDefault("http_base_uri", "")
	v.SetDefault("http_timeout_ms", 3000)
	v.SetDefault("http_connect_timeout_ms", 3000)
	v.SetDefault("http_proxy_http", "")
	v.SetDefault("http_proxy_https", "")
	v.SetDefault("http_proxy_no", "")
	v.SetDefault("http_response_type", "array")
	v.SetDefault("http_auto_trim_slash", true)

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.PollIntervalSeconds <= 0 {
		return nil, fmt.Errorf("invalid poll_interval (must be positive seconds)")
	}
	cfg.PollInterval = time.Duration(cfg.PollIntervalSeconds) * time.Second

	if cfg.StorageTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	if cfg.HTTPTimeoutMS <= 0 {
		return nil, fmt.Errorf("invalid http_timeout_ms (must be positive milliseconds)")
	}
	if cfg.HTTPConnectTimeoutMS <= 0 {
		return nil, fmt.Errorf("invalid http_connect_timeout_ms (must be positive milliseconds)")
	}

	return &cfg, nil
}

// HTTPOptions returns the http_* settings as an httpclient option map.
func (c *Config) HTTPOptions() map[string]any {
	opts := map[string]any{
		"timeout":         c.HTTPTimeoutMS,
		"connect_timeout": c.HTTPConnectTimeoutMS,
	}
	if base := strings.TrimSpace(c.HTTPBaseURI); base != "" {
		opts["base_uri"] = base
	}
	if rt := strings.TrimSpace(c.HTTPResponseType); rt != "" {
		opts["response_type"] = rt
	}

	proxy := map[string]any{}
	if p := strings.TrimSpace(c.HTTPProxyHTTP); p != "" {
		proxy["http"] = p
	}
	if p := strings.TrimSpace(c.HTTPProxyHTTPS); p != "" {
		proxy["https"] = p
	}
	if len(proxy) > 0 {
		if no := strings.TrimSpace(c.HTTPProxyNo); no != "" {
			proxy["no"] = no
		}
		opts["proxy"] = proxy
	}
	return opts
}

// Summary returns the settings worth logging at startup. URLs lose their userinfo and query so
// credentials embedded in them never reach the logs.
func (c *Config) Summary() map[string]any {
	return map[string]any{
		"app_name":           c.AppName,
		"app_env":            c.Env,
		"log_level":          c.LogLevel,
		"endpoints_file":     c.EndpointsFile,
		"publishers_file":    c.PublishersFile,
		"poll_interval":      c.PollInterval.String(),
		"storage_type":       c.StorageType,
		"bbolt_path":         c.BBoltPath,
		"http_base_uri":      redactURL(c.HTTPBaseURI),
		"http_timeout_ms":    c.HTTPTimeoutMS,
		"http_proxy_http":    redactURL(c.HTTPProxyHTTP),
		"http_proxy_https":   redactURL(c.HTTPProxyHTTPS),
		"http_response_type": c.HTTPResponseType,
	}
}

func redactURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "[redacted]"
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
