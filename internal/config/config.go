package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Sheets  SheetsConfig  `yaml:"sheets" mapstructure:"sheets"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Map     MapConfig     `yaml:"map" mapstructure:"map"`
	I18n    I18nConfig    `yaml:"i18n" mapstructure:"i18n"`
	Geocode GeocodeConfig `yaml:"geocode" mapstructure:"geocode"`
	Client  ClientConfig  `yaml:"client" mapstructure:"client"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the caching proxy.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	Resource       string   `yaml:"resource" mapstructure:"resource"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// SheetsConfig selects the spreadsheet backend. ScriptURL wins when both
// are set.
type SheetsConfig struct {
	ScriptURL    string `yaml:"script_url" mapstructure:"script_url"`
	WorkbookPath string `yaml:"workbook_path" mapstructure:"workbook_path"`
	TimeoutSecs  int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// CacheConfig configures the per-sheet response cache.
type CacheConfig struct {
	TTLSecs    int `yaml:"ttl_secs" mapstructure:"ttl_secs"`
	MaxEntries int `yaml:"max_entries" mapstructure:"max_entries"`
}

// MapConfig holds marker and viewport settings.
type MapConfig struct {
	MobileBreakpoint int       `yaml:"mobile_breakpoint" mapstructure:"mobile_breakpoint"`
	OnlyActive       bool      `yaml:"only_active" mapstructure:"only_active"`
	DefaultCenter    []float64 `yaml:"default_center" mapstructure:"default_center"`
	DefaultZoom      int       `yaml:"default_zoom" mapstructure:"default_zoom"`
}

// I18nConfig configures translations.
type I18nConfig struct {
	DefaultLocale string `yaml:"default_locale" mapstructure:"default_locale"`
}

// GeocodeConfig holds address search settings.
type GeocodeConfig struct {
	GoogleKey string  `yaml:"google_key" mapstructure:"google_key"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// ClientConfig points CLI data commands at a running proxy.
type ClientConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("HEALTHMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.resource", "organizations")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("sheets.script_url", "")
	v.SetDefault("sheets.workbook_path", "")
	v.SetDefault("sheets.timeout_secs", 30)
	v.SetDefault("cache.ttl_secs", 30)
	v.SetDefault("cache.max_entries", 64)
	v.SetDefault("map.mobile_breakpoint", 768)
	v.SetDefault("map.only_active", false)
	v.SetDefault("map.default_center", []float64{50.8503, 4.3517})
	v.SetDefault("map.default_zoom", 5)
	v.SetDefault("i18n.default_locale", "es")
	v.SetDefault("geocode.google_key", "")
	v.SetDefault("geocode.rate_limit", 10)
	v.SetDefault("client.base_url", "http://localhost:8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. Modes: "serve" needs a
// spreadsheet backend, "client" needs a proxy URL.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if strings.Trim(c.Server.Resource, "/") == "" {
			problems = append(problems, "server.resource is required")
		}
		if c.Sheets.ScriptURL == "" && c.Sheets.WorkbookPath == "" {
			problems = append(problems, "sheets.script_url or sheets.workbook_path is required")
		}
		if c.Cache.TTLSecs < 0 {
			problems = append(problems, "cache.ttl_secs must be >= 0")
		}
		if c.Cache.MaxEntries <= 0 {
			problems = append(problems, "cache.max_entries must be > 0")
		}
	case "client":
		if c.Client.BaseURL == "" {
			problems = append(problems, "client.base_url is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Map.MobileBreakpoint < 0 {
		problems = append(problems, "map.mobile_breakpoint must be >= 0")
	}
	if len(c.Map.DefaultCenter) != 0 && len(c.Map.DefaultCenter) != 2 {
		problems = append(problems, "map.default_center must be [lat, lng]")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
