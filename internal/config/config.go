// Package config loads infrastructure settings from the environment and the
// pipeline settings from an optional YAML file.
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// RunMode selects how much of the source a run covers.
type RunMode string

const (
	// Dev scrapes only the first listed region.
	Dev RunMode = "dev"
	// Prod scrapes every region.
	Prod RunMode = "prod"
)

// ParseRunMode accepts "dev" or "prod", case-insensitive. Empty means dev.
func ParseRunMode(s string) (RunMode, error) {
	switch RunMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", Dev:
		return Dev, nil
	case Prod:
		return Prod, nil
	}
	return "", eris.Errorf("config: unknown environment %q (want dev or prod)", s)
}

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"

	FetchHTTP    = "http"
	FetchBrowser = "browser"

	minImageCandidates = 3
	maxImageCandidates = 10
)

// AppConfig holds infrastructure config from standard env vars
type AppConfig struct {
	DBPath     string
	ConfigPath string // Path to the YAML config file
}

// GetAppConfig reads basic infrastructure settings from environment variables.
func GetAppConfig() AppConfig {
	dbPath := os.Getenv("DB_PATH")
	configPath := os.Getenv("CONFIG_PATH")

	if dbPath == "" {
		dbPath = "./local-data/plages.db"
	}
	if configPath == "" {
		configPath = "config.yaml"
	}

	return AppConfig{
		DBPath:     dbPath,
		ConfigPath: configPath,
	}
}

type Config struct {
	Env     string        `yaml:"env"`
	Source  SourceConfig  `yaml:"source"`
	Store   StoreConfig   `yaml:"store"`
	Search  SearchConfig  `yaml:"search"`
	Export  ExportConfig  `yaml:"export"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`

	// Mode is resolved from Env by Load.
	Mode RunMode `yaml:"-"`
}

type SourceConfig struct {
	BaseURL   string        `yaml:"base_url"`
	FetchMode string        `yaml:"fetch_mode"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

type StoreConfig struct {
	Driver          string `yaml:"driver"`
	Path            string `yaml:"path"`
	MongoURI        string `yaml:"mongo_uri"`
	MongoDatabase   string `yaml:"mongo_database"`
	MongoCollection string `yaml:"mongo_collection"`
}

type SearchConfig struct {
	APIKey          string        `yaml:"api_key"`
	EngineID        string        `yaml:"engine_id"`
	Language        string        `yaml:"language"`
	Country         string        `yaml:"country"`
	Safe            string        `yaml:"safe"`
	ImageCandidates int           `yaml:"image_candidates"`
	Timeout         time.Duration `yaml:"timeout"`
	Referer         string        `yaml:"referer"`
}

// Enabled reports whether a search engine is configured.
func (s SearchConfig) Enabled() bool {
	return s.EngineID != ""
}

type ExportConfig struct {
	JSONPath      string `yaml:"json_path"`
	XLSXPath      string `yaml:"xlsx_path"`
	SheetName     string `yaml:"sheet_name"`
	SpreadsheetID string `yaml:"spreadsheet_id"`
	// Credentials is a base64 service-account JSON blob.
	Credentials string `yaml:"credentials"`
}

type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url"`
	Job            string `yaml:"job"`
}

// LogConfig controls the global zap logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Env:  string(Dev),
		Mode: Dev,
		Source: SourceConfig{
			BaseURL:   "https://www.environnement.gouv.qc.ca/programmes/env-plage/",
			FetchMode: FetchHTTP,
			Timeout:   15 * time.Second,
		},
		Store: StoreConfig{
			Driver:          DriverSQLite,
			Path:            "./local-data/plages.db",
			MongoDatabase:   "plages",
			MongoCollection: "beach",
		},
		Search: SearchConfig{
			Language:        "lang_fr",
			Country:         "countryCA",
			Safe:            "active",
			ImageCandidates: 5,
			Timeout:         10 * time.Second,
		},
		Export: ExportConfig{
			JSONPath:  "plages.json",
			SheetName: "Plages",
		},
		Metrics: MetricsConfig{Job: "plage-watch"},
		Log:     LogConfig{Level: "info", Format: "console"},
	}
}

// Load reads the YAML file at app.ConfigPath over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(app AppConfig) (*Config, error) {
	cfg := Default()
	cfg.Store.Path = app.DBPath

	data, err := os.ReadFile(app.ConfigPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, eris.Wrapf(err, "config: parse %s", app.ConfigPath)
		}
	case errors.Is(err, os.ErrNotExist):
		zap.L().Named("config").Debug("no config file, using defaults", zap.String("path", app.ConfigPath))
	default:
		return nil, eris.Wrapf(err, "config: read %s", app.ConfigPath)
	}

	applyEnv(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	override := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	override(&cfg.Env, "PLAGES_ENV")
	override(&cfg.Store.Path, "DB_PATH")
	override(&cfg.Store.MongoURI, "MONGO_URI")
	override(&cfg.Search.APIKey, "SEARCH_API_KEY")
	override(&cfg.Search.EngineID, "SEARCH_ENGINE_ID")
	override(&cfg.Export.Credentials, "GSHEETS")
}

func (c *Config) validate() error {
	mode, err := ParseRunMode(c.Env)
	if err != nil {
		return err
	}
	c.Mode = mode

	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.Path == "" {
			return eris.New("config: store.path is required for sqlite")
		}
	case DriverMongo:
		if c.Store.MongoURI == "" {
			return eris.New("config: store.mongo_uri is required for mongo")
		}
	default:
		return eris.Errorf("config: unknown store driver %q", c.Store.Driver)
	}

	switch c.Source.FetchMode {
	case FetchHTTP, FetchBrowser:
	default:
		return eris.Errorf("config: unknown fetch mode %q", c.Source.FetchMode)
	}

	c.Search.ImageCandidates = min(max(c.Search.ImageCandidates, minImageCandidates), maxImageCandidates)
	return nil
}

// InitLogger replaces the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level := cfg.Level
	if level == "" {
		level = "info"
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(lvl)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)
	return nil
}
