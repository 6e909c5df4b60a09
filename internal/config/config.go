package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Corpus    CorpusConfig    `yaml:"corpus" mapstructure:"corpus"`
	Acquire   AcquireConfig   `yaml:"acquire" mapstructure:"acquire"`
	Reconcile ReconcileConfig `yaml:"reconcile" mapstructure:"reconcile"`
	Verify    VerifyConfig    `yaml:"verify" mapstructure:"verify"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the tracker database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// CorpusConfig locates the reference corpus and its column layout.
// Column indices are zero-based positions in the raw row.
type CorpusConfig struct {
	Path      string `yaml:"path" mapstructure:"path"`
	HasHeader bool   `yaml:"has_header" mapstructure:"has_header"`
	KeyCol    int    `yaml:"key_col" mapstructure:"key_col"`
	NameCol   int    `yaml:"name_col" mapstructure:"name_col"`
	DateCol   int    `yaml:"date_col" mapstructure:"date_col"`
	YearCol   int    `yaml:"year_col" mapstructure:"year_col"`
}

// AcquireConfig configures the acquisition state machine.
type AcquireConfig struct {
	DriverURL           string   `yaml:"driver_url" mapstructure:"driver_url"`
	DownloadDir         string   `yaml:"download_dir" mapstructure:"download_dir"`
	VolumeCapKB         float64  `yaml:"volume_cap_kb" mapstructure:"volume_cap_kb"`
	CooldownSecs        int      `yaml:"cooldown_secs" mapstructure:"cooldown_secs"`
	SearchRetries       int      `yaml:"search_retries" mapstructure:"search_retries"`
	SearchesPerMinute   float64  `yaml:"searches_per_minute" mapstructure:"searches_per_minute"`
	DownloadTimeoutSecs int      `yaml:"download_timeout_secs" mapstructure:"download_timeout_secs"`
	DocTypeAllowlist    []string `yaml:"doc_type_allowlist" mapstructure:"doc_type_allowlist"`
}

// Cooldown returns the governor suspension duration.
func (c AcquireConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownSecs) * time.Second
}

// DownloadTimeout returns the ceiling on waiting for a download to settle.
func (c AcquireConfig) DownloadTimeout() time.Duration {
	return time.Duration(c.DownloadTimeoutSecs) * time.Second
}

// ReconcileConfig configures the reconciliation engine's disk layout.
type ReconcileConfig struct {
	ZipsDir       string   `yaml:"zips_dir" mapstructure:"zips_dir"`
	FoldersDir    string   `yaml:"folders_dir" mapstructure:"folders_dir"`
	MatchedDir    string   `yaml:"matched_dir" mapstructure:"matched_dir"`
	UnzipWorkers  int      `yaml:"unzip_workers" mapstructure:"unzip_workers"`
	ValidDocTypes []string `yaml:"valid_doc_types" mapstructure:"valid_doc_types"`
}

// VerifyConfig configures the fuzzy verification engine.
type VerifyConfig struct {
	PdfToTextPath    string  `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	DocTypePhrase    string  `yaml:"doc_type_phrase" mapstructure:"doc_type_phrase"`
	DocTypeThreshold float64 `yaml:"doc_type_threshold" mapstructure:"doc_type_threshold"`
	NameThreshold    float64 `yaml:"name_threshold" mapstructure:"name_threshold"`
	YearThreshold    float64 `yaml:"year_threshold" mapstructure:"year_threshold"`
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
	v.SetEnvPrefix("HARVEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "harvest.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("corpus.has_header", true)
	v.SetDefault("corpus.key_col", 1)
	v.SetDefault("corpus.name_col", 16)
	v.SetDefault("corpus.date_col", 8)
	v.SetDefault("corpus.year_col", 9)
	v.SetDefault("acquire.download_dir", "zips")
	v.SetDefault("acquire.volume_cap_kb", 1_800_000)
	v.SetDefault("acquire.cooldown_secs", 3660)
	v.SetDefault("acquire.search_retries", 1)
	v.SetDefault("acquire.searches_per_minute", 30)
	v.SetDefault("acquire.download_timeout_secs", 900)
	v.SetDefault("acquire.doc_type_allowlist", []string{
		"Annual/10K Report",
		"10K or Int'l Equivalent",
	})
	v.SetDefault("reconcile.zips_dir", "zips")
	v.SetDefault("reconcile.folders_dir", "folders")
	v.SetDefault("reconcile.matched_dir", "matched_folders")
	v.SetDefault("reconcile.unzip_workers", 4)
	v.SetDefault("reconcile.valid_doc_types", []string{
		"10K or Int'l Equivalent",
		"Annual/10K Report",
		"Annual Report",
	})
	v.SetDefault("verify.pdftotext_path", "pdftotext")
	v.SetDefault("verify.doc_type_phrase", "annual report")
	v.SetDefault("verify.doc_type_threshold", 70)
	v.SetDefault("verify.name_threshold", 80)
	v.SetDefault("verify.year_threshold", 80)

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
