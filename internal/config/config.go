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
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Grid    GridConfig    `yaml:"grid" mapstructure:"grid"`
	Render  RenderConfig  `yaml:"render" mapstructure:"render"`
	Preview PreviewConfig `yaml:"preview" mapstructure:"preview"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// GridConfig configures surface reconstruction.
type GridConfig struct {
	Resolution     int     `yaml:"resolution" mapstructure:"resolution"`
	PadFraction    float64 `yaml:"pad_fraction" mapstructure:"pad_fraction"`
	MinExtent      float64 `yaml:"min_extent" mapstructure:"min_extent"`
	FallbackExtent float64 `yaml:"fallback_extent" mapstructure:"fallback_extent"`
	Levels         int     `yaml:"levels" mapstructure:"levels"`
	FlatEpsilon    float64 `yaml:"flat_epsilon" mapstructure:"flat_epsilon"`
}

// RenderConfig sets the page size of rendered views, in inches.
type RenderConfig struct {
	WidthIn  float64 `yaml:"width_in" mapstructure:"width_in"`
	HeightIn float64 `yaml:"height_in" mapstructure:"height_in"`
}

// PreviewConfig configures the local preview server used when no output
// file is given.
type PreviewConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// Validate rejects grid and render settings that cannot produce a surface.
func (c *Config) Validate() error {
	if c.Grid.Resolution < 2 {
		return eris.Errorf("config: grid.resolution must be at least 2, got %d", c.Grid.Resolution)
	}
	if c.Grid.Levels < 1 {
		return eris.Errorf("config: grid.levels must be positive, got %d", c.Grid.Levels)
	}
	if c.Grid.PadFraction <= 0 || c.Grid.PadFraction >= 1 {
		return eris.Errorf("config: grid.pad_fraction must be in (0,1), got %g", c.Grid.PadFraction)
	}
	if c.Grid.FallbackExtent <= 0 {
		return eris.Errorf("config: grid.fallback_extent must be positive, got %g", c.Grid.FallbackExtent)
	}
	if c.Render.WidthIn <= 0 || c.Render.HeightIn <= 0 {
		return eris.New("config: render page size must be positive")
	}
	return nil
}

// Load reads configuration from config.yaml and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("COMPACTMAPPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("grid.resolution", 200)
	v.SetDefault("grid.pad_fraction", 0.1)
	v.SetDefault("grid.min_extent", 0.1)
	v.SetDefault("grid.fallback_extent", 5.0)
	v.SetDefault("grid.levels", 5)
	v.SetDefault("grid.flat_epsilon", 0.01)
	v.SetDefault("render.width_in", 16.0)
	v.SetDefault("render.height_in", 12.0)
	v.SetDefault("preview.addr", "127.0.0.1:8765")

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

	if err := cfg.Validate(); err != nil {
		return nil, err
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

	// Reports go to stdout; keep the log on stderr.
	zapCfg.OutputPaths = []string{"stderr"}

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
