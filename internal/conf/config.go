// Package conf loads and validates the application settings with viper.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/TEQST/TEQST-Backend-sub000/internal/logger"
)

// EnvPrefix prefixes environment overrides, e.g. TEQST_DATABASE_TYPE=mysql.
const EnvPrefix = "TEQST"

// Settings is the root configuration
type Settings struct {
	Debug      bool
	Storage    StorageSettings
	Database   DatabaseSettings
	Audio      AudioSettings
	Statistics StatisticsSettings
	Logging    logger.LoggingConfig
}

// StorageSettings locates the artifact store on disk
type StorageSettings struct {
	DataDir   string // root directory for sentence audio, concatenations and transcripts
	BackupDir string // directory below DataDir receiving superseded sentence audio
}

// DatabaseSettings selects and configures the relational store
type DatabaseSettings struct {
	Type               string // sqlite or mysql
	SlowQueryThreshold time.Duration
	SQLite             SQLiteSettings
	MySQL              MySQLSettings
}

// SQLiteSettings configures the embedded database
type SQLiteSettings struct {
	Path string
}

// MySQLSettings configures a MySQL server connection
type MySQLSettings struct {
	Host         string
	Port         int
	Username     string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
}

// AudioSettings controls sentence validation and concatenation
type AudioSettings struct {
	FfmpegPath         string        // ffmpeg binary used for transcoding and concat demuxing
	ConcatMode         string        // auto, native or ffmpeg
	TranscodeTimeout   time.Duration // upper bound for one ffmpeg invocation
	SilenceThreshold   float64       // dBFS level below which a window counts as silent
	WindowMs           int           // analysis window length
	MaxLeadingSilence  float64       // seconds of silence allowed before speech starts
	MaxTrailingSilence float64       // seconds of silence allowed after speech ends
}

// StatisticsSettings controls folder aggregation
type StatisticsSettings struct {
	MaxDepth     int    // maximum folder depth visited below the report root
	ReportFormat string // csv or yaml
}

// Concatenation modes
const (
	ConcatAuto   = "auto"
	ConcatNative = "native"
	ConcatFFmpeg = "ffmpeg"
)

// Database types
const (
	DatabaseSQLite = "sqlite"
	DatabaseMySQL  = "mysql"
)

// Load reads defaults, the optional config file and TEQST_* environment variables
// into a validated Settings. An empty configFile searches the default locations;
// a missing file there is not an error.
func Load(v *viper.Viper, configFile string) (*Settings, error) {
	if v == nil {
		v = viper.New()
	}

	if err := initViper(v, configFile); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	return settings, nil
}

func initViper(v *viper.Viper, configFile string) error {
	setDefaultConfig(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, path := range defaultConfigPaths() {
		v.AddConfigPath(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}
	return nil
}

// defaultConfigPaths lists the directories searched for config.yaml
func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "teqst"))
	}
	return append(paths, "/etc/teqst")
}

// WriteDefaultConfig renders the default settings as YAML into path.
// An existing file is left untouched.
func WriteDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}

	v := viper.New()
	setDefaultConfig(v)

	data, err := yaml.Marshal(v.AllSettings())
	if err != nil {
		return fmt.Errorf("error rendering default config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating directories for config file: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}
	return nil
}
