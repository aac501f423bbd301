package conf

import (
	"fmt"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %s", strings.Join(ve.Errors, "; "))
}

// ValidateSettings validates the entire Settings struct, reporting every problem at once
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	ve.Errors = append(ve.Errors, validateStorageSettings(&settings.Storage)...)
	ve.Errors = append(ve.Errors, validateDatabaseSettings(&settings.Database)...)
	ve.Errors = append(ve.Errors, validateAudioSettings(&settings.Audio)...)
	ve.Errors = append(ve.Errors, validateStatisticsSettings(&settings.Statistics)...)

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateStorageSettings(s *StorageSettings) []string {
	var errs []string
	if s.DataDir == "" {
		errs = append(errs, "storage.datadir must be set")
	}
	if s.BackupDir == "" || strings.Contains(s.BackupDir, "..") {
		errs = append(errs, fmt.Sprintf("storage.backupdir %q must be a relative directory name", s.BackupDir))
	}
	return errs
}

func validateDatabaseSettings(s *DatabaseSettings) []string {
	var errs []string
	switch s.Type {
	case DatabaseSQLite:
		if s.SQLite.Path == "" {
			errs = append(errs, "database.sqlite.path must be set")
		}
	case DatabaseMySQL:
		if s.MySQL.Host == "" {
			errs = append(errs, "database.mysql.host must be set")
		}
		if s.MySQL.Port <= 0 || s.MySQL.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.mysql.port %d out of range", s.MySQL.Port))
		}
		if s.MySQL.Database == "" {
			errs = append(errs, "database.mysql.database must be set")
		}
	default:
		errs = append(errs, fmt.Sprintf("database.type %q must be sqlite or mysql", s.Type))
	}
	return errs
}

func validateAudioSettings(s *AudioSettings) []string {
	var errs []string
	switch s.ConcatMode {
	case ConcatAuto, ConcatNative, ConcatFFmpeg:
	default:
		errs = append(errs, fmt.Sprintf("audio.concatmode %q must be auto, native or ffmpeg", s.ConcatMode))
	}
	if s.ConcatMode == ConcatFFmpeg && s.FfmpegPath == "" {
		errs = append(errs, "audio.ffmpegpath is required when audio.concatmode is ffmpeg")
	}
	if s.SilenceThreshold >= 0 {
		errs = append(errs, fmt.Sprintf("audio.silencethreshold %.1f must be negative dBFS", s.SilenceThreshold))
	}
	if s.WindowMs <= 0 || s.WindowMs > 1000 {
		errs = append(errs, fmt.Sprintf("audio.windowms %d must be between 1 and 1000", s.WindowMs))
	}
	if s.MaxLeadingSilence < 0 {
		errs = append(errs, "audio.maxleadingsilence must not be negative")
	}
	if s.MaxTrailingSilence < 0 {
		errs = append(errs, "audio.maxtrailingsilence must not be negative")
	}
	if s.TranscodeTimeout <= 0 {
		errs = append(errs, "audio.transcodetimeout must be positive")
	}
	return errs
}

func validateStatisticsSettings(s *StatisticsSettings) []string {
	var errs []string
	if s.MaxDepth <= 0 {
		errs = append(errs, "statistics.maxdepth must be positive")
	}
	switch s.ReportFormat {
	case "csv", "yaml":
	default:
		errs = append(errs, fmt.Sprintf("statistics.reportformat %q must be csv or yaml", s.ReportFormat))
	}
	return errs
}
