package conf

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaultConfig registers the default value of every setting.
// Keys without a default are invisible to environment overrides.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("storage.datadir", "data")
	v.SetDefault("storage.backupdir", "_backup")

	v.SetDefault("database.type", DatabaseSQLite)
	v.SetDefault("database.slowquerythreshold", 200*time.Millisecond)
	v.SetDefault("database.sqlite.path", "teqst.db")
	v.SetDefault("database.mysql.host", "localhost")
	v.SetDefault("database.mysql.port", 3306)
	v.SetDefault("database.mysql.username", "teqst")
	v.SetDefault("database.mysql.password", "")
	v.SetDefault("database.mysql.database", "teqst")
	v.SetDefault("database.mysql.maxopenconns", 25)
	v.SetDefault("database.mysql.maxidleconns", 5)

	v.SetDefault("audio.ffmpegpath", "ffmpeg")
	v.SetDefault("audio.concatmode", ConcatAuto)
	v.SetDefault("audio.transcodetimeout", 60*time.Second)
	v.SetDefault("audio.silencethreshold", -50.0)
	v.SetDefault("audio.windowms", 10)
	v.SetDefault("audio.maxleadingsilence", 0.3)
	v.SetDefault("audio.maxtrailingsilence", 0.2)

	v.SetDefault("statistics.maxdepth", 32)
	v.SetDefault("statistics.reportformat", "csv")

	v.SetDefault("logging.defaultlevel", "info")
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console.enabled", true)
	v.SetDefault("logging.console.level", "info")
	v.SetDefault("logging.fileoutput.enabled", false)
	v.SetDefault("logging.fileoutput.path", "logs/teqst.log")
	v.SetDefault("logging.fileoutput.level", "debug")
}
