// Package app assembles the recording pipeline from settings.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/TEQST/TEQST-Backend-sub000/internal/artifacts"
	"github.com/TEQST/TEQST-Backend-sub000/internal/buildinfo"
	"github.com/TEQST/TEQST-Backend-sub000/internal/conf"
	"github.com/TEQST/TEQST-Backend-sub000/internal/datastore"
	"github.com/TEQST/TEQST-Backend-sub000/internal/datastore/repository"
	"github.com/TEQST/TEQST-Backend-sub000/internal/logger"
	"github.com/TEQST/TEQST-Backend-sub000/internal/myaudio"
	"github.com/TEQST/TEQST-Backend-sub000/internal/observability"
	"github.com/TEQST/TEQST-Backend-sub000/internal/recording"
	"github.com/TEQST/TEQST-Backend-sub000/internal/statistics"
	"github.com/TEQST/TEQST-Backend-sub000/internal/transcript"
)

// Context is shared by every command: the loaded settings, the root logger
// and build metadata. It is filled in before a command runs.
type Context struct {
	Settings    *conf.Settings
	Build       *buildinfo.Context
	Logger      logger.Logger
	MetricsFile string // optional path receiving a metrics textfile on Close
}

// App is the wired pipeline.
type App struct {
	Settings   *conf.Settings
	DB         datastore.Manager
	Repos      *repository.Repositories
	Artifacts  *artifacts.Store
	Metrics    *observability.Metrics
	Recordings *recording.Store
	Statistics *statistics.Aggregator

	log         logger.Logger
	metricsFile string
}

// Open connects the database, migrates the schema and wires every component.
func Open(ctx context.Context, c *Context) (*App, error) {
	if c == nil || c.Settings == nil {
		return nil, fmt.Errorf("app context has no settings")
	}
	settings := c.Settings
	log := c.Logger
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelInfo, nil)
	}

	m, err := observability.NewMetrics()
	if err != nil {
		return nil, err
	}

	db, err := datastore.Open(&settings.Database, log.Module("datastore"))
	if err != nil {
		return nil, err
	}
	if err := db.Initialize(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	store, err := artifacts.NewOS(settings.Storage.DataDir,
		artifacts.WithBackupDir(settings.Storage.BackupDir),
		artifacts.WithLogger(log))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	var (
		transcoder   myaudio.Transcoder
		concatenator transcript.Concatenator
	)
	ffmpeg := myaudio.NewFFmpeg(settings.Audio.FfmpegPath, settings.Audio.TranscodeTimeout, log)
	if ffmpeg.Available() {
		transcoder = ffmpeg
		concatenator = ffmpeg
	} else {
		log.Warn("ffmpeg not found, only WAV and FLAC submissions are accepted",
			logger.String("path", settings.Audio.FfmpegPath))
		if settings.Audio.ConcatMode == conf.ConcatFFmpeg {
			_ = db.Close()
			return nil, fmt.Errorf("audio.concatmode is ffmpeg but %q cannot be found", settings.Audio.FfmpegPath)
		}
	}

	repos := repository.New(db.DB(), db.IsMySQL())
	regen := transcript.NewRegenerator(transcript.Config{
		Store:   store,
		FFmpeg:  concatenator,
		Mode:    settings.Audio.ConcatMode,
		Logger:  log,
		Metrics: m.Transcript,
	})

	return &App{
		Settings:  settings,
		DB:        db,
		Repos:     repos,
		Artifacts: store,
		Metrics:   m,
		Recordings: recording.New(recording.Config{
			Repos:       repos,
			Artifacts:   store,
			Analyzer:    myaudio.NewAnalyzer(myaudio.AnalyzerConfigFromSettings(&settings.Audio), transcoder),
			Regenerator: regen,
			Logger:      log,
			Metrics:     m.Recording,
		}),
		Statistics: statistics.NewAggregator(statistics.Config{
			Repos:    repos,
			MaxDepth: settings.Statistics.MaxDepth,
			Logger:   log,
			Metrics:  m.Statistics,
		}),
		log:         log.Module("app"),
		metricsFile: c.MetricsFile,
	}, nil
}

// Close writes the metrics textfile, if configured, and closes the database.
func (a *App) Close() error {
	var errs []error
	if a.metricsFile != "" {
		if err := a.Metrics.WriteTextfile(a.metricsFile); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.DB.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Run opens the app, calls fn and closes the app again.
func Run(ctx context.Context, c *Context, fn func(a *App) error) (err error) {
	a, err := Open(ctx, c)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.Close())
	}()
	return fn(a)
}
