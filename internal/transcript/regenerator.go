package transcript

import (
	"context"
	"time"

	"github.com/TEQST/TEQST-Backend-sub000/internal/artifacts"
	"github.com/TEQST/TEQST-Backend-sub000/internal/conf"
	"github.com/TEQST/TEQST-Backend-sub000/internal/datastore/entities"
	"github.com/TEQST/TEQST-Backend-sub000/internal/datastore/repository"
	"github.com/TEQST/TEQST-Backend-sub000/internal/errors"
	"github.com/TEQST/TEQST-Backend-sub000/internal/keylock"
	"github.com/TEQST/TEQST-Backend-sub000/internal/logger"
	"github.com/TEQST/TEQST-Backend-sub000/internal/observability/metrics"
)

// Concatenator joins local audio files without re-encoding.
type Concatenator interface {
	Concat(ctx context.Context, inputs []string, outputPath string) error
}

// Config configures a Regenerator.
type Config struct {
	Store   *artifacts.Store
	FFmpeg  Concatenator // optional; required for ConcatFFmpeg
	Mode    string       // conf.ConcatAuto, conf.ConcatNative or conf.ConcatFFmpeg
	Logger  logger.Logger
	Metrics *metrics.TranscriptMetrics
}

// Regenerator rebuilds recording and folder artifacts.
type Regenerator struct {
	store       *artifacts.Store
	ffmpeg      Concatenator
	mode        string
	log         logger.Logger
	metrics     *metrics.TranscriptMetrics
	folderLocks keylock.Map[uint]
}

// NewRegenerator creates a regenerator. An empty mode means auto.
func NewRegenerator(cfg Config) *Regenerator {
	mode := cfg.Mode
	if mode == "" {
		mode = conf.ConcatAuto
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelInfo, nil)
	}
	return &Regenerator{
		store:   cfg.Store,
		ffmpeg:  cfg.FFmpeg,
		mode:    mode,
		log:     log.Module("transcript"),
		metrics: cfg.Metrics,
	}
}

// Regenerate rebuilds the concatenated audio and transcript of a finished
// recording from its sentence recordings, read through repos. On success the
// new artifacts are in place, rec's artifact paths point at them, and the
// caller must Commit or Rollback the returned Pending once its transaction
// outcome is known. On failure nothing changed and the error is a
// RegenerationError, or an IntegrityError for a segment of another text.
func (r *Regenerator) Regenerate(ctx context.Context, repos *repository.Repositories, rec *entities.TextRecording) (*Pending, error) {
	start := time.Now()
	pending, segments, err := r.regenerate(ctx, repos, rec)
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
		if !errors.IsCategory(err, errors.CategoryIntegrity) {
			err = errors.Regeneration(err, rec.ID)
		}
	}
	r.metrics.RecordRegeneration(r.mode, status, segments, time.Since(start).Seconds())
	return pending, err
}

func (r *Regenerator) regenerate(ctx context.Context, repos *repository.Repositories, rec *entities.TextRecording) (*Pending, int, error) {
	speaker, err := repos.Users.GetByID(ctx, rec.SpeakerID)
	if err != nil {
		return nil, 0, err
	}
	srecs, err := repos.Recordings.GetSentenceRecordings(ctx, rec.ID)
	if err != nil {
		return nil, 0, err
	}
	total, err := repos.Texts.CountSentences(ctx, rec.TextID)
	if err != nil {
		return nil, 0, err
	}
	if len(srecs) != total || total == 0 {
		return nil, len(srecs), errors.Newf("text recording %d has %d of %d sentences", rec.ID, len(srecs), total).
			Category(errors.CategoryValidation).
			Build()
	}
	for i := range srecs {
		if s := srecs[i].Sentence; s != nil && s.TextID != rec.TextID {
			return nil, len(srecs), errors.Integrity(rec.ID, s.ID, rec.TextID, s.TextID)
		}
	}

	transcript := Format(BuildLines(rec, speaker, srecs))
	audioName := artifacts.RecordingAudioName(rec.TextID, speaker.Username)
	transcriptName := artifacts.TranscriptName(rec.TextID, speaker.Username)

	stage := newStage(r.store, r.log)
	audioTemp := r.store.TempName(audioName)
	stage.track(audioTemp)
	if err := r.concat(ctx, srecs, audioTemp); err != nil {
		stage.discard()
		return nil, len(srecs), err
	}
	transcriptTemp := r.store.TempName(transcriptName)
	stage.track(transcriptTemp)
	if err := r.store.Write(transcriptTemp, transcript); err != nil {
		stage.discard()
		return nil, len(srecs), err
	}

	pending, err := stage.swap([]replacement{
		{name: audioName, temp: audioTemp},
		{name: transcriptName, temp: transcriptTemp},
	})
	if err != nil {
		return nil, len(srecs), err
	}

	rec.AudioPath = audioName
	rec.TranscriptPath = transcriptName
	r.log.Info("regenerated recording artifacts",
		logger.Uint("recording_id", rec.ID),
		logger.String("speaker", speaker.Username),
		logger.Int("segments", len(srecs)),
		logger.String("concat_mode", r.mode))
	return pending, len(srecs), nil
}

// BuildLines aligns the sentence recordings, which must be in index order,
// on a running offset starting at zero.
func BuildLines(rec *entities.TextRecording, speaker *entities.User, srecs []entities.SentenceRecording) []Line {
	meta := Metadata{
		Gender:      speaker.Gender,
		Education:   speaker.Education,
		Permissions: PermissionsLabel(rec.TTSPermission, rec.SRPermission),
		Country:     speaker.Country,
		Accent:      speaker.Accent,
	}
	lines := make([]Line, 0, len(srecs))
	offset := 0.0
	for _, srec := range srecs {
		var text string
		if srec.Sentence != nil {
			text = srec.Sentence.Content
		}
		lines = append(lines, Line{
			SegmentID: SegmentID(speaker.Username, rec.TextID, srec.Index),
			Start:     offset,
			End:       offset + srec.Length,
			Speaker:   speaker.Username,
			Meta:      meta,
			Content:   text,
		})
		offset += srec.Length
	}
	return lines
}

// RefreshFolder registers the speaker in the folder's contributor log and
// rebuilds the folder transcript from every finished recording of the folder.
// Calls for the same folder are serialized.
func (r *Regenerator) RefreshFolder(ctx context.Context, repos *repository.Repositories, folderID uint, speaker *entities.User) error {
	unlock := r.folderLocks.Lock(folderID)
	defer unlock()

	err := r.refreshFolder(ctx, repos, folderID, speaker)
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
		err = errors.New(err).
			Component("transcript").
			Category(errors.CategoryRegeneration).
			Context("folder_id", folderID).
			Build()
	}
	r.metrics.RecordFolderRebuild(status)
	return err
}

func (r *Regenerator) refreshFolder(ctx context.Context, repos *repository.Repositories, folderID uint, speaker *entities.User) error {
	if speaker != nil {
		if err := r.registerContributor(folderID, speaker); err != nil {
			return err
		}
	}

	recs, err := repos.Recordings.GetFinishedInFolder(ctx, folderID)
	if err != nil {
		return err
	}

	var merged []Line
	for i := range recs {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec := &recs[i]
		if rec.TranscriptPath == "" {
			r.log.Warn("finished recording has no transcript",
				logger.Uint("recording_id", rec.ID),
				logger.Uint("folder_id", folderID))
			continue
		}
		data, err := r.store.Read(rec.TranscriptPath)
		if err != nil {
			return err
		}
		lines, err := Parse(data)
		if err != nil {
			return err
		}
		merged = append(merged, lines...)
	}

	if err := r.store.WriteAtomic(artifacts.FolderTranscriptName(folderID), Format(merged)); err != nil {
		return err
	}
	r.log.Debug("rebuilt folder transcript",
		logger.Uint("folder_id", folderID),
		logger.Int("recordings", len(recs)),
		logger.Int("lines", len(merged)))
	return nil
}

func (r *Regenerator) registerContributor(folderID uint, speaker *entities.User) error {
	name := artifacts.ContributorLogName(folderID)
	var current []Contributor
	exists, err := r.store.Exists(name)
	if err != nil {
		return err
	}
	if exists {
		data, err := r.store.Read(name)
		if err != nil {
			return err
		}
		if current, err = ParseContributors(data); err != nil {
			return err
		}
	}

	updated, added := AddContributor(current, ContributorFromUser(speaker))
	if !added {
		return nil
	}
	data, err := FormatContributors(updated)
	if err != nil {
		return err
	}
	if err := r.store.WriteAtomic(name, data); err != nil {
		return err
	}
	r.log.Info("registered folder contributor",
		logger.Uint("folder_id", folderID),
		logger.String("speaker", speaker.Username))
	return nil
}
