package transcript_test

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TEQST/TEQST-Backend-sub000/internal/artifacts"
	"github.com/TEQST/TEQST-Backend-sub000/internal/conf"
	"github.com/TEQST/TEQST-Backend-sub000/internal/datastore/entities"
	"github.com/TEQST/TEQST-Backend-sub000/internal/datastore/repository"
	"github.com/TEQST/TEQST-Backend-sub000/internal/errors"
	"github.com/TEQST/TEQST-Backend-sub000/internal/logger"
	"github.com/TEQST/TEQST-Backend-sub000/internal/myaudio"
	"github.com/TEQST/TEQST-Backend-sub000/internal/testutil"
	"github.com/TEQST/TEQST-Backend-sub000/internal/transcript"
)

func discardLogger() logger.Logger {
	return logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)
}

// seedRecording stores one sentence recording per audio blob for speaker on text.
func seedRecording(t *testing.T, repos *repository.Repositories, store *artifacts.Store, speaker *entities.User, text *entities.Text, audio ...[]byte) *entities.TextRecording {
	t.Helper()
	ctx := context.Background()
	rec := &entities.TextRecording{SpeakerID: speaker.ID, TextID: text.ID, TTSPermission: true, LastUpdated: time.Now().UTC()}
	require.NoError(t, repos.Recordings.CreateTextRecording(ctx, rec))

	sentences, err := repos.Texts.GetSentences(ctx, text.ID)
	require.NoError(t, err)
	for i, data := range audio {
		clip, err := myaudio.Decode(ctx, data, nil)
		require.NoError(t, err)
		name := artifacts.SentenceAudioName(rec.ID, i+1)
		require.NoError(t, store.Write(name, data))
		require.NoError(t, repos.Recordings.CreateSentenceRecording(ctx, &entities.SentenceRecording{
			RecordingID: rec.ID,
			SentenceID:  sentences[i].ID,
			Index:       i + 1,
			AudioPath:   name,
			Validity:    string(myaudio.Valid),
			Length:      clip.Duration(),
			LastUpdated: time.Now().UTC(),
		}))
	}
	return rec
}

func regenerate(t *testing.T, regen *transcript.Regenerator, repos *repository.Repositories, rec *entities.TextRecording) {
	t.Helper()
	ctx := context.Background()
	pending, err := regen.Regenerate(ctx, repos, rec)
	require.NoError(t, err)
	require.NoError(t, repos.Recordings.SaveTextRecording(ctx, rec))
	pending.Commit()
}

func TestRegenerateRequiresCompleteRecording(t *testing.T) {
	t.Parallel()
	repos := testutil.NewRepositories(t)
	store := artifacts.New(afero.NewMemMapFs())
	regen := transcript.NewRegenerator(transcript.Config{Store: store, Mode: conf.ConcatNative, Logger: discardLogger()})
	fx := testutil.SeedText(t, repos, "ron", "a", "b")

	rec := seedRecording(t, repos, store, fx.Speaker, fx.Text, testutil.SpeechWAV(t, 1))
	pending, err := regen.Regenerate(context.Background(), repos, rec)
	require.Error(t, err)
	assert.Nil(t, pending)
	assert.True(t, errors.IsCategory(err, errors.CategoryRegeneration))
	assert.Empty(t, rec.TranscriptPath)
}

func TestRefreshFolderMergesFinishedRecordings(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repos := testutil.NewRepositories(t)
	store := artifacts.New(afero.NewMemMapFs())
	regen := transcript.NewRegenerator(transcript.Config{Store: store, Mode: conf.ConcatNative, Logger: discardLogger()})

	folder := testutil.CreateFolder(t, repos, "news", nil)
	first := testutil.CreateText(t, repos, folder, "first", "one", "two")
	second := testutil.CreateText(t, repos, folder, "second", "three")
	zed := testutil.CreateUser(t, repos, "zed")
	amy := testutil.CreateUser(t, repos, "amy")
	bob := testutil.CreateUser(t, repos, "bob")

	regenerate(t, regen, repos, seedRecording(t, repos, store, zed, first, testutil.SpeechWAV(t, 1), testutil.SpeechWAV(t, 1)))
	require.NoError(t, regen.RefreshFolder(ctx, repos, folder.ID, zed))
	regenerate(t, regen, repos, seedRecording(t, repos, store, zed, second, testutil.SpeechWAV(t, 1)))
	require.NoError(t, regen.RefreshFolder(ctx, repos, folder.ID, zed))
	regenerate(t, regen, repos, seedRecording(t, repos, store, amy, first, testutil.SpeechWAV(t, 1), testutil.SpeechWAV(t, 2)))
	require.NoError(t, regen.RefreshFolder(ctx, repos, folder.ID, amy))
	// unfinished recordings do not contribute lines
	seedRecording(t, repos, store, bob, first, testutil.SpeechWAV(t, 1))

	data, err := store.Read(artifacts.FolderTranscriptName(folder.ID))
	require.NoError(t, err)
	lines, err := transcript.Parse(data)
	require.NoError(t, err)

	var segments []string
	for _, l := range lines {
		segments = append(segments, l.SegmentID)
	}
	assert.Equal(t, []string{
		transcript.SegmentID("amy", first.ID, 1),
		transcript.SegmentID("amy", first.ID, 2),
		transcript.SegmentID("zed", first.ID, 1),
		transcript.SegmentID("zed", first.ID, 2),
		transcript.SegmentID("zed", second.ID, 1),
	}, segments)
	assert.InDelta(t, 3.0, lines[1].End, 1e-9)

	logData, err := store.Read(artifacts.ContributorLogName(folder.ID))
	require.NoError(t, err)
	contributors, err := transcript.ParseContributors(logData)
	require.NoError(t, err)
	require.Len(t, contributors, 2)
	assert.Equal(t, "zed", contributors[0].Username)
	assert.Equal(t, "amy", contributors[1].Username)
}

func TestRefreshFolderConcurrentCompletions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repos := testutil.NewRepositories(t)
	store := artifacts.New(afero.NewMemMapFs())
	regen := transcript.NewRegenerator(transcript.Config{Store: store, Mode: conf.ConcatNative, Logger: discardLogger()})

	folder := testutil.CreateFolder(t, repos, "shared", nil)
	speakers := []*entities.User{
		testutil.CreateUser(t, repos, "ann"),
		testutil.CreateUser(t, repos, "ben"),
		testutil.CreateUser(t, repos, "cid"),
	}

	const texts = 6
	recs := make([]*entities.TextRecording, texts)
	want := make([]string, texts)
	for i := range texts {
		text := testutil.CreateText(t, repos, folder, fmt.Sprintf("text %d", i), "only sentence")
		speaker := speakers[i%len(speakers)]
		recs[i] = seedRecording(t, repos, store, speaker, text, testutil.SpeechWAV(t, 1))
		want[i] = transcript.SegmentID(speaker.Username, text.ID, 1)
	}

	var wg sync.WaitGroup
	errs := make([]error, texts)
	for i, rec := range recs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pending, err := regen.Regenerate(ctx, repos, rec)
			if err != nil {
				errs[i] = err
				return
			}
			if err := repos.Recordings.SaveTextRecording(ctx, rec); err != nil {
				pending.Rollback()
				errs[i] = err
				return
			}
			pending.Commit()
			errs[i] = regen.RefreshFolder(ctx, repos, folder.ID, speakers[i%len(speakers)])
		}()
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	data, err := store.Read(artifacts.FolderTranscriptName(folder.ID))
	require.NoError(t, err)
	lines, err := transcript.Parse(data)
	require.NoError(t, err)
	got := make([]string, 0, len(lines))
	for _, l := range lines {
		got = append(got, l.SegmentID)
	}
	assert.ElementsMatch(t, want, got, "the last rebuild sees every finished recording")

	logData, err := store.Read(artifacts.ContributorLogName(folder.ID))
	require.NoError(t, err)
	contributors, err := transcript.ParseContributors(logData)
	require.NoError(t, err)
	usernames := make([]string, 0, len(contributors))
	for _, c := range contributors {
		usernames = append(usernames, c.Username)
	}
	assert.ElementsMatch(t, []string{"ann", "ben", "cid"}, usernames)
}

type recordingConcatenator struct {
	mu     sync.Mutex
	inputs []string
}

func (c *recordingConcatenator) Concat(_ context.Context, inputs []string, outputPath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputs = append(c.inputs, inputs...)
	return os.WriteFile(outputPath, []byte("joined"), 0o600)
}

func TestAutoModeFallsBackToFFmpegOnFormatMismatch(t *testing.T) {
	t.Parallel()
	repos := testutil.NewRepositories(t)
	store, err := artifacts.NewOS(t.TempDir())
	require.NoError(t, err)
	fake := &recordingConcatenator{}
	regen := transcript.NewRegenerator(transcript.Config{Store: store, FFmpeg: fake, Mode: conf.ConcatAuto, Logger: discardLogger()})
	fx := testutil.SeedText(t, repos, "ron", "a", "b")

	narrow, err := myaudio.EncodeWAV(testutil.PCM16(testutil.Silence(0.05), testutil.Tone(0.5), testutil.Silence(0.05)), 8000, 16, 1)
	require.NoError(t, err)
	rec := seedRecording(t, repos, store, fx.Speaker, fx.Text, testutil.SpeechWAV(t, 1), narrow)

	regenerate(t, regen, repos, rec)
	require.Len(t, fake.inputs, 2)
	audio, err := store.Read(rec.AudioPath)
	require.NoError(t, err)
	assert.Equal(t, "joined", string(audio))
}

func TestNativeModeRejectsFormatMismatch(t *testing.T) {
	t.Parallel()
	repos := testutil.NewRepositories(t)
	store := artifacts.New(afero.NewMemMapFs())
	regen := transcript.NewRegenerator(transcript.Config{Store: store, Mode: conf.ConcatAuto, Logger: discardLogger()})
	fx := testutil.SeedText(t, repos, "ron", "a", "b")

	narrow, err := myaudio.EncodeWAV(testutil.PCM16(testutil.Tone(0.5)), 8000, 16, 1)
	require.NoError(t, err)
	rec := seedRecording(t, repos, store, fx.Speaker, fx.Text, testutil.SpeechWAV(t, 1), narrow)

	_, err = regen.Regenerate(context.Background(), repos, rec)
	require.Error(t, err)
	assert.ErrorIs(t, err, myaudio.ErrFormatMismatch)

	exists, err := store.Exists(artifacts.RecordingAudioName(fx.Text.ID, "ron"))
	require.NoError(t, err)
	assert.False(t, exists)
}
