package recording_test

import (
	"context"
	"fmt"
	"io"
	"strings"
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
	"github.com/TEQST/TEQST-Backend-sub000/internal/recording"
	"github.com/TEQST/TEQST-Backend-sub000/internal/testutil"
	"github.com/TEQST/TEQST-Backend-sub000/internal/transcript"
)

type harness struct {
	store     *recording.Store
	repos     *repository.Repositories
	artifacts *artifacts.Store
	fx        testutil.Fixture
}

func setupHarness(t *testing.T, sentences ...string) *harness {
	t.Helper()
	log := logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)
	repos := testutil.NewRepositories(t)
	clock := func() time.Time { return time.Date(2024, 3, 9, 14, 0, 0, 0, time.UTC) }
	store := artifacts.New(afero.NewMemMapFs(), artifacts.WithClock(clock), artifacts.WithLogger(log))
	regen := transcript.NewRegenerator(transcript.Config{Store: store, Mode: conf.ConcatNative, Logger: log})

	return &harness{
		store: recording.New(recording.Config{
			Repos:       repos,
			Artifacts:   store,
			Analyzer:    myaudio.NewAnalyzer(myaudio.DefaultAnalyzerConfig(), nil),
			Regenerator: regen,
			Logger:      log,
			Clock:       clock,
		}),
		repos:     repos,
		artifacts: store,
		fx:        testutil.SeedText(t, repos, "ron", sentences...),
	}
}

func (h *harness) newRecording(t *testing.T) uint {
	t.Helper()
	rec, err := h.store.CreateTextRecording(context.Background(), h.fx.Speaker.ID, h.fx.Text.ID, true, true)
	require.NoError(t, err)
	return rec.ID
}

func (h *harness) submit(t *testing.T, recID uint, index int, seconds float64) {
	t.Helper()
	_, err := h.store.CreateSentenceRecording(context.Background(), recID, index, testutil.SpeechWAV(t, seconds))
	require.NoError(t, err)
}

func (h *harness) read(t *testing.T, name string) string {
	t.Helper()
	data, err := h.artifacts.Read(name)
	require.NoError(t, err)
	return string(data)
}

func TestCreateTextRecording(t *testing.T) {
	h := setupHarness(t, "one two")
	ctx := context.Background()

	_, err := h.store.CreateTextRecording(ctx, h.fx.Speaker.ID, h.fx.Text.ID, false, false)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	rec, err := h.store.CreateTextRecording(ctx, h.fx.Speaker.ID, h.fx.Text.ID, true, false)
	require.NoError(t, err)
	assert.Zero(t, rec.RecTimeWithoutRep)
	assert.Zero(t, rec.RecTimeWithRep)

	_, err = h.store.CreateTextRecording(ctx, h.fx.Speaker.ID, h.fx.Text.ID, false, true)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConflict))

	_, err = h.store.CreateTextRecording(ctx, h.fx.Speaker.ID, 999, true, true)
	require.ErrorIs(t, err, repository.ErrTextNotFound)
}

func TestSentencesMustBeRecordedInOrder(t *testing.T) {
	h := setupHarness(t, "a", "b", "c")
	ctx := context.Background()
	recID := h.newRecording(t)

	_, err := h.store.CreateSentenceRecording(ctx, recID, 2, testutil.SpeechWAV(t, 1))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryOutOfOrder))

	for i := 1; i <= 3; i++ {
		active, err := h.store.ActiveSentence(ctx, recID)
		require.NoError(t, err)
		assert.Equal(t, i, active)
		h.submit(t, recID, i, 1)
	}

	_, err = h.store.CreateSentenceRecording(ctx, recID, 4, testutil.SpeechWAV(t, 1))
	assert.True(t, errors.IsCategory(err, errors.CategoryAlreadyFinished))

	// finished is checked before ordering
	_, err = h.store.CreateSentenceRecording(ctx, recID, 1, testutil.SpeechWAV(t, 1))
	assert.True(t, errors.IsCategory(err, errors.CategoryAlreadyFinished))

	p, err := h.store.Progress(ctx, recID)
	require.NoError(t, err)
	assert.Equal(t, recording.Progress{Completed: 3, Total: 3, Active: 4, Finished: true}, p)
	assert.Equal(t, recording.StateFinished, p.State())
}

func TestEndToEndRecording(t *testing.T) {
	h := setupHarness(t, "the first sentence", "the second one", "last")
	ctx := context.Background()
	recID := h.newRecording(t)

	h.submit(t, recID, 1, 2.0)
	finished, err := h.store.IsFinished(ctx, recID)
	require.NoError(t, err)
	assert.False(t, finished)

	h.submit(t, recID, 2, 3.0)
	h.submit(t, recID, 3, 1.5)

	rec, err := h.store.GetTextRecording(ctx, recID)
	require.NoError(t, err)
	assert.InDelta(t, 6.5, rec.RecTimeWithoutRep, 1e-9)
	assert.InDelta(t, 6.5, rec.RecTimeWithRep, 1e-9)
	require.NotEmpty(t, rec.TranscriptPath)
	require.NotEmpty(t, rec.AudioPath)

	lines, err := transcript.Parse([]byte(h.read(t, rec.TranscriptPath)))
	require.NoError(t, err)
	require.Len(t, lines, 3)
	starts := []float64{0, 2, 5}
	ends := []float64{2, 5, 6.5}
	for i, line := range lines {
		assert.InDelta(t, starts[i], line.Start, 1e-9)
		assert.InDelta(t, ends[i], line.End, 1e-9)
		assert.Equal(t, "ron", line.Speaker)
		assert.Equal(t, "TTS+SR", line.Meta.Permissions)
	}
	assert.Equal(t, "the second one", lines[1].Content)
	assert.Contains(t, h.read(t, rec.TranscriptPath), "0.00 2.00 ron")
	assert.Contains(t, h.read(t, rec.TranscriptPath), "5.00 6.50 ron")

	clip, err := myaudio.Decode(ctx, []byte(h.read(t, rec.AudioPath)), nil)
	require.NoError(t, err)
	assert.InDelta(t, 6.5, clip.Duration(), 1e-9)

	folderTranscript := h.read(t, artifacts.FolderTranscriptName(h.fx.Folder.ID))
	assert.Equal(t, h.read(t, rec.TranscriptPath), folderTranscript)

	contributors, err := transcript.ParseContributors([]byte(h.read(t, artifacts.ContributorLogName(h.fx.Folder.ID))))
	require.NoError(t, err)
	require.Len(t, contributors, 1)
	assert.Equal(t, "ron", contributors[0].Username)
}

func TestUpdateKeepsBackupAndAdjustsCounters(t *testing.T) {
	h := setupHarness(t, "a", "b", "c")
	ctx := context.Background()
	recID := h.newRecording(t)
	h.submit(t, recID, 1, 2.0)
	h.submit(t, recID, 2, 3.0)

	first, err := h.repos.Recordings.GetSentenceRecordingAt(ctx, recID, 1)
	require.NoError(t, err)
	originalAudio := h.read(t, first.AudioPath)

	updated, err := h.store.UpdateSentenceRecording(ctx, first.ID, testutil.SpeechWAV(t, 1.0))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, updated.Length, 1e-9)
	assert.Equal(t, first.AudioPath, updated.AudioPath)

	backups, err := h.store.Backups(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.InDelta(t, 2.0, backups[0].Length, 1e-9)
	assert.Equal(t, string(myaudio.Valid), backups[0].Validity)
	assert.True(t, strings.HasPrefix(backups[0].AudioPath, "_backup/2024-03-09/"), backups[0].AudioPath)
	assert.Equal(t, originalAudio, h.read(t, backups[0].AudioPath))

	rec, err := h.store.GetTextRecording(ctx, recID)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, rec.RecTimeWithoutRep, 1e-9)
	assert.InDelta(t, 6.0, rec.RecTimeWithRep, 1e-9)

	backupSum, err := h.repos.Recordings.SumBackupLengths(ctx, recID)
	require.NoError(t, err)
	assert.InDelta(t, rec.RecTimeWithRep-rec.RecTimeWithoutRep, backupSum, 1e-9)

	// a second re-record adds exactly one more backup
	_, err = h.store.UpdateSentenceRecording(ctx, first.ID, testutil.SpeechWAV(t, 1.5))
	require.NoError(t, err)
	backups, err = h.store.Backups(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.InDelta(t, 1.0, backups[1].Length, 1e-9)

	rec, err = h.store.GetTextRecording(ctx, recID)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, rec.RecTimeWithoutRep, 1e-9)
	assert.InDelta(t, 7.5, rec.RecTimeWithRep, 1e-9)
	assert.Empty(t, rec.TranscriptPath)
}

func TestUpdateAfterFinishRegenerates(t *testing.T) {
	h := setupHarness(t, "a", "b")
	ctx := context.Background()
	recID := h.newRecording(t)
	h.submit(t, recID, 1, 2.0)
	h.submit(t, recID, 2, 3.0)

	second, err := h.repos.Recordings.GetSentenceRecordingAt(ctx, recID, 2)
	require.NoError(t, err)
	_, err = h.store.UpdateSentenceRecording(ctx, second.ID, testutil.SpeechWAV(t, 1.0))
	require.NoError(t, err)

	rec, err := h.store.GetTextRecording(ctx, recID)
	require.NoError(t, err)
	lines, err := transcript.Parse([]byte(h.read(t, rec.TranscriptPath)))
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.InDelta(t, 3.0, lines[1].End, 1e-9)

	before := h.read(t, rec.TranscriptPath)
	_, err = h.store.Regenerate(ctx, recID)
	require.NoError(t, err)
	assert.Equal(t, before, h.read(t, rec.TranscriptPath), "regeneration is deterministic")
}

func TestRegenerationFailureLeavesPreviousState(t *testing.T) {
	h := setupHarness(t, "a", "b")
	ctx := context.Background()
	recID := h.newRecording(t)
	h.submit(t, recID, 1, 2.0)

	first, err := h.repos.Recordings.GetSentenceRecordingAt(ctx, recID, 1)
	require.NoError(t, err)
	require.NoError(t, h.artifacts.Delete(first.AudioPath))

	_, err = h.store.CreateSentenceRecording(ctx, recID, 2, testutil.SpeechWAV(t, 1.0))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryRegeneration))

	p, err := h.store.Progress(ctx, recID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Completed)
	rec, err := h.store.GetTextRecording(ctx, recID)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, rec.RecTimeWithoutRep, 1e-9)
	assert.Empty(t, rec.TranscriptPath)

	exists, err := h.artifacts.Exists(artifacts.SentenceAudioName(recID, 2))
	require.NoError(t, err)
	assert.False(t, exists, "audio of the rejected submission is removed")
	exists, err = h.artifacts.Exists(artifacts.TranscriptName(h.fx.Text.ID, "ron"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFailedReRecordKeepsArtifacts(t *testing.T) {
	h := setupHarness(t, "a", "b")
	ctx := context.Background()
	recID := h.newRecording(t)
	h.submit(t, recID, 1, 2.0)
	h.submit(t, recID, 2, 3.0)

	rec, err := h.store.GetTextRecording(ctx, recID)
	require.NoError(t, err)
	transcriptBefore := h.read(t, rec.TranscriptPath)
	audioBefore := h.read(t, rec.AudioPath)

	first, err := h.repos.Recordings.GetSentenceRecordingAt(ctx, recID, 1)
	require.NoError(t, err)
	second, err := h.repos.Recordings.GetSentenceRecordingAt(ctx, recID, 2)
	require.NoError(t, err)
	secondAudio := h.read(t, second.AudioPath)
	require.NoError(t, h.artifacts.Write(first.AudioPath, []byte("corrupt")))

	_, err = h.store.UpdateSentenceRecording(ctx, second.ID, testutil.SpeechWAV(t, 1.0))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryRegeneration))

	assert.Equal(t, transcriptBefore, h.read(t, rec.TranscriptPath))
	assert.Equal(t, audioBefore, h.read(t, rec.AudioPath))
	assert.Equal(t, secondAudio, h.read(t, second.AudioPath))

	backups, err := h.store.Backups(ctx, second.ID)
	require.NoError(t, err)
	assert.Empty(t, backups)

	after, err := h.store.GetTextRecording(ctx, recID)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, after.RecTimeWithoutRep, 1e-9)
	assert.InDelta(t, 5.0, after.RecTimeWithRep, 1e-9)
}

func TestUndecodableAudioIsRejected(t *testing.T) {
	h := setupHarness(t, "a")
	ctx := context.Background()
	recID := h.newRecording(t)

	_, err := h.store.CreateSentenceRecording(ctx, recID, 1, []byte("definitely not audio"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryDecode))

	p, err := h.store.Progress(ctx, recID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Completed)
}

func TestInvalidClipIsStoredWithValidity(t *testing.T) {
	h := setupHarness(t, "a", "b")
	ctx := context.Background()
	recID := h.newRecording(t)

	late := testutil.WAV(t, testutil.Silence(0.5), testutil.Tone(1), testutil.Silence(0.1))
	srec, err := h.store.CreateSentenceRecording(ctx, recID, 1, late)
	require.NoError(t, err)
	assert.Equal(t, string(myaudio.InvalidStart), srec.Validity)
	assert.InDelta(t, 1.6, srec.Length, 1e-9)
}

func TestDuplicateIndexIsRejected(t *testing.T) {
	h := setupHarness(t, "a", "b", "c")
	ctx := context.Background()
	recID := h.newRecording(t)

	// Force a row at index 2 while index 1 is missing, so the active index is 2.
	s2, err := h.repos.Texts.GetSentence(ctx, h.fx.Text.ID, 2)
	require.NoError(t, err)
	require.NoError(t, h.repos.Recordings.CreateSentenceRecording(ctx, &entities.SentenceRecording{
		RecordingID: recID, SentenceID: s2.ID, Index: 2, AudioPath: "x.wav", Validity: "VALID", Length: 1, LastUpdated: time.Now().UTC(),
	}))

	_, err = h.store.CreateSentenceRecording(ctx, recID, 2, testutil.SpeechWAV(t, 1))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryDuplicate))
}

func TestConcurrentSubmissionsForSameIndex(t *testing.T) {
	h := setupHarness(t, "a", "b")
	ctx := context.Background()
	recID := h.newRecording(t)
	audio := testutil.SpeechWAV(t, 1)

	const workers = 4
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = h.store.CreateSentenceRecording(ctx, recID, 1, audio)
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.IsCategory(err, errors.CategoryOutOfOrder), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)

	rec, err := h.store.GetTextRecording(ctx, recID)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, rec.RecTimeWithoutRep, 1e-9)
}

func TestUpdateLegacySegmentKeepsCountersConsistent(t *testing.T) {
	h := setupHarness(t, "a", "b")
	ctx := context.Background()
	recID := h.newRecording(t)

	rec, err := h.store.GetTextRecording(ctx, recID)
	require.NoError(t, err)
	legacyTime := 5.0
	rec.RecTimeWithoutRepOld = &legacyTime
	rec.RecTimeWithRepOld = &legacyTime
	require.NoError(t, h.repos.Recordings.SaveTextRecording(ctx, rec))

	s1, err := h.repos.Texts.GetSentence(ctx, h.fx.Text.ID, 1)
	require.NoError(t, err)
	name := artifacts.SentenceAudioName(recID, 1)
	require.NoError(t, h.artifacts.Write(name, testutil.SpeechWAV(t, 5)))
	legacy := &entities.SentenceRecording{
		RecordingID: recID, SentenceID: s1.ID, Index: 1, AudioPath: name,
		Validity: "VALID", Length: 5, Legacy: true, LastUpdated: time.Now().UTC(),
	}
	require.NoError(t, h.repos.Recordings.CreateSentenceRecording(ctx, legacy))

	updated, err := h.store.UpdateSentenceRecording(ctx, legacy.ID, testutil.SpeechWAV(t, 2))
	require.NoError(t, err)
	assert.False(t, updated.Legacy)

	rec, err = h.store.GetTextRecording(ctx, recID)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, rec.RecTimeWithoutRep, 1e-9)
	assert.InDelta(t, 2.0, rec.RecTimeWithRep, 1e-9)
	require.NotNil(t, rec.RecTimeWithoutRepOld)
	assert.InDelta(t, 5.0, *rec.RecTimeWithoutRepOld, 1e-9, "legacy counters are left alone")

	backups, err := h.store.Backups(ctx, legacy.ID)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.True(t, backups[0].Legacy)
	assert.InDelta(t, 5.0, backups[0].Length, 1e-9)

	backupSum, err := h.repos.Recordings.SumBackupLengths(ctx, recID)
	require.NoError(t, err)
	assert.Zero(t, backupSum)
	assert.InDelta(t, rec.RecTimeWithRep-rec.RecTimeWithoutRep, backupSum, 1e-9)

	// re-recording the now regular segment backs it up as usual
	_, err = h.store.UpdateSentenceRecording(ctx, legacy.ID, testutil.SpeechWAV(t, 1))
	require.NoError(t, err)
	rec, err = h.store.GetTextRecording(ctx, recID)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, rec.RecTimeWithoutRep, 1e-9)
	assert.InDelta(t, 3.0, rec.RecTimeWithRep, 1e-9)
	backupSum, err = h.repos.Recordings.SumBackupLengths(ctx, recID)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, backupSum, 1e-9)
}

// insertForeignSegment stores a row at index 1 of recID that points at a
// sentence of another text in the same folder.
func (h *harness) insertForeignSegment(t *testing.T, recID uint) *entities.SentenceRecording {
	t.Helper()
	ctx := context.Background()
	other := testutil.CreateText(t, h.repos, h.fx.Folder, "t2", "foreign")
	foreign, err := h.repos.Texts.GetSentence(ctx, other.ID, 1)
	require.NoError(t, err)

	name := artifacts.SentenceAudioName(recID, 1)
	require.NoError(t, h.artifacts.Write(name, testutil.SpeechWAV(t, 1)))
	srec := &entities.SentenceRecording{
		RecordingID: recID, SentenceID: foreign.ID, Index: 1, AudioPath: name,
		Validity: "VALID", Length: 1, LastUpdated: time.Now().UTC(),
	}
	require.NoError(t, h.repos.Recordings.CreateSentenceRecording(ctx, srec))
	return srec
}

func TestUpdateRejectsSegmentOfAnotherText(t *testing.T) {
	h := setupHarness(t, "a", "b")
	ctx := context.Background()
	recID := h.newRecording(t)
	srec := h.insertForeignSegment(t, recID)
	before := h.read(t, srec.AudioPath)

	_, err := h.store.UpdateSentenceRecording(ctx, srec.ID, testutil.SpeechWAV(t, 2))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryIntegrity), "unexpected error: %v", err)

	assert.Equal(t, before, h.read(t, srec.AudioPath))
	backups, err := h.store.Backups(ctx, srec.ID)
	require.NoError(t, err)
	assert.Empty(t, backups)
	rec, err := h.store.GetTextRecording(ctx, recID)
	require.NoError(t, err)
	assert.Zero(t, rec.RecTimeWithoutRep)
	assert.Zero(t, rec.RecTimeWithRep)
}

func TestRegenerateRejectsSegmentOfAnotherText(t *testing.T) {
	h := setupHarness(t, "a")
	ctx := context.Background()
	recID := h.newRecording(t)
	h.insertForeignSegment(t, recID)

	_, err := h.store.Regenerate(ctx, recID)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryIntegrity), "unexpected error: %v", err)

	exists, err := h.artifacts.Exists(artifacts.TranscriptName(h.fx.Text.ID, "ron"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestConcurrentCompletionsInOneFolder(t *testing.T) {
	h := setupHarness(t, "a")
	ctx := context.Background()

	const workers = 5
	recIDs := make([]uint, workers)
	want := make([]string, workers)
	for i := range workers {
		speaker := testutil.CreateUser(t, h.repos, fmt.Sprintf("spk%d", i))
		text := testutil.CreateText(t, h.repos, h.fx.Folder, fmt.Sprintf("text %d", i), "first", "last")
		rec, err := h.store.CreateTextRecording(ctx, speaker.ID, text.ID, true, false)
		require.NoError(t, err)
		h.submit(t, rec.ID, 1, 1)
		recIDs[i] = rec.ID
		want[i] = transcript.SegmentID(speaker.Username, text.ID, 2)
	}
	audio := testutil.SpeechWAV(t, 1)

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i, recID := range recIDs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = h.store.CreateSentenceRecording(ctx, recID, 2, audio)
		}()
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	lines, err := transcript.Parse([]byte(h.read(t, artifacts.FolderTranscriptName(h.fx.Folder.ID))))
	require.NoError(t, err)
	require.Len(t, lines, 2*workers)
	var last []string
	for _, l := range lines {
		if l.Start > 0 {
			last = append(last, l.SegmentID)
		}
	}
	assert.ElementsMatch(t, want, last)

	contributors, err := transcript.ParseContributors([]byte(h.read(t, artifacts.ContributorLogName(h.fx.Folder.ID))))
	require.NoError(t, err)
	seen := make(map[string]int)
	for _, c := range contributors {
		seen[c.Username]++
	}
	assert.Len(t, seen, workers)
	for name, n := range seen {
		assert.Equal(t, 1, n, name)
	}
}
