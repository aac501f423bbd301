package transcript

import (
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TEQST/TEQST-Backend-sub000/internal/artifacts"
	"github.com/TEQST/TEQST-Backend-sub000/internal/logger"
)

func newTestStage(t *testing.T) (afero.Fs, *artifacts.Store, *stage) {
	t.Helper()
	log := logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)
	fs := afero.NewMemMapFs()
	store := artifacts.New(fs, artifacts.WithLogger(log))
	return fs, store, newStage(store, log)
}

func stageFile(t *testing.T, store *artifacts.Store, s *stage, name, content string) replacement {
	t.Helper()
	temp := store.TempName(name)
	s.track(temp)
	require.NoError(t, store.Write(temp, []byte(content)))
	return replacement{name: name, temp: temp}
}

func readString(t *testing.T, store *artifacts.Store, name string) string {
	t.Helper()
	data, err := store.Read(name)
	require.NoError(t, err)
	return string(data)
}

func TestPendingCommit(t *testing.T) {
	t.Parallel()
	fs, store, s := newTestStage(t)
	require.NoError(t, store.Write("texts/1/a.txt", []byte("old")))

	p, err := s.swap([]replacement{
		stageFile(t, store, s, "texts/1/a.txt", "new"),
		stageFile(t, store, s, "texts/1/a.wav", "audio"),
	})
	require.NoError(t, err)
	assert.Equal(t, "new", readString(t, store, "texts/1/a.txt"))

	p.Commit()
	p.Rollback()
	assert.Equal(t, "new", readString(t, store, "texts/1/a.txt"))
	assert.Equal(t, "audio", readString(t, store, "texts/1/a.wav"))

	entries, err := afero.ReadDir(fs, "texts/1")
	require.NoError(t, err)
	assert.Len(t, entries, 2, "previous versions are removed on commit")
}

func TestPendingRollback(t *testing.T) {
	t.Parallel()
	_, store, s := newTestStage(t)
	require.NoError(t, store.Write("texts/1/a.txt", []byte("old")))

	p, err := s.swap([]replacement{
		stageFile(t, store, s, "texts/1/a.txt", "new"),
		stageFile(t, store, s, "texts/1/a.wav", "audio"),
	})
	require.NoError(t, err)

	p.Rollback()
	p.Commit()
	assert.Equal(t, "old", readString(t, store, "texts/1/a.txt"))
	exists, err := store.Exists("texts/1/a.wav")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestNilPendingIsNoop(t *testing.T) {
	t.Parallel()
	var p *Pending
	assert.NotPanics(t, func() {
		p.Commit()
		p.Rollback()
	})
}

func TestSwapFailureUndoesEarlierMoves(t *testing.T) {
	t.Parallel()
	_, store, s := newTestStage(t)
	require.NoError(t, store.Write("texts/1/a.txt", []byte("old")))

	first := stageFile(t, store, s, "texts/1/a.txt", "new")
	_, err := s.swap([]replacement{
		first,
		{name: "texts/1/a.wav", temp: "texts/1/.tmp-missing"},
	})
	require.Error(t, err)
	assert.Equal(t, "old", readString(t, store, "texts/1/a.txt"))
	exists, err := store.Exists(first.temp)
	require.NoError(t, err)
	assert.False(t, exists)
}
