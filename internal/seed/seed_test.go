package seed_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TEQST/TEQST-Backend-sub000/internal/datastore/repository"
	"github.com/TEQST/TEQST-Backend-sub000/internal/errors"
	"github.com/TEQST/TEQST-Backend-sub000/internal/seed"
	"github.com/TEQST/TEQST-Backend-sub000/internal/testutil"
)

const document = `
users:
  - username: ron
    email: ron@example.com
    gender: M
    education: B6
    country: DEU
    accent: standard
    date_joined: 2020-01-02
  - username: amy
folders:
  - name: news
    speakers: [ron, amy]
    texts:
      - title: t1
        sentences:
          - The first sentence.
          - The second one.
    folders:
      - name: sport
        speakers: [ron]
        texts:
          - title: t2
            sentences: [Goal!]
`

func TestApply(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repos := testutil.NewRepositories(t)

	f, err := seed.Load(strings.NewReader(document))
	require.NoError(t, err)
	sum, err := seed.Apply(ctx, repos, f)
	require.NoError(t, err)
	assert.Equal(t, seed.Summary{Users: 2, Folders: 2, Texts: 2, Sentences: 3}, sum)

	ron, err := repos.Users.GetByUsername(ctx, "ron")
	require.NoError(t, err)
	assert.Equal(t, "2020-01-02", ron.DateJoined.Format("2006-01-02"))

	// users are reused on a second run
	sum, err = seed.Apply(ctx, repos, f)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Users)
	assert.Equal(t, 2, sum.Folders)
}

func TestApplyRollsBackOnError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repos := testutil.NewRepositories(t)

	f, err := seed.Load(strings.NewReader(`
users:
  - username: ron
folders:
  - name: news
    speakers: [nobody]
`))
	require.NoError(t, err)
	_, err = seed.Apply(ctx, repos, f)
	require.ErrorIs(t, err, repository.ErrUserNotFound)

	_, err = repos.Users.GetByUsername(ctx, "ron")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Parallel()
	_, err := seed.Load(strings.NewReader("users:\n  - name: ron\n"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	f, err := seed.Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, f.Users)
}
