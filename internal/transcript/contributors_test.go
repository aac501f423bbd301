package transcript

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TEQST/TEQST-Backend-sub000/internal/datastore/entities"
)

func TestContributorLog(t *testing.T) {
	t.Parallel()

	ron := ContributorFromUser(&entities.User{
		Username: "ron", Email: "ron@example.com", Gender: "M", Education: "B6",
		Country: "DEU", Accent: "standard, northern",
		DateJoined: time.Date(2020, 1, 2, 23, 0, 0, 0, time.FixedZone("x", -2*3600)),
	})
	assert.Equal(t, "2020-01-03", ron.DateJoined)

	log, added := AddContributor(nil, ron)
	require.True(t, added)
	log, added = AddContributor(log, ron)
	assert.False(t, added)
	require.Len(t, log, 1)

	data, err := FormatContributors(log)
	require.NoError(t, err)
	assert.Contains(t, string(data), "username,email,gender,education,country,accent,date_joined\n")

	parsed, err := ParseContributors(data)
	require.NoError(t, err)
	assert.Equal(t, log, parsed)
}

func TestParseContributorsEdgeCases(t *testing.T) {
	t.Parallel()

	parsed, err := ParseContributors(nil)
	require.NoError(t, err)
	assert.Empty(t, parsed)

	_, err = ParseContributors([]byte("name,mail\nron,r@x\n"))
	assert.Error(t, err)

	_, err = ParseContributors([]byte("user,email,gender,education,country,accent,date_joined\n"))
	assert.Error(t, err)
}
