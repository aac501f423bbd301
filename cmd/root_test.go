package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TEQST/TEQST-Backend-sub000/internal/app"
	"github.com/TEQST/TEQST-Backend-sub000/internal/buildinfo"
	"github.com/TEQST/TEQST-Backend-sub000/internal/testutil"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := RootCommand(&app.Context{Build: &buildinfo.Context{Version: "v0.0.1-test"}})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	config := `
storage:
  datadir: ` + filepath.Join(dir, "data") + `
database:
  sqlite:
    path: ` + filepath.Join(dir, "teqst.db") + `
audio:
  ffmpegpath: teqst-test-no-ffmpeg
  concatmode: native
logging:
  console:
    enabled: false
`
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(config), 0o600))
	return path
}

func TestVersionSkipsSetup(t *testing.T) {
	out, err := execute(t, "version", "--config", "/nonexistent/config.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "teqst v0.0.1-test (built unknown)")
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	_, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "concatmode: auto")

	_, err = execute(t, "config", "init", path)
	assert.Error(t, err, "existing files are not overwritten")
}

func TestRecordingWorkflow(t *testing.T) {
	config := writeConfig(t)
	dir := filepath.Dir(config)

	seedFile := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(seedFile, []byte(`
users:
  - username: ron
    gender: M
    date_joined: 2020-01-02
folders:
  - name: news
    speakers: [ron]
    texts:
      - title: t1
        sentences: [hello world, goodbye]
`), 0o600))
	audio := filepath.Join(dir, "take.wav")
	require.NoError(t, os.WriteFile(audio, testutil.SpeechWAV(t, 1.5), 0o600))
	metricsFile := filepath.Join(dir, "metrics.prom")

	steps := []struct {
		args []string
		want string
	}{
		{[]string{"migrate"}, "Database schema is up to date"},
		{[]string{"seed", seedFile}, "Created 1 users, 1 folders, 1 texts, 2 sentences"},
		{[]string{"recording", "create", "1", "--speaker", "ron", "--tts"}, "Created text recording 1 for ron"},
		{[]string{"recording", "submit", "1", "2", audio}, ""},
		{[]string{"recording", "submit", "1", "1", audio}, "index 1, 1.50 s, VALID"},
		{[]string{"recording", "progress", "1"}, "Next index: 2"},
		{[]string{"recording", "submit", "1", "2", audio, "--metrics-file", metricsFile}, "index 2, 1.50 s, VALID"},
		{[]string{"recording", "progress", "1"}, "FINISHED"},
		{[]string{"recording", "update", "1", audio}, "Sentence recording 1"},
		{[]string{"recording", "backups", "1"}, "backup 1"},
		{[]string{"recording", "regenerate", "1"}, "ron_1.txt"},
		{[]string{"report", "folder", "1", "--format", "csv"}, "ron,,M,,,,2020-01-02,3.00,3,1.50,0.00,0.00,3.00,4.50"},
		{[]string{"report", "folders", "1", "--format", "yaml"}, "- Totals"},
	}

	for _, step := range steps {
		out, err := execute(t, append(step.args, "--config", config)...)
		if step.want == "" {
			assert.Error(t, err, "%v should fail", step.args)
			continue
		}
		require.NoError(t, err, "%v", step.args)
		assert.Contains(t, out, step.want, "%v", step.args)
	}

	metrics, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "recording_text_completions_total 1")

	_, err = os.Stat(filepath.Join(dir, "data", "folders", "1", "transcript.txt"))
	assert.NoError(t, err)
}
