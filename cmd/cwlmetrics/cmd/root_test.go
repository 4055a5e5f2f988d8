package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/configuration"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/render"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/testfixtures"
)

func writeFile(t *testing.T, name string, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs the command line against a fresh app and returns the app and its output.
func execute(t *testing.T, args ...string) (*cwlmetrics.App, string, error) {
	out := new(bytes.Buffer)
	app := &cwlmetrics.App{Out: out}
	cmd := rootCmd(app)
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return app, out.String(), err
}

func TestJsonCmd(t *testing.T) {
	input := writeFile(t, "corpus.ndjson", testfixtures.Corpus)
	config := writeFile(t, "config.yaml", "retrieval:\n  windowSize: 2\n")

	app, out, err := execute(t, "json", "--config", config, "--input", input)
	require.NoError(t, err)

	var doc render.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Metrics, 2)
	assert.Equal(t, testfixtures.KF3WorkflowName, doc.Metrics[0].WorkflowName)
	assert.Equal(t, 2, app.Params.Config.Retrieval.WindowSize)
	assert.Equal(t, configuration.CombinedSource, app.Params.Config.Metrics.Source)
}

func TestTsvCmd_Filters(t *testing.T) {
	input := writeFile(t, "corpus.ndjson", testfixtures.Corpus)
	config := writeFile(t, "config.yaml", "")

	_, out, err := execute(t, "tsv", "--config", config, "--input", input, "--since", "2024-01-15", "--metricsSource", "aggregation")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 3)
	for _, line := range lines[1:] {
		assert.Contains(t, line, testfixtures.RnaseqWorkflowID)
	}
}

func TestYamlCmd(t *testing.T) {
	input := writeFile(t, "corpus.ndjson", testfixtures.Corpus)
	config := writeFile(t, "config.yaml", "")

	_, out, err := execute(t, "yaml", "--config", config, "--input", input, "--workflow", testfixtures.KF3WorkflowName)
	require.NoError(t, err)

	assert.Contains(t, out, "workflow_id: "+testfixtures.KF3WorkflowID)
	assert.NotContains(t, out, testfixtures.RnaseqWorkflowID)
}

func TestFlagsOverrideConfigFiles(t *testing.T) {
	t.Setenv("ES_HOST", "from-env")
	config := writeFile(t, "config.yaml", `
elasticsearch:
  host: from-file
  port: 9400
metrics:
  source: sampling
workflows:
  name: from-file.cwl
`)
	input := writeFile(t, "corpus.ndjson", "")

	app, _, err := execute(t, "json", "--config", config, "--input", input,
		"--esPort", "9500", "--workflow", "from-flag.cwl", "--until", "2024-01-02T00:00:00Z", "--pushgateway", "")
	require.NoError(t, err)

	c := app.Params.Config
	assert.Equal(t, "from-env", c.Elasticsearch.Host)
	assert.Equal(t, 9500, c.Elasticsearch.Port)
	assert.Equal(t, configuration.SamplingSource, c.Metrics.Source)
	assert.Equal(t, "from-flag.cwl", c.Workflows.Name)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), c.Workflows.Until.UTC())
	assert.True(t, c.Workflows.Since.IsZero())
}

func TestInvalidParams(t *testing.T) {
	config := writeFile(t, "config.yaml", "")
	tests := map[string][]string{
		"unknown metrics source": {"json", "--config", config, "--metricsSource", "telepathy"},
		"malformed date":         {"json", "--config", config, "--since", "last tuesday"},
		"until before since":     {"json", "--config", config, "--since", "2024-02-01", "--until", "2024-01-01"},
		"unknown command":        {"csv"},
		"unexpected argument":    {"json", "extra"},
		"missing config file":    {"json", "--config", filepath.Join(t.TempDir(), "missing.yaml")},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, out, err := execute(t, args...)
			assert.Error(t, err)
			assert.Empty(t, out)
		})
	}
}

func TestVersionCmd(t *testing.T) {
	_, out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:")
}

func TestUserConfigFiles(t *testing.T) {
	homedir.DisableCache = true
	defer func() { homedir.DisableCache = false }()

	home := t.TempDir()
	t.Setenv("HOME", home)
	assert.Empty(t, userConfigFiles())

	path := filepath.Join(home, ".cwlmetrics.yaml")
	require.NoError(t, os.WriteFile(path, []byte("metrics:\n  source: aggregation\n"), 0o644))
	assert.Equal(t, []string{path}, userConfigFiles())
}
