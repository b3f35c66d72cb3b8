package batch_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/changemine/patcanon/internal/batch"
)

const fragmentOne = `digraph "fragment-1" {
	1 [label="assign", original_label="=", color="red2"];
	2 [label="var1", original_label="obj.size", color="red2"];
	3 [label="call", original_label="len", color="green4"];
	1 -> 2 [label="def"];
	2 -> 3 [label="map"];
}
`

const fragmentTwo = `digraph "fragment-2" {
	1 [label="assign", original_label="=", color="red2"];
	2 [label="var1", original_label="self.length", color="red2"];
	3 [label="call", original_label="len", color="green4"];
	1 -> 2 [label="def"];
	2 -> 3 [label="map"];
}
`

const sampleHTML = `<html><body>
<pre><code>x = obj.size</code></pre>
<pre><code>x = obj.length</code></pre>
</body></html>
`

func writePattern(t *testing.T, root, name string, withSamples bool) {
	t.Helper()

	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "fragment-1.dot"), []byte(fragmentOne), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fragment-2.dot"), []byte(fragmentTwo), 0o644))

	if withSamples {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "sample-1.html"), []byte(sampleHTML), 0o644))
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunProcessesAllPatterns(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	dest := t.TempDir()

	writePattern(t, src, "rename-size", true)
	writePattern(t, src, "rename-size-again", true)

	runner := batch.NewRunner(batch.Options{Workers: 2, Logger: discardLogger()})

	summary, err := runner.Run(context.Background(), src, dest)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 0, summary.Failed)
	require.Len(t, summary.Results, 2)

	// Results come back sorted regardless of worker completion order.
	assert.Equal(t, "rename-size", summary.Results[0].Name)
	assert.Equal(t, "rename-size-again", summary.Results[1].Name)

	for _, name := range []string{"rename-size", "rename-size-again"} {
		for _, artifact := range []string{"graph.dot", "actions.json", "pattern.yaml"} {
			_, statErr := os.Stat(filepath.Join(dest, name, artifact))
			assert.NoError(t, statErr, "%s/%s", name, artifact)
		}
	}
}

func TestRunContinuesPastFailingPattern(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	dest := t.TempDir()

	writePattern(t, src, "good", true)
	writePattern(t, src, "no-samples", false)

	runner := batch.NewRunner(batch.Options{Workers: 1, Logger: discardLogger()})

	summary, err := runner.Run(context.Background(), src, dest)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Failed)

	var failed *batch.Result

	for i := range summary.Results {
		if summary.Results[i].Name == "no-samples" {
			failed = &summary.Results[i]
		}
	}

	require.NotNil(t, failed)
	assert.Error(t, failed.Err)

	_, statErr := os.Stat(filepath.Join(dest, "no-samples"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunWritesDescriptionWhenRequested(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	dest := t.TempDir()

	writePattern(t, src, "described", true)

	runner := batch.NewRunner(batch.Options{Workers: 1, Describe: true, Logger: discardLogger()})

	_, err := runner.Run(context.Background(), src, dest)
	require.NoError(t, err)

	data, readErr := os.ReadFile(filepath.Join(dest, "described", "description.txt"))
	require.NoError(t, readErr)
	assert.Contains(t, string(data), "described")
}

func TestRunEmptySourceDir(t *testing.T) {
	t.Parallel()

	runner := batch.NewRunner(batch.Options{Logger: discardLogger()})

	_, err := runner.Run(context.Background(), t.TempDir(), t.TempDir())
	require.ErrorIs(t, err, batch.ErrNoPatterns)
}

func TestRunMissingSourceDir(t *testing.T) {
	t.Parallel()

	runner := batch.NewRunner(batch.Options{Logger: discardLogger()})

	_, err := runner.Run(context.Background(), filepath.Join(t.TempDir(), "absent"), t.TempDir())
	require.Error(t, err)
}

func TestSummaryRender(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	dest := t.TempDir()

	writePattern(t, src, "rendered", true)
	writePattern(t, src, "broken", false)

	runner := batch.NewRunner(batch.Options{Workers: 1, Logger: discardLogger()})

	summary, err := runner.Run(context.Background(), src, dest)
	require.NoError(t, err)

	var buf bytes.Buffer
	summary.Render(&buf)

	out := buf.String()
	assert.Contains(t, out, "rendered")
	assert.Contains(t, out, "broken")
	assert.Contains(t, out, "1 ok, 1 failed")
}
