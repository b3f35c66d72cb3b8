package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFragment = `digraph "fragment-1" {
	1 [label="assign", original_label="=", color="red2"];
	2 [label="var1", original_label="obj.size", color="red2"];
	3 [label="call", original_label="len", color="green4"];
	1 -> 2 [label="def"];
	2 -> 3 [label="map"];
}
`

const testSample = `<html><body>
<pre><code>x = obj.size</code></pre>
<pre><code>x = obj.length</code></pre>
</body></html>
`

func writeTestPattern(t *testing.T, root, name string) {
	t.Helper()

	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fragment-1.dot"), []byte(testFragment), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sample-1.html"), []byte(testSample), 0o644))
}

func TestCanonizeCommand_EndToEnd(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()

	writeTestPattern(t, src, "rename-size")

	var out bytes.Buffer

	cmd := newCanonizeCommand(&out, strings.NewReader(""))
	cmd.SetArgs([]string{src, dest, "--workers", "1"})

	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "rename-size")

	_, err := os.Stat(filepath.Join(dest, "rename-size", "graph.dot"))
	assert.NoError(t, err)
}

func TestCanonizeCommand_ManualClassification(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()

	writeTestPattern(t, src, "manual-pattern")

	var out bytes.Buffer

	// One variable vertex needs one directive.
	cmd := newCanonizeCommand(&out, strings.NewReader("e\n"))
	cmd.SetArgs([]string{src, dest, "--manual"})

	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "variable vertex")
	assert.Contains(t, out.String(), "manual-pattern")
}

func TestCanonizeCommand_DescribeFlag(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()

	writeTestPattern(t, src, "described")

	cmd := newCanonizeCommand(&bytes.Buffer{}, strings.NewReader(""))
	cmd.SetArgs([]string{src, dest, "--describe"})

	require.NoError(t, cmd.Execute())

	_, err := os.Stat(filepath.Join(dest, "described", "description.txt"))
	assert.NoError(t, err)
}

func TestCanonizeCommand_MissingSourceDir(t *testing.T) {
	cmd := newCanonizeCommand(&bytes.Buffer{}, strings.NewReader(""))
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "absent"), t.TempDir()})

	require.Error(t, cmd.Execute())
}

func TestCanonizeCommand_ConfigFileOverride(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()

	writeTestPattern(t, src, "configured")

	cfgPath := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("pipeline:\n  describe: true\n"), 0o600))

	cmd := newCanonizeCommand(&bytes.Buffer{}, strings.NewReader(""))
	cmd.SetArgs([]string{src, dest, "--config", cfgPath})

	require.NoError(t, cmd.Execute())

	_, err := os.Stat(filepath.Join(dest, "configured", "description.txt"))
	assert.NoError(t, err)
}
