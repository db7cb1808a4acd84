package catalog

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/broady/gateway/discovery"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	folder, err := filepath.Abs("../../../../discovery/source/testdata/extra")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "gateway.yaml")
	content := "folders:\n  - " + folder + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestCatalog_Stdout(t *testing.T) {
	var out bytes.Buffer
	cmd := &Cmd{Config: writeConfig(t), stdout: &out}
	require.NoError(t, cmd.Run(discardLogger()))

	var catalog discovery.Catalog
	require.NoError(t, json.Unmarshal(out.Bytes(), &catalog))
	require.Contains(t, catalog, "greeter")
	assert.Contains(t, catalog["greeter"].Methods, "Hello")
	assert.NotContains(t, catalog, "DiscoveryService")
}

func TestCatalog_OutputDir(t *testing.T) {
	dir := t.TempDir()
	cmd := &Cmd{Config: writeConfig(t), Out: dir}
	require.NoError(t, cmd.Run(discardLogger()))

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Hello"`)
}

func TestCatalog_BadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bogus: true\n"), 0o644))

	err := (&Cmd{Config: path, stdout: &bytes.Buffer{}}).Run(discardLogger())
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	var out bytes.Buffer
	cmd := &Check{Config: writeConfig(t), stdout: &out}
	require.NoError(t, cmd.Run(discardLogger()))

	assert.Contains(t, out.String(), "✓ greeter (1 methods)")
	assert.Contains(t, out.String(), "✓ 1 services, 1 methods")
}
