package sink

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
	}{
		{"catalog.json", false},
		{"out/catalog.json", false},
		{"", true},
		{"/etc/passwd", true},
		{"../catalog.json", true},
		{"..", true},
		{"out/../../x", true},
		{"./catalog.json", true},
		{"out//catalog.json", true},
		{`out\catalog.json`, true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDir_WriteFile(t *testing.T) {
	root := t.TempDir()
	d := Dir{Root: root}

	require.NoError(t, d.WriteFile(context.Background(), "nested/catalog.json", []byte("one")))
	require.NoError(t, d.WriteFile(context.Background(), "nested/catalog.json", []byte("two")))

	data, err := os.ReadFile(filepath.Join(root, "nested", "catalog.json"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(filepath.Join(root, "nested"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files should not be left behind")

	info, err := os.Stat(filepath.Join(root, "nested", "catalog.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestDir_WriteFile_Invalid(t *testing.T) {
	d := Dir{Root: t.TempDir()}
	assert.Error(t, d.WriteFile(context.Background(), "../escape.json", nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, d.WriteFile(ctx, "catalog.json", nil), context.Canceled)
}

func TestWriteJSON(t *testing.T) {
	var m Memory
	require.NoError(t, WriteJSON(context.Background(), &m, "catalog.json", map[string]int{"a": 1}))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", string(m.Get("catalog.json")))
	assert.Nil(t, m.Get("missing.json"))
}
