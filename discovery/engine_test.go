package discovery

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serviceFolder creates a folder containing empty service files.
func serviceFolder(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("package services\n"), 0o644))
	}
	return root
}

func echoService() Static {
	return Static{
		Description: "// Echo repeats things.",
		Contract: []Method{{
			Name:   "Say",
			Params: []Param{{Name: "text"}},
			Doc:    "// @param string $text\n// @return string",
		}},
	}
}

func TestEngine_Discover(t *testing.T) {
	folder := serviceFolder(t, "Echo.go", "users/Profile.go")
	reg := NewRegistry().
		RegisterService("Echo", echoService()).
		RegisterService("users/Profile", Static{Contract: []Method{{Name: "Get"}}})

	cfg := Config{Folders: []string{folder}}
	catalog, err := New(cfg, reg).Discover()
	require.NoError(t, err)

	require.Len(t, catalog, 2)
	echo := catalog["Echo"]
	assert.Equal(t, "Echo", echo.Name)
	assert.Equal(t, "// Echo repeats things.", echo.Doc)
	assert.Equal(t, "string", echo.Methods["Say"].ReturnType)
	assert.Equal(t, []ParameterDescriptor{{Name: "text", Type: "string"}}, echo.Methods["Say"].Parameters)
	assert.Contains(t, catalog["users/Profile"].Methods, "Get")
	assert.Equal(t, 2, catalog.MethodCount())
}

func TestEngine_FilterAfterBuild(t *testing.T) {
	folder := serviceFolder(t, "AdminService.go", "Echo.go")
	reg := NewRegistry().
		RegisterService("AdminService", Static{Contract: []Method{{Name: "Reset"}}}).
		RegisterService("Echo", echoService())

	e := New(Config{Folders: []string{folder}, Exclude: []string{"Admin"}}, reg)

	built, err := e.Build()
	require.NoError(t, err)
	assert.Contains(t, built, "AdminService")

	catalog, err := e.Discover()
	require.NoError(t, err)
	assert.NotContains(t, catalog, "AdminService")
	assert.Contains(t, catalog, "Echo")
}

func TestEngine_ExcludedServiceStillResolved(t *testing.T) {
	folder := serviceFolder(t, "AdminService.go", "Echo.go")
	var resolved []string
	inst := InstantiatorFunc(func(id string, folders []string, regs []Registration) (Service, error) {
		resolved = append(resolved, id)
		return Static{}, nil
	})

	_, err := New(Config{Folders: []string{folder}, Exclude: []string{"Admin"}}, inst).Discover()
	require.NoError(t, err)
	assert.Equal(t, []string{"AdminService", "Echo"}, resolved)
}

func TestEngine_ExplicitRegistrationWins(t *testing.T) {
	folder := serviceFolder(t, "Foo.go")
	calls := 0
	inst := InstantiatorFunc(func(id string, folders []string, regs []Registration) (Service, error) {
		calls++
		if calls == 1 {
			return Static{Description: "folder"}, nil
		}
		return Static{Description: "explicit"}, nil
	})

	cfg := Config{
		Folders:       []string{folder},
		Registrations: []Registration{{Name: "Foo", Type: "explicit.Foo"}},
	}
	catalog, err := New(cfg, inst).Discover()
	require.NoError(t, err)

	require.Len(t, catalog, 1)
	assert.Equal(t, "explicit", catalog["Foo"].Doc)
	assert.Equal(t, 2, calls)
}

func TestEngine_ExplicitRegistrationWinsThroughRegistry(t *testing.T) {
	folder := serviceFolder(t, "Foo.go")
	reg := NewRegistry().
		RegisterService("Foo", Static{Description: "folder"}).
		RegisterService("explicit.Foo", Static{Description: "explicit"})

	cfg := Config{
		Folders:       []string{folder},
		Registrations: []Registration{{Name: "Foo", Type: "explicit.Foo"}},
	}
	catalog, err := New(cfg, reg).Discover()
	require.NoError(t, err)

	require.Len(t, catalog, 1)
	assert.Equal(t, "explicit", catalog["Foo"].Doc)
}

func TestEngine_NilServiceFails(t *testing.T) {
	folder := serviceFolder(t, "Ghost.go")
	inst := InstantiatorFunc(func(id string, folders []string, regs []Registration) (Service, error) {
		return nil, nil
	})

	catalog, err := New(Config{Folders: []string{folder}}, inst).Discover()
	assert.Nil(t, catalog)

	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "Ghost", resErr.Identifier)
}

func TestEngine_InstantiatorReceivesConfig(t *testing.T) {
	folder := serviceFolder(t, "Echo.go")
	regs := []Registration{{Name: "Extra", Path: "/srv/extra.go", Type: "Extra"}}
	inst := InstantiatorFunc(func(id string, folders []string, got []Registration) (Service, error) {
		assert.Equal(t, []string{folder}, folders)
		assert.Equal(t, regs, got)
		return Static{}, nil
	})

	_, err := New(Config{Folders: []string{folder}, Registrations: regs}, inst).Discover()
	require.NoError(t, err)
}

func TestEngine_ResolutionFailureAborts(t *testing.T) {
	folder := serviceFolder(t, "Broken.go", "Echo.go")
	reg := NewRegistry().RegisterService("Echo", echoService())

	catalog, err := New(Config{Folders: []string{folder}}, reg).Discover()
	require.Error(t, err)
	assert.Nil(t, catalog)

	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "Broken", resErr.Identifier)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEngine_PlainErrorWrapped(t *testing.T) {
	boom := errors.New("boom")
	inst := InstantiatorFunc(func(id string, folders []string, regs []Registration) (Service, error) {
		return nil, boom
	})

	_, err := New(Config{Registrations: []Registration{{Name: "X"}}}, inst).Discover()
	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "X", resErr.Identifier)
	assert.ErrorIs(t, err, boom)
}

func TestEngine_MissingFolderSkipped(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	folder := serviceFolder(t, "Echo.go")
	missing := filepath.Join(folder, "nope")
	reg := NewRegistry().RegisterService("Echo", echoService())

	catalog, err := New(Config{Folders: []string{missing, folder}}, reg, WithLogger(logger)).Discover()
	require.NoError(t, err)
	assert.Contains(t, catalog, "Echo")
	assert.Contains(t, buf.String(), "skipping service folder")
	assert.Contains(t, buf.String(), "discovery completed")
}

func TestEngine_WithSuffix(t *testing.T) {
	folder := serviceFolder(t, "Echo.svc", "Ignored.go")
	reg := NewRegistry().RegisterService("Echo", echoService())

	catalog, err := New(Config{Folders: []string{folder}}, reg, WithSuffix(".svc")).Discover()
	require.NoError(t, err)
	assert.Len(t, catalog, 1)
	assert.Contains(t, catalog, "Echo")
}

func TestEngine_NoCaching(t *testing.T) {
	folder := serviceFolder(t, "Echo.go")
	reg := NewRegistry().
		RegisterService("Echo", echoService()).
		RegisterService("Late", Static{})
	e := New(Config{Folders: []string{folder}}, reg)

	first, err := e.Discover()
	require.NoError(t, err)
	assert.Len(t, first, 1)

	require.NoError(t, os.WriteFile(filepath.Join(folder, "Late.go"), []byte("package services\n"), 0o644))

	second, err := e.Discover()
	require.NoError(t, err)
	assert.Len(t, second, 2)
	assert.Len(t, first, 1, "earlier catalog must not change")
}

func TestFilter(t *testing.T) {
	c := Catalog{
		"AdminService":     {Name: "AdminService"},
		"users/AdminTools": {Name: "users/AdminTools"},
		"DiscoveryService": {Name: "DiscoveryService"},
		"Echo":             {Name: "Echo"},
	}
	got := Filter(c, []string{"", "Admin", "Discovery"})
	assert.Len(t, got, 1)
	assert.Contains(t, got, "Echo")
}

func TestEngine_RequiredRoles(t *testing.T) {
	e := New(Config{}, NewRegistry())
	assert.Empty(t, e.RequiredRoles("discover"))

	restricted := e.WithConfig(Config{RestrictAccess: true})
	assert.Equal(t, []string{DefaultAdminRole}, restricted.RequiredRoles("discover"))
	assert.Empty(t, e.RequiredRoles("discover"), "original engine unchanged")

	custom := e.WithConfig(Config{RestrictAccess: true, AdminRole: "ops"})
	assert.Equal(t, []string{"ops"}, custom.RequiredRoles("discover"))
}
