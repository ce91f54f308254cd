package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/app"
)

func run(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestVersion(t *testing.T) {
	t.Parallel()

	want := "ghl-mcp version " + app.BuildVersion + "\n"
	require.Equal(t, want, run(t, "version"))
	require.Equal(t, want, run(t, "--version"))
}

func TestCommandTree(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	for _, name := range []string{"serve", "migrate", "sweep", "version"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		require.Equal(t, name, cmd.Name())
	}
	require.NotNil(t, root.RunE, "bare invocation serves")
}

func TestMigrateAndSweepCommands(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("DATABASE_FILE", filepath.Join(t.TempDir(), "oauth.db"))
	t.Setenv("LOG_LEVEL", "error")

	require.Equal(t, "sqlite store is up to date\n", run(t, "migrate"))
	require.Equal(t, "deleted 0 authorization codes, 0 access tokens\n", run(t, "sweep"))
}
