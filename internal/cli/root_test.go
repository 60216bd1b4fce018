package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommands(t *testing.T) {
	root := NewRootCmd()

	for _, path := range [][]string{{"serve"}, {"migrate"}, {"tenant", "create"}} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestTenantCreate(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATABASE_URL", "sqlite://"+filepath.Join(dir, "store.db"))
	t.Setenv("PLATFORM_DATABASE_URL", "sqlite://"+filepath.Join(dir, "platform.db"))
	t.Setenv("TENANT_DIR", filepath.Join(dir, "tenants"))

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"--env", filepath.Join(dir, "missing.env"), "tenant", "create", "Acme Books", "owner@acme.test", "--subdomain", "acme"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	assert.Contains(t, out.String(), `"subdomain": "acme"`)
	assert.DirExists(t, filepath.Join(dir, "tenants"))

	out.Reset()
	root = NewRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"--env", filepath.Join(dir, "missing.env"), "migrate"})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "migrated 1 tenant databases")
}
