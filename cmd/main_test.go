package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTiersCommandPrintsOverrides(t *testing.T) {
	dir := t.TempDir()
	tierPath := filepath.Join(dir, "tiers.yaml")
	require.NoError(t, os.WriteFile(tierPath, []byte("tiers:\n  role-create:\n    - name: burst\n      window: 5s\n      trigger: 3\n"), 0o644))
	cfgPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"detection":{"threshold_file":"`+tierPath+`"}}`), 0o644))

	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"tiers", "--config", cfgPath})
	require.NoError(t, root.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Contains(t, lines, "role-create:burst (>3 in 5s)")
	assert.Contains(t, lines, "message-flood:burst (>4 in 3s)")
	assert.NotContains(t, lines, "role-create:sustained (>5 in 30s)")
}

func TestRunRejectsMissingToken(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	cfgPath := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{}`), 0o644))

	root := newRootCommand()
	root.SetArgs([]string{"--config", cfgPath})
	root.SetErr(&bytes.Buffer{})
	assert.Error(t, root.Execute())
}
