package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCheckConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 9400
grpc_port: 50061
ingestion:
  sources:
    - id: instagram
    - id: tiktok
      enabled: false
storage:
  db_type: sqlite
  db_path: pulse.db
`), 0644))

	out, err := runRoot(t, "check-config", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "config ok")
	assert.Contains(t, out, "0.0.0.0:9400")
	assert.Contains(t, out, "127.0.0.1:50061")
	assert.Contains(t, out, "2 configured, 1 enabled")
	assert.Contains(t, out, "journal:    sqlite")
}

func TestCheckConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 80\n"), 0644))

	_, err := runRoot(t, "check-config", "--config", path)
	assert.Error(t, err)
}
