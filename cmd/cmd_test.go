package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pfpharvest/pkg/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		configFile = ""
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestConfigInitShowValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.APIKeyEnv, "abcdefghijklmnop")
	path := filepath.Join(t.TempDir(), "pfpharvest.yaml")

	_, err := execute(t, "config", "init", "--config", path, "--no-color")
	require.NoError(t, err)
	assert.FileExists(t, path)

	_, err = execute(t, "config", "init", "--config", path)
	assert.ErrorContains(t, err, "already exists")

	out, err := execute(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "abcd...mnop")
	assert.NotContains(t, out, "abcdefghijklmnop")
	assert.Contains(t, out, "gateway.pinata.cloud")

	out, err = execute(t, "config", "validate", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Sample size: 200")
	assert.Contains(t, out, "Gateways: 13")
}

func TestConfigValidateRejectsBadFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sampling:\n  size: -1\n"), 0644))

	_, err := execute(t, "config", "validate", "--config", path)
	assert.ErrorContains(t, err, "configuration validation failed")
}

func TestAPIKeyGuide(t *testing.T) {
	out, err := execute(t, "apikey", "guide")
	require.NoError(t, err)
	assert.Contains(t, out, config.APIKeyEnv)
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range Root().Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["run"])
	assert.True(t, names["config"])
	assert.True(t, names["apikey"])
}

func TestReadLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"newline terminated", "key-123\n", "key-123"},
		{"no trailing newline", "key-456", "key-456"},
		{"surrounding space", "  key-789  \r\n", "key-789"},
		{"first line only", "key-a\nkey-b\n", "key-a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readLine(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadLineEmptyInput(t *testing.T) {
	_, err := readLine(strings.NewReader(""))
	assert.ErrorIs(t, err, io.EOF)
}
