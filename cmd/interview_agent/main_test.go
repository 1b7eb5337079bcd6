package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-coach/internal/config"
)

// withViper swaps the package viper and config flag for one test.
func withViper(t *testing.T, file string) {
	t.Helper()
	prevV, prevFile := v, cfgFile
	v, cfgFile = viper.New(), file
	config.Defaults(v)
	t.Cleanup(func() { v, cfgFile = prevV, prevFile })
	initConfig()
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATABASE_URL", "INTERVIEW_DATABASE_URL",
		"REDIS_URL", "INTERVIEW_REDIS_URL",
		"GOOGLE_API_KEY", "GEMINI_API_KEY", "INTERVIEW_LLM_API_KEY",
	} {
		t.Setenv(key, "")
	}
}

func TestReadConfig_DefaultFileMissingIsFine(t *testing.T) {
	t.Chdir(t.TempDir())
	withViper(t, "")

	assert.NoError(t, readConfig())
}

func TestReadConfig_ExplicitFileMissing(t *testing.T) {
	withViper(t, filepath.Join(t.TempDir(), "nope.yaml"))

	assert.ErrorContains(t, readConfig(), "failed to read config")
}

func TestLoadDatabaseConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  url: postgres://localhost/interviews\n"), 0o600))
	clearEnv(t)
	withViper(t, path)

	cfg, err := loadDatabaseConfig()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/interviews", cfg.Database.URL)

	// the full load also needs redis and an api key
	_, err = loadConfig()
	assert.ErrorContains(t, err, "config error")
}

func TestLoadDatabaseConfig_RequiresURL(t *testing.T) {
	t.Chdir(t.TempDir())
	clearEnv(t)
	withViper(t, "")

	_, err := loadDatabaseConfig()
	assert.ErrorContains(t, err, "database url is required")
}

func TestRootCommand_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "playbooks", "sessions", "check"} {
		assert.True(t, names[want], "missing %s command", want)
	}
}
