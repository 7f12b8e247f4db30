//go:build integration

package integration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-harvester/internal/platform/config"
)

// inRepoRoot runs the test from the module root so configs/ resolves.
func inRepoRoot(t *testing.T) {
	t.Helper()
	t.Chdir("../..")
}

// TestConfig_Profiles verifies every shipped profile loads and validates.
func TestConfig_Profiles(t *testing.T) {
	tests := []struct {
		profile string
		check   func(t *testing.T, cfg *config.Config)
	}{
		{
			profile: "",
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "quote-harvester", cfg.App.Name)
				assert.Equal(t, "https://thequoteshub.com", cfg.Source.BaseURL)
				assert.Equal(t, []string{"daily", "motivational", "love", "happiness", "positive", "strength"}, cfg.Harvest.Categories)
				assert.Equal(t, 900*time.Millisecond, cfg.Harvest.InterRequestDelay)
				assert.Equal(t, "daily-quotes", cfg.Output.Dir)
			},
		},
		{
			profile: "local",
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "pretty", cfg.Log.Format)
				assert.Equal(t, "debug", cfg.Log.Level)
				assert.Equal(t, time.Second, cfg.Harvest.InterRequestDelay)
				assert.Equal(t, config.PolicySequential, cfg.Harvest.SamplingPolicy)
			},
		},
		{
			profile: "prod",
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "prod", cfg.App.Environment)
				assert.Equal(t, config.PolicyRandomized, cfg.Harvest.SamplingPolicy)
				assert.Equal(t, 2, cfg.Harvest.Concurrency)
				assert.True(t, cfg.Output.SQLite.Enabled)
				assert.Equal(t, "daily-quotes/archive.db", cfg.Output.SQLite.Path)
				assert.True(t, cfg.Log.File.Enabled)
			},
		},
	}

	for _, tt := range tests {
		t.Run("profile "+tt.profile, func(t *testing.T) {
			inRepoRoot(t)

			cfg, err := config.Load(tt.profile)
			require.NoError(t, err)
			require.NoError(t, cfg.Validate())

			tt.check(t, cfg)
		})
	}
}

// TestConfig_EnvironmentOverridesProfile verifies APP_ variables win over files.
func TestConfig_EnvironmentOverridesProfile(t *testing.T) {
	inRepoRoot(t)

	t.Setenv("APP_HARVEST_CATEGORIES", "love, life ,,strength")
	t.Setenv("APP_HARVEST_SAMPLING_POLICY", "randomized")
	t.Setenv("APP_HARVEST_INTER_REQUEST_DELAY", "0s")
	t.Setenv("APP_OUTPUT_SQLITE_ENABLED", "false")

	cfg, err := config.Load("prod")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"love", "life", "strength"}, cfg.Harvest.Categories)
	assert.Equal(t, config.PolicyRandomized, cfg.Harvest.SamplingPolicy)
	assert.Zero(t, cfg.Harvest.InterRequestDelay)
	assert.False(t, cfg.Output.SQLite.Enabled)
}

// TestConfig_InvalidOverrides verifies bad overrides fail validation with
// the offending field named.
func TestConfig_InvalidOverrides(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "unknown policy", env: map[string]string{"APP_HARVEST_SAMPLING_POLICY": "shuffled"}, wantErr: "harvest.samplingpolicy"},
		{name: "duplicate categories", env: map[string]string{"APP_HARVEST_CATEGORIES": "love,love"}, wantErr: "harvest.categories"},
		{name: "path without placeholder", env: map[string]string{"APP_SOURCE_PATH_TEMPLATE": "/quotes"}, wantErr: "source.pathtemplate"},
		{name: "zero page size", env: map[string]string{"APP_HARVEST_PAGE_SIZE": "0"}, wantErr: "harvest.pagesize"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inRepoRoot(t)

			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := config.Load("")
			require.NoError(t, err)

			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
