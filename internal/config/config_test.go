package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupagg/internal/aggregate"
	apperrors "groupagg/internal/errors"
	"groupagg/internal/loader"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.validate())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 1048576, cfg.Server.MaxHeaderBytes)
	assert.True(t, cfg.Server.RateLimit.Enabled)
	assert.Equal(t, "appearance", cfg.Aggregation.Ordering)
	assert.True(t, cfg.Loader.StringsAsFactors)
	assert.Equal(t, "sorted", cfg.Loader.LevelOrder)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "groupagg", cfg.Telemetry.ServiceName)
}

func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		env         map[string]string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults without file or env",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, Default(), cfg)
			},
		},
		{
			name: "file overrides defaults and keeps absent keys",
			file: `
server:
  port: 9090
aggregation:
  workers: 4
  ordering: sorted
loader:
  level_order: appearance
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 4, cfg.Aggregation.Workers)
				assert.Equal(t, "sorted", cfg.Aggregation.Ordering)
				assert.Equal(t, "appearance", cfg.Loader.LevelOrder)
				assert.True(t, cfg.Loader.StringsAsFactors)
			},
		},
		{
			name: "env overrides file",
			file: `
server:
  port: 9090
logging:
  level: warn
`,
			env: map[string]string{
				"GROUPAGG_SERVER_PORT":           "7070",
				"GROUPAGG_AGGREGATION_WORKERS":   "2",
				"GROUPAGG_AGGREGATION_TIMEOUT":   "5s",
				"GROUPAGG_LOADER_NA_STRINGS":     "NA,-",
				"GROUPAGG_SERVER_RATE_LIMIT_RPS": "10",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, "warn", cfg.Logging.Level)
				assert.Equal(t, 2, cfg.Aggregation.Workers)
				assert.Equal(t, 5*time.Second, cfg.Aggregation.Timeout)
				assert.Equal(t, []string{"NA", "-"}, cfg.Loader.NAStrings)
				assert.Equal(t, 10.0, cfg.Server.RateLimit.RPS)
			},
		},
		{
			name:    "invalid yaml",
			file:    "server: [",
			wantErr: true,
		},
		{
			name:    "invalid port",
			env:     map[string]string{"GROUPAGG_SERVER_PORT": "70000"},
			wantErr: true,
		},
		{
			name:    "negative workers",
			file:    "aggregation:\n  workers: -1\n",
			wantErr: true,
		},
		{
			name:    "unknown ordering",
			env:     map[string]string{"GROUPAGG_AGGREGATION_ORDERING": "alphabetical"},
			wantErr: true,
		},
		{
			name:    "unknown level order",
			env:     map[string]string{"GROUPAGG_LOADER_LEVEL_ORDER": "random"},
			wantErr: true,
		},
		{
			name:    "unparseable env value",
			env:     map[string]string{"GROUPAGG_AGGREGATION_WORKERS": "many"},
			wantErr: true,
		},
		{
			name:    "bad sample rate",
			env:     map[string]string{"GROUPAGG_TELEMETRY_SAMPLE_RATE": "1.5"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeConfigFile(t, tt.file)
			}

			cfg, err := LoadFrom(path)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoad_ConfigEnvVariable(t *testing.T) {
	path := writeConfigFile(t, "server:\n  port: 8181\n")
	t.Setenv("GROUPAGG_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8181, cfg.Server.Port)

	t.Setenv("GROUPAGG_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = Load()
	assert.Error(t, err)
}

func TestAggregatorConfig(t *testing.T) {
	got, err := AggregationConfig{Workers: 3, Ordering: "levels"}.AggregatorConfig()
	require.NoError(t, err)
	assert.Equal(t, aggregate.Config{Workers: 3, Ordering: aggregate.OrderLevels}, got)
}

func TestLoaderOptions(t *testing.T) {
	tests := []struct {
		delimiter string
		want      rune
		wantErr   bool
	}{
		{"", ',', false},
		{";", ';', false},
		{`\t`, '\t', false},
		{"tab", '\t', false},
		{"::", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.delimiter, func(t *testing.T) {
			opts, err := LoaderConfig{Delimiter: tt.delimiter, StringsAsFactors: true}.Options()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, opts.Delimiter)
			assert.True(t, opts.StringsAsFactors)
			assert.Equal(t, loader.LevelsSorted, opts.LevelOrder)
		})
	}
}
