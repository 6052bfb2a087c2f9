package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mabhi256/bpmx/internal/analysis"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bpmx.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.TrimSpace(body)), 0644))
	return path
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvOutputDir, "")
	t.Setenv(EnvLogLevel, "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, analysis.DefaultScoring(), cfg.Scoring)
	assert.Equal(t, DefaultOutputDir, cfg.Output.Dir)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, []string{"tw"}, cfg.Bindings.Namespaces)
	assert.Contains(t, cfg.CategoryNames(), "coachView")
}

func TestLoadExplicitPathMustExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read")
}

func TestLoadParsesYaml(t *testing.T) {
	t.Setenv(EnvOutputDir, "")
	t.Setenv(EnvLogLevel, "")
	path := writeConfig(t, `
scoring:
  weights:
    elements: 0.5
    depth: 1
    bindings: 2
    tasks: 4
  thresholds:
    moderate: 10
    complex: 20
    very_complex: 40
categories:
  views: [" coachView ", "coachView", "view"]
task_elements: [step]
bindings:
  namespaces: [tw, bpm]
  scan_text: true
walker:
  trim_text: true
output:
  dir: out
log_level: DEBUG
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4.0, cfg.Scoring.Weights.Tasks)
	assert.Equal(t, 40.0, cfg.Scoring.Thresholds.VeryComplex)
	assert.Equal(t, map[string][]string{"views": {"coachView", "view"}}, cfg.Categories)
	assert.Equal(t, []string{"step"}, cfg.TaskElements)
	assert.True(t, cfg.Bindings.ScanText)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, "debug", cfg.LogLevel)

	opts := cfg.ScanOptions()
	assert.True(t, opts.ScanText)
	assert.True(t, opts.Walker.TrimText)
	assert.Len(t, opts.Bindings.Extract("tw.local.a.b and bpm.env.x.y"), 2)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"negative weight", "scoring:\n  weights:\n    depth: -2", "weight depth"},
		{"unordered thresholds", "scoring:\n  thresholds:\n    moderate: 50\n    complex: 10\n    very_complex: 90", "ascending"},
		{"empty category", "categories:\n  views: []", "categories[views]"},
		{"bad log level", "log_level: loud", "log_level"},
		{"bad yaml", "scoring: [", "config: parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvLogLevel, "")
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvOutputDir, "/tmp/elsewhere")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load(writeConfig(t, "output:\n  dir: out"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/elsewhere", cfg.Output.Dir)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestCategoryTags(t *testing.T) {
	cfg := Default()

	name, tags, err := cfg.CategoryTags("COACHVIEW")
	require.NoError(t, err)
	assert.Equal(t, "coachView", name)
	assert.Contains(t, tags, "coachView")

	_, _, err = cfg.CategoryTags("widget")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available: businessData, coachView")
}
