// Package config loads bpmx.yaml, applies defaults and environment overrides,
// and turns the result into scan options.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mabhi256/bpmx/internal/analysis"
	"github.com/mabhi256/bpmx/internal/bindings"
	"github.com/mabhi256/bpmx/internal/extract"
	"github.com/mabhi256/bpmx/internal/walker"
)

const (
	// DefaultFile is read from the working directory when no --config is given
	DefaultFile = "bpmx.yaml"

	DefaultOutputDir = "bpmx-out"
	DefaultLogLevel  = "info"

	EnvOutputDir = "BPMX_OUTPUT_DIR"
	EnvLogLevel  = "BPMX_LOG_LEVEL"
)

type BindingsConfig struct {
	Namespaces []string `yaml:"namespaces"`
	ScanText   bool     `yaml:"scan_text"`
}

type WalkerConfig struct {
	TrimText bool `yaml:"trim_text"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
}

type Config struct {
	Scoring      analysis.Scoring    `yaml:"scoring"`
	Categories   map[string][]string `yaml:"categories"`
	TaskElements []string            `yaml:"task_elements"`
	Bindings     BindingsConfig      `yaml:"bindings"`
	Walker       WalkerConfig        `yaml:"walker"`
	Output       OutputConfig        `yaml:"output"`
	LogLevel     string              `yaml:"log_level"`
}

// DefaultCategories maps component categories to BPMN and coach element
// local names.
func DefaultCategories() map[string][]string {
	return map[string][]string{
		"coachView": {"coachView", "coachViewDefinition"},
		"task": {
			"task", "userTask", "serviceTask", "scriptTask", "manualTask",
			"sendTask", "receiveTask", "businessRuleTask",
		},
		"gateway": {
			"exclusiveGateway", "parallelGateway", "inclusiveGateway",
			"eventBasedGateway", "complexGateway",
		},
		"event": {
			"startEvent", "endEvent", "intermediateCatchEvent",
			"intermediateThrowEvent", "boundaryEvent",
		},
		"process":      {"process", "subProcess", "callActivity"},
		"flow":         {"sequenceFlow", "messageFlow"},
		"lane":         {"lane", "laneSet"},
		"data":         {"dataObject", "dataObjectReference", "dataStore", "dataStoreReference"},
		"businessData": {"variable", "businessObject", "twClass"},
	}
}

func Default() *Config {
	return &Config{
		Scoring:      analysis.DefaultScoring(),
		Categories:   DefaultCategories(),
		TaskElements: []string{"task", "callActivity"},
		Bindings:     BindingsConfig{Namespaces: []string{"tw"}},
		Output:       OutputConfig{Dir: DefaultOutputDir},
		LogLevel:     DefaultLogLevel,
	}
}

// Load reads the configuration at path. An empty path means DefaultFile,
// which may be absent; an explicit path must exist. A .env file in the
// working directory is loaded first so its values can override the file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// a categories section replaces the defaults instead of merging
		cfg.Categories = nil
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if dir := os.Getenv(EnvOutputDir); dir != "" {
		c.Output.Dir = dir
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.LogLevel = level
	}
}

func (c *Config) applyDefaults() {
	if len(c.Categories) == 0 {
		c.Categories = DefaultCategories()
	}
	if len(c.Bindings.Namespaces) == 0 {
		c.Bindings.Namespaces = []string{"tw"}
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		c.Output.Dir = DefaultOutputDir
	}
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = DefaultLogLevel
	}
}

func (c *Config) normalize() {
	for name, tags := range c.Categories {
		c.Categories[name] = trimAll(tags)
	}
	c.TaskElements = trimAll(c.TaskElements)
	c.Bindings.Namespaces = trimAll(c.Bindings.Namespaces)
	c.Output.Dir = strings.TrimSpace(c.Output.Dir)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
}

func (c *Config) validate() error {
	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	for _, name := range c.CategoryNames() {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("categories: empty category name")
		}
		if len(c.Categories[name]) == 0 {
			return fmt.Errorf("categories[%s]: at least one tag is required", name)
		}
	}
	if len(c.Bindings.Namespaces) == 0 {
		return fmt.Errorf("bindings.namespaces: at least one namespace is required")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error")
	}
	return nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// CategoryNames returns the configured categories in lexical order.
func (c *Config) CategoryNames() []string {
	names := make([]string, 0, len(c.Categories))
	for name := range c.Categories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// CategoryTags resolves a category name to its tag names. Matching is case
// insensitive.
func (c *Config) CategoryTags(category string) (string, []string, error) {
	for _, name := range c.CategoryNames() {
		if strings.EqualFold(name, category) {
			return name, c.Categories[name], nil
		}
	}
	return "", nil, fmt.Errorf("unknown category %q (available: %s)", category, strings.Join(c.CategoryNames(), ", "))
}

// ScanOptions returns the options shared by analysis and extraction scans.
func (c *Config) ScanOptions() extract.Options {
	return extract.Options{
		Categories:   c.Categories,
		TaskElements: c.TaskElements,
		Bindings:     bindings.Default(c.Bindings.Namespaces...),
		ScanText:     c.Bindings.ScanText,
		Walker:       walker.Options{TrimText: c.Walker.TrimText},
	}
}
