// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// PlaceholderAPIKey is the API key written into a fresh config. It is
// never a valid credential.
const PlaceholderAPIKey = "sk-your-apikey"

// ErrCredentialMissing reports an empty or placeholder API key.
var ErrCredentialMissing = errors.New("API key is not configured")

// Config holds the launch parameters of the supervised process.
type Config struct {
	// BaseURL is the model endpoint the agent talks to.
	BaseURL string `yaml:"base_url" json:"base_url"`

	// Model is the model identifier passed through to the agent.
	Model string `yaml:"model" json:"model"`

	// APIKey is the endpoint credential.
	APIKey string `yaml:"api_key" json:"api_key"`

	// MaxSteps is the agent's step budget. Empty omits --max-steps.
	MaxSteps string `yaml:"max_steps" json:"max_steps"`

	// DeviceID selects the adb device. Empty means auto-detect.
	DeviceID string `yaml:"device_id" json:"device_id"`

	// Lang is the agent's language tag. Empty omits --lang.
	Lang string `yaml:"lang" json:"lang"`

	// Python is the interpreter used to launch the agent.
	Python string `yaml:"python" json:"python"`

	// Entry is the agent's entry script, relative to the work dir.
	Entry string `yaml:"entry" json:"entry"`
}

// Default returns the configuration used when no file exists yet.
func Default() *Config {
	return &Config{
		BaseURL:  "http://localhost:8000/v1",
		Model:    "autoglm-phone-9b",
		APIKey:   PlaceholderAPIKey,
		MaxSteps: "100",
		Lang:     "cn",
		Python:   "python",
		Entry:    "main.py",
	}
}

// Load reads the config file at paths.ConfigFile. A missing file is
// not an error: the defaults are returned instead.
func Load(paths Paths) (*Config, error) {
	cfg, err := LoadFile(paths.ConfigFile)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// LoadFile loads configuration from a specific file path. Fields absent
// from the file keep their default values.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}

// Write saves cfg to path as YAML. The file is written to a temporary
// sibling and renamed into place with mode 0600, because it holds the
// API key.
func Write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	temporaryPath := path + ".tmp"
	if err := os.WriteFile(temporaryPath, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", temporaryPath, err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming %s: %w", temporaryPath, err)
	}
	return nil
}

func (c *Config) normalize() {
	c.BaseURL = strings.TrimSpace(c.BaseURL)
	c.Model = strings.TrimSpace(c.Model)
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.MaxSteps = strings.TrimSpace(c.MaxSteps)
	c.DeviceID = strings.TrimSpace(c.DeviceID)
	c.Lang = strings.TrimSpace(c.Lang)
	if c.Python == "" {
		c.Python = "python"
	}
	if c.Entry == "" {
		c.Entry = "main.py"
	}
}

// Validate checks that the configuration can launch the agent. The
// only hard requirement is a real credential.
func (c *Config) Validate() error {
	if c.APIKey == "" || c.APIKey == PlaceholderAPIKey {
		return ErrCredentialMissing
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	return nil
}

// Args returns the agent's command line: interpreter, entry script,
// and flags. Optional settings that are empty are omitted entirely.
func (c *Config) Args() []string {
	args := []string{
		c.Python,
		c.Entry,
		"--base-url", c.BaseURL,
		"--model", c.Model,
		"--apikey", c.APIKey,
	}
	if deviceID := strings.TrimSpace(c.DeviceID); deviceID != "" {
		args = append(args, "--device-id", deviceID)
	}
	if maxSteps := strings.TrimSpace(c.MaxSteps); maxSteps != "" {
		args = append(args, "--max-steps", maxSteps)
	}
	if lang := strings.TrimSpace(c.Lang); lang != "" {
		args = append(args, "--lang", lang)
	}
	return args
}

// Public returns a copy safe to display: the API key is masked down to
// its first and last four characters.
func (c *Config) Public() Config {
	public := *c
	public.APIKey = MaskKey(c.APIKey)
	return public
}

// MaskKey masks all but the edges of a credential.
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

// Set assigns one field by its YAML name. Used by "config set".
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "base_url":
		c.BaseURL = value
	case "model":
		c.Model = value
	case "api_key":
		if value == "" {
			return fmt.Errorf("api_key cannot be empty")
		}
		c.APIKey = value
	case "max_steps":
		c.MaxSteps = value
	case "device_id":
		c.DeviceID = value
	case "lang":
		c.Lang = value
	case "python":
		c.Python = value
	case "entry":
		c.Entry = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	c.normalize()
	return nil
}
