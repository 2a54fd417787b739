package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration.
type Config struct {
	// SandboxRoot is the directory containing the sandbox folders.
	// Relative paths are resolved against the base directory.
	SandboxRoot string `json:"sandbox_root,omitempty"`

	// Folders is the fixed set of sandbox folder names. Every user-reachable
	// file path resolves under exactly one of these; the first is the
	// default for bare filenames.
	Folders []string `json:"folders,omitempty"`

	// Aliases maps short or voice-transcribed tokens to canonical folder
	// names. Lookup is case- and whitespace-insensitive.
	Aliases map[string]string `json:"aliases,omitempty"`

	// Model is the model name passed to the local inference server.
	Model string `json:"model,omitempty"`

	// ModelBaseURL is the OpenAI-compatible endpoint of the inference
	// server (ollama exposes one at /v1).
	ModelBaseURL string `json:"model_base_url,omitempty"`

	// ModelTimeoutSeconds bounds the synchronous model call. On expiry the
	// pipeline falls back to the rule-based parser instead of retrying.
	ModelTimeoutSeconds int `json:"model_timeout_seconds,omitempty"`

	// SpeechOutput enables spoken responses via the platform speech command.
	SpeechOutput bool `json:"speech_output,omitempty"`

	// MaxFileSizeMB limits file content accepted by the file executor.
	MaxFileSizeMB int `json:"max_file_size_mb,omitempty"`

	// Debug enables verbose logging to the log file.
	Debug bool `json:"debug,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		SandboxRoot: "AutoBox",
		Folders:     []string{"AB1", "AB2", "AB3"},
		Aliases: map[string]string{
			"ab1": "AB1", "a1": "AB1", "av1": "AB1",
			"ab2": "AB2", "a2": "AB2", "av2": "AB2",
			"ab3": "AB3", "a3": "AB3", "av3": "AB3",
		},
		Model:               "gemma3:1b",
		ModelBaseURL:        "http://localhost:11434/v1",
		ModelTimeoutSeconds: 15,
		MaxFileSizeMB:       10,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.autobox.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; the folder list and alias map
// are replaced wholesale when the overlay provides them, since partial
// folder sets would break alias resolution.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.SandboxRoot = overlay.SandboxRoot
	if result.SandboxRoot == "" {
		result.SandboxRoot = base.SandboxRoot
	}

	result.Model = overlay.Model
	if result.Model == "" {
		result.Model = base.Model
	}

	result.ModelBaseURL = overlay.ModelBaseURL
	if result.ModelBaseURL == "" {
		result.ModelBaseURL = base.ModelBaseURL
	}

	result.ModelTimeoutSeconds = overlay.ModelTimeoutSeconds
	if result.ModelTimeoutSeconds == 0 {
		result.ModelTimeoutSeconds = base.ModelTimeoutSeconds
	}

	result.MaxFileSizeMB = overlay.MaxFileSizeMB
	if result.MaxFileSizeMB == 0 {
		result.MaxFileSizeMB = base.MaxFileSizeMB
	}

	result.SpeechOutput = base.SpeechOutput || overlay.SpeechOutput
	result.Debug = base.Debug || overlay.Debug

	result.Folders = cleanStringSlice(overlay.Folders)
	if len(result.Folders) == 0 {
		result.Folders = cleanStringSlice(base.Folders)
	}

	result.Aliases = overlay.Aliases
	if len(result.Aliases) == 0 {
		result.Aliases = base.Aliases
	}

	return result
}

// cleanStringSlice trims whitespace and removes empty entries and duplicates.
func cleanStringSlice(in []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

// BaseDir returns the assistant's base directory (~/.autobox).
func BaseDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".autobox"), nil
}
