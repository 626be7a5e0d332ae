package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds all configurable lapse settings.
type Config struct {
	OutputDir     string   `json:"output_dir"`
	FFmpegPath    string   `json:"ffmpeg_path"`    // path or name on PATH
	Quality       string   `json:"quality"`        // "low" | "high"
	HideCursor    *bool    `json:"hide_cursor"`    // nil means unset
	DefaultFormat string   `json:"default_format"` // "text" | "json" | "yaml"
	LogLevel      string   `json:"log_level"`
	LogFormat     string   `json:"log_format"` // "text" | "json"
	ListenAddr    string   `json:"listen_addr"`
	DenyTitles    []string `json:"deny_titles"`    // extra window titles never offered
	AmbiguousApps []string `json:"ambiguous_apps"` // replaces the built-in list when set
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		OutputDir:     filepath.Join("~", "Videos", "lapse"),
		FFmpegPath:    "ffmpeg",
		Quality:       "low",
		HideCursor:    boolPtr(false),
		DefaultFormat: "text",
		LogLevel:      "warn",
		LogFormat:     "text",
		ListenAddr:    "127.0.0.1:7878",
		DenyTitles:    []string{},
	}
}

func boolPtr(b bool) *bool { return &b }

// LoadGlobal reads ~/.config/lapse/config.json.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(home, ".config", "lapse", "config.json")
	return loadFile(path, true)
}

// LoadProject reads .lapseconfig in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(".lapseconfig", false)
}

// loadFile reads and parses a JSON config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	apply(&result, global)
	apply(&result, project)
	return result
}

// apply copies every field set in src over dst.
func apply(dst, src *Config) {
	if src == nil {
		return
	}
	setString(&dst.OutputDir, src.OutputDir)
	setString(&dst.FFmpegPath, src.FFmpegPath)
	setString(&dst.Quality, src.Quality)
	setString(&dst.DefaultFormat, src.DefaultFormat)
	setString(&dst.LogLevel, src.LogLevel)
	setString(&dst.LogFormat, src.LogFormat)
	setString(&dst.ListenAddr, src.ListenAddr)
	if src.HideCursor != nil {
		dst.HideCursor = boolPtr(*src.HideCursor)
	}
	if len(src.DenyTitles) > 0 {
		dst.DenyTitles = src.DenyTitles
	}
	if len(src.AmbiguousApps) > 0 {
		dst.AmbiguousApps = src.AmbiguousApps
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// CursorHidden reports the effective hide_cursor setting.
func (c Config) CursorHidden() bool {
	return c.HideCursor != nil && *c.HideCursor
}

// ResolvedOutputDir expands a leading "~" in OutputDir to the home directory.
func (c Config) ResolvedOutputDir() string {
	return ExpandHome(c.OutputDir)
}

// ResolvedFFmpegPath expands a leading "~" in FFmpegPath. Bare names are
// left for a PATH lookup.
func (c Config) ResolvedFFmpegPath() string {
	return ExpandHome(c.FFmpegPath)
}

// ExpandHome replaces a leading "~" with the user's home directory. Paths
// without one, and paths on systems without a home directory, are returned
// unchanged.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
