// Package profile manages the user's persistent lapse profile.
// The profile is stored at ~/.config/lapse/profile.json and is created
// once via the interactive setup flow, then referenced on every command.
package profile

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Profile holds user-level preferences set during first-run setup.
type Profile struct {
	OutputDir     string `json:"output_dir"`     // where captures are written
	Quality       string `json:"quality"`        // "low" | "high"
	FFmpegPath    string `json:"ffmpeg_path"`    // encoder binary
	HideCursor    bool   `json:"hide_cursor"`    // keep the pointer out of frames
	DefaultFormat string `json:"default_format"` // "text" | "json" | "yaml"
}

// profilePath returns the path to the profile file.
func profilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "profile.json"), nil
}

// ConfigDir returns the lapse config directory.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "lapse"), nil
}

// Exists reports whether a profile file is present on disk.
func Exists() bool {
	p, err := profilePath()
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Load reads the profile from disk. Returns an error if the file is missing or malformed.
func Load() (*Profile, error) {
	p, err := profilePath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("profile not found, run 'lapse setup' to configure: %w", err)
	}
	var prof Profile
	if err := json.Unmarshal(data, &prof); err != nil {
		return nil, fmt.Errorf("malformed profile at %s: %w", p, err)
	}
	return &prof, nil
}

// Save writes the profile to disk, creating the config directory if needed.
func Save(prof *Profile) error {
	p, err := profilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(prof, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// Defaults returns the answers offered on a first run.
func Defaults() Profile {
	return Profile{
		OutputDir:     filepath.Join("~", "Videos", "lapse"),
		Quality:       "low",
		FFmpegPath:    "ffmpeg",
		DefaultFormat: "text",
	}
}

// RunSetup runs the interactive setup wizard, reading answers from in and
// writing prompts to out. If existing is non-nil, it is used as the default
// for each prompt (edit mode). check, when non-nil, validates the encoder
// path; a failure is reported but does not abort setup.
func RunSetup(existing *Profile, in io.Reader, out io.Writer, check func(ffmpeg string) error) (*Profile, error) {
	r := bufio.NewReader(in)

	ask := func(prompt, defaultVal string) (string, error) {
		if defaultVal != "" {
			fmt.Fprintf(out, "%s [%s]: ", prompt, defaultVal)
		} else {
			fmt.Fprintf(out, "%s: ", prompt)
		}
		line, err := r.ReadString('\n')
		if err != nil && !(err == io.EOF && line != "") {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	askBool := func(prompt string, defaultVal bool) (bool, error) {
		def := "n"
		if defaultVal {
			def = "y"
		}
		ans, err := ask(prompt+" (y/n)", def)
		if err != nil {
			return false, err
		}
		return strings.ToLower(ans) == "y" || strings.ToLower(ans) == "yes", nil
	}

	prof := Defaults()
	if existing != nil {
		prof = *existing
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "  ┌─────────────────────────────────┐")
	fmt.Fprintln(out, "  │     lapse, first-time setup     │")
	fmt.Fprintln(out, "  └─────────────────────────────────┘")
	fmt.Fprintln(out)

	var err error

	prof.OutputDir, err = ask("  Where should recordings be saved", prof.OutputDir)
	if err != nil {
		return nil, err
	}

	quality, err := ask("  Recording quality (low/high)", prof.Quality)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(quality, "high") {
		prof.Quality = "high"
	} else {
		prof.Quality = "low"
	}

	prof.FFmpegPath, err = ask("  ffmpeg binary", prof.FFmpegPath)
	if err != nil {
		return nil, err
	}
	if check != nil {
		if err := check(prof.FFmpegPath); err != nil {
			fmt.Fprintf(out, "  ⚠ %v\n", err)
			fmt.Fprintln(out, "    Install ffmpeg or re-run 'lapse setup' with its full path.")
		}
	}

	prof.HideCursor, err = askBool("  Hide the mouse cursor in recordings", prof.HideCursor)
	if err != nil {
		return nil, err
	}

	format, err := ask("  Default output format (text/json/yaml)", prof.DefaultFormat)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(format) {
	case "json", "yaml":
		prof.DefaultFormat = strings.ToLower(format)
	default:
		prof.DefaultFormat = "text"
	}

	fmt.Fprintln(out)
	return &prof, nil
}
