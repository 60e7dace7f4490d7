package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Catalog contains connection settings and tag identifiers for the
// shared catalog service that coordinates claims across nodes.
type Catalog struct {
	URL            string `toml:"url"`
	APIKey         string `toml:"api_key"`
	RequestTimeout int    `toml:"request_timeout"`

	// Tag identifiers used for the advisory claim protocol and for
	// marking failed items.
	ProcessingTagID int64 `toml:"processing_tag_id"`
	HashErrorTagID  int64 `toml:"hash_error_tag_id"`
	CoverErrorTagID int64 `toml:"cover_error_tag_id"`
}

// Paths contains output, scratch, and log directories.
type Paths struct {
	SpriteDir  string `toml:"sprite_dir"`
	PreviewDir string `toml:"preview_dir"`
	ScratchDir string `toml:"scratch_dir"`
	LogDir     string `toml:"log_dir"`
}

// Tools contains the external binaries the pipelines shell out to.
type Tools struct {
	FFmpeg      string `toml:"ffmpeg"`
	FFprobe     string `toml:"ffprobe"`
	VideoHashes string `toml:"videohashes"`
}

// Translation rewrites one catalog path prefix to a local mount prefix.
type Translation struct {
	CatalogPrefix string `toml:"catalog_prefix"`
	LocalPrefix   string `toml:"local_prefix"`
}

// Batch contains orchestration settings for one processing run.
type Batch struct {
	PageSize           int `toml:"page_size"`
	Workers            int `toml:"workers"`
	ItemTimeoutSeconds int `toml:"item_timeout_seconds"`
	PauseSeconds       int `toml:"pause_seconds"`
}

// Sprite contains thumbnail sprite sheet settings.
type Sprite struct {
	Enabled    bool `toml:"enabled"`
	Shots      int  `toml:"shots"`
	Columns    int  `toml:"columns"`
	Rows       int  `toml:"rows"`
	TileWidth  int  `toml:"tile_width"`
	TileHeight int  `toml:"tile_height"`
}

// Preview contains preview video settings.
type Preview struct {
	Enabled     bool    `toml:"enabled"`
	Clips       int     `toml:"clips"`
	ClipLength  float64 `toml:"clip_length"`
	SkipSeconds float64 `toml:"skip_seconds"`
	Width       int     `toml:"width"`
	Height      int     `toml:"height"`
}

// HWAccel controls hardware-accelerated transcoding.
// Mode is one of "auto", "on", or "off".
type HWAccel struct {
	Mode   string `toml:"mode"`
	Device string `toml:"device"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for filmstrip.
type Config struct {
	Catalog      Catalog       `toml:"catalog"`
	Paths        Paths         `toml:"paths"`
	Tools        Tools         `toml:"tools"`
	Translations []Translation `toml:"translations"`
	Batch        Batch         `toml:"batch"`
	Sprite       Sprite        `toml:"sprite"`
	Preview      Preview       `toml:"preview"`
	HWAccel      HWAccel       `toml:"hwaccel"`
	Logging      Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default
// configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/filmstrip/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean
// reports whether a config file existed at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("filmstrip.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the scratch and log directories. Output
// directories are created best-effort so config load still succeeds
// when network storage is temporarily offline.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ScratchDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	for _, dir := range []string{c.Paths.SpriteDir, c.Paths.PreviewDir} {
		if strings.TrimSpace(dir) != "" {
			_ = os.MkdirAll(dir, 0o755)
		}
	}
	return nil
}

// CreateSample writes the embedded sample configuration to the target path.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// ItemTimeout reports the per-item processing deadline.
func (c *Config) ItemTimeout() int {
	if c.Batch.ItemTimeoutSeconds <= 0 {
		return defaultItemTimeoutSeconds
	}
	return c.Batch.ItemTimeoutSeconds
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
