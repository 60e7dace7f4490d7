package testsupport

import (
	"path/filepath"
	"testing"

	"filmstrip/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories and
// usable tag identifiers per test. It applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Catalog.URL = "http://127.0.0.1:9999/graphql"
	cfg.Catalog.ProcessingTagID = 101
	cfg.Catalog.HashErrorTagID = 102
	cfg.Catalog.CoverErrorTagID = 103
	cfg.Paths.SpriteDir = filepath.Join(base, "sprites")
	cfg.Paths.PreviewDir = filepath.Join(base, "previews")
	cfg.Paths.ScratchDir = filepath.Join(base, "scratch")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithCatalogURL overrides the catalog endpoint on the test config.
func WithCatalogURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Catalog.URL = url
	}
}

// WithHardwareMode sets the hardware acceleration mode.
func WithHardwareMode(mode string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.HWAccel.Mode = mode
	}
}
