package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCatalog()
	c.normalizeTools()
	c.normalizeBatch()
	c.normalizeHWAccel()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.SpriteDir, err = expandPath(c.Paths.SpriteDir); err != nil {
		return fmt.Errorf("paths.sprite_dir: %w", err)
	}
	if c.Paths.PreviewDir, err = expandPath(c.Paths.PreviewDir); err != nil {
		return fmt.Errorf("paths.preview_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		c.Paths.ScratchDir = defaultScratchDir
	}
	if c.Paths.ScratchDir, err = expandPath(c.Paths.ScratchDir); err != nil {
		return fmt.Errorf("paths.scratch_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCatalog() {
	c.Catalog.URL = strings.TrimRight(strings.TrimSpace(c.Catalog.URL), "/")
	if c.Catalog.APIKey == "" {
		if value, ok := os.LookupEnv("FILMSTRIP_CATALOG_API_KEY"); ok {
			c.Catalog.APIKey = strings.TrimSpace(value)
		}
	}
	if c.Catalog.RequestTimeout <= 0 {
		c.Catalog.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeTools() {
	if strings.TrimSpace(c.Tools.FFmpeg) == "" {
		c.Tools.FFmpeg = defaultFFmpegBinary
	}
	if strings.TrimSpace(c.Tools.FFprobe) == "" {
		c.Tools.FFprobe = defaultFFprobeBinary
	}
	if strings.TrimSpace(c.Tools.VideoHashes) == "" {
		c.Tools.VideoHashes = defaultVideoHashesBinary
	}
}

func (c *Config) normalizeBatch() {
	if c.Batch.PageSize <= 0 {
		c.Batch.PageSize = defaultPageSize
	}
	if c.Batch.Workers <= 0 {
		c.Batch.Workers = defaultWorkers
	}
	if c.Batch.ItemTimeoutSeconds <= 0 {
		c.Batch.ItemTimeoutSeconds = defaultItemTimeoutSeconds
	}
	if c.Batch.PauseSeconds < 0 {
		c.Batch.PauseSeconds = defaultPauseSeconds
	}
}

func (c *Config) normalizeHWAccel() {
	c.HWAccel.Mode = strings.ToLower(strings.TrimSpace(c.HWAccel.Mode))
	if c.HWAccel.Mode == "" {
		c.HWAccel.Mode = defaultHWAccelMode
	}
	c.HWAccel.Device = strings.TrimSpace(c.HWAccel.Device)
	if c.HWAccel.Device == "" {
		c.HWAccel.Device = defaultHWAccelDevice
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
