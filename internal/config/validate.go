package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	if err := c.validateSprite(); err != nil {
		return err
	}
	if err := c.validatePreview(); err != nil {
		return err
	}
	if err := c.validateHWAccel(); err != nil {
		return err
	}
	if err := c.validateTranslations(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if strings.TrimSpace(c.Catalog.URL) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/filmstrip/config.toml"
		}
		return fmt.Errorf("catalog.url is required. Edit %s (create with 'filmstrip config init')", defaultPath)
	}
	if c.Catalog.ProcessingTagID <= 0 {
		return errors.New("catalog.processing_tag_id must be a positive tag identifier")
	}
	if c.Catalog.HashErrorTagID <= 0 {
		return errors.New("catalog.hash_error_tag_id must be a positive tag identifier")
	}
	if c.Catalog.CoverErrorTagID <= 0 {
		return errors.New("catalog.cover_error_tag_id must be a positive tag identifier")
	}
	return nil
}

func (c *Config) validateBatch() error {
	if c.Batch.PageSize < 1 {
		return errors.New("batch.page_size must be at least 1")
	}
	if c.Batch.Workers < 1 {
		return errors.New("batch.workers must be at least 1")
	}
	return nil
}

func (c *Config) validateSprite() error {
	if !c.Sprite.Enabled {
		return nil
	}
	if c.Sprite.Columns < 1 || c.Sprite.Rows < 1 {
		return errors.New("sprite.columns and sprite.rows must be at least 1")
	}
	if c.Sprite.TileWidth < 1 || c.Sprite.TileHeight < 1 {
		return errors.New("sprite.tile_width and sprite.tile_height must be at least 1")
	}
	if c.Sprite.Shots < 1 {
		return errors.New("sprite.shots must be at least 1")
	}
	if c.Sprite.Shots > c.Sprite.Columns*c.Sprite.Rows {
		return fmt.Errorf("sprite.shots (%d) exceeds grid capacity %dx%d", c.Sprite.Shots, c.Sprite.Columns, c.Sprite.Rows)
	}
	return nil
}

func (c *Config) validatePreview() error {
	if !c.Preview.Enabled {
		return nil
	}
	if c.Preview.Clips < 1 {
		return errors.New("preview.clips must be at least 1")
	}
	if c.Preview.ClipLength <= 0 {
		return errors.New("preview.clip_length must be positive")
	}
	if c.Preview.SkipSeconds < 0 {
		return errors.New("preview.skip_seconds must not be negative")
	}
	if c.Preview.Width < 2 || c.Preview.Height < 2 {
		return errors.New("preview.width and preview.height must be at least 2")
	}
	return nil
}

func (c *Config) validateHWAccel() error {
	switch c.HWAccel.Mode {
	case "auto", "on", "off":
		return nil
	default:
		return fmt.Errorf("hwaccel.mode must be one of auto, on, off (got %q)", c.HWAccel.Mode)
	}
}

func (c *Config) validateTranslations() error {
	for i, tr := range c.Translations {
		if strings.TrimSpace(tr.CatalogPrefix) == "" {
			return fmt.Errorf("translations[%d].catalog_prefix must not be empty", i)
		}
		if strings.TrimSpace(tr.LocalPrefix) == "" {
			return fmt.Errorf("translations[%d].local_prefix must not be empty", i)
		}
	}
	return nil
}
