package config

const (
	defaultCatalogURL     = "http://127.0.0.1:9999/graphql"
	defaultRequestTimeout = 30

	defaultSpriteDir  = "~/.local/share/filmstrip/generated/vtt"
	defaultPreviewDir = "~/.local/share/filmstrip/generated/previews"
	defaultScratchDir = "~/.local/share/filmstrip/scratch"
	defaultLogDir     = "~/.local/share/filmstrip/logs"

	defaultFFmpegBinary      = "ffmpeg"
	defaultFFprobeBinary     = "ffprobe"
	defaultVideoHashesBinary = "videohashes"

	defaultPageSize           = 25
	defaultWorkers            = 4
	defaultItemTimeoutSeconds = 600
	defaultPauseSeconds       = 5

	defaultSpriteShots      = 81
	defaultSpriteColumns    = 9
	defaultSpriteRows       = 9
	defaultSpriteTileWidth  = 160
	defaultSpriteTileHeight = 90

	defaultPreviewClips       = 15
	defaultPreviewClipLength  = 1.0
	defaultPreviewSkipSeconds = 15.0
	defaultPreviewWidth       = 640
	defaultPreviewHeight      = 360

	defaultHWAccelMode   = "auto"
	defaultHWAccelDevice = "/dev/dri/renderD128"

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Catalog: Catalog{
			URL:            defaultCatalogURL,
			RequestTimeout: defaultRequestTimeout,
		},
		Paths: Paths{
			SpriteDir:  defaultSpriteDir,
			PreviewDir: defaultPreviewDir,
			ScratchDir: defaultScratchDir,
			LogDir:     defaultLogDir,
		},
		Tools: Tools{
			FFmpeg:      defaultFFmpegBinary,
			FFprobe:     defaultFFprobeBinary,
			VideoHashes: defaultVideoHashesBinary,
		},
		Batch: Batch{
			PageSize:           defaultPageSize,
			Workers:            defaultWorkers,
			ItemTimeoutSeconds: defaultItemTimeoutSeconds,
			PauseSeconds:       defaultPauseSeconds,
		},
		Sprite: Sprite{
			Enabled:    true,
			Shots:      defaultSpriteShots,
			Columns:    defaultSpriteColumns,
			Rows:       defaultSpriteRows,
			TileWidth:  defaultSpriteTileWidth,
			TileHeight: defaultSpriteTileHeight,
		},
		Preview: Preview{
			Enabled:     true,
			Clips:       defaultPreviewClips,
			ClipLength:  defaultPreviewClipLength,
			SkipSeconds: defaultPreviewSkipSeconds,
			Width:       defaultPreviewWidth,
			Height:      defaultPreviewHeight,
		},
		HWAccel: HWAccel{
			Mode:   defaultHWAccelMode,
			Device: defaultHWAccelDevice,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
