// Package preflight verifies the node can actually do work before a run
// starts: external binaries resolve, the catalog answers, output and
// scratch directories are writable, and the hardware device exists when
// hardware transcoding is requested.
package preflight

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"filmstrip/internal/catalog"
	"filmstrip/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// AllPassed reports whether every check in the set passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// RunAll executes every applicable check for the given config. Checks
// tied to disabled features are skipped.
func RunAll(ctx context.Context, cfg *config.Config, store catalog.Client) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results,
		CheckBinary("ffmpeg", cfg.Tools.FFmpeg),
		CheckBinary("ffprobe", cfg.Tools.FFprobe),
		CheckBinary("videohashes", cfg.Tools.VideoHashes),
	)

	results = append(results, CheckCatalog(ctx, cfg, store))

	results = append(results, CheckDirectoryWritable("Scratch directory", cfg.Paths.ScratchDir))
	if cfg.Sprite.Enabled {
		results = append(results, CheckDirectoryWritable("Sprite directory", cfg.Paths.SpriteDir))
	}
	if cfg.Preview.Enabled {
		results = append(results, CheckDirectoryWritable("Preview directory", cfg.Paths.PreviewDir))
	}

	if cfg.HWAccel.Mode == "on" {
		results = append(results, CheckDevice("VAAPI device", cfg.HWAccel.Device))
	}

	return results
}

// CheckBinary verifies the external tool resolves on PATH or at its
// configured absolute location.
func CheckBinary(name, command string) Result {
	if command == "" {
		return Result{Name: name, Detail: "command not configured"}
	}
	if _, err := exec.LookPath(command); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("binary %q not found", command)}
	}
	return Result{Name: name, Passed: true, Detail: command}
}

// CheckCatalog verifies the catalog answers the lightweight id query.
func CheckCatalog(ctx context.Context, cfg *config.Config, store catalog.Client) Result {
	const name = "Catalog"
	if cfg.Catalog.URL == "" {
		return Result{Name: name, Detail: "missing url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	ids, err := store.FindItemIDs(checkCtx, catalog.Filter{
		MissingFingerprint: "phash",
		ExcludeTagIDs: []int64{
			cfg.Catalog.ProcessingTagID,
			cfg.Catalog.HashErrorTagID,
			cfg.Catalog.CoverErrorTagID,
		},
	})
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d items awaiting processing", len(ids))}
}

// CheckDirectoryWritable verifies the directory exists (creating it when
// absent) and accepts writes.
func CheckDirectoryWritable(name, dir string) Result {
	if dir == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("cannot create: %v", err)}
	}
	probe, err := os.CreateTemp(dir, ".preflight-*")
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("not writable: %v", err)}
	}
	probe.Close()
	os.Remove(probe.Name())
	return Result{Name: name, Passed: true, Detail: filepath.Clean(dir)}
}

// CheckDevice verifies the DRM render node exists.
func CheckDevice(name, device string) Result {
	if device == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	if _, err := os.Stat(device); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("device unavailable: %v", err)}
	}
	return Result{Name: name, Passed: true, Detail: device}
}
