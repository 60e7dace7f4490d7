// Package videohash wraps the external fingerprinting binary that emits
// perceptual hashes for video files.
package videohash

import (
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strings"

	"filmstrip/internal/services"
)

var commandContext = exec.CommandContext

// Client defines perceptual hash computation.
type Client interface {
	PerceptualHash(ctx context.Context, path string) (string, error)
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// CLI wraps the videohashes command-line tool.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "videohashes"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// PerceptualHash runs the hashing binary and returns the phash value.
func (c *CLI) PerceptualHash(ctx context.Context, path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("videohash: empty path")
	}

	cmd := commandContext(ctx, c.binary, "-json", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "hashing", "run videohashes",
			strings.TrimSpace(string(output)), err)
	}

	var payload struct {
		PHash string `json:"phash"`
	}
	if err := json.Unmarshal(output, &payload); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "hashing", "parse output", "", err)
	}
	if payload.PHash == "" {
		return "", services.Wrap(services.ErrExternalTool, "hashing", "parse output", "missing phash field", nil)
	}
	return payload.PHash, nil
}

var _ Client = (*CLI)(nil)
