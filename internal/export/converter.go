package export

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

var commandContext = exec.CommandContext

// ErrConverterUnavailable is returned when the conversion binary is missing.
var ErrConverterUnavailable = errors.New("image converter not available")

// Converter turns src into a HEIC file at dst.
type Converter interface {
	Convert(ctx context.Context, src, dst string, quality int) error
}

// SipsOption configures a SipsConverter.
type SipsOption func(*SipsConverter)

// WithBinary overrides the sips executable.
func WithBinary(binary string) SipsOption {
	return func(c *SipsConverter) {
		if strings.TrimSpace(binary) != "" {
			c.binary = binary
		}
	}
}

// WithTimeout bounds each conversion. Zero disables the bound.
func WithTimeout(timeout time.Duration) SipsOption {
	return func(c *SipsConverter) {
		c.timeout = timeout
	}
}

// SipsConverter wraps `sips -s format heic`.
type SipsConverter struct {
	binary  string
	timeout time.Duration
}

// NewSips constructs a converter using defaults.
func NewSips(opts ...SipsOption) *SipsConverter {
	c := &SipsConverter{binary: "sips"}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Available reports ErrConverterUnavailable when the binary is not on PATH.
func (c *SipsConverter) Available() error {
	if _, err := exec.LookPath(c.binary); err != nil {
		return fmt.Errorf("%w: %s", ErrConverterUnavailable, c.binary)
	}
	return nil
}

func (c *SipsConverter) Convert(ctx context.Context, src, dst string, quality int) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	args := []string{"-s", "format", "heic", "-s", "formatOptions", strconv.Itoa(quality), src, "--out", dst}
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrConverterUnavailable, c.binary)
		}
		if ctx.Err() != nil {
			return fmt.Errorf("sips %s: %w", src, ctx.Err())
		}
		return fmt.Errorf("sips %s: %w: %s", src, err, strings.TrimSpace(string(output)))
	}
	return nil
}
