package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/mrjoshuak/exrview/exr"
	"github.com/mrjoshuak/exrview/internal/logging"
)

// logLevelEnv names the environment variable consulted when --log-level is
// not given.
const logLevelEnv = "EXRDECODE_LOG_LEVEL"

const maxScale = 16

// config holds the flags shared by all subcommands plus the per-command
// ones; each subcommand binds only what it uses.
type config struct {
	workers  int
	jobs     int
	strict   bool
	logLevel string

	out      string
	exposure float64
	scale    float64

	compression string
	pixelType   string

	quiet bool
}

func defaultConfig() *config {
	return &config{
		jobs:        runtime.GOMAXPROCS(0),
		out:         ".",
		scale:       1,
		compression: exr.CompressionZIP.String(),
		pixelType:   exr.PixelTypeFloat.String(),
	}
}

func (c *config) bindGlobal(fs *pflag.FlagSet) {
	fs.IntVar(&c.workers, "workers", c.workers, "chunks decoded concurrently per file (0 = all CPUs)")
	fs.IntVar(&c.jobs, "jobs", c.jobs, "files processed concurrently")
	fs.BoolVar(&c.strict, "strict", c.strict, "fail on attributes of unknown type")
	fs.StringVar(&c.logLevel, "log-level", c.logLevel, "log level (default $"+logLevelEnv+" or info)")
}

// level resolves the log level from the flag, then the environment.
func (c *config) level(flagSet bool) (zerolog.Level, error) {
	s := c.logLevel
	if !flagSet {
		s = os.Getenv(logLevelEnv)
	}
	return logging.ParseLevel(s)
}

func (c *config) decodeOptions() exr.DecodeOptions {
	opts := exr.DefaultDecodeOptions()
	opts.Workers = c.workers
	opts.Strict = c.strict
	return opts
}

func (c *config) encodeOptions() (exr.EncodeOptions, error) {
	opts := exr.DefaultEncodeOptions()
	opts.Workers = c.workers

	comp, ok := exr.ParseCompression(c.compression)
	if !ok || !comp.Supported() {
		return opts, fmt.Errorf("unsupported output compression %q", c.compression)
	}
	opts.Compression = comp

	switch c.pixelType {
	case "half":
		opts.PixelType = exr.PixelTypeHalf
	case "float":
		opts.PixelType = exr.PixelTypeFloat
	default:
		return opts, fmt.Errorf("unsupported output pixel type %q", c.pixelType)
	}
	return opts, nil
}

func (c *config) validate() error {
	if c.jobs < 1 {
		return fmt.Errorf("--jobs must be at least 1, got %d", c.jobs)
	}
	if c.workers < 0 {
		return fmt.Errorf("--workers must not be negative, got %d", c.workers)
	}
	if !(c.scale > 0 && c.scale <= maxScale) {
		return fmt.Errorf("--scale must be in (0, %g], got %g", float64(maxScale), c.scale)
	}
	return nil
}
