package main

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mrjoshuak/exrview/exr"
	"github.com/mrjoshuak/exrview/internal/logging"
)

func newDecodeCommand(cfg *config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <file.exr> ...",
		Short: "Write a tone-mapped PNG preview of each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(cmd.Context(), cfg, args)
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&cfg.out, "out", "o", cfg.out, "output directory")
	fs.Float64Var(&cfg.exposure, "exposure", cfg.exposure, "exposure adjustment in stops")
	fs.Float64Var(&cfg.scale, "scale", cfg.scale, "preview scale factor")
	return cmd
}

// runDecode decodes files on up to cfg.jobs goroutines. A failing file is
// logged and counted; it does not stop the others.
func runDecode(ctx context.Context, cfg *config, files []string) error {
	if err := os.MkdirAll(cfg.out, 0o755); err != nil {
		return err
	}

	logger := logging.With().Str("run", logging.NewRunID()).Logger()
	logger.Info().Int("files", len(files)).Int("jobs", cfg.jobs).Msg("decoding")

	var failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(cfg.jobs)
	for _, file := range files {
		file := file
		g.Go(func() error {
			log := logger.With().Str("file", file).Logger()
			out, err := decodeOne(ctx, cfg, file)
			if err != nil {
				failed.Add(1)
				logDecodeError(&log, err)
				return nil
			}
			log.Info().Str("png", out).Msg("wrote preview")
			return nil
		})
	}
	// Workers return nil; failures are counted instead.
	_ = g.Wait()

	if n := failed.Load(); n > 0 {
		return &exitError{code: exitFailed, err: fmt.Errorf("%d of %d files failed", n, len(files))}
	}
	return ctx.Err()
}

func decodeOne(ctx context.Context, cfg *config, file string) (string, error) {
	img, err := exr.DecodeFileContext(ctx, file, cfg.decodeOptions())
	if err != nil {
		return "", err
	}
	preview := toneMap(img, cfg.exposure)
	if cfg.scale != 1 {
		preview = scaleImage(preview, cfg.scale)
	}

	out := filepath.Join(cfg.out, strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))+".png")
	f, err := os.Create(out)
	if err != nil {
		return "", err
	}
	if err := png.Encode(f, preview); err != nil {
		f.Close()
		return "", err
	}
	return out, f.Close()
}

func logDecodeError(log *zerolog.Logger, err error) {
	ev := log.Error().Err(err)
	var de *exr.DecodeError
	if errors.As(err, &de) {
		ev = ev.Str("kind", de.Kind.String())
	}
	ev.Msg("decode failed")
}
