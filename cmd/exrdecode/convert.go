package main

import (
	"github.com/spf13/cobra"

	"github.com/mrjoshuak/exrview/exr"
	"github.com/mrjoshuak/exrview/internal/logging"
)

func newConvertCommand(cfg *config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <in.exr> <out.exr>",
		Short: "Rewrite a file as RGBA with another compression",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := cfg.encodeOptions()
			if err != nil {
				return err
			}
			img, err := exr.DecodeFileContext(cmd.Context(), args[0], cfg.decodeOptions())
			if err == nil {
				err = exr.EncodeFile(args[1], img, opts)
			}
			if err != nil {
				logging.Error().Err(err).Str("in", args[0]).Str("out", args[1]).Msg("convert failed")
				return &exitError{code: exitFailed, err: err}
			}
			logging.Info().
				Str("in", args[0]).
				Str("out", args[1]).
				Stringer("compression", opts.Compression).
				Stringer("type", opts.PixelType).
				Msg("converted")
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&cfg.compression, "compression", cfg.compression, "output compression: none, rle, zips, zip or pxr24")
	fs.StringVar(&cfg.pixelType, "type", cfg.pixelType, "output pixel type: half or float")
	return cmd
}
