// exrdecode converts OpenEXR scanline images to PNG previews and inspects
// their headers.
//
// Usage:
//
//	exrdecode decode [--out dir] [--exposure stops] [--scale f] <file.exr> ...
//	exrdecode info <file.exr> ...
//	exrdecode check [-q] <file.exr> ...
//	exrdecode convert --compression zip [--type half] <in.exr> <out.exr>
//
// Global flags:
//
//	--workers n      Chunks decoded concurrently per file (0 = all CPUs).
//	--jobs n         Files processed concurrently.
//	--strict         Fail on attributes of unknown type.
//	--log-level lvl  trace, debug, info, warn or error. Defaults to
//	                 $EXRDECODE_LOG_LEVEL, then info.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "exrdecode:", err)
		os.Exit(exitCode(err))
	}
}
