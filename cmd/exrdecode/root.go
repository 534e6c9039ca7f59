package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/mrjoshuak/exrview/internal/logging"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1 // one or more inputs failed to decode or validate
	exitUsage  = 2 // bad flags, unreadable files
)

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var e *exitError
	if errors.As(err, &e) {
		return e.code
	}
	return exitUsage
}

func newRootCommand() *cobra.Command {
	cfg := defaultConfig()
	root := &cobra.Command{
		Use:           "exrdecode",
		Short:         "Decode OpenEXR scanline images",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := cfg.level(cmd.Flags().Changed("log-level"))
			if err != nil {
				return err
			}
			logging.Init(cmd.ErrOrStderr(), level)
			return cfg.validate()
		},
	}
	cfg.bindGlobal(root.PersistentFlags())
	root.AddCommand(
		newDecodeCommand(cfg),
		newInfoCommand(cfg),
		newCheckCommand(cfg),
		newConvertCommand(cfg),
	)
	return root
}
